// Package impersonate реализует вход администратора от имени ученика.
//
// Выданный токен несёт обоих пользователей: права считаются по ученику,
// списания не выполняются, в журнал пишется администратор.
package impersonate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/tutor-platform/internal/api/middlewarectx"
	"github.com/magabrotheeeer/tutor-platform/internal/api/response"
	"github.com/magabrotheeeer/tutor-platform/internal/entitlement"
	"github.com/magabrotheeeer/tutor-platform/internal/lib/sl"
	"github.com/magabrotheeeer/tutor-platform/internal/services/auth"
)

// Handler обрабатывает запросы имперсонации.
type Handler struct {
	log         *slog.Logger
	authService AuthService
}

// AuthService выдаёт токен имперсонации.
type AuthService interface {
	Impersonate(ctx context.Context, session entitlement.Session, targetUID string) (*auth.Principal, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, authService AuthService) *Handler {
	return &Handler{log: log, authService: authService}
}

// ServeHTTP godoc
// @Summary Войти от имени ученика
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param id path string true "UID ученика"
// @Success 200 {object} response.OKResponse{data=auth.Principal} "Токен имперсонации"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 403 {object} response.ErrorResponse "Имперсонация запрещена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/users/{id}/impersonate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.impersonate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	session, ok := middlewarectx.SessionFrom(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.ErrorWithCode("unauthorized", response.CodeUnauthorized))
		return
	}

	targetUID := chi.URLParam(r, "id")
	principal, err := h.authService.Impersonate(r.Context(), session, targetUID)
	if err != nil {
		var aerr *auth.AuthError
		if errors.As(err, &aerr) {
			log.Warn("impersonation rejected", slog.String("target", targetUID), slog.String("reason", aerr.Reason))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.ErrorWithCode(aerr.Reason, response.CodeForbidden))
			return
		}
		log.Error("impersonation failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.ErrorWithCode("failed to impersonate", response.CodeInternal))
		return
	}

	log.Info("impersonation started", slog.String("admin", session.User.UID), slog.String("target", principal.User.UID))
	render.JSON(w, r, response.OKWithData(principal))
}
