// Package userlist реализует HTTP-обработчик списка пользователей.
package userlist

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/tutor-platform/internal/api/middlewarectx"
	"github.com/magabrotheeeer/tutor-platform/internal/api/response"
	"github.com/magabrotheeeer/tutor-platform/internal/entitlement"
	"github.com/magabrotheeeer/tutor-platform/internal/lib/sl"
	"github.com/magabrotheeeer/tutor-platform/internal/models"
	"github.com/magabrotheeeer/tutor-platform/internal/services/admin"
)

// Handler отдаёт страницу пользователей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service читает пользователей.
type Service interface {
	ListUsers(ctx context.Context, session entitlement.Session, limit, offset int) ([]*models.User, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список пользователей
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param limit query int false "Размер страницы" default(100)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {object} response.OKResponse{data=[]models.User} "Пользователи"
// @Failure 400 {object} response.ErrorResponse "Некорректные параметры пагинации"
// @Failure 403 {object} response.ErrorResponse "Нужна роль администратора"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/users [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.userlist"

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

	limit, err := queryInt(r, "limit")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ErrorWithCode("invalid limit", response.CodeInvalidRequest))
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ErrorWithCode("invalid offset", response.CodeInvalidRequest))
		return
	}

	users, err := h.service.ListUsers(r.Context(), session, limit, offset)
	if errors.Is(err, admin.ErrForbidden) {
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.ErrorWithCode("admin role required", response.CodeForbidden))
		return
	}
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.ErrorWithCode("failed to list users", response.CodeInternal))
		return
	}

	log.Debug("users listed", slog.Int("count", len(users)))
	render.JSON(w, r, response.OKWithData(users))
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
