// Package userupdate реализует HTTP-обработчик правки учётной записи администратором:
// баланс, тариф, срок подписки, блокировка и архивирование.
package userupdate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/tutor-platform/internal/api/middlewarectx"
	"github.com/magabrotheeeer/tutor-platform/internal/api/response"
	"github.com/magabrotheeeer/tutor-platform/internal/entitlement"
	"github.com/magabrotheeeer/tutor-platform/internal/lib/sl"
	"github.com/magabrotheeeer/tutor-platform/internal/models"
	"github.com/magabrotheeeer/tutor-platform/internal/services/admin"
	"github.com/magabrotheeeer/tutor-platform/internal/storage/repository"
)

// Handler обрабатывает правку пользователя.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service применяет изменения.
type Service interface {
	UpdateUser(ctx context.Context, session entitlement.Session, userUID string, upd models.UserUpdate) (*models.User, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Изменить пользователя
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "UID пользователя"
// @Param request body models.UserUpdate true "Изменяемые поля"
// @Success 200 {object} response.OKResponse{data=models.User} "Обновлённый пользователь"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Нужна роль администратора"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/users/{id} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.userupdate"

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

	var upd models.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ErrorWithCode("invalid request body", response.CodeInvalidRequest))
		return
	}

	if err := h.validate.Struct(upd); err != nil {
		log.Info("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	userUID := chi.URLParam(r, "id")
	updated, err := h.service.UpdateUser(r.Context(), session, userUID, upd)
	switch {
	case err == nil:
	case errors.Is(err, admin.ErrForbidden):
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.ErrorWithCode("admin role required", response.CodeForbidden))
		return
	case errors.Is(err, repository.ErrUserNotFound):
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.ErrorWithCode("user not found", response.CodeNotFound))
		return
	default:
		log.Error("failed to update user", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.ErrorWithCode("failed to update user", response.CodeInternal))
		return
	}

	log.Info("user updated", slog.String("uid", updated.UID), slog.Int("credits", updated.Credits))
	render.JSON(w, r, response.OKWithData(updated))
}
