// Package settings реализует HTTP-обработчик сохранения глобальных настроек.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/tutor-platform/internal/api/middlewarectx"
	"github.com/magabrotheeeer/tutor-platform/internal/api/response"
	"github.com/magabrotheeeer/tutor-platform/internal/entitlement"
	"github.com/magabrotheeeer/tutor-platform/internal/lib/sl"
	"github.com/magabrotheeeer/tutor-platform/internal/models"
	"github.com/magabrotheeeer/tutor-platform/internal/services/admin"
)

// Handler сохраняет настройки платформы.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service сохраняет настройки.
type Service interface {
	SaveSettings(ctx context.Context, session entitlement.Session, settings models.Settings) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Сохранить настройки платформы
// @Description Полностью заменяет глобальные настройки. Все экземпляры получают их по подписке.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.Settings true "Настройки"
// @Success 200 {object} response.OKResponse{data=models.Settings} "Сохранённые настройки"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Нужна роль администратора"
// @Failure 422 {object} response.ErrorResponse "Недопустимые значения"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/settings [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.settings"

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

	var settings models.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ErrorWithCode("invalid request body", response.CodeInvalidRequest))
		return
	}

	err := h.service.SaveSettings(r.Context(), session, settings)
	switch {
	case err == nil:
	case errors.Is(err, admin.ErrForbidden):
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.ErrorWithCode("admin role required", response.CodeForbidden))
		return
	case errors.Is(err, admin.ErrInvalidInput):
		log.Info("settings rejected", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ErrorWithCode("credit amounts must not be negative", response.CodeValidation))
		return
	default:
		log.Error("failed to save settings", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.ErrorWithCode("failed to save settings", response.CodeInternal))
		return
	}

	log.Info("settings saved", slog.Bool("maintenance", settings.MaintenanceMode), slog.Bool("allow_signup", settings.AllowSignup))
	render.JSON(w, r, response.OKWithData(settings))
}
