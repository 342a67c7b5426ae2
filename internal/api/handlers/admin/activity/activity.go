// Package activity реализует HTTP-обработчик просмотра журнала действий.
package activity

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

// Handler отдаёт последние записи журнала.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service читает журнал.
type Service interface {
	ListActivity(ctx context.Context, session entitlement.Session, limit int) ([]models.ActivityEntry, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Журнал действий
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param limit query int false "Сколько последних записей вернуть"
// @Success 200 {object} response.OKResponse{data=[]models.ActivityEntry} "Записи, новые в конце"
// @Failure 400 {object} response.ErrorResponse "Некорректный limit"
// @Failure 403 {object} response.ErrorResponse "Нужна роль администратора"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/activity [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.activity"

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

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.ErrorWithCode("invalid limit", response.CodeInvalidRequest))
			return
		}
		limit = n
	}

	entries, err := h.service.ListActivity(r.Context(), session, limit)
	if errors.Is(err, admin.ErrForbidden) {
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.ErrorWithCode("admin role required", response.CodeForbidden))
		return
	}
	if err != nil {
		log.Error("failed to list activity", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.ErrorWithCode("failed to list activity", response.CodeInternal))
		return
	}

	render.JSON(w, r, response.OKWithData(entries))
}
