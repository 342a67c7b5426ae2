// Package upload реализует HTTP-обработчик загрузки и правки учебного материала.
package upload

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/tutor-platform/internal/api/middlewarectx"
	"github.com/magabrotheeeer/tutor-platform/internal/api/response"
	"github.com/magabrotheeeer/tutor-platform/internal/entitlement"
	"github.com/magabrotheeeer/tutor-platform/internal/lib/sl"
	"github.com/magabrotheeeer/tutor-platform/internal/services/admin"
)

// Handler принимает материал от администратора.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service записывает материал во все уровни хранения.
type Service interface {
	UploadContent(ctx context.Context, session entitlement.Session, req admin.UploadRequest) (string, error)
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
// @Summary Загрузить материал главы
// @Description Записывает артефакт по ключу главы. Незаданные поля сохраняются из прежней версии.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body admin.UploadRequest true "Глава и артефакт"
// @Success 200 {object} map[string]any "Ключ записанного артефакта"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Нужна роль администратора"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/content [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.upload"

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

	var req admin.UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ErrorWithCode("invalid request body", response.CodeInvalidRequest))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	key, err := h.service.UploadContent(r.Context(), session, req)
	switch {
	case err == nil:
	case errors.Is(err, admin.ErrForbidden):
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.ErrorWithCode("admin role required", response.CodeForbidden))
		return
	case errors.Is(err, admin.ErrInvalidInput):
		log.Info("upload rejected", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ErrorWithCode("invalid content type, stream or price", response.CodeValidation))
		return
	default:
		log.Error("failed to upload content", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.ErrorWithCode("failed to upload content", response.CodeInternal))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{"key": key}))
}
