// Package submit реализует HTTP-обработчик сдачи еженедельного теста.
package submit

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
	"github.com/magabrotheeeer/tutor-platform/internal/services/weeklytest"
)

// Handler принимает ответы на тест.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service сохраняет попытку.
type Service interface {
	Submit(ctx context.Context, session entitlement.Session, sub weeklytest.Submission) (*models.TestAttempt, error)
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
// @Summary Сдать еженедельный тест
// @Tags Tests
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID теста"
// @Param request body weeklytest.Submission true "Ответы"
// @Success 200 {object} response.OKResponse{data=models.TestAttempt} "Результат"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /tests/{id}/submit [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.tests.submit"

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

	var sub weeklytest.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ErrorWithCode("invalid request body", response.CodeInvalidRequest))
		return
	}
	sub.TestID = chi.URLParam(r, "id")

	if err := h.validate.Struct(sub); err != nil {
		log.Info("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	attempt, err := h.service.Submit(r.Context(), session, sub)
	if errors.Is(err, weeklytest.ErrInvalidAttempt) {
		log.Info("attempt rejected", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ErrorWithCode("correct answers out of range", response.CodeValidation))
		return
	}
	if err != nil {
		log.Error("failed to submit test", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.ErrorWithCode("failed to submit test", response.CodeInternal))
		return
	}

	log.Info("test submitted", slog.String("test_id", attempt.TestID), slog.Int("score", attempt.Score))
	render.JSON(w, r, response.OKWithData(attempt))
}
