// Package open реализует HTTP-обработчик открытия главы.
//
// Обработчик проверяет доступ, при необходимости списывает кредиты и
// возвращает артефакт с уровня хранения, где он нашёлся, либо свежесгенерированный.
package open

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
	"github.com/magabrotheeeer/tutor-platform/internal/ledger"
	"github.com/magabrotheeeer/tutor-platform/internal/lib/sl"
	"github.com/magabrotheeeer/tutor-platform/internal/models"
	"github.com/magabrotheeeer/tutor-platform/internal/services/access"
)

// Handler обрабатывает запросы на открытие контента.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service открывает контент.
type Service interface {
	Open(ctx context.Context, session entitlement.Session, req models.ContentRequest) (*access.Result, error)
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
// @Summary Открыть главу
// @Description Возвращает материал главы. Платный контент без подходящей подписки списывает кредиты.
// @Tags Content
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.ContentRequest true "Глава и тип материала"
// @Success 200 {object} response.OKResponse{data=access.Result} "Материал и баланс после списания"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 402 {object} response.ErrorResponse "Недостаточно кредитов"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Генератор контента недоступен"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /content/open [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.content.open"

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

	var req models.ContentRequest
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

	res, err := h.service.Open(r.Context(), session, req)
	switch {
	case err == nil:
	case errors.Is(err, ledger.ErrInsufficientCredits):
		log.Info("insufficient credits", slog.String("uid", session.User.UID), slog.Int("balance", session.User.Credits))
		w.WriteHeader(http.StatusPaymentRequired)
		render.JSON(w, r, response.ErrorWithCode("insufficient credits", response.CodeInsufficientCredits))
		return
	case errors.Is(err, access.ErrInvalidRequest):
		log.Info("invalid content request", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ErrorWithCode("unsupported content type", response.CodeInvalidRequest))
		return
	case errors.Is(err, access.ErrProducer):
		log.Error("content generation failed", sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.ErrorWithCode("content generation failed, try again later", response.CodeProducerFailed))
		return
	default:
		log.Error("failed to open content", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.ErrorWithCode("failed to open content", response.CodeInternal))
		return
	}

	log.Info("content opened",
		slog.String("uid", res.User.UID),
		slog.String("source", res.Source),
		slog.Int("cost", res.Cost),
		slog.Int("balance", res.User.Credits))
	render.JSON(w, r, response.OKWithData(res))
}
