// Package transactions реализует HTTP-обработчик истории списаний и начислений кредитов.
package transactions

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/tutor-platform/internal/api/middlewarectx"
	"github.com/magabrotheeeer/tutor-platform/internal/api/response"
	"github.com/magabrotheeeer/tutor-platform/internal/lib/sl"
	"github.com/magabrotheeeer/tutor-platform/internal/models"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Handler отдаёт журнал транзакций текущего пользователя.
type Handler struct {
	log     *slog.Logger
	storage Storage
}

// Storage читает журнал транзакций.
type Storage interface {
	ListCreditTransactions(ctx context.Context, userUID string, limit int) ([]models.CreditTransaction, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, storage Storage) *Handler {
	return &Handler{log: log, storage: storage}
}

// ServeHTTP godoc
// @Summary История баланса
// @Tags Profile
// @Produce  json
// @Security BearerAuth
// @Param limit query int false "Сколько записей вернуть" default(50)
// @Success 200 {object} response.OKResponse{data=[]models.CreditTransaction} "Транзакции, новые первыми"
// @Failure 400 {object} response.ErrorResponse "Некорректный limit"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /me/transactions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.transactions"

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

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.ErrorWithCode("invalid limit", response.CodeInvalidRequest))
			return
		}
		limit = min(n, maxLimit)
	}

	txs, err := h.storage.ListCreditTransactions(r.Context(), session.User.UID, limit)
	if err != nil {
		log.Error("failed to list transactions", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.ErrorWithCode("failed to list transactions", response.CodeInternal))
		return
	}
	if txs == nil {
		txs = []models.CreditTransaction{}
	}

	render.JSON(w, r, response.OKWithData(txs))
}
