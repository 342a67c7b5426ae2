// Package register реализует HTTP-обработчик регистрации ученика.
package register

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/tutor-platform/internal/api/response"
	"github.com/magabrotheeeer/tutor-platform/internal/lib/sl"
	"github.com/magabrotheeeer/tutor-platform/internal/services/auth"
)

// Handler обрабатывает запросы регистрации.
type Handler struct {
	log         *slog.Logger
	authService AuthService
	validate    *validator.Validate
}

// AuthService регистрирует пользователей.
type AuthService interface {
	SignUp(ctx context.Context, req auth.SignUpRequest) (*auth.Principal, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, authService AuthService) *Handler {
	return &Handler{
		log:         log,
		authService: authService,
		validate:    validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Регистрация ученика
// @Description Создает учётную запись ученика, начисляет стартовый бонус и возвращает токен
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body auth.SignUpRequest true "Данные нового ученика"
// @Success 200 {object} response.OKResponse{data=auth.Principal} "Успешная регистрация"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или регистрация отклонена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации данных"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /auth/register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req auth.SignUpRequest
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

	principal, err := h.authService.SignUp(r.Context(), req)
	if err != nil {
		var aerr *auth.AuthError
		if errors.As(err, &aerr) {
			log.Info("registration rejected", slog.String("username", req.Username), slog.String("reason", aerr.Reason))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.ErrorWithCode(aerr.Reason, response.CodeAuthFailed))
			return
		}
		log.Error("registration failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.ErrorWithCode("failed to register user", response.CodeInternal))
		return
	}

	log.Info("register success", slog.String("username", principal.User.Username), slog.String("uid", principal.User.UID))
	render.JSON(w, r, response.OKWithData(principal))
}
