// Package login реализует HTTP-обработчик входа по username, email или телефону.
package login

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

// Request входные данные для входа.
type Request struct {
	Identity string `json:"identity" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Handler обрабатывает запросы входа.
type Handler struct {
	log         *slog.Logger
	authService AuthService
	validate    *validator.Validate
}

// AuthService проверяет учётные данные.
type AuthService interface {
	SignIn(ctx context.Context, identity, secret string) (*auth.Principal, error)
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
// @Summary Вход пользователя
// @Description Проверяет пароль и возвращает JWT-токен
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учётные данные"
// @Success 200 {object} response.OKResponse{data=auth.Principal} "Успешный вход"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверные учётные данные или аккаунт заблокирован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации данных"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /auth/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
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

	principal, err := h.authService.SignIn(r.Context(), req.Identity, req.Password)
	if err != nil {
		var aerr *auth.AuthError
		if errors.As(err, &aerr) {
			log.Info("login rejected", slog.String("identity", req.Identity), slog.String("reason", aerr.Reason))
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.ErrorWithCode(aerr.Reason, response.CodeAuthFailed))
			return
		}
		log.Error("login failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.ErrorWithCode("failed to login", response.CodeInternal))
		return
	}

	log.Info("login success", slog.String("uid", principal.User.UID))
	render.JSON(w, r, response.OKWithData(principal))
}
