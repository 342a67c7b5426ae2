// Package me реализует HTTP-обработчик профиля текущего пользователя.
package me

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/tutor-platform/internal/api/middlewarectx"
	"github.com/magabrotheeeer/tutor-platform/internal/api/response"
	"github.com/magabrotheeeer/tutor-platform/internal/entitlement"
	"github.com/magabrotheeeer/tutor-platform/internal/services/access"
)

// Handler отдаёт баланс, подписку и уровень доступа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service строит профиль по сессии.
type Service interface {
	Profile(ctx context.Context, session entitlement.Session) access.Profile
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Профиль текущего пользователя
// @Tags Profile
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.OKResponse{data=access.Profile} "Профиль"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Router /me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.me"

	session, ok := middlewarectx.SessionFrom(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.ErrorWithCode("unauthorized", response.CodeUnauthorized))
		return
	}

	profile := h.service.Profile(r.Context(), session)
	h.log.Debug("profile served",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("uid", session.User.UID))
	render.JSON(w, r, response.OKWithData(profile))
}
