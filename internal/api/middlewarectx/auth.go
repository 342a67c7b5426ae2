package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/tutor-platform/internal/api/response"
	"github.com/magabrotheeeer/tutor-platform/internal/entitlement"
	"github.com/magabrotheeeer/tutor-platform/internal/lib/sl"
	"github.com/magabrotheeeer/tutor-platform/internal/services/auth"
)

// TokenParser восстанавливает сессию по токену.
type TokenParser interface {
	ParseToken(ctx context.Context, token string) (entitlement.Session, error)
}

// JWTMiddleware проверяет Bearer-токен и кладёт сессию в контекст.
func JWTMiddleware(log *slog.Logger, parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") || strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")) == "" {
				log.Warn("missing or invalid authorization header")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.ErrorWithCode("missing or invalid authorization header", response.CodeUnauthorized))
				return
			}

			session, err := parser.ParseToken(r.Context(), strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				var aerr *auth.AuthError
				if errors.As(err, &aerr) {
					log.Info("token rejected", sl.Err(err))
					w.WriteHeader(http.StatusUnauthorized)
					render.JSON(w, r, response.ErrorWithCode(aerr.Reason, response.CodeUnauthorized))
					return
				}
				log.Error("failed to restore session", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.ErrorWithCode("internal error", response.CodeInternal))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// AdminOnly пропускает только администраторов. Имперсонация прав администратора не даёт.
func AdminOnly(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFrom(r.Context())
			if !ok {
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.ErrorWithCode("unauthorized", response.CodeUnauthorized))
				return
			}
			if !session.User.IsAdmin() {
				log.Warn("admin route denied",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("user_uid", session.User.UID))
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.ErrorWithCode("admin role required", response.CodeForbidden))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
