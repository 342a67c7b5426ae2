package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/tutor-platform/internal/api/response"
)

// limiter общий ограничитель запросов API: 20 в секунду, всплеск до 40.
var limiter = rate.NewLimiter(20, 40)

// RateLimitMiddleware отвечает 429, когда ограничитель исчерпан.
func RateLimitMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.Warn("rate limit exceeded",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("path", r.URL.Path))
				w.WriteHeader(http.StatusTooManyRequests)
				render.JSON(w, r, response.ErrorWithCode("too many requests", response.CodeRateLimited))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
