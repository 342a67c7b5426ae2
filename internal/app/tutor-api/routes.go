package tutorapi

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/tutor-platform/internal/api/handlers/admin/activity"
	adminsettings "github.com/magabrotheeeer/tutor-platform/internal/api/handlers/admin/settings"
	"github.com/magabrotheeeer/tutor-platform/internal/api/handlers/admin/upload"
	"github.com/magabrotheeeer/tutor-platform/internal/api/handlers/admin/userlist"
	"github.com/magabrotheeeer/tutor-platform/internal/api/handlers/admin/userupdate"
	"github.com/magabrotheeeer/tutor-platform/internal/api/handlers/auth/impersonate"
	"github.com/magabrotheeeer/tutor-platform/internal/api/handlers/auth/login"
	"github.com/magabrotheeeer/tutor-platform/internal/api/handlers/auth/logout"
	"github.com/magabrotheeeer/tutor-platform/internal/api/handlers/auth/register"
	"github.com/magabrotheeeer/tutor-platform/internal/api/handlers/content/open"
	"github.com/magabrotheeeer/tutor-platform/internal/api/handlers/health"
	"github.com/magabrotheeeer/tutor-platform/internal/api/handlers/profile/me"
	"github.com/magabrotheeeer/tutor-platform/internal/api/handlers/profile/transactions"
	"github.com/magabrotheeeer/tutor-platform/internal/api/handlers/tests/submit"
	"github.com/magabrotheeeer/tutor-platform/internal/api/middlewarectx"
	"github.com/magabrotheeeer/tutor-platform/internal/services/access"
	adminservice "github.com/magabrotheeeer/tutor-platform/internal/services/admin"
	"github.com/magabrotheeeer/tutor-platform/internal/services/auth"
	"github.com/magabrotheeeer/tutor-platform/internal/services/weeklytest"
	"github.com/magabrotheeeer/tutor-platform/internal/settings"
	"github.com/magabrotheeeer/tutor-platform/internal/storage/repository"
)

// services зависимости обработчиков.
type services struct {
	auth     *auth.AuthService
	access   *access.Service
	tests    *weeklytest.Service
	admin    *adminservice.Service
	settings *settings.Watcher
	storage  *repository.Storage
	checks   map[string]health.Check
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc services) {
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/register", register.New(logger, svc.auth).ServeHTTP)
		r.Post("/auth/login", login.New(logger, svc.auth).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(logger, svc.auth))
			r.Use(middlewarectx.MaintenanceMiddleware(svc.settings))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Post("/auth/logout", logout.New(logger, svc.auth).ServeHTTP)
			r.Get("/me", me.New(logger, svc.access).ServeHTTP)
			r.Get("/me/transactions", transactions.New(logger, svc.storage).ServeHTTP)
			r.Post("/content/open", open.New(logger, svc.access).ServeHTTP)
			r.Post("/tests/{id}/submit", submit.New(logger, svc.tests).ServeHTTP)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middlewarectx.AdminOnly(logger))
				r.Put("/settings", adminsettings.New(logger, svc.admin).ServeHTTP)
				r.Put("/content", upload.New(logger, svc.admin).ServeHTTP)
				r.Get("/activity", activity.New(logger, svc.admin).ServeHTTP)
				r.Get("/users", userlist.New(logger, svc.admin).ServeHTTP)
				r.Patch("/users/{id}", userupdate.New(logger, svc.admin).ServeHTTP)
				r.Post("/users/{id}/impersonate", impersonate.New(logger, svc.auth).ServeHTTP)
			})
		})
	})

	r.Get("/health", health.New(logger, svc.checks).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
