package middlewarectx

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/tutor-platform/internal/api/response"
	"github.com/magabrotheeeer/tutor-platform/internal/entitlement"
	"github.com/magabrotheeeer/tutor-platform/internal/models"
)

// SettingsProvider текущие глобальные настройки.
type SettingsProvider interface {
	Current() models.Settings
}

// MaintenanceMiddleware отвечает 503 всем, кроме администраторов, пока включено обслуживание.
// Должен стоять после JWTMiddleware.
func MaintenanceMiddleware(settings SettingsProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cfg := settings.Current()
			if !cfg.MaintenanceMode {
				next.ServeHTTP(w, r)
				return
			}
			if session, ok := SessionFrom(r.Context()); ok && entitlement.IsPrivileged(session) {
				next.ServeHTTP(w, r)
				return
			}
			msg := cfg.MaintenanceMessage
			if msg == "" {
				msg = "service is under maintenance"
			}
			w.Header().Set("Retry-After", "300")
			w.WriteHeader(http.StatusServiceUnavailable)
			render.JSON(w, r, response.ErrorWithCode(msg, response.CodeMaintenance))
		})
	}
}
