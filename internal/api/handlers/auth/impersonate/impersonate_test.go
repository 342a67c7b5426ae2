package impersonate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/tutor-platform/internal/api/middlewarectx"
	"github.com/magabrotheeeer/tutor-platform/internal/entitlement"
	"github.com/magabrotheeeer/tutor-platform/internal/models"
	"github.com/magabrotheeeer/tutor-platform/internal/services/auth"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) Impersonate(ctx context.Context, session entitlement.Session, targetUID string) (*auth.Principal, error) {
	args := m.Called(ctx, session, targetUID)
	if p := args.Get(0); p != nil {
		return p.(*auth.Principal), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestImpersonateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	admin := models.User{UID: "a1", Username: "root", Role: models.RoleAdmin}
	session := entitlement.Session{User: admin}

	tests := []struct {
		name           string
		setupMocks     func(m *AuthServiceMock)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешная имперсонация",
			setupMocks: func(m *AuthServiceMock) {
				m.On("Impersonate", mock.Anything, session, "u1").Return(&auth.Principal{
					User: models.User{UID: "u1", Username: "ravi"}, Token: "imp-token", Impersonator: &admin,
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "цель администратор",
			setupMocks: func(m *AuthServiceMock) {
				m.On("Impersonate", mock.Anything, session, "u1").
					Return(nil, &auth.AuthError{Reason: "cannot impersonate an administrator"}).Once()
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `{"status":"Error","error":"cannot impersonate an administrator","code":"FORBIDDEN"}`,
		},
		{
			name: "ошибка хранилища",
			setupMocks: func(m *AuthServiceMock) {
				m.On("Impersonate", mock.Anything, session, "u1").Return(nil, errors.New("db down")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"failed to impersonate","code":"INTERNAL"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(AuthServiceMock)
			tt.setupMocks(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/users/u1/impersonate", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "u1")
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			ctx = context.WithValue(ctx, middleware.RequestIDKey, "req-id")
			ctx = middlewarectx.WithSession(ctx, session)
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req.WithContext(ctx))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"token":"imp-token"`)
				assert.Contains(t, w.Body.String(), `"impersonator":{`)
			}
			svc.AssertExpectations(t)
		})
	}
}
