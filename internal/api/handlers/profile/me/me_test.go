package me

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/tutor-platform/internal/api/middlewarectx"
	"github.com/magabrotheeeer/tutor-platform/internal/entitlement"
	"github.com/magabrotheeeer/tutor-platform/internal/models"
	"github.com/magabrotheeeer/tutor-platform/internal/services/access"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Profile(ctx context.Context, session entitlement.Session) access.Profile {
	return m.Called(ctx, session).Get(0).(access.Profile)
}

func TestMeHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	user := models.User{UID: "u1", Username: "ravi", Credits: 7, SubscriptionTier: models.TierMonthly}
	session := entitlement.Session{User: user}

	svc := new(ServiceMock)
	svc.On("Profile", mock.Anything, session).Return(access.Profile{
		User: user, AccessLevel: models.AccessBasic, Active: true, DaysRemaining: 12,
	}).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req = req.WithContext(middlewarectx.WithSession(req.Context(), session))
	w := httptest.NewRecorder()
	New(logger, svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"accessLevel":"BASIC"`)
	assert.Contains(t, body, `"subscriptionActive":true`)
	assert.Contains(t, body, `"daysRemaining":12`)
	assert.Contains(t, body, `"credits":7`)
	svc.AssertExpectations(t)

	w = httptest.NewRecorder()
	New(logger, svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
