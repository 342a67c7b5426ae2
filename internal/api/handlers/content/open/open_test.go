package open

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/tutor-platform/internal/api/middlewarectx"
	"github.com/magabrotheeeer/tutor-platform/internal/entitlement"
	"github.com/magabrotheeeer/tutor-platform/internal/ledger"
	"github.com/magabrotheeeer/tutor-platform/internal/models"
	"github.com/magabrotheeeer/tutor-platform/internal/services/access"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Open(ctx context.Context, session entitlement.Session, req models.ContentRequest) (*access.Result, error) {
	args := m.Called(ctx, session, req)
	if res := args.Get(0); res != nil {
		return res.(*access.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestOpenHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	session := entitlement.Session{User: models.User{UID: "u1", Credits: 10}}
	body := `{"board":"CBSE","classLevel":"10","subject":"Physics","chapterId":"ch1","type":"NOTES_PREMIUM"}`
	req := models.ContentRequest{Board: "CBSE", ClassLevel: "10", Subject: "Physics", ChapterID: "ch1", Type: models.ContentNotesPremium}

	tests := []struct {
		name           string
		body           string
		setupMocks     func(m *ServiceMock)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "списание и выдача",
			body: body,
			setupMocks: func(m *ServiceMock) {
				m.On("Open", mock.Anything, session, req).Return(&access.Result{
					Artifact: &models.ContentArtifact{Title: "Motion"},
					User:     models.User{UID: "u1", Credits: 3},
					Cost:     7,
					Source:   "primary",
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "некорректный JSON",
			body:           "{",
			setupMocks:     func(*ServiceMock) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid request body","code":"INVALID_REQUEST"}`,
		},
		{
			name:           "нет главы",
			body:           `{"board":"CBSE","classLevel":"10","subject":"Physics","type":"NOTES_PREMIUM"}`,
			setupMocks:     func(*ServiceMock) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"status":"Error","error":"field ChapterID is a required field","code":"VALIDATION_FAILED"}`,
		},
		{
			name: "недостаточно кредитов",
			body: body,
			setupMocks: func(m *ServiceMock) {
				m.On("Open", mock.Anything, session, req).
					Return(nil, fmt.Errorf("access.Open: %w", ledger.ErrInsufficientCredits)).Once()
			},
			expectedStatus: http.StatusPaymentRequired,
			expectedBody:   `{"status":"Error","error":"insufficient credits","code":"INSUFFICIENT_CREDITS"}`,
		},
		{
			name: "неизвестный тип",
			body: body,
			setupMocks: func(m *ServiceMock) {
				m.On("Open", mock.Anything, session, req).
					Return(nil, fmt.Errorf("access.Open: %w", access.ErrInvalidRequest)).Once()
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"status":"Error","error":"unsupported content type","code":"INVALID_REQUEST"}`,
		},
		{
			name: "генератор недоступен",
			body: body,
			setupMocks: func(m *ServiceMock) {
				m.On("Open", mock.Anything, session, req).
					Return(nil, fmt.Errorf("access.Open: %w: %w", access.ErrProducer, errors.New("timeout"))).Once()
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `{"status":"Error","error":"content generation failed, try again later","code":"PRODUCER_FAILED"}`,
		},
		{
			name: "прочая ошибка",
			body: body,
			setupMocks: func(m *ServiceMock) {
				m.On("Open", mock.Anything, session, req).Return(nil, errors.New("db down")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"failed to open content","code":"INTERNAL"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMocks(svc)

			r := httptest.NewRequest(http.MethodPost, "/api/v1/content/open", bytes.NewBufferString(tt.body))
			ctx := context.WithValue(r.Context(), middleware.RequestIDKey, "req-id")
			r = r.WithContext(middlewarectx.WithSession(ctx, session))
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, r)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"title":"Motion"`)
				assert.Contains(t, w.Body.String(), `"cost":7`)
				assert.Contains(t, w.Body.String(), `"source":"primary"`)
			}
			svc.AssertExpectations(t)
		})
	}
}
