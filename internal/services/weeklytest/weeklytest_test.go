package weeklytest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/tutor-platform/internal/activity"
	"github.com/magabrotheeeer/tutor-platform/internal/entitlement"
	"github.com/magabrotheeeer/tutor-platform/internal/models"
)

type DocumentsMock struct {
	mock.Mock
}

func (m *DocumentsMock) AppendToArray(ctx context.Context, collection, id, field string, value any) error {
	return m.Called(ctx, collection, id, field, value).Error(0)
}

func (m *DocumentsMock) MergeDocument(ctx context.Context, collection, id string, doc any) error {
	return m.Called(ctx, collection, id, doc).Error(0)
}

type ActivityMock struct {
	mock.Mock
}

func (m *ActivityMock) Record(ctx context.Context, u models.User, action, details string) {
	m.Called(ctx, u, action, details)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestScore(t *testing.T) {
	tests := []struct {
		correct, total, want int
	}{
		{correct: 7, total: 10, want: 70},
		{correct: 2, total: 3, want: 67},
		{correct: 1, total: 8, want: 13},
		{correct: 0, total: 5, want: 0},
		{correct: 5, total: 5, want: 100},
		{correct: 1, total: 0, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Score(tt.correct, tt.total), "%d/%d", tt.correct, tt.total)
	}
}

func TestService_Submit(t *testing.T) {
	fixed := time.Date(2025, 5, 4, 9, 30, 0, 0, time.UTC)
	session := entitlement.Session{User: models.User{UID: "u1", Name: "Asha"}}
	sub := Submission{TestID: "w19", TestName: "Week 19", Correct: 2, TotalQuestions: 3}

	tests := []struct {
		name       string
		sub        Submission
		setupMocks func(d *DocumentsMock, a *ActivityMock)
		wantErr    error
	}{
		{
			name: "stored in history",
			sub:  sub,
			setupMocks: func(d *DocumentsMock, a *ActivityMock) {
				d.On("AppendToArray", mock.Anything, "users", "u1", HistoryField, mock.MatchedBy(func(v any) bool {
					at, ok := v.(models.TestAttempt)
					return ok && at.Score == 67 && at.UserName == "Asha" && at.StartedAt.Equal(fixed)
				})).Return(nil).Once()
				d.On("MergeDocument", mock.Anything, "users", "u1",
					map[string]any{"lastTestTaken": "2025-05-04T09:30:00Z"}).Return(nil).Once()
				a.On("Record", mock.Anything, session.User, activity.ActionTestSubmit, "Completed Week 19 with score 2/3").Once()
			},
		},
		{
			name: "storage failure not fatal",
			sub:  sub,
			setupMocks: func(d *DocumentsMock, a *ActivityMock) {
				d.On("AppendToArray", mock.Anything, "users", "u1", HistoryField, mock.Anything).
					Return(errors.New("unavailable")).Once()
				a.On("Record", mock.Anything, mock.Anything, activity.ActionTestSubmit, mock.Anything).Once()
			},
		},
		{
			name:       "more correct than questions",
			sub:        Submission{TestName: "x", Correct: 4, TotalQuestions: 3},
			setupMocks: func(*DocumentsMock, *ActivityMock) {},
			wantErr:    ErrInvalidAttempt,
		},
		{
			name:       "no questions",
			sub:        Submission{TestName: "x"},
			setupMocks: func(*DocumentsMock, *ActivityMock) {},
			wantErr:    ErrInvalidAttempt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := new(DocumentsMock)
			act := new(ActivityMock)
			tt.setupMocks(docs, act)

			svc := New(docs, act, newNoopLogger())
			svc.now = func() time.Time { return fixed }

			attempt, err := svc.Submit(context.Background(), session, tt.sub)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, attempt)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 67, attempt.Score)
			assert.NotNil(t, attempt.Answers)
			docs.AssertExpectations(t)
			act.AssertExpectations(t)
		})
	}
}
