// Package weeklytest принимает результаты еженедельных тестов.
package weeklytest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/magabrotheeeer/tutor-platform/internal/activity"
	"github.com/magabrotheeeer/tutor-platform/internal/entitlement"
	"github.com/magabrotheeeer/tutor-platform/internal/ledger"
	"github.com/magabrotheeeer/tutor-platform/internal/lib/sl"
	"github.com/magabrotheeeer/tutor-platform/internal/models"
)

// HistoryField поле документа пользователя с историей попыток.
const HistoryField = "testHistory"

// ErrInvalidAttempt число правильных ответов вне диапазона или нет вопросов.
var ErrInvalidAttempt = errors.New("invalid test attempt")

// Documents документное хранилище с атомарным добавлением в массив.
type Documents interface {
	AppendToArray(ctx context.Context, collection, id, field string, value any) error
	MergeDocument(ctx context.Context, collection, id string, doc any) error
}

// ActivityRecorder журнал действий.
type ActivityRecorder interface {
	Record(ctx context.Context, u models.User, action, details string)
}

// Submission ответ ученика на тест.
type Submission struct {
	TestID         string         `json:"testId"`
	TestName       string         `json:"testName" validate:"required"`
	StartedAt      time.Time      `json:"startedAt"`
	Correct        int            `json:"correct" validate:"min=0"`
	TotalQuestions int            `json:"totalQuestions" validate:"required,min=1"`
	Answers        map[string]int `json:"answers,omitempty"`
}

// Service сервис еженедельных тестов.
type Service struct {
	docs     Documents
	activity ActivityRecorder
	log      *slog.Logger
	now      func() time.Time
}

// New создаёт Service.
func New(docs Documents, activity ActivityRecorder, log *slog.Logger) *Service {
	return &Service{docs: docs, activity: activity, log: log, now: time.Now}
}

// Submit сохраняет попытку в истории пользователя. Ошибка хранилища
// логируется и не мешает вернуть результат.
func (s *Service) Submit(ctx context.Context, session entitlement.Session, sub Submission) (*models.TestAttempt, error) {
	const op = "weeklytest.Submit"

	if sub.TotalQuestions <= 0 || sub.Correct < 0 || sub.Correct > sub.TotalQuestions {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidAttempt)
	}

	submitted := s.now().UTC()
	started := sub.StartedAt.UTC()
	if sub.StartedAt.IsZero() {
		started = submitted
	}
	answers := sub.Answers
	if answers == nil {
		answers = map[string]int{}
	}

	u := session.User
	attempt := models.TestAttempt{
		TestID:         sub.TestID,
		TestName:       sub.TestName,
		UserID:         u.UID,
		UserName:       u.Name,
		StartedAt:      started,
		SubmittedAt:    submitted,
		Score:          Score(sub.Correct, sub.TotalQuestions),
		TotalQuestions: sub.TotalQuestions,
		Answers:        answers,
	}

	log := s.log.With(slog.String("op", op), slog.String("user_uid", u.UID), slog.String("test_id", sub.TestID))
	if err := s.docs.AppendToArray(ctx, ledger.UsersCollection, u.UID, HistoryField, attempt); err != nil {
		log.Warn("failed to store test attempt", sl.Err(err))
	} else if err := s.docs.MergeDocument(ctx, ledger.UsersCollection, u.UID,
		map[string]any{"lastTestTaken": submitted.Format(time.RFC3339)}); err != nil {
		log.Warn("failed to update last test date", sl.Err(err))
	}

	s.activity.Record(ctx, u, activity.ActionTestSubmit,
		fmt.Sprintf("Completed %s with score %d/%d", sub.TestName, sub.Correct, sub.TotalQuestions))
	return &attempt, nil
}

// Score процент правильных ответов, округлённый до целого.
func Score(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}
