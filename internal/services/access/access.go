// Package access открывает учебный контент: проверяет права и баланс,
// находит или генерирует артефакт и только после этого списывает кредиты.
package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/tutor-platform/internal/activity"
	"github.com/magabrotheeeer/tutor-platform/internal/content"
	"github.com/magabrotheeeer/tutor-platform/internal/entitlement"
	"github.com/magabrotheeeer/tutor-platform/internal/ledger"
	"github.com/magabrotheeeer/tutor-platform/internal/lib/sl"
	"github.com/magabrotheeeer/tutor-platform/internal/models"
)

var (
	// ErrProducer генерация контента не удалась, кредиты не списаны.
	ErrProducer = errors.New("content production failed")
	// ErrInvalidRequest неизвестный тип контента или неполный запрос.
	ErrInvalidRequest = errors.New("invalid content request")
)

// SourceProducer источник артефакта, только что полученного от генератора.
const SourceProducer = "producer"

// Resolver многоуровневое хранилище артефактов.
type Resolver interface {
	Resolve(ctx context.Context, key string) (*models.ContentArtifact, string)
	Persist(ctx context.Context, key string, artifact *models.ContentArtifact)
}

// Producer внешний генератор контента.
type Producer interface {
	Generate(ctx context.Context, req models.ContentRequest) (*models.ContentArtifact, error)
}

// Ledger фиксирует списание кредитов.
type Ledger interface {
	Commit(ctx context.Context, s entitlement.Session, cost int, reason string) (models.User, error)
}

// ActivityRecorder журнал действий.
type ActivityRecorder interface {
	Record(ctx context.Context, u models.User, action, details string)
}

// Result итог открытия контента.
type Result struct {
	Artifact *models.ContentArtifact `json:"artifact"`
	User     models.User             `json:"user"`
	Cost     int                     `json:"cost"` // фактически списано
	Decision entitlement.Decision    `json:"decision"`
	Source   string                  `json:"source"`
}

// Profile сводка по подписке пользователя.
type Profile struct {
	User          models.User        `json:"user"`
	AccessLevel   models.AccessLevel `json:"accessLevel"`
	Active        bool               `json:"subscriptionActive"`
	DaysRemaining int                `json:"daysRemaining"`
	Impersonator  string             `json:"impersonator,omitempty"`
}

// Service сервис доступа к контенту.
type Service struct {
	resolver  Resolver
	producer  Producer
	ledger    Ledger
	activity  ActivityRecorder
	evaluator *entitlement.Evaluator
	log       *slog.Logger
}

// New создаёт Service.
func New(resolver Resolver, producer Producer, l Ledger, activity ActivityRecorder,
	evaluator *entitlement.Evaluator, log *slog.Logger) *Service {
	return &Service{
		resolver:  resolver,
		producer:  producer,
		ledger:    l,
		activity:  activity,
		evaluator: evaluator,
		log:       log,
	}
}

// Open выдаёт артефакт по запросу.
//
// Нехватка кредитов обнаруживается до генерации. Кредиты списываются только
// когда артефакт уже получен, поэтому сбой генератора ничего не стоит пользователю.
func (s *Service) Open(ctx context.Context, session entitlement.Session, req models.ContentRequest) (*Result, error) {
	const op = "access.Open"
	log := s.log.With(slog.String("op", op), slog.String("user_uid", session.User.UID))

	if !req.Type.Valid() {
		return nil, fmt.Errorf("%s: %w: unknown content type %q", op, ErrInvalidRequest, req.Type)
	}
	if req.IsSenior() && req.Stream == "" {
		return nil, fmt.Errorf("%s: %w: stream is required for class %s", op, ErrInvalidRequest, req.ClassLevel)
	}

	key := content.Key(req)
	now := s.evaluator.Now()

	artifact, source := s.resolver.Resolve(ctx, key)
	cost := ledger.ResolveCost(artifact, session.User, req.Type, now)
	if err := ledger.Check(session, cost); err != nil {
		log.Info("content blocked", slog.String("key", key), slog.Int("cost", cost), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if artifact == nil {
		generated, err := s.producer.Generate(ctx, req)
		if err != nil {
			log.Error("content generation failed", slog.String("key", key), sl.Err(err))
			return nil, fmt.Errorf("%s: %w: %w", op, ErrProducer, err)
		}
		if generated.Type == "" {
			generated.Type = req.Type
		}
		if generated.Language == "" {
			generated.Language = req.Language
		}
		s.resolver.Persist(ctx, key, generated)
		artifact = generated
		source = SourceProducer
	}

	// Списывается цена, известная до генерации. Цена нового артефакта действует со следующего открытия.
	user, err := s.ledger.Commit(ctx, session, cost, activity.ActionContentGen)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if entitlement.IsPrivileged(session) {
		cost = 0
	}

	title := req.ChapterTitle
	if title == "" {
		title = req.ChapterID
	}
	s.activity.Record(ctx, session.User, activity.ActionContentGen, fmt.Sprintf("Opened %s for %s", req.Type, title))

	return &Result{
		Artifact: artifact,
		User:     user,
		Cost:     cost,
		Decision: s.evaluator.Decide(session.User, req.Type),
		Source:   source,
	}, nil
}

// Profile возвращает состояние подписки пользователя сессии.
func (s *Service) Profile(_ context.Context, session entitlement.Session) Profile {
	p := Profile{
		User:          session.User,
		AccessLevel:   s.evaluator.AccessLevel(session.User),
		Active:        s.evaluator.IsSubscriptionActive(session.User),
		DaysRemaining: s.evaluator.DaysRemaining(session.User),
	}
	if session.Impersonating() {
		p.Impersonator = session.Impersonator.Username
	}
	return p
}
