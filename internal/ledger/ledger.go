// Package ledger считает стоимость контента и списывает кредиты пользователя.
//
// Списание двухфазное: Check выполняется до обращения к генератору контента,
// Commit только после того, как артефакт получен. Commit опирается на атомарное
// условное списание в хранилище пользователей, поэтому два параллельных
// запроса не могут увести баланс в минус.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/tutor-platform/internal/entitlement"
	"github.com/magabrotheeeer/tutor-platform/internal/lib/sl"
	"github.com/magabrotheeeer/tutor-platform/internal/metrics"
	"github.com/magabrotheeeer/tutor-platform/internal/models"
)

// ErrInsufficientCredits баланса не хватает на оплату контента.
var ErrInsufficientCredits = errors.New("insufficient credits")

// UsersCollection коллекция документного хранилища с денормализованными профилями.
const UsersCollection = "users"

// ResolveCost возвращает стоимость контента для пользователя.
// Базовая цена берётся из артефакта, но подписка всегда её перекрывает.
func ResolveCost(artifact *models.ContentArtifact, u models.User, ct models.ContentType, now time.Time) int {
	if entitlement.CanAccessContent(u, ct, now) {
		return 0
	}
	if artifact == nil || artifact.Price == nil {
		return 0
	}
	return max(0, *artifact.Price)
}

// Check проверяет, можно ли списать cost, ничего не меняя.
func Check(s entitlement.Session, cost int) error {
	if entitlement.IsPrivileged(s) || cost <= 0 {
		return nil
	}
	if s.User.Credits < cost {
		return ErrInsufficientCredits
	}
	return nil
}

// Charge возвращает копию пользователя с уменьшенным балансом.
// Для администратора и в режиме имперсонации списание пропускается.
func Charge(s entitlement.Session, cost int) (models.User, error) {
	if err := Check(s, cost); err != nil {
		return s.User, err
	}
	if entitlement.IsPrivileged(s) || cost <= 0 {
		return s.User, nil
	}
	updated := s.User
	updated.Credits -= cost
	return updated, nil
}

// UserRepository атомарно списывает кредиты и пишет запись в журнал транзакций.
// applied == false означает, что на момент списания баланса не хватило.
type UserRepository interface {
	DeductCredits(ctx context.Context, userUID string, cost int, reason string) (balance int, applied bool, err error)
}

// ProfileMirror хранит денормализованную копию пользователя для списков.
type ProfileMirror interface {
	MergeDocument(ctx context.Context, collection, id string, doc any) error
}

// Ledger фиксирует списания в хранилищах.
type Ledger struct {
	users  UserRepository
	mirror ProfileMirror
	log    *slog.Logger
}

// New создаёт Ledger. mirror может быть nil.
func New(users UserRepository, mirror ProfileMirror, log *slog.Logger) *Ledger {
	return &Ledger{
		users:  users,
		mirror: mirror,
		log:    log,
	}
}

// Commit списывает cost с баланса пользователя сессии и возвращает обновлённого пользователя.
// Ошибка записи денормализованной копии не прерывает операцию.
func (l *Ledger) Commit(ctx context.Context, s entitlement.Session, cost int, reason string) (models.User, error) {
	const op = "ledger.Commit"

	if entitlement.IsPrivileged(s) || cost <= 0 {
		return s.User, nil
	}
	if err := Check(s, cost); err != nil {
		metrics.ChargeRejectedTotal.Inc()
		return s.User, err
	}

	balance, applied, err := l.users.DeductCredits(ctx, s.User.UID, cost, reason)
	if err != nil {
		return s.User, fmt.Errorf("%s: %w", op, err)
	}
	if !applied {
		metrics.ChargeRejectedTotal.Inc()
		return s.User, ErrInsufficientCredits
	}
	metrics.CreditsChargedTotal.Add(float64(cost))

	updated := s.User
	updated.Credits = balance
	l.log.Info("credits charged",
		slog.String("op", op),
		slog.String("user_uid", updated.UID),
		slog.Int("cost", cost),
		slog.Int("balance", balance),
	)

	l.SyncProfile(ctx, updated)
	return updated, nil
}

// SyncProfile перезаписывает денормализованную копию пользователя.
func (l *Ledger) SyncProfile(ctx context.Context, u models.User) {
	if l.mirror == nil {
		return
	}
	if err := l.mirror.MergeDocument(ctx, UsersCollection, u.UID, map[string]any{"profile": u}); err != nil {
		l.log.Warn("failed to mirror user profile", slog.String("user_uid", u.UID), sl.Err(err))
	}
}
