package entitlement

import (
	"time"

	"github.com/magabrotheeeer/tutor-platform/internal/models"
)

// Decision результат проверки доступа для ответа клиенту. Не сохраняется.
type Decision struct {
	Allowed     bool               `json:"allowed"`
	AccessLevel models.AccessLevel `json:"accessLevel"`
	Class       models.AccessClass `json:"class"`
	Reason      string             `json:"reason,omitempty"`
}

// Evaluator привязывает проверки к часам. Время читается заново при каждом вызове.
type Evaluator struct {
	now func() time.Time
}

// NewEvaluator создаёт Evaluator. Если now == nil, используется time.Now.
func NewEvaluator(now func() time.Time) *Evaluator {
	if now == nil {
		now = time.Now
	}
	return &Evaluator{now: now}
}

// IsSubscriptionActive см. пакетную функцию IsSubscriptionActive.
func (e *Evaluator) IsSubscriptionActive(u models.User) bool {
	return IsSubscriptionActive(u, e.now())
}

// AccessLevel см. AccessLevelOf.
func (e *Evaluator) AccessLevel(u models.User) models.AccessLevel {
	return AccessLevelOf(u, e.now())
}

// CanAccessContent см. пакетную функцию CanAccessContent.
func (e *Evaluator) CanAccessContent(u models.User, ct models.ContentType) bool {
	return CanAccessContent(u, ct, e.now())
}

// DaysRemaining см. пакетную функцию DaysRemaining.
func (e *Evaluator) DaysRemaining(u models.User) int {
	return DaysRemaining(u, e.now())
}

// Decide собирает Decision для пары пользователь/тип контента.
func (e *Evaluator) Decide(u models.User, ct models.ContentType) Decision {
	now := e.now()
	d := Decision{
		Allowed:     CanAccessContent(u, ct, now),
		AccessLevel: AccessLevelOf(u, now),
		Class:       ct.Class(),
	}
	switch {
	case u.IsAdmin():
		d.Reason = "admin"
	case d.Class == models.ClassFree:
		d.Reason = "free content"
	case d.Allowed:
		d.Reason = "covered by subscription"
	case !IsSubscriptionActive(u, now):
		d.Reason = "no active subscription"
	default:
		d.Reason = "subscription tier too low"
	}
	return d
}

// Now текущее время по часам Evaluator.
func (e *Evaluator) Now() time.Time {
	return e.now()
}
