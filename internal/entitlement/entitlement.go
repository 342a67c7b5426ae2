// Package entitlement вычисляет права пользователя на контент из состояния подписки.
//
// Все функции чистые: решение никогда не сохраняется и пересчитывается на каждый
// запрос с текущим временем, потому что подписка может истечь посреди сессии.
package entitlement

import (
	"math"
	"time"

	"github.com/magabrotheeeer/tutor-platform/internal/models"
)

// LifetimeDays значение DaysRemaining для пожизненной подписки.
const LifetimeDays = 9999

// Session контекст действия: кто действует и от чьего имени.
// Impersonator заполнен, когда администратор вошёл под учётной записью ученика.
type Session struct {
	User         models.User
	Impersonator *models.User
}

// Impersonating сообщает, активен ли режим входа под другим пользователем.
func (s Session) Impersonating() bool {
	return s.Impersonator != nil
}

// IsPrivileged единственный предикат привилегий: администратор или активная имперсонация.
func IsPrivileged(s Session) bool {
	return s.User.IsAdmin() || s.Impersonating()
}

// IsSubscriptionActive сообщает, активна ли подписка пользователя на момент now.
// Дата окончания главнее тарифа: тариф без даты (кроме LIFETIME) считается неактивным.
func IsSubscriptionActive(u models.User, now time.Time) bool {
	if u.IsAdmin() {
		return true
	}
	if u.SubscriptionEndDate != nil && u.SubscriptionEndDate.After(now) {
		return true
	}
	return u.SubscriptionTier == models.TierLifetime
}

// AccessLevelOf возвращает уровень доступа пользователя на момент now.
func AccessLevelOf(u models.User, now time.Time) models.AccessLevel {
	if !IsSubscriptionActive(u, now) {
		return models.AccessNone
	}
	switch u.SubscriptionTier {
	case models.TierWeekly, models.TierMonthly:
		return models.AccessBasic
	case models.TierYearly, models.TierLifetime:
		return models.AccessUltra
	default:
		// неизвестный тариф при активной подписке закрывает доступ
		return models.AccessNone
	}
}

// CanAccessContent сообщает, может ли пользователь открыть контент данного типа без оплаты.
func CanAccessContent(u models.User, ct models.ContentType, now time.Time) bool {
	if IsPrivileged(Session{User: u}) {
		return true
	}
	class := ct.Class()
	if class == models.ClassFree {
		return true
	}
	return levelCovers(AccessLevelOf(u, now), class)
}

// DaysRemaining возвращает количество оставшихся дней подписки, округлённое вверх.
// Никогда не бывает отрицательным.
func DaysRemaining(u models.User, now time.Time) int {
	if u.SubscriptionTier == models.TierLifetime {
		return LifetimeDays
	}
	if u.SubscriptionEndDate == nil {
		return 0
	}
	diff := u.SubscriptionEndDate.Sub(now)
	days := int(math.Ceil(diff.Hours() / 24))
	return max(0, days)
}

func levelCovers(level models.AccessLevel, class models.AccessClass) bool {
	switch class {
	case models.ClassBasic:
		return level == models.AccessBasic || level == models.AccessUltra
	case models.ClassUltra:
		return level == models.AccessUltra
	default:
		return false
	}
}
