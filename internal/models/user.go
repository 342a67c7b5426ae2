// Package models содержит доменные структуры платформы: пользователя,
// подписку, контент, попытки тестов, журнал действий и глобальные настройки.
// Структуры используются в бизнес-логике, хранилищах и HTTP-слое.
package models

import "time"

// Role роль пользователя.
type Role string

const (
	// RoleStudent — обычный ученик.
	RoleStudent Role = "student"
	// RoleAdmin — администратор, обходит все проверки доступа и списания.
	RoleAdmin Role = "admin"
)

// SubscriptionTier тариф подписки пользователя.
type SubscriptionTier string

const (
	TierNone     SubscriptionTier = "NONE"
	TierWeekly   SubscriptionTier = "WEEKLY"
	TierMonthly  SubscriptionTier = "MONTHLY"
	TierYearly   SubscriptionTier = "YEARLY"
	TierLifetime SubscriptionTier = "LIFETIME"
)

// SubjectProgress прогресс ученика по одному предмету.
type SubjectProgress struct {
	CurrentChapterIndex int `json:"currentChapterIndex"`
	TotalMCQsSolved     int `json:"totalMCQsSolved"`
}

// User представляет зарегистрированного пользователя платформы.
// Credits никогда не бывает отрицательным, это гарантирует и хранилище (CHECK credits >= 0).
type User struct {
	UID                 string                     `json:"id"`
	Username            string                     `json:"username"`
	Name                string                     `json:"name"`
	Email               string                     `json:"email,omitempty"`
	Mobile              string                     `json:"mobile,omitempty"`
	PasswordHash        string                     `json:"-"`
	Role                Role                       `json:"role"`
	Credits             int                        `json:"credits"`
	SubscriptionTier    SubscriptionTier           `json:"subscriptionTier"`
	SubscriptionEndDate *time.Time                 `json:"subscriptionEndDate,omitempty"`
	Progress            map[string]SubjectProgress `json:"progress,omitempty"`
	Board               string                     `json:"board,omitempty"`
	ClassLevel          string                     `json:"classLevel,omitempty"`
	Stream              string                     `json:"stream,omitempty"`
	IsArchived          bool                       `json:"isArchived,omitempty"`
	IsLocked            bool                       `json:"isLocked,omitempty"`
	CreatedAt           time.Time                  `json:"createdAt"`
}

// IsAdmin сообщает, является ли пользователь администратором.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserUpdate изменения учётной записи, которые вносит администратор.
// nil-поля не меняются.
type UserUpdate struct {
	Credits             *int              `json:"credits,omitempty" validate:"omitempty,min=0"`
	SubscriptionTier    *SubscriptionTier `json:"subscriptionTier,omitempty"`
	SubscriptionEndDate *time.Time        `json:"subscriptionEndDate,omitempty"`
	IsLocked            *bool             `json:"isLocked,omitempty"`
	IsArchived          *bool             `json:"isArchived,omitempty"`
}

// CreditTransaction запись журнала изменений баланса.
type CreditTransaction struct {
	Delta        int       `json:"delta"`
	BalanceAfter int       `json:"balanceAfter"`
	Reason       string    `json:"reason"`
	CreatedAt    time.Time `json:"createdAt"`
}
