// Package middlewarectx middleware HTTP API и доступ к данным, которые они кладут в контекст запроса.
package middlewarectx

import (
	"context"

	"github.com/magabrotheeeer/tutor-platform/internal/entitlement"
)

// Key тип ключей контекста запроса.
type Key string

const (
	// SessionKey сессия аутентифицированного пользователя.
	SessionKey Key = "session"
)

// WithSession кладёт сессию в контекст.
func WithSession(ctx context.Context, s entitlement.Session) context.Context {
	return context.WithValue(ctx, SessionKey, s)
}

// SessionFrom достаёт сессию из контекста.
func SessionFrom(ctx context.Context) (entitlement.Session, bool) {
	s, ok := ctx.Value(SessionKey).(entitlement.Session)
	return s, ok
}
