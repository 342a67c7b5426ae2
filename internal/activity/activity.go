// Package activity ведёт журнал действий пользователей.
//
// Журнал ограничен по размеру: хранятся только последние записи.
// Ошибки записи никогда не прерывают пользовательскую операцию.
package activity

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/tutor-platform/internal/lib/sl"
	"github.com/magabrotheeeer/tutor-platform/internal/metrics"
	"github.com/magabrotheeeer/tutor-platform/internal/models"
)

// Действия, которые попадают в журнал.
const (
	ActionLogin          = "LOGIN"
	ActionSignup         = "SIGNUP"
	ActionLogout         = "LOGOUT"
	ActionImpersonate    = "IMPERSONATE"
	ActionContentGen     = "CONTENT_GEN"
	ActionTestSubmit     = "TEST_SUBMIT"
	ActionSettingsUpdate = "SETTINGS_UPDATE"
	ActionContentUpload  = "CONTENT_UPLOAD"
	ActionUserUpdate     = "USER_UPDATE"
)

// DefaultMaxEntries размер журнала по умолчанию.
const DefaultMaxEntries = 500

// Sink получатель записей журнала.
type Sink interface {
	Append(ctx context.Context, entry models.ActivityEntry) error
}

// Logger формирует записи журнала и передаёт их в Sink.
type Logger struct {
	sink Sink
	log  *slog.Logger
	now  func() time.Time
}

// NewLogger создаёт Logger.
func NewLogger(sink Sink, log *slog.Logger) *Logger {
	return &Logger{
		sink: sink,
		log:  log,
		now:  time.Now,
	}
}

// Record добавляет запись о действии пользователя. Ошибки только логируются.
func (l *Logger) Record(ctx context.Context, u models.User, action, details string) {
	entry := models.ActivityEntry{
		ID:        uuid.NewString(),
		UserID:    u.UID,
		UserName:  displayName(u),
		Role:      u.Role,
		Action:    action,
		Details:   details,
		Timestamp: l.now().UTC(),
	}
	if err := l.sink.Append(ctx, entry); err != nil {
		l.log.Warn("failed to record activity",
			slog.String("action", action),
			slog.String("user_uid", u.UID),
			sl.Err(err),
		)
		return
	}
	metrics.ActivityEntriesTotal.WithLabelValues(action).Inc()
}

func displayName(u models.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
