// Package admin операции администратора: настройки, контент, пользователи, журнал.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/tutor-platform/internal/activity"
	"github.com/magabrotheeeer/tutor-platform/internal/content"
	"github.com/magabrotheeeer/tutor-platform/internal/entitlement"
	"github.com/magabrotheeeer/tutor-platform/internal/models"
)

// ErrForbidden операция доступна только администратору.
var ErrForbidden = errors.New("admin role required")

// ErrInvalidInput данные запроса администратора некорректны.
var ErrInvalidInput = errors.New("invalid input")

// SettingsStore глобальные настройки.
type SettingsStore interface {
	Current() models.Settings
	Save(ctx context.Context, s models.Settings) error
}

// ContentStore уровни хранения артефактов.
type ContentStore interface {
	Persist(ctx context.Context, key string, artifact *models.ContentArtifact)
	Invalidate(ctx context.Context, key string)
}

// UserRepository учётные записи пользователей.
type UserRepository interface {
	UpdateUserAccess(ctx context.Context, userUID string, upd models.UserUpdate) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
}

// ProfileSync обновляет денормализованную копию пользователя.
type ProfileSync interface {
	SyncProfile(ctx context.Context, u models.User)
}

// ActivityLog журнал действий.
type ActivityLog interface {
	List(ctx context.Context, limit int) ([]models.ActivityEntry, error)
}

// ActivityRecorder запись в журнал действий.
type ActivityRecorder interface {
	Record(ctx context.Context, u models.User, action, details string)
}

// UploadRequest загрузка или правка артефакта.
type UploadRequest struct {
	Request  models.ContentRequest  `json:"request" validate:"required"`
	Artifact models.ContentArtifact `json:"artifact"`
}

// Service сервис администратора.
type Service struct {
	settings SettingsStore
	content  ContentStore
	users    UserRepository
	profiles ProfileSync
	journal  ActivityLog
	activity ActivityRecorder
	log      *slog.Logger
}

// New создаёт Service.
func New(settings SettingsStore, content ContentStore, users UserRepository, profiles ProfileSync,
	journal ActivityLog, activity ActivityRecorder, log *slog.Logger) *Service {
	return &Service{
		settings: settings,
		content:  content,
		users:    users,
		profiles: profiles,
		journal:  journal,
		activity: activity,
		log:      log,
	}
}

func requireAdmin(s entitlement.Session) error {
	if !s.User.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// SaveSettings сохраняет настройки. Остальные процессы получат их по подписке.
func (s *Service) SaveSettings(ctx context.Context, session entitlement.Session, settings models.Settings) error {
	const op = "admin.SaveSettings"
	if err := requireAdmin(session); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if settings.SignupBonus < 0 || settings.ChatCost < 0 || settings.DailyReward < 0 {
		return fmt.Errorf("%s: %w: negative credit amounts are not allowed", op, ErrInvalidInput)
	}
	if err := s.settings.Save(ctx, settings); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.activity.Record(ctx, session.User, activity.ActionSettingsUpdate,
		fmt.Sprintf("maintenance=%t signup=%t", settings.MaintenanceMode, settings.AllowSignup))
	return nil
}

// UploadContent записывает артефакт во все уровни хранения.
// Поля, не заданные в запросе, сохраняются из прежней версии.
func (s *Service) UploadContent(ctx context.Context, session entitlement.Session, req UploadRequest) (string, error) {
	const op = "admin.UploadContent"
	if err := requireAdmin(session); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !req.Request.Type.Valid() {
		return "", fmt.Errorf("%s: %w: unknown content type %q", op, ErrInvalidInput, req.Request.Type)
	}
	if req.Request.IsSenior() && req.Request.Stream == "" {
		return "", fmt.Errorf("%s: %w: stream is required for class %s", op, ErrInvalidInput, req.Request.ClassLevel)
	}
	if req.Artifact.Price != nil && *req.Artifact.Price < 0 {
		return "", fmt.Errorf("%s: %w: price must not be negative", op, ErrInvalidInput)
	}

	artifact := req.Artifact
	if artifact.Type == "" {
		artifact.Type = req.Request.Type
	}

	key := content.Key(req.Request)
	s.content.Invalidate(ctx, key)
	s.content.Persist(ctx, key, &artifact)
	s.log.Info("content uploaded", slog.String("op", op), slog.String("key", key), slog.String("admin", session.User.Username))

	s.activity.Record(ctx, session.User, activity.ActionContentUpload, "Updated "+key)
	return key, nil
}

// UpdateUser меняет баланс, подписку или блокировку пользователя.
func (s *Service) UpdateUser(ctx context.Context, session entitlement.Session, userUID string, upd models.UserUpdate) (*models.User, error) {
	const op = "admin.UpdateUser"
	if err := requireAdmin(session); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := s.users.UpdateUserAccess(ctx, userUID, upd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.profiles.SyncProfile(ctx, *updated)

	s.activity.Record(ctx, session.User, activity.ActionUserUpdate, "Updated "+describe(*updated, upd))
	return updated, nil
}

// ListUsers возвращает страницу пользователей.
func (s *Service) ListUsers(ctx context.Context, session entitlement.Session, limit, offset int) ([]*models.User, error) {
	const op = "admin.ListUsers"
	if err := requireAdmin(session); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	users, err := s.users.ListUsers(ctx, limit, max(offset, 0))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// ListActivity возвращает последние записи журнала, новые в конце.
func (s *Service) ListActivity(ctx context.Context, session entitlement.Session, limit int) ([]models.ActivityEntry, error) {
	const op = "admin.ListActivity"
	if err := requireAdmin(session); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	entries, err := s.journal.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entries, nil
}

func describe(u models.User, upd models.UserUpdate) string {
	var parts []string
	if upd.Credits != nil {
		parts = append(parts, fmt.Sprintf("credits=%d", *upd.Credits))
	}
	if upd.SubscriptionTier != nil {
		parts = append(parts, "tier="+string(*upd.SubscriptionTier))
	}
	if upd.SubscriptionEndDate != nil {
		parts = append(parts, "end="+upd.SubscriptionEndDate.Format("2006-01-02"))
	}
	if upd.IsLocked != nil {
		parts = append(parts, fmt.Sprintf("locked=%t", *upd.IsLocked))
	}
	if upd.IsArchived != nil {
		parts = append(parts, fmt.Sprintf("archived=%t", *upd.IsArchived))
	}
	return u.Username + " " + strings.Join(parts, " ")
}
