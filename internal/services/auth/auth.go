// Package auth сервис учётных данных: регистрация, вход, имперсонация
// и восстановление сессии из токена.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/magabrotheeeer/tutor-platform/internal/activity"
	"github.com/magabrotheeeer/tutor-platform/internal/entitlement"
	"github.com/magabrotheeeer/tutor-platform/internal/lib/jwt"
	"github.com/magabrotheeeer/tutor-platform/internal/lib/password"
	"github.com/magabrotheeeer/tutor-platform/internal/lib/sl"
	"github.com/magabrotheeeer/tutor-platform/internal/models"
	"github.com/magabrotheeeer/tutor-platform/internal/storage/repository"
)

// AuthError отказ, текст которого показывается пользователю как есть.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return e.Reason
}

func authErr(reason string) error {
	return &AuthError{Reason: reason}
}

// UserRepository хранилище учётных записей.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByIdentity(ctx context.Context, identity string) (*models.User, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// SettingsProvider источник текущих глобальных настроек.
type SettingsProvider interface {
	Current() models.Settings
}

// ActivityRecorder журнал действий.
type ActivityRecorder interface {
	Record(ctx context.Context, u models.User, action, details string)
}

// Principal результат успешного входа: пользователь и подписанный токен.
type Principal struct {
	User         models.User  `json:"user"`
	Token        string       `json:"token"`
	Impersonator *models.User `json:"impersonator,omitempty"`
}

// SignUpRequest данные регистрации.
type SignUpRequest struct {
	Username   string `json:"username" validate:"required,min=3,max=64"`
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	Mobile     string `json:"mobile,omitempty"`
	Password   string `json:"password" validate:"required,min=6,max=72"`
	Board      string `json:"board,omitempty"`
	ClassLevel string `json:"classLevel,omitempty"`
	Stream     string `json:"stream,omitempty"`
}

// AuthService реализует сервис учётных данных.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	settings SettingsProvider
	activity ActivityRecorder
	log      *slog.Logger
}

// NewAuthService создаёт AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, settings SettingsProvider,
	activity ActivityRecorder, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		settings: settings,
		activity: activity,
		log:      log,
	}
}

// SignUp регистрирует ученика. Новый ученик получает бонус из настроек и тариф NONE.
func (s *AuthService) SignUp(ctx context.Context, req SignUpRequest) (*Principal, error) {
	const op = "auth.SignUp"

	cfg := s.settings.Current()
	if !cfg.AllowSignup {
		return nil, authErr("registration is currently closed")
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return nil, authErr("username and password are required")
	}
	if req.ClassLevel != "" && len(cfg.AllowedClasses) > 0 && !slices.Contains(cfg.AllowedClasses, req.ClassLevel) {
		return nil, authErr(fmt.Sprintf("class %s is not available", req.ClassLevel))
	}

	hash, err := password.GetHash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.users.CreateUser(ctx, models.User{
		Username:         strings.TrimSpace(req.Username),
		Name:             req.Name,
		Email:            strings.ToLower(strings.TrimSpace(req.Email)),
		Mobile:           strings.TrimSpace(req.Mobile),
		PasswordHash:     hash,
		Role:             models.RoleStudent,
		Credits:          max(cfg.SignupBonus, 0),
		SubscriptionTier: models.TierNone,
		Board:            req.Board,
		ClassLevel:       req.ClassLevel,
		Stream:           req.Stream,
	})
	if errors.Is(err, repository.ErrUserExists) {
		return nil, authErr("username, email or mobile already registered")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.issue(*created, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.activity.Record(ctx, *created, activity.ActionSignup, "New student registered")
	return p, nil
}

// SignIn проверяет пароль. identity может быть username, email или номером телефона.
func (s *AuthService) SignIn(ctx context.Context, identity, secret string) (*Principal, error) {
	const op = "auth.SignIn"

	identity = strings.TrimSpace(identity)
	if identity == "" || secret == "" {
		return nil, authErr("invalid credentials")
	}

	u, err := s.users.GetUserByIdentity(ctx, identity)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, authErr("invalid credentials")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(u.PasswordHash, secret); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			s.log.Warn("stored password hash is broken", slog.String("op", op), slog.String("uid", u.UID), sl.Err(err))
		}
		return nil, authErr("invalid credentials")
	}
	if err := usable(*u); err != nil {
		return nil, err
	}

	p, err := s.issue(*u, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.activity.Record(ctx, *u, activity.ActionLogin, "Logged in")
	return p, nil
}

// Impersonate выдаёт администратору токен от имени ученика.
func (s *AuthService) Impersonate(ctx context.Context, session entitlement.Session, targetUID string) (*Principal, error) {
	const op = "auth.Impersonate"

	if !session.User.IsAdmin() || session.Impersonating() {
		return nil, authErr("only administrators can impersonate")
	}
	target, err := s.users.GetUser(ctx, targetUID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, authErr("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if target.IsAdmin() {
		return nil, authErr("cannot impersonate an administrator")
	}

	admin := session.User
	p, err := s.issue(*target, &admin)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.activity.Record(ctx, admin, activity.ActionImpersonate, "Logged in as "+target.Username)
	return p, nil
}

// ParseToken восстанавливает сессию по токену. Пользователь перечитывается
// из хранилища, чтобы права считались по актуальному состоянию.
func (s *AuthService) ParseToken(ctx context.Context, token string) (entitlement.Session, error) {
	const op = "auth.ParseToken"

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return entitlement.Session{}, authErr("invalid or expired token")
	}

	u, err := s.users.GetUser(ctx, claims.UserUID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return entitlement.Session{}, authErr("account no longer exists")
	}
	if err != nil {
		return entitlement.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	session := entitlement.Session{User: *u}
	if claims.ImpersonatorUID == "" {
		if err := usable(*u); err != nil {
			return entitlement.Session{}, err
		}
		return session, nil
	}

	admin, err := s.users.GetUser(ctx, claims.ImpersonatorUID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return entitlement.Session{}, authErr("impersonator no longer exists")
	}
	if err != nil {
		return entitlement.Session{}, fmt.Errorf("%s: %w", op, err)
	}
	if !admin.IsAdmin() {
		return entitlement.Session{}, authErr("impersonator is not an administrator")
	}
	session.Impersonator = admin
	return session, nil
}

// Logout фиксирует выход в журнале. Токены без состояния, отзывать нечего.
func (s *AuthService) Logout(ctx context.Context, session entitlement.Session) {
	actor := session.User
	if session.Impersonating() {
		actor = *session.Impersonator
	}
	s.activity.Record(ctx, actor, activity.ActionLogout, "Logged out")
}

// EnsureAdmin создаёт учётную запись администратора, если её ещё нет.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, secret string) error {
	const op = "auth.EnsureAdmin"

	if username == "" || secret == "" {
		return nil
	}
	_, err := s.users.GetUserByIdentity(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}

	hash, err := password.GetHash(secret)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = s.users.CreateUser(ctx, models.User{
		Username:         username,
		Name:             "Administrator",
		PasswordHash:     hash,
		Role:             models.RoleAdmin,
		SubscriptionTier: models.TierLifetime,
	})
	if err != nil && !errors.Is(err, repository.ErrUserExists) {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("admin account created", slog.String("op", op), slog.String("username", username))
	return nil
}

func (s *AuthService) issue(u models.User, impersonator *models.User) (*Principal, error) {
	subject := jwt.Subject{
		UserUID:  u.UID,
		Username: u.Username,
		Role:     string(u.Role),
	}
	if impersonator != nil {
		subject.ImpersonatorUID = impersonator.UID
	}
	token, err := s.jwtMaker.GenerateToken(subject)
	if err != nil {
		return nil, err
	}
	return &Principal{User: u, Token: token, Impersonator: impersonator}, nil
}

func usable(u models.User) error {
	switch {
	case u.IsArchived:
		return authErr("account has been archived")
	case u.IsLocked:
		return authErr("account is locked, contact support")
	}
	return nil
}
