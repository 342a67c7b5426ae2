package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/tutor-platform/internal/activity"
	"github.com/magabrotheeeer/tutor-platform/internal/content"
	"github.com/magabrotheeeer/tutor-platform/internal/entitlement"
	"github.com/magabrotheeeer/tutor-platform/internal/models"
)

type SettingsMock struct {
	mock.Mock
}

func (m *SettingsMock) Current() models.Settings {
	return m.Called().Get(0).(models.Settings)
}

func (m *SettingsMock) Save(ctx context.Context, s models.Settings) error {
	return m.Called(ctx, s).Error(0)
}

type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) UpdateUserAccess(ctx context.Context, uid string, upd models.UserUpdate) (*models.User, error) {
	args := m.Called(ctx, uid, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

type ProfileSyncMock struct {
	mock.Mock
}

func (m *ProfileSyncMock) SyncProfile(ctx context.Context, u models.User) {
	m.Called(ctx, u)
}

type ActivityLogMock struct {
	mock.Mock
}

func (m *ActivityLogMock) List(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ActivityEntry), args.Error(1)
}

type ActivityMock struct {
	mock.Mock
}

func (m *ActivityMock) Record(ctx context.Context, u models.User, action, details string) {
	m.Called(ctx, u, action, details)
}

type mocks struct {
	settings *SettingsMock
	users    *UserRepoMock
	profiles *ProfileSyncMock
	journal  *ActivityLogMock
	activity *ActivityMock
	local    *content.MemoryStore
	primary  *content.MemoryStore
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newService() (*Service, *mocks) {
	m := &mocks{
		settings: new(SettingsMock),
		users:    new(UserRepoMock),
		profiles: new(ProfileSyncMock),
		journal:  new(ActivityLogMock),
		activity: new(ActivityMock),
		local:    content.NewMemoryStore(),
		primary:  content.NewMemoryStore(),
	}
	resolver := content.NewResolver(newNoopLogger(), m.local, m.primary)
	return New(m.settings, resolver, m.users, m.profiles, m.journal, m.activity, newNoopLogger()), m
}

var (
	adminSession   = entitlement.Session{User: models.User{UID: "a1", Username: "root", Role: models.RoleAdmin}}
	studentSession = entitlement.Session{User: models.User{UID: "s1", Role: models.RoleStudent}}
)

func TestService_RequiresAdmin(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	impersonating := entitlement.Session{User: studentSession.User, Impersonator: &adminSession.User}
	for _, s := range []entitlement.Session{studentSession, impersonating} {
		assert.ErrorIs(t, svc.SaveSettings(ctx, s, models.DefaultSettings()), ErrForbidden)
		_, err := svc.UploadContent(ctx, s, UploadRequest{})
		assert.ErrorIs(t, err, ErrForbidden)
		_, err = svc.UpdateUser(ctx, s, "x", models.UserUpdate{})
		assert.ErrorIs(t, err, ErrForbidden)
		_, err = svc.ListUsers(ctx, s, 10, 0)
		assert.ErrorIs(t, err, ErrForbidden)
		_, err = svc.ListActivity(ctx, s, 10)
		assert.ErrorIs(t, err, ErrForbidden)
	}
}

func TestService_SaveSettings(t *testing.T) {
	tests := []struct {
		name       string
		settings   models.Settings
		setupMocks func(m *mocks)
		wantErr    bool
	}{
		{
			name:     "saved and recorded",
			settings: models.Settings{AppName: "NST", MaintenanceMode: true},
			setupMocks: func(m *mocks) {
				m.settings.On("Save", mock.Anything, models.Settings{AppName: "NST", MaintenanceMode: true}).Return(nil).Once()
				m.activity.On("Record", mock.Anything, adminSession.User, activity.ActionSettingsUpdate, "maintenance=true signup=false").Once()
			},
		},
		{
			name:       "negative bonus",
			settings:   models.Settings{SignupBonus: -1},
			setupMocks: func(*mocks) {},
			wantErr:    true,
		},
		{
			name:     "store failure",
			settings: models.DefaultSettings(),
			setupMocks: func(m *mocks) {
				m.settings.On("Save", mock.Anything, mock.Anything).Return(errors.New("redis down")).Once()
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService()
			tt.setupMocks(m)

			err := svc.SaveSettings(context.Background(), adminSession, tt.settings)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			m.settings.AssertExpectations(t)
			m.activity.AssertExpectations(t)
		})
	}
}

func TestService_UploadContent_ReplacesStaleLocalCopy(t *testing.T) {
	svc, m := newService()
	ctx := context.Background()

	req := models.ContentRequest{Board: "CBSE", ClassLevel: "9", Subject: "Maths", ChapterID: "c1", Type: models.ContentMCQAnalysis}
	key := content.Key(req)
	require.NoError(t, m.local.Set(ctx, key, &models.ContentArtifact{Title: "stale"}))
	m.activity.On("Record", mock.Anything, adminSession.User, activity.ActionContentUpload, "Updated "+key).Once()

	price := 4
	gotKey, err := svc.UploadContent(ctx, adminSession, UploadRequest{
		Request:  req,
		Artifact: models.ContentArtifact{Title: "fresh", Price: &price},
	})
	require.NoError(t, err)
	assert.Equal(t, key, gotKey)

	_, ok, err := m.local.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, ok, err := m.primary.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "fresh", stored.Title)
	assert.Equal(t, models.ContentMCQAnalysis, stored.Type)
	require.NotNil(t, stored.Price)
	assert.Equal(t, 4, *stored.Price)
}

func TestService_UploadContent_Invalid(t *testing.T) {
	svc, _ := newService()
	_, err := svc.UploadContent(context.Background(), adminSession, UploadRequest{Request: models.ContentRequest{Type: "BOGUS"}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	neg := -1
	_, err = svc.UploadContent(context.Background(), adminSession, UploadRequest{
		Request:  models.ContentRequest{Type: models.ContentPDFFree},
		Artifact: models.ContentArtifact{Price: &neg},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UploadContent(context.Background(), adminSession, UploadRequest{
		Request: models.ContentRequest{Board: "CBSE", ClassLevel: "12", Subject: "Physics", ChapterID: "1", Type: models.ContentPDFFree},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_UpdateUser(t *testing.T) {
	svc, m := newService()
	credits := 25
	locked := true
	upd := models.UserUpdate{Credits: &credits, IsLocked: &locked}
	updated := &models.User{UID: "s1", Username: "pupil", Credits: 25, IsLocked: true}

	m.users.On("UpdateUserAccess", mock.Anything, "s1", upd).Return(updated, nil).Once()
	m.profiles.On("SyncProfile", mock.Anything, *updated).Once()
	m.activity.On("Record", mock.Anything, adminSession.User, activity.ActionUserUpdate, "Updated pupil credits=25 locked=true").Once()

	got, err := svc.UpdateUser(context.Background(), adminSession, "s1", upd)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
	m.users.AssertExpectations(t)
	m.profiles.AssertExpectations(t)
	m.activity.AssertExpectations(t)
}

func TestService_UpdateUser_NotFound(t *testing.T) {
	svc, m := newService()
	notFound := errors.New("user not found")
	m.users.On("UpdateUserAccess", mock.Anything, "x", mock.Anything).Return(nil, notFound).Once()

	_, err := svc.UpdateUser(context.Background(), adminSession, "x", models.UserUpdate{})
	assert.ErrorIs(t, err, notFound)
	m.profiles.AssertNotCalled(t, "SyncProfile", mock.Anything, mock.Anything)
}

func TestService_ListUsers_ClampsPaging(t *testing.T) {
	svc, m := newService()
	m.users.On("ListUsers", mock.Anything, 100, 0).Return([]*models.User{{UID: "u"}}, nil).Once()

	users, err := svc.ListUsers(context.Background(), adminSession, 0, -5)
	require.NoError(t, err)
	assert.Len(t, users, 1)
	m.users.AssertExpectations(t)
}

func TestService_ListActivity(t *testing.T) {
	svc, m := newService()
	entries := []models.ActivityEntry{{ID: "1", Action: activity.ActionLogin}}
	m.journal.On("List", mock.Anything, 50).Return(entries, nil).Once()

	got, err := svc.ListActivity(context.Background(), adminSession, 50)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}
