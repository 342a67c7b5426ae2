package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/tutor-platform/internal/migrations"
	"github.com/magabrotheeeer/tutor-platform/internal/models"
)

// setupStorage поднимает PostgreSQL в контейнере и накатывает миграции.
func setupStorage(t *testing.T) *Storage {
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	path, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, path))

	return storage
}

func newTestUser(credits int) models.User {
	name := "user_" + uuid.NewString()[:8]
	return models.User{
		Username:         name,
		Name:             "Test " + name,
		Email:            name + "@example.com",
		PasswordHash:     "hash",
		Role:             models.RoleStudent,
		Credits:          credits,
		SubscriptionTier: models.TierNone,
		Board:            "CBSE",
		ClassLevel:       "10",
	}
}
