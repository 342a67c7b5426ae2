// Package localcache хранит артефакты контента в файле SQLite на устройстве.
// Это нижний, всегда доступный уровень кэша: он переживает перезапуск процесса.
package localcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	// Регистрация драйвера sqlite.
	_ "modernc.org/sqlite"

	"github.com/magabrotheeeer/tutor-platform/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS content_cache (
    key TEXT PRIMARY KEY,
    artifact TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);`

// Store локальный кэш контента.
type Store struct {
	db *sql.DB
}

// Open открывает файл кэша и создаёт схему.
func Open(path string) (*Store, error) {
	const op = "localcache.Open"

	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%s: cache path is required", op)
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{db: db}, nil
}

// Close закрывает файл кэша.
func (s *Store) Close() error {
	return s.db.Close()
}

// Name имя уровня для журнала и метрик.
func (s *Store) Name() string {
	return "local"
}

// Get возвращает артефакт по ключу.
func (s *Store) Get(ctx context.Context, key string) (*models.ContentArtifact, bool, error) {
	const op = "localcache.Get"
	if err := ctx.Err(); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT artifact FROM content_cache WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	var a models.ContentArtifact
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return &a, true, nil
}

// Set сохраняет артефакт, заменяя прежний.
func (s *Store) Set(ctx context.Context, key string, artifact *models.ContentArtifact) error {
	const op = "localcache.Set"
	if artifact == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	data, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO content_cache (key, artifact, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET artifact = excluded.artifact, updated_at = excluded.updated_at`,
		key, string(data), time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Delete удаляет артефакт из кэша.
func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "localcache.Delete"

	if _, err := s.db.ExecContext(ctx, `DELETE FROM content_cache WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
