// Package realtime реализует вторичное хранилище значений по путям поверх redis.
//
// Каждая запись публикует уведомление в канал changes:<path>, на который
// подписываются наблюдатели (например, живые настройки).
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/tutor-platform/internal/config"
)

const changesPrefix = "changes:"

// Store обёртка над клиентом redis.
type Store struct {
	Db *redis.Client
}

// InitServer подключается к redis и проверяет соединение.
func InitServer(ctx context.Context, cfg config.RedisConnection) (*Store, error) {
	const op = "realtime.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{Db: db}, nil
}

// ChangesChannel канал уведомлений об изменении значения по пути.
func ChangesChannel(path string) string {
	return changesPrefix + path
}

// Get возвращает сырое JSON-значение по пути.
func (s *Store) Get(ctx context.Context, path string) ([]byte, bool, error) {
	const op = "realtime.Get"
	val, err := s.Db.Get(ctx, path).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return val, true, nil
}

// Set сохраняет значение в JSON и оповещает подписчиков пути.
func (s *Store) Set(ctx context.Context, path string, value any) error {
	const op = "realtime.Set"
	jsonData, err := marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	pipe := s.Db.TxPipeline()
	pipe.Set(ctx, path, jsonData, 0)
	pipe.Publish(ctx, ChangesChannel(path), jsonData)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Delete удаляет значение по пути.
func (s *Store) Delete(ctx context.Context, path string) error {
	const op = "realtime.Delete"
	if err := s.Db.Del(ctx, path).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Subscribe вызывает fn с новым значением при каждом изменении пути.
// Возвращается после установки подписки; доставка идёт в отдельной горутине до отмены ctx.
func (s *Store) Subscribe(ctx context.Context, path string, fn func([]byte)) error {
	const op = "realtime.Subscribe"
	sub := s.Db.Subscribe(ctx, ChangesChannel(path))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("%s: %w", op, err)
	}

	ch := sub.Channel()
	go func() {
		defer func() {
			if err := sub.Close(); err != nil {
				slog.Default().Debug("failed to close subscription", slog.String("path", path), slog.Any("err", err))
			}
		}()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				fn([]byte(msg.Payload))
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Close закрывает соединение с redis.
func (s *Store) Close() error {
	return s.Db.Close()
}

func marshal(value any) ([]byte, error) {
	if raw, ok := value.([]byte); ok {
		return raw, nil
	}
	return json.Marshal(value)
}
