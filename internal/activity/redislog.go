package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/tutor-platform/internal/models"
)

// LogKey ключ списка с журналом активности.
const LogKey = "nst_activity_log"

// RedisLog журнал в списке redis, обрезаемый до последних maxEntries записей.
type RedisLog struct {
	db         *redis.Client
	maxEntries int
}

// NewRedisLog создаёт RedisLog. maxEntries <= 0 означает DefaultMaxEntries.
func NewRedisLog(db *redis.Client, maxEntries int) *RedisLog {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &RedisLog{db: db, maxEntries: maxEntries}
}

// Append добавляет запись в конец и обрезает голову списка в одной транзакции.
func (r *RedisLog) Append(ctx context.Context, entry models.ActivityEntry) error {
	const op = "activity.RedisLog.Append"

	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	pipe := r.db.TxPipeline()
	pipe.RPush(ctx, LogKey, body)
	pipe.LTrim(ctx, LogKey, int64(-r.maxEntries), -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// List возвращает до limit последних записей, от старых к новым.
// limit <= 0 возвращает весь журнал.
func (r *RedisLog) List(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	const op = "activity.RedisLog.List"

	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}
	raw, err := r.db.LRange(ctx, LogKey, start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entries := make([]models.ActivityEntry, 0, len(raw))
	for _, item := range raw {
		var e models.ActivityEntry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
