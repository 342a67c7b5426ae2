package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/tutor-platform/internal/models"
)

// MessageHandler разбирает запись из очереди и дописывает её в sink.
// Ошибка sink возвращает сообщение в очередь, битые сообщения подтверждаются и отбрасываются.
func MessageHandler(sink Sink, log *slog.Logger, timeout time.Duration) func([]byte) error {
	return func(body []byte) error {
		const op = "activity.MessageHandler"

		var entry models.ActivityEntry
		if err := json.Unmarshal(body, &entry); err != nil || entry.ID == "" {
			log.Error("dropping malformed activity message", slog.String("op", op), slog.String("body", string(body)))
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := sink.Append(ctx, entry); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	}
}
