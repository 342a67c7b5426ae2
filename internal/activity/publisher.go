package activity

import (
	"context"
	"fmt"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/tutor-platform/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/tutor-platform/internal/models"
)

// Publisher отправляет записи журнала в RabbitMQ для activity-worker.
type Publisher struct {
	mu sync.Mutex
	ch *amqp.Channel
}

// NewPublisher создаёт Publisher поверх настроенного канала.
func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{ch: ch}
}

// Append публикует запись в обменник activity.
func (p *Publisher) Append(ctx context.Context, entry models.ActivityEntry) error {
	const op = "activity.Publisher.Append"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	// amqp.Channel нельзя использовать из нескольких горутин одновременно
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := rabbitmq.PublishMessage(p.ch, rabbitmq.ActivityExchange, rabbitmq.ActivityRoutingKey, entry); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
