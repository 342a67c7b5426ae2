// Package activityworker переносит записи журнала активности из RabbitMQ в redis.
package activityworker

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/tutor-platform/internal/activity"
	"github.com/magabrotheeeer/tutor-platform/internal/config"
	"github.com/magabrotheeeer/tutor-platform/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/tutor-platform/internal/lib/sl"
	"github.com/magabrotheeeer/tutor-platform/internal/realtime"
)

// appendTimeout ограничение на запись одной записи в redis.
const appendTimeout = 5 * time.Second

type App struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	rt      *realtime.Store
	journal *activity.RedisLog
	metrics *http.Server
	logger  *slog.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	rt, err := realtime.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.ActivityExchange, rabbitmq.GetActivityQueues())
	if err != nil {
		_ = conn.Close()
		_ = rt.Close()
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &App{
		conn:    conn,
		ch:      ch,
		rt:      rt,
		journal: activity.NewRedisLog(rt.Db, cfg.MaxEntries),
		metrics: &http.Server{Addr: cfg.AddressHTTP, Handler: mux, ReadTimeout: cfg.TimeoutHTTP},
		logger:  logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	handler := activity.MessageHandler(a.journal, a.logger, appendTimeout)
	err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.ActivityQueue, a.logger, handler)
	if err != nil {
		a.logger.Error("failed to start activity consumer", sl.Err(err))
		return err
	}

	go func() {
		a.logger.Info("metrics server starting on", slog.String("address", a.metrics.Addr))
		if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", sl.Err(err))
		}
	}()

	<-ctx.Done()
	a.logger.Info("activity worker shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.metrics.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("failed to stop metrics server", sl.Err(err))
	}
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.rt.Close(); err != nil {
		a.logger.Error("failed to close redis", sl.Err(err))
	}
	return nil
}
