// Package tutorapi собирает HTTP API платформы: хранилища, сервисы и маршруты.
package tutorapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/tutor-platform/internal/activity"
	"github.com/magabrotheeeer/tutor-platform/internal/api/handlers/health"
	"github.com/magabrotheeeer/tutor-platform/internal/config"
	"github.com/magabrotheeeer/tutor-platform/internal/content"
	"github.com/magabrotheeeer/tutor-platform/internal/entitlement"
	"github.com/magabrotheeeer/tutor-platform/internal/ledger"
	"github.com/magabrotheeeer/tutor-platform/internal/lib/jwt"
	"github.com/magabrotheeeer/tutor-platform/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/tutor-platform/internal/lib/sl"
	"github.com/magabrotheeeer/tutor-platform/internal/lib/tracing"
	"github.com/magabrotheeeer/tutor-platform/internal/migrations"
	"github.com/magabrotheeeer/tutor-platform/internal/models"
	"github.com/magabrotheeeer/tutor-platform/internal/producer"
	"github.com/magabrotheeeer/tutor-platform/internal/realtime"
	"github.com/magabrotheeeer/tutor-platform/internal/services/access"
	adminservice "github.com/magabrotheeeer/tutor-platform/internal/services/admin"
	"github.com/magabrotheeeer/tutor-platform/internal/services/auth"
	"github.com/magabrotheeeer/tutor-platform/internal/services/weeklytest"
	"github.com/magabrotheeeer/tutor-platform/internal/settings"
	"github.com/magabrotheeeer/tutor-platform/internal/storage/localcache"
	"github.com/magabrotheeeer/tutor-platform/internal/storage/mongostore"
	"github.com/magabrotheeeer/tutor-platform/internal/storage/repository"
)

// documents основное документное хранилище: postgres или mongo.
type documents interface {
	content.Documents
	weeklytest.Documents
}

type App struct {
	server  *http.Server
	logger  *slog.Logger
	closers []func(context.Context) error
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (app *App, err error) {
	a := &App{logger: logger}
	defer func() {
		if err != nil {
			a.close(context.Background())
		}
	}()

	shutdownTracing, err := tracing.Setup(ctx, "tutor-api", cfg.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	a.closers = append(a.closers, shutdownTracing)

	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return db.Close() })
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	rt, err := realtime.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return rt.Close() })

	checks := map[string]health.Check{
		"postgres": db.DB.PingContext,
		"redis":    func(ctx context.Context) error { return rt.Db.Ping(ctx).Err() },
	}

	var docs documents = db
	if cfg.Driver == "mongo" {
		mongo, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, mongo.Close)
		checks["mongo"] = mongo.Ping
		docs = mongo
	}
	logger.Info("primary store selected", slog.String("driver", cfg.Driver))

	var local content.Store = content.NewMemoryStore()
	if cfg.LocalCachePath != "" {
		cache, err := localcache.Open(cfg.LocalCachePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return cache.Close() })
		local = cache
	}
	resolver := content.NewResolver(logger, local, content.NewDocumentStore(docs), content.NewRealtimeStore(rt))

	journal := activity.NewRedisLog(rt.Db, cfg.MaxEntries)
	var sink activity.Sink = journal
	if cfg.RabbitMQURL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return conn.Close() })
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.ActivityExchange, rabbitmq.GetActivityQueues())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return ch.Close() })
		sink = activity.NewPublisher(ch)
	}
	activityLogger := activity.NewLogger(sink, logger)

	watcher := settings.NewWatcher(rt, logger)
	if err = watcher.Start(ctx); err != nil {
		return nil, err
	}
	watcher.OnChange(func(s models.Settings) {
		logger.Info("settings updated", slog.Bool("maintenance", s.MaintenanceMode), slog.Bool("allow_signup", s.AllowSignup))
	})

	authService := auth.NewAuthService(db, jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL), watcher, activityLogger, logger)
	if err = authService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return nil, err
	}

	l := ledger.New(db, docs, logger)
	svc := services{
		auth: authService,
		access: access.New(resolver, producer.NewClient(cfg.ProducerURL, cfg.ProducerTimeout), l, activityLogger,
			entitlement.NewEvaluator(time.Now), logger),
		tests:    weeklytest.New(docs, activityLogger, logger),
		admin:    adminservice.New(watcher, resolver, db, l, journal, activityLogger, logger),
		settings: watcher,
		storage:  db,
		checks:   checks,
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, svc)

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP + cfg.ProducerTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return a, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close(context.Background())
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close(timeoutCtx)
		return err
	}
}

// close освобождает ресурсы в обратном порядке открытия.
func (a *App) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("failed to release resource", sl.Err(err))
		}
	}
}
