package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	activityworker "github.com/magabrotheeeer/tutor-platform/internal/app/activity-worker"
	"github.com/magabrotheeeer/tutor-platform/internal/config"
	"github.com/magabrotheeeer/tutor-platform/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.New(cfg.Env, os.Stdout)

	logger.Info("starting activity-worker", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := activityworker.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize worker", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("worker stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("activity-worker stopped gracefully")
}
