// Package content находит учебные материалы в многоуровневом хранилище.
//
// Уровни опрашиваются строго по порядку: локальный кеш, основное документное
// хранилище, вторичное realtime-хранилище. Первое попадание завершает поиск и
// копируется во все уровни выше. Локальному кешу доверяют без проверки свежести:
// обновлённый удалённо артефакт не виден, пока локальная запись не очищена.
package content

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/magabrotheeeer/tutor-platform/internal/lib/sl"
	"github.com/magabrotheeeer/tutor-platform/internal/metrics"
	"github.com/magabrotheeeer/tutor-platform/internal/models"
)

// SourceMiss источник результата, когда артефакт не найден ни в одном уровне.
const SourceMiss = "miss"

// Resolver обходит уровни хранения в фиксированном порядке.
type Resolver struct {
	local  Store
	remote []Store
	log    *slog.Logger
	tracer trace.Tracer
}

// NewResolver создаёт Resolver. remote перечисляются в порядке приоритета.
func NewResolver(log *slog.Logger, local Store, remote ...Store) *Resolver {
	return &Resolver{
		local:  local,
		remote: remote,
		log:    log,
		tracer: otel.Tracer("github.com/magabrotheeeer/tutor-platform/internal/content"),
	}
}

func (r *Resolver) tiers() []Store {
	tiers := make([]Store, 0, len(r.remote)+1)
	tiers = append(tiers, r.local)
	return append(tiers, r.remote...)
}

// Resolve ищет артефакт по составному ключу и возвращает его вместе с именем уровня,
// в котором он найден. При промахе возвращает nil и SourceMiss.
// Ошибки чтения уровня логируются и считаются промахом.
func (r *Resolver) Resolve(ctx context.Context, key string) (*models.ContentArtifact, string) {
	const op = "content.Resolve"

	ctx, span := r.tracer.Start(ctx, op, trace.WithAttributes(attribute.String("content.key", key)))
	defer span.End()

	log := r.log.With(slog.String("op", op), slog.String("key", key))

	tiers := r.tiers()
	for i, store := range tiers {
		artifact, found, err := store.Get(ctx, key)
		if err != nil {
			log.Warn("content tier read failed", slog.String("tier", store.Name()), sl.Err(err))
			continue
		}
		if !found || artifact == nil {
			continue
		}

		for _, upper := range tiers[:i] {
			if err := upper.Set(ctx, key, artifact); err != nil {
				log.Warn("failed to write through", slog.String("tier", upper.Name()), sl.Err(err))
			}
		}

		metrics.ContentResolveTotal.WithLabelValues(store.Name()).Inc()
		span.SetAttributes(attribute.String("content.tier", store.Name()))
		log.Debug("content resolved", slog.String("tier", store.Name()))
		return artifact, store.Name()
	}

	metrics.ContentResolveTotal.WithLabelValues(SourceMiss).Inc()
	span.SetAttributes(attribute.String("content.tier", SourceMiss))
	return nil, SourceMiss
}

// Persist записывает артефакт во все удалённые уровни по порядку.
// Если хотя бы одна запись не удалась, артефакт кладётся в локальный кеш,
// чтобы текущая сессия всё равно получила результат. Ошибки не возвращаются.
func (r *Resolver) Persist(ctx context.Context, key string, artifact *models.ContentArtifact) {
	const op = "content.Persist"

	if artifact == nil {
		return
	}

	ctx, span := r.tracer.Start(ctx, op, trace.WithAttributes(attribute.String("content.key", key)))
	defer span.End()

	log := r.log.With(slog.String("op", op), slog.String("key", key))

	failed := len(r.remote) == 0
	for _, store := range r.remote {
		if err := store.Set(ctx, key, artifact); err != nil {
			failed = true
			metrics.ContentPersistFailuresTotal.WithLabelValues(store.Name()).Inc()
			log.Warn("failed to persist content", slog.String("tier", store.Name()), sl.Err(err))
		}
	}

	if !failed {
		return
	}
	span.SetAttributes(attribute.Bool("content.degraded", true))
	if err := r.local.Set(ctx, key, artifact); err != nil {
		log.Error("failed to keep content locally", sl.Err(err))
	}
}

// Invalidate удаляет локальную запись, чтобы следующий Resolve перечитал удалённые уровни.
func (r *Resolver) Invalidate(ctx context.Context, key string) {
	inv, ok := r.local.(Invalidator)
	if !ok {
		return
	}
	if err := inv.Delete(ctx, key); err != nil {
		r.log.Warn("failed to invalidate local content", slog.String("key", key), sl.Err(err))
	}
}
