// Package settings держит актуальные системные настройки в памяти процесса.
//
// Настройки загружаются один раз при старте и обновляются по уведомлениям
// realtime-хранилища. Бизнес-код читает Current и не опрашивает хранилище.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/magabrotheeeer/tutor-platform/internal/lib/sl"
	"github.com/magabrotheeeer/tutor-platform/internal/models"
)

// Path путь настроек в realtime-хранилище.
const Path = "nst_system_settings"

// Source хранилище настроек с подпиской на изменения.
type Source interface {
	Get(ctx context.Context, path string) ([]byte, bool, error)
	Set(ctx context.Context, path string, value any) error
	Subscribe(ctx context.Context, path string, fn func([]byte)) error
}

// Watcher наблюдатель за системными настройками.
type Watcher struct {
	src     Source
	log     *slog.Logger
	current atomic.Pointer[models.Settings]

	mu        sync.Mutex
	observers []func(models.Settings)
}

// NewWatcher создаёт Watcher с настройками по умолчанию.
func NewWatcher(src Source, log *slog.Logger) *Watcher {
	w := &Watcher{src: src, log: log}
	defaults := models.DefaultSettings()
	w.current.Store(&defaults)
	return w
}

// Start загружает настройки и подписывается на изменения до отмены ctx.
// Если в хранилище настроек нет, остаются значения по умолчанию.
func (w *Watcher) Start(ctx context.Context) error {
	const op = "settings.Start"

	raw, found, err := w.src.Get(ctx, Path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if found {
		w.apply(raw)
	}

	if err := w.src.Subscribe(ctx, Path, w.apply); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Current возвращает текущие настройки.
func (w *Watcher) Current() models.Settings {
	return *w.current.Load()
}

// OnChange регистрирует наблюдателя, вызываемого после каждого обновления.
func (w *Watcher) OnChange(fn func(models.Settings)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.observers = append(w.observers, fn)
}

// Save записывает настройки в хранилище. Подписчики, включая этот процесс,
// получат их через уведомление; локальное значение обновляется сразу.
func (w *Watcher) Save(ctx context.Context, s models.Settings) error {
	const op = "settings.Save"
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := w.src.Set(ctx, Path, raw); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	w.apply(raw)
	return nil
}

func (w *Watcher) apply(raw []byte) {
	s := models.DefaultSettings()
	if err := json.Unmarshal(raw, &s); err != nil {
		w.log.Warn("ignoring malformed settings", slog.String("path", Path), sl.Err(err))
		return
	}
	w.store(s)
}

func (w *Watcher) store(s models.Settings) {
	// эхо собственной записи приходит с тем же значением
	if reflect.DeepEqual(*w.current.Load(), s) {
		return
	}
	w.current.Store(&s)

	w.mu.Lock()
	observers := make([]func(models.Settings), len(w.observers))
	copy(observers, w.observers)
	w.mu.Unlock()

	for _, fn := range observers {
		fn(s)
	}
}
