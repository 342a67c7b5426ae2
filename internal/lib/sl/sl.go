// Package sl вспомогательные функции для slog.
package sl

import (
	"io"
	"log/slog"
)

const (
	envLocal = "local"
	envDev   = "dev"
)

// Err возвращает атрибут "error" с текстом ошибки.
//
//	log.Error("failed to open content", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// New создаёт текстовый логгер: debug для local и dev, info для остальных окружений.
func New(env string, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if env == envLocal || env == envDev {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
