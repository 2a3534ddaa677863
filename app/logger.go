package app

import (
	"io"
	"log/slog"
)

// NewLogger JSON 输出，级别来自 LOG_LEVEL
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
