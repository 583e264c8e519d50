// Package logger builds slog handlers from the log section of the
// configuration. It does not open files; the writer is chosen by the caller.
package logger

import (
	"io"
	"log/slog"
	"strings"

	"github.com/astroinject/astroinject/pkg/config"
)

// New creates a new slog.Logger that writes to w according to cfg.
func New(w io.Writer, cfg config.LogConfig) *slog.Logger {
	return slog.New(NewHandler(w, cfg))
}

// NewHandler creates a JSON or text handler for w.
// Invalid values default to Info level and JSON format.
func NewHandler(w io.Writer, cfg config.LogConfig) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
	}

	switch strings.ToLower(cfg.Format) {
	case "text":
		return slog.NewTextHandler(w, opts)
	default:
		return slog.NewJSONHandler(w, opts)
	}
}

// ParseLevel converts a string log level to slog.Level.
// Valid levels: "debug", "info", "warn", "error" (case-insensitive).
// Invalid levels default to Info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
