// Package logger builds the process-wide slog.Logger and provides small
// attribute helpers so log keys stay consistent across packages.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a JSON logger for production environments and a text logger
// everywhere else. level accepts debug, info, warn or error.
func New(env, level string) *slog.Logger {
	return NewWithOutput(os.Stdout, env, level)
}

// NewWithOutput is New with an explicit destination.
func NewWithOutput(w io.Writer, env, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var h slog.Handler
	switch strings.ToLower(env) {
	case "prod", "production":
		h = slog.NewJSONHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With(slog.String("service", "smart-resume"), slog.String("env", env))
}

// Discard returns a logger that drops everything. Used as the default for
// components constructed without a logger.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
