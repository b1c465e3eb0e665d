// Package logger provides the process-wide slog logger and shared log attributes.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"go.uber.org/fx"
)

// Module provides the root logger to the fx graph.
var Module = fx.Module("logger",
	fx.Provide(NewLogger),
)

// NewLogger builds the root logger from LOG_LEVEL and GO_ENV.
// Production (GO_ENV=production) logs JSON; everything else logs text.
// Unknown or missing LOG_LEVEL falls back to info.
func NewLogger() *slog.Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(os.Getenv("GO_ENV"), "production") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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

// Scope tags a logger with the subsystem it belongs to, e.g. "sync.svc".
func Scope(scope string) slog.Attr {
	return slog.String("scope", scope)
}

// Error wraps an error for structured logging.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}
