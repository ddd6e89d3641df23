package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New returns a structured JSON logger. LOG_LEVEL=debug|warn|error overrides info.
func New() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: levelFromEnv(os.Getenv("LOG_LEVEL")),
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func levelFromEnv(v string) slog.Level {
	switch strings.ToLower(v) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
