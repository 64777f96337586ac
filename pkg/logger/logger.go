package logger

import (
	"log/slog"
	"os"
)

const serviceName = "travel-listings"

var defaultLogger *slog.Logger

// Init configures the default logger from the environment name: JSON at info
// level in production, text at debug level everywhere else.
func Init(env string) {
	if env == "production" {
		InitWithOptions("info", "json")
		return
	}
	InitWithOptions("debug", "text")
}

// InitWithOptions configures the default logger with the level and format
// carried by the observability config.
func InitWithOptions(level, format string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	defaultLogger = slog.New(handler).With("service", serviceName)
	slog.SetDefault(defaultLogger)
}

func parseLevel(level string) slog.Level {
	switch level {
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

func LoggerWrapper() *slog.Logger {
	if defaultLogger == nil {
		// lazy initialize a development logger to avoid nil pointer panics
		Init("development")
	}
	return defaultLogger
}
