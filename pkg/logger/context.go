package logger

import (
	"context"
	"log/slog"
)

type ctxKey string

const loggerKey ctxKey = "request_logger"

// With returns a context carrying a logger enriched with fields, so request
// attributes like the trace ID follow the request through the layers.
func With(ctx context.Context, fields ...any) context.Context {
	l := From(ctx).With(fields...)
	return context.WithValue(ctx, loggerKey, l)
}

// From returns the request-scoped logger, or the service default when the
// context carries none.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return LoggerWrapper()
}
