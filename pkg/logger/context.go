package logger

import (
	"context"
	"log/slog"
)

type ctxKey string

const fieldsKey ctxKey = "log_fields"

// With returns a context carrying fields that every request-scoped logger
// derived from it will include, such as trace_id and user_id.
func With(ctx context.Context, fields ...any) context.Context {
	if len(fields) == 0 {
		return ctx
	}
	existing := Fields(ctx)
	merged := make([]any, 0, len(existing)+len(fields))
	merged = append(merged, existing...)
	merged = append(merged, fields...)
	return context.WithValue(ctx, fieldsKey, merged)
}

// Fields returns the fields attached to ctx.
func Fields(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(fieldsKey).([]any)
	return fields
}

// Scoped returns l enriched with the fields attached to ctx. A nil l falls
// back to the process logger.
func Scoped(ctx context.Context, l *slog.Logger) *slog.Logger {
	if l == nil {
		l = LoggerWrapper()
	}
	if fields := Fields(ctx); len(fields) > 0 {
		return l.With(fields...)
	}
	return l
}

// From returns the process logger enriched with the fields attached to ctx.
func From(ctx context.Context) *slog.Logger {
	return Scoped(ctx, nil)
}
