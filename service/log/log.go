package log

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

var defaultLogger = zap.NewNop()

// Init installs the process-wide fallback logger returned by Logger when the
// context carries none.
func Init(l *zap.Logger) {
	defaultLogger = l
}

// Logger returns the logger attached to ctx, or the fallback logger.
func Logger(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return defaultLogger
}

// With returns a context whose logger carries the additional field.
func With(ctx context.Context, key string, value interface{}) context.Context {
	return context.WithValue(ctx, ctxKey{}, Logger(ctx).With(zap.Any(key, value)))
}

// WithLogger attaches l to the context.
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// Fatal logs the message with the fallback logger and exits.
func Fatal(msg string, fields ...zap.Field) {
	defaultLogger.Fatal(msg, fields...)
}
