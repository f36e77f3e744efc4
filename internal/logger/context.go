package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// RunIDKey is the log field correlating every line of one CLI run or HTTP request.
const RunIDKey = "run_id"

// ContextWithLogger stores a logger in the context.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext extracts a logger from the context.
// Returns zap.NewNop() if no logger is found.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// WithRunID tags the context logger with id.
func WithRunID(ctx context.Context, id string) context.Context {
	return ContextWithLogger(ctx, FromContext(ctx).With(zap.String(RunIDKey, id)))
}
