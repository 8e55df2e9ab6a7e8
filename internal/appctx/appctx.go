// Package appctx carries request-scoped values through context. The
// server's logging middleware stores a logger annotated with the request
// id; handlers pull it back out with GetLogger.
package appctx

import (
	"context"
	"log/slog"
)

type ctxKey int

const loggerKey ctxKey = iota

// WithLogger returns a child context carrying l.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// GetLogger returns the logger stored in ctx, falling back to
// slog.Default() when none was attached.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}
