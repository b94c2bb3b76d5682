package logging

import (
	"context"
	"log/slog"
)

type ctxLoggerKey struct{}

// With attaches a request-scoped logger to the context. The HTTP middleware
// uses this to tag every line handled under one request with its request_id.
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}

// From returns the context's logger, or the process default when the context
// carries none.
func From(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxLoggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return Default()
}
