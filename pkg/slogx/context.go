package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// WithUser annotates the request logger with the authenticated principal and
// the scheme that authenticated it.
func WithUser(ctx context.Context, username, scheme string) context.Context {
	l := FromContext(ctx)
	return WithContext(ctx, l.With("user", username, "auth_scheme", scheme))
}
