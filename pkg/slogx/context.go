package slogx

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/custodian/pkg/idx"
)

type (
	loggerKey    struct{}
	requestIDKey struct{}
)

// WithContext stores logger in ctx for FromContext.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the request-scoped logger, or slog.Default outside a
// request.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// WithUserID scopes the contextual logger to a chat user.
func WithUserID(ctx context.Context, userID string) context.Context {
	return WithContext(ctx, FromContext(ctx).With("user_id", userID))
}

func withRequestID(ctx context.Context, id idx.ID) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the ID HTTPMiddleware assigned, or the zero ID.
func RequestID(ctx context.Context) idx.ID {
	id, _ := ctx.Value(requestIDKey{}).(idx.ID)
	return id
}
