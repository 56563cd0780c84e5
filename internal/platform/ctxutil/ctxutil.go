// Copyright (c) 2026 Kometa. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package ctxutil carries request-scoped values through [context.Context].

Middleware stores the request ID, the per-request logger and the verified
caller; handlers and the response writer read them back. The keys are
unexported so only this package can set or read them.
*/
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/daviddhdev/kometa/internal/platform/sec"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	loggerKey
	authUserKey
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID returns the request ID, or "" outside a request.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithLogAttrs narrows the context logger with extra attributes.
func WithLogAttrs(ctx context.Context, args ...any) context.Context {
	return WithLogger(ctx, GetLogger(ctx).With(args...))
}

// GetLogger returns the request logger, falling back to [slog.Default].
func GetLogger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// # Identity

// WithAuthUser returns a new context carrying the verified caller identity.
func WithAuthUser(ctx context.Context, user *sec.AuthClaims) context.Context {
	return context.WithValue(ctx, authUserKey, user)
}

// GetAuthUser returns the verified caller, or nil for anonymous requests.
func GetAuthUser(ctx context.Context) *sec.AuthClaims {
	claims, _ := ctx.Value(authUserKey).(*sec.AuthClaims)
	return claims
}
