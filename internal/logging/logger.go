// Package logging defines the structured-logging interface used across the
// backend. The variadic args are key-value pairs, e.g.
//
//	log.Info(ctx, "provider attempt failed", "provider", name, "error", err)
package logging

import "context"

// Logger is a context-aware, structured logger.
type Logger interface {
	// Debug logs fine-grained diagnostic detail.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs an unusual but non-fatal condition.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs a failure.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key-value pairs.
	With(args ...any) Logger
}

type ctxKey string

const ctxKeyRequestID ctxKey = "request_id"

// WithRequestID stores a request id in the context so handlers and services
// share one correlation id per request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// RequestIDFromContext returns the stored request id, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}
