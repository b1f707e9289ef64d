package logging

import (
	"context"
	"log/slog"
	"os"
)

// SlogLogger adapts log/slog to the Logger interface. The request id from
// the context, when present, is attached to every record.
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps an existing slog.Logger.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

// NewJSONLogger builds the default production logger: JSON records on stdout.
func NewJSONLogger() *SlogLogger {
	return NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
}

// NewNopLogger discards everything; used in tests that do not assert on logs.
func NewNopLogger() *SlogLogger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(devNull{}, &slog.HandlerOptions{Level: slog.LevelError + 1})))
}

type devNull struct{}

func (devNull) Write(p []byte) (int, error) { return len(p), nil }

func (s *SlogLogger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if id := RequestIDFromContext(ctx); id != "" {
		args = append(args, "request_id", id)
	}
	s.l.Log(ctx, level, msg, args...)
}

func (s *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelDebug, msg, args...)
}

func (s *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelInfo, msg, args...)
}

func (s *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelWarn, msg, args...)
}

func (s *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelError, msg, args...)
}

func (s *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{l: s.l.With(args...)}
}
