// Package logger provides structured, context-aware logging for the application.
package logger

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Level controls the minimum severity that gets emitted.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// LoggerInterface is the logging contract used throughout the application.
// Key/value pairs follow the message, slog style.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) LoggerInterface
}

// Logger implements LoggerInterface on top of slog.
type Logger struct {
	handler *slog.Logger
}

var _ LoggerInterface = (*Logger)(nil)

// New creates a Logger writing JSON records to w at the given level.
// Service is attached to every record; extra attrs are optional.
func New(w io.Writer, level Level, service string, attrs []slog.Attr) *Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slogLevel(level),
	})

	l := slog.New(h.WithAttrs(append([]slog.Attr{
		slog.String("service", service),
	}, attrs...)))

	return &Logger{handler: l}
}

func slogLevel(level Level) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.handler.DebugContext(ctx, msg, withTrace(ctx, args)...)
}

func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.handler.InfoContext(ctx, msg, withTrace(ctx, args)...)
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.handler.WarnContext(ctx, msg, withTrace(ctx, args)...)
}

func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.handler.ErrorContext(ctx, msg, withTrace(ctx, args)...)
}

// With returns a logger with the given attributes bound to every record.
func (l *Logger) With(args ...any) LoggerInterface {
	return &Logger{handler: l.handler.With(args...)}
}

// withTrace appends the active trace id so log lines correlate with spans.
func withTrace(ctx context.Context, args []any) []any {
	span := trace.SpanFromContext(ctx)
	if sc := span.SpanContext(); sc.IsValid() {
		return append(args, "trace_id", sc.TraceID().String())
	}
	return args
}
