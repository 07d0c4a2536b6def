package graphcheck

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/graphcheck/internal/report"
)

// Logger wraps slog.Logger with graphcheck-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithStore adds the store location to the logger.
func (l *Logger) WithStore(location string) *Logger {
	return &Logger{
		Logger: l.Logger.With("store", location),
	}
}

// WithWorkers adds a workers field to the logger.
func (l *Logger) WithWorkers(n int) *Logger {
	return &Logger{
		Logger: l.Logger.With("workers", n),
	}
}

// LogOpen logs opening a store file.
func (l *Logger) LogOpen(ctx context.Context, file string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"file", file,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "opened",
			"file", file,
		)
	}
}

// LogSummary logs the finding counts of a pass.
func (l *Logger) LogSummary(ctx context.Context, s report.Summary) {
	if s.Clean() {
		l.InfoContext(ctx, "store is consistent")
		return
	}
	for _, k := range report.Kinds() {
		if n := s.Count(k); n > 0 {
			l.WarnContext(ctx, "inconsistencies found",
				"kind", k.String(),
				"count", n,
			)
		}
	}
}
