// Package logging provides structured logging for phasor operations
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"
)

// Logger wraps slog.Logger with field helpers for table operations.
type Logger struct {
	*slog.Logger
}

var defaultLogger atomic.Pointer[Logger]

func init() {
	defaultLogger.Store(NewTextLogger(slog.LevelInfo))
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, a text handler writing to stderr at info level is used.
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

// NewTextLogger creates a Logger that outputs human-readable text logs to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewWriterLogger(os.Stderr, level, false)
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewWriterLogger(os.Stderr, level, true)
}

// NewWriterLogger creates a Logger writing to w, as JSON when asJSON is set.
func NewWriterLogger(w io.Writer, level slog.Level, asJSON bool) *Logger {
	opts := &slog.HandlerOptions{Level: level}
	if asJSON {
		return NewLogger(slog.NewJSONHandler(w, opts))
	}
	return NewLogger(slog.NewTextHandler(w, opts))
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))
}

// Default returns the package-wide logger
func Default() *Logger {
	return defaultLogger.Load()
}

// SetDefault replaces the package-wide logger. A nil logger installs NoopLogger.
func SetDefault(l *Logger) {
	if l == nil {
		l = NoopLogger()
	}
	defaultLogger.Store(l)
}

// LevelFor maps the verbose flag of the configuration to a level
func LevelFor(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// WithOp adds an operation field to the logger.
func (l *Logger) WithOp(op string) *Logger {
	return &Logger{
		Logger: l.Logger.With("op", op),
	}
}

// WithColumn adds a column field to the logger.
func (l *Logger) WithColumn(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("column", name),
	}
}

// LogTransform logs the completion of a dataset transform.
func (l *Logger) LogTransform(ctx context.Context, op string, groups, rows int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "transform failed",
			"op", op,
			"groups", groups,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "transform completed",
		"op", op,
		"groups", groups,
		"rows", rows,
		"elapsed", elapsed,
	)
}

// LogFile logs a file read or write.
func (l *Logger) LogFile(ctx context.Context, action, path string, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, action+" failed",
			"path", path,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, action+" completed",
		"path", path,
		"rows", rows,
	)
}
