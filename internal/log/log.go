// Package log provides structured logging for go-arcade.
// It wraps slog with sensible defaults for production use.
package log

import (
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

var (
	logger atomic.Pointer[slog.Logger]
	once   sync.Once
)

// Init initializes the global logger with the specified level.
// Valid levels: "debug", "info", "warn", "error"
func Init(level string) {
	once.Do(func() {
		l := newLogger(os.Stdout, level, os.Getenv("GO_ENV") == "production")
		logger.Store(l)
		slog.SetDefault(l)
	})
}

// InitWithWriter replaces the global logger with one writing text to w.
// Tests use it to capture or silence output.
func InitWithWriter(w io.Writer, level string) {
	once.Do(func() {})
	logger.Store(newLogger(w, level, false))
}

func newLogger(w io.Writer, level string, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	// Use JSON in production, text in development
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// L returns the global logger instance.
func L() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	Init("info")
	return logger.Load()
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

// With returns a logger with the given attributes.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}
