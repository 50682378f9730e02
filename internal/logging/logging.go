// Package logging configures the process-wide slog loggers and provides
// per-service file loggers with rotation.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	structuredLogger *slog.Logger
	defaultLevelVar  = new(slog.LevelVar)
)

// Init initializes the logging system. Structured logs go to stderr so
// command output on stdout stays machine-readable.
func Init() {
	defaultLevelVar.Set(slog.LevelInfo)
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: defaultLevelVar,
	})
	structuredLogger = slog.New(handler)
	slog.SetDefault(structuredLogger)
}

// SetLevel adjusts the minimum level of the default loggers.
func SetLevel(level slog.Level) {
	defaultLevelVar.Set(level)
}

// ForService returns a logger with the service attribute set, based on the
// default logger. Safe to call before Init.
func ForService(serviceName string) *slog.Logger {
	if structuredLogger == nil {
		return slog.Default().With("service", serviceName)
	}
	return structuredLogger.With("service", serviceName)
}

// Debug logs a debug message using the default logger.
func Debug(msg string, args ...any) { slog.Debug(msg, args...) }

// Info logs an info message using the default logger.
func Info(msg string, args ...any) { slog.Info(msg, args...) }

// Warn logs a warning message using the default logger.
func Warn(msg string, args ...any) { slog.Warn(msg, args...) }

// Error logs an error message using the default logger.
func Error(msg string, args ...any) { slog.Error(msg, args...) }

// NewFileLogger creates a slog.Logger writing JSON to the given file with
// lumberjack rotation, tagged with the service name. It returns the logger,
// a closer for the underlying writer, and an error if the log directory
// cannot be created.
func NewFileLogger(filePath, serviceName string, level slog.Leveler) (*slog.Logger, func() error, error) {
	logDir := filepath.Dir(filePath)
	if logDir != "." {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}
	}

	logWriter := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    20, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
	}

	handler := slog.NewJSONHandler(logWriter, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler).With("service", serviceName)

	return logger, logWriter.Close, nil
}

// DiscardLogger returns a logger that drops everything, used as the
// fallback when a file logger cannot be created.
func DiscardLogger(serviceName string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil)).With("service", serviceName)
}
