// Package log provides the structured logging interface used by the tree
// estimators and builders.
//
// The interface mirrors log/slog's key/value calling convention so that
// call sites stay backend agnostic. The default backend is zerolog (see
// zerolog.go); tests swap in TestLoggerProvider to capture records.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("tree.builder").With(
//	    log.ModelNameKey, "DecisionTreeClassifier",
//	)
//	logger.Debug("build finished",
//	    log.NodeCountKey, 15,
//	    log.DepthKey, 3,
//	)
package log

import (
	"context"
)

// Logger is a structured logger. Fields are alternating key/value pairs.
// Error additionally accepts an error as its first field.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)

	// With returns a child logger that includes fields in every record.
	With(fields ...any) Logger

	// Enabled reports whether a record at level would be emitted. Use it to
	// skip building expensive fields such as per-node dumps.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates loggers. The package-level GetLogger and
// GetLoggerWithName delegate to the provider installed with SetProvider.
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
	SetLevel(level Level)
}
