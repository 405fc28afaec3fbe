package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	scigoErrors "github.com/YuminosukeSato/scigo-cart/pkg/errors"
)

// ComponentFieldKey is the field GetLoggerWithName attaches to every record.
const ComponentFieldKey = "component"

// ZerologProvider is the default LoggerProvider. All loggers it hands out
// share one zerolog.Logger, so SetLevel and SetOutput apply to loggers that
// were created earlier as well.
type ZerologProvider struct {
	mu    sync.RWMutex
	base  zerolog.Logger
	level Level
}

// NewZerologProvider returns a provider writing JSON lines to w at the
// given minimum level.
func NewZerologProvider(w io.Writer, level Level) *ZerologProvider {
	return &ZerologProvider{
		base:  zerolog.New(w).With().Timestamp().Logger(),
		level: level,
	}
}

// GetLogger implements LoggerProvider.
func (p *ZerologProvider) GetLogger() Logger {
	return &zerologLogger{provider: p}
}

// GetLoggerWithName implements LoggerProvider.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	return &zerologLogger{provider: p, fields: []any{ComponentFieldKey, name}}
}

// SetLevel implements LoggerProvider.
func (p *ZerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = level
}

// SetOutput redirects every logger of this provider to w.
func (p *ZerologProvider) SetOutput(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.base = p.base.Output(w)
}

func (p *ZerologProvider) snapshot() (zerolog.Logger, Level) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.base, p.level
}

type zerologLogger struct {
	provider *ZerologProvider
	fields   []any
}

func (l *zerologLogger) Debug(msg string, fields ...any) { l.emit(LevelDebug, msg, fields) }
func (l *zerologLogger) Info(msg string, fields ...any)  { l.emit(LevelInfo, msg, fields) }
func (l *zerologLogger) Warn(msg string, fields ...any)  { l.emit(LevelWarn, msg, fields) }
func (l *zerologLogger) Error(msg string, fields ...any) { l.emit(LevelError, msg, fields) }

func (l *zerologLogger) With(fields ...any) Logger {
	merged := make([]any, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &zerologLogger{provider: l.provider, fields: merged}
}

func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	_, min := l.provider.snapshot()
	return level >= min
}

func (l *zerologLogger) emit(level Level, msg string, fields []any) {
	base, min := l.provider.snapshot()
	if level < min {
		return
	}

	var event *zerolog.Event
	switch level {
	case LevelDebug:
		event = base.Debug()
	case LevelInfo:
		event = base.Info()
	case LevelWarn:
		event = base.Warn()
	default:
		event = base.Error()
	}

	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			event = event.Err(err)
			fields = fields[1:]
		}
	}
	appendFields(event, l.fields)
	appendFields(event, fields)
	event.Msg(msg)
}

func appendFields(event *zerolog.Event, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		switch v := fields[i+1].(type) {
		case zerolog.LogObjectMarshaler:
			event.Object(key, v)
		case error:
			event.AnErr(key, v)
		default:
			event.Interface(key, v)
		}
	}
}

var (
	providerMu      sync.RWMutex
	defaultProvider LoggerProvider = NewZerologProvider(os.Stderr, LevelWarn)
)

func init() {
	scigoErrors.SetZerologWarnFunc(func(w error) {
		GetLoggerWithName("warnings").Warn(w.Error(), "warning", w)
	})
}

// SetProvider installs p as the process-wide provider and returns the
// previous one so tests can restore it.
func SetProvider(p LoggerProvider) LoggerProvider {
	providerMu.Lock()
	defer providerMu.Unlock()
	prev := defaultProvider
	defaultProvider = p
	return prev
}

func currentProvider() LoggerProvider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return defaultProvider
}

// GetLogger returns a logger from the current provider.
func GetLogger() Logger {
	return currentProvider().GetLogger()
}

// GetLoggerWithName returns a logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	return currentProvider().GetLoggerWithName(name)
}

// SetLevel sets the minimum level on the current provider.
func SetLevel(level Level) {
	currentProvider().SetLevel(level)
}
