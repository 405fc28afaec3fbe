package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// TestLogger captures records as JSON lines in memory. Child loggers
// created with With write to the same buffer.
type TestLogger struct {
	sink   *testSink
	level  *Level
	fields map[string]interface{}
}

type testSink struct {
	mu  sync.Mutex
	buf *bytes.Buffer
}

// NewTestLogger creates a TestLogger with the given minimum level and
// returns the buffer it writes to.
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	lvl := level
	return &TestLogger{
		sink:   &testSink{buf: buf},
		level:  &lvl,
		fields: map[string]interface{}{},
	}, buf
}

func (t *TestLogger) Debug(msg string, fields ...any) { t.write(LevelDebug, msg, fields) }
func (t *TestLogger) Info(msg string, fields ...any)  { t.write(LevelInfo, msg, fields) }
func (t *TestLogger) Warn(msg string, fields ...any)  { t.write(LevelWarn, msg, fields) }
func (t *TestLogger) Error(msg string, fields ...any) { t.write(LevelError, msg, fields) }

// With implements Logger.With.
func (t *TestLogger) With(fields ...any) Logger {
	merged := make(map[string]interface{}, len(t.fields)+len(fields)/2)
	for k, v := range t.fields {
		merged[k] = v
	}
	addFields(merged, fields)
	return &TestLogger{sink: t.sink, level: t.level, fields: merged}
}

// Enabled implements Logger.Enabled.
func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	t.sink.mu.Lock()
	defer t.sink.mu.Unlock()
	return level >= *t.level
}

func (t *TestLogger) write(level Level, msg string, fields []any) {
	t.sink.mu.Lock()
	defer t.sink.mu.Unlock()
	if level < *t.level {
		return
	}

	entry := map[string]interface{}{
		"level":   level.String(),
		"message": msg,
	}
	for k, v := range t.fields {
		entry[k] = v
	}
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			entry[ErrAttrKey] = err.Error()
			fields = fields[1:]
		}
	}
	addFields(entry, fields)

	line, _ := json.Marshal(entry)
	t.sink.buf.Write(line)
	t.sink.buf.WriteByte('\n')
}

func addFields(dst map[string]interface{}, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		if err, ok := fields[i+1].(error); ok {
			dst[key] = err.Error()
			continue
		}
		dst[key] = fields[i+1]
	}
}

// Entries parses the captured output.
func (t *TestLogger) Entries() ([]map[string]interface{}, error) {
	t.sink.mu.Lock()
	raw := t.sink.buf.String()
	t.sink.mu.Unlock()

	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ContainsMessage reports whether any record's text contains message.
func (t *TestLogger) ContainsMessage(message string) bool {
	t.sink.mu.Lock()
	defer t.sink.mu.Unlock()
	return strings.Contains(t.sink.buf.String(), message)
}

// ContainsField reports whether some record has key == value after a JSON
// round trip (numbers compare as float64).
func (t *TestLogger) ContainsField(key string, value interface{}) bool {
	entries, err := t.Entries()
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if v, ok := entry[key]; ok && v == value {
			return true
		}
	}
	return false
}

// Clear drops captured output.
func (t *TestLogger) Clear() {
	t.sink.mu.Lock()
	defer t.sink.mu.Unlock()
	t.sink.buf.Reset()
}

// TestLoggerProvider is a LoggerProvider whose loggers all write into one
// TestLogger. Install it with SetProvider and restore the previous
// provider when the test ends.
type TestLoggerProvider struct {
	Logger *TestLogger
}

// NewTestLoggerProvider creates a provider capturing records at level or above.
func NewTestLoggerProvider(level Level) *TestLoggerProvider {
	logger, _ := NewTestLogger(level)
	return &TestLoggerProvider{Logger: logger}
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *TestLoggerProvider) GetLogger() Logger {
	return p.Logger
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *TestLoggerProvider) GetLoggerWithName(name string) Logger {
	return p.Logger.With(ComponentFieldKey, name)
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *TestLoggerProvider) SetLevel(level Level) {
	p.Logger.sink.mu.Lock()
	defer p.Logger.sink.mu.Unlock()
	*p.Logger.level = level
}
