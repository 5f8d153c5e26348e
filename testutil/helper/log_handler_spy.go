package helper

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

// LogHandlerSpy is a slog.Handler implementation that captures log records for testing.
type LogHandlerSpy struct {
	records     []slog.Record
	mu          sync.Mutex
	logToStdout bool
}

// NewLogHandlerSpy creates a new LogHandlerSpy
// Switchable to log to stdout, which can be useful for debugging tests by seeing the actual log output.
func NewLogHandlerSpy(logToStdOut bool) *LogHandlerSpy {
	return &LogHandlerSpy{
		records:     make([]slog.Record, 0),
		logToStdout: logToStdOut,
	}
}

// Handle implements slog.Handler interface.
func (s *LogHandlerSpy) Handle(ctx context.Context, record slog.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)

	if s.logToStdout {
		jsonHandler := slog.NewJSONHandler(os.Stdout, nil)
		_ = jsonHandler.Handle(ctx, record)
	}

	return nil
}

// Enabled implements slog.Handler interface.
func (s *LogHandlerSpy) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

// WithAttrs implements slog.Handler interface.
func (s *LogHandlerSpy) WithAttrs(_ []slog.Attr) slog.Handler {
	return s
}

// WithGroup implements slog.Handler interface.
func (s *LogHandlerSpy) WithGroup(_ string) slog.Handler {
	return s
}

// SpyLogRecordMatcher provides a fluent interface for checking log record attributes.
type SpyLogRecordMatcher struct {
	record *slog.Record
	found  bool
}

// HasLogWithMessage starts a fluent chain to check a log record of the given level and message.
func (s *LogHandlerSpy) HasLogWithMessage(level slog.Level, message string) *SpyLogRecordMatcher {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records {
		if record.Level == level && record.Message == message {
			return &SpyLogRecordMatcher{record: &record, found: true}
		}
	}

	return &SpyLogRecordMatcher{found: false}
}

// HasDebugLogWithMessage starts a fluent chain to check a debug-level log record.
func (s *LogHandlerSpy) HasDebugLogWithMessage(message string) *SpyLogRecordMatcher {
	return s.HasLogWithMessage(slog.LevelDebug, message)
}

// HasInfoLogWithMessage starts a fluent chain to check an info-level log record.
func (s *LogHandlerSpy) HasInfoLogWithMessage(message string) *SpyLogRecordMatcher {
	return s.HasLogWithMessage(slog.LevelInfo, message)
}

// HasWarnLogWithMessage starts a fluent chain to check a warn-level log record.
func (s *LogHandlerSpy) HasWarnLogWithMessage(message string) *SpyLogRecordMatcher {
	return s.HasLogWithMessage(slog.LevelWarn, message)
}

// HasErrorLogWithMessage starts a fluent chain to check an error-level log record.
func (s *LogHandlerSpy) HasErrorLogWithMessage(message string) *SpyLogRecordMatcher {
	return s.HasLogWithMessage(slog.LevelError, message)
}

// WithDurationMS checks if the log record has a duration_ms attribute with a non-negative value.
func (m *SpyLogRecordMatcher) WithDurationMS() *SpyLogRecordMatcher {
	return m.withAttr("duration_ms", func(v slog.Value) bool {
		switch v.Kind() {
		case slog.KindInt64:
			return v.Int64() >= 0
		case slog.KindFloat64:
			return v.Float64() >= 0
		default:
			return false
		}
	})
}

// WithRowCount checks if the log record has a row_count attribute with the given value.
func (m *SpyLogRecordMatcher) WithRowCount(rowCount int) *SpyLogRecordMatcher {
	return m.withAttr("row_count", func(v slog.Value) bool {
		return v.Kind() == slog.KindInt64 && v.Int64() == int64(rowCount)
	})
}

// WithAttribute checks if the log record has a string attribute with the given value.
func (m *SpyLogRecordMatcher) WithAttribute(key, value string) *SpyLogRecordMatcher {
	return m.withAttr(key, func(v slog.Value) bool {
		return v.String() == value
	})
}

// WithAttributeKey checks if the log record has an attribute with the given key.
func (m *SpyLogRecordMatcher) WithAttributeKey(key string) *SpyLogRecordMatcher {
	return m.withAttr(key, func(slog.Value) bool { return true })
}

func (m *SpyLogRecordMatcher) withAttr(key string, matches func(slog.Value) bool) *SpyLogRecordMatcher {
	if !m.found {
		return m
	}

	hasAttr := false
	m.record.Attrs(func(attr slog.Attr) bool {
		if attr.Key == key && matches(attr.Value) {
			hasAttr = true
			return false // Stop iteration
		}

		return true
	})

	if !hasAttr {
		m.found = false
	}

	return m
}

// Assert returns true if all conditions in the fluent chain were met.
func (m *SpyLogRecordMatcher) Assert() bool {
	return m.found
}
