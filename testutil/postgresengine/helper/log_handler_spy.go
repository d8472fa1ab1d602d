package helper

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
)

// LogHandlerSpy is a slog.Handler that keeps every record it handles.
// With echo enabled it also prints the records as JSON to stdout, handy when debugging a test.
type LogHandlerSpy struct {
	mu      sync.Mutex
	records []slog.Record
	echo    slog.Handler
}

// NewLogHandlerSpy creates a LogHandlerSpy, optionally echoing to stdout.
func NewLogHandlerSpy(echoToStdout bool) *LogHandlerSpy {
	spy := &LogHandlerSpy{}
	if echoToStdout {
		spy.echo = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}

	return spy
}

func (s *LogHandlerSpy) Enabled(context.Context, slog.Level) bool { return true }

func (s *LogHandlerSpy) Handle(ctx context.Context, record slog.Record) error {
	s.mu.Lock()
	s.records = append(s.records, record.Clone())
	s.mu.Unlock()

	if s.echo != nil {
		return s.echo.Handle(ctx, record)
	}

	return nil
}

func (s *LogHandlerSpy) WithAttrs([]slog.Attr) slog.Handler { return s }

func (s *LogHandlerSpy) WithGroup(string) slog.Handler { return s }

// HasDebugLogWithMessage matches debug records whose message starts with prefix.
func (s *LogHandlerSpy) HasDebugLogWithMessage(prefix string) *LogRecordMatcher {
	return s.match(slog.LevelDebug, prefix)
}

// HasInfoLogWithMessage matches info records whose message starts with prefix.
func (s *LogHandlerSpy) HasInfoLogWithMessage(prefix string) *LogRecordMatcher {
	return s.match(slog.LevelInfo, prefix)
}

// HasErrorLogWithMessage matches error records whose message starts with prefix.
func (s *LogHandlerSpy) HasErrorLogWithMessage(prefix string) *LogRecordMatcher {
	return s.match(slog.LevelError, prefix)
}

func (s *LogHandlerSpy) match(level slog.Level, prefix string) *LogRecordMatcher {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := &LogRecordMatcher{}
	for _, record := range s.records {
		if record.Level == level && strings.HasPrefix(record.Message, prefix) {
			m.candidates = append(m.candidates, record)
		}
	}

	return m
}

// LogRecordMatcher narrows a set of captured records down with attribute conditions.
// Assert is true if at least one record satisfies all of them.
type LogRecordMatcher struct {
	candidates []slog.Record
}

// WithDurationMS keeps records with a non-negative duration_ms.
func (m *LogRecordMatcher) WithDurationMS() *LogRecordMatcher {
	return m.where("duration_ms", func(v slog.Value) bool {
		switch v.Kind() {
		case slog.KindFloat64:
			return v.Float64() >= 0
		case slog.KindInt64:
			return v.Int64() >= 0
		default:
			return false
		}
	})
}

// WithRowCount keeps records whose row_count equals expected.
func (m *LogRecordMatcher) WithRowCount(expected int64) *LogRecordMatcher {
	return m.where("row_count", func(v slog.Value) bool {
		return v.Kind() == slog.KindInt64 && v.Int64() == expected
	})
}

// WithSymbol keeps records for the given symbol.
func (m *LogRecordMatcher) WithSymbol(expected string) *LogRecordMatcher {
	return m.where("symbol", func(v slog.Value) bool {
		return v.Kind() == slog.KindString && v.String() == expected
	})
}

// WithAttr keeps records carrying key, whatever its value.
func (m *LogRecordMatcher) WithAttr(key string) *LogRecordMatcher {
	return m.where(key, func(slog.Value) bool { return true })
}

func (m *LogRecordMatcher) where(key string, accept func(slog.Value) bool) *LogRecordMatcher {
	m.candidates = slices.DeleteFunc(m.candidates, func(record slog.Record) bool {
		found := false
		record.Attrs(func(attr slog.Attr) bool {
			found = attr.Key == key && accept(attr.Value)
			return !found
		})

		return !found
	})

	return m
}

func (m *LogRecordMatcher) Assert() bool {
	return len(m.candidates) > 0
}
