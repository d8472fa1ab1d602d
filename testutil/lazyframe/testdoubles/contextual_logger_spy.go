package testdoubles

import (
	"context"
	"strings"
	"sync"

	"github.com/AntonStoeckl/lazyframes-go/lazyframe"
)

// Log levels recorded by ContextualLoggerSpy.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// ContextualLogRecord is one captured contextual log call.
type ContextualLogRecord struct {
	Level   string
	Message string
	Args    []any
	Context context.Context
}

// ContextualLoggerSpy is a lazyframe.ContextualLogger that captures every call together with
// its context, so tests can check that engines pass the caller's context through.
type ContextualLoggerSpy struct {
	records []ContextualLogRecord
	mu      sync.Mutex
}

var _ lazyframe.ContextualLogger = (*ContextualLoggerSpy)(nil)

// NewContextualLoggerSpy creates an empty ContextualLoggerSpy.
func NewContextualLoggerSpy() *ContextualLoggerSpy {
	return &ContextualLoggerSpy{}
}

func (s *ContextualLoggerSpy) DebugContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, LevelDebug, msg, args)
}

func (s *ContextualLoggerSpy) InfoContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, LevelInfo, msg, args)
}

func (s *ContextualLoggerSpy) WarnContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, LevelWarn, msg, args)
}

func (s *ContextualLoggerSpy) ErrorContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, LevelError, msg, args)
}

func (s *ContextualLoggerSpy) record(ctx context.Context, level, msg string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, ContextualLogRecord{Level: level, Message: msg, Args: args, Context: ctx})
}

// Records returns a copy of the records at level whose message starts with messagePrefix.
func (s *ContextualLoggerSpy) Records(level, messagePrefix string) []ContextualLogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	matching := make([]ContextualLogRecord, 0)
	for _, record := range s.records {
		if record.Level == level && strings.HasPrefix(record.Message, messagePrefix) {
			matching = append(matching, record)
		}
	}

	return matching
}

// HasRecordWithContextValue reports whether a record at level with a message starting with
// messagePrefix was logged with a context carrying value under key.
func (s *ContextualLoggerSpy) HasRecordWithContextValue(level, messagePrefix string, key, value any) bool {
	for _, record := range s.Records(level, messagePrefix) {
		if record.Context != nil && record.Context.Value(key) == value {
			return true
		}
	}

	return false
}

// Count returns the number of captured records across all levels.
func (s *ContextualLoggerSpy) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}
