package postgresengine

import (
	"github.com/AntonStoeckl/lazyframes-go/lazyframe"
)

// Option defines a functional option for configuring SymbolStore.
type Option func(*SymbolStore) error

// WithVersionsTableName sets the name of the table holding one row per symbol version.
func WithVersionsTableName(tableName string) Option {
	return func(ss *SymbolStore) error {
		if tableName == "" {
			return ErrEmptyTableName
		}

		ss.versionsTableName = tableName

		return nil
	}
}

// WithRowsTableName sets the name of the table holding the rows of all symbol versions.
func WithRowsTableName(tableName string) Option {
	return func(ss *SymbolStore) error {
		if tableName == "" {
			return ErrEmptyTableName
		}

		ss.rowsTableName = tableName

		return nil
	}
}

// WithBatchConcurrency limits how many entries of a ReadBatch are read at the same time.
func WithBatchConcurrency(n int) Option {
	return func(ss *SymbolStore) error {
		if n < 1 {
			return ErrInvalidBatchConcurrency
		}

		ss.batchConcurrency = n

		return nil
	}
}

// WithLogger sets the logger for the SymbolStore.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing (development use)
// Info level: row counts, versions, durations (production-safe)
// Warn level: non-critical issues like failures to close rows
// Error level: failures that cause an operation to fail.
func WithLogger(logger lazyframe.Logger) Option {
	return func(ss *SymbolStore) error {
		ss.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the SymbolStore.
// It receives the same messages as the Logger, together with the operation's context.
func WithContextualLogger(logger lazyframe.ContextualLogger) Option {
	return func(ss *SymbolStore) error {
		ss.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the SymbolStore.
// It receives read/write durations, row counts, batch sizes, and database errors.
// A lazyframe.ContextualMetricsCollector gets the operation's context as well.
func WithMetrics(collector lazyframe.MetricsCollector) Option {
	return func(ss *SymbolStore) error {
		ss.metricsCollector = collector
		return nil
	}
}
