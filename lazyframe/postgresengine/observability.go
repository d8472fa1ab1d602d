package postgresengine

import (
	"context"
	"math"
	"time"

	"github.com/AntonStoeckl/lazyframes-go/lazyframe"
)

const (
	metricReadDuration   = "lazyframe_read_duration_seconds"
	metricWriteDuration  = "lazyframe_write_duration_seconds"
	metricRowsRead       = "lazyframe_rows_read"
	metricRowsWritten    = "lazyframe_rows_written"
	metricBatchSize      = "lazyframe_batch_size"
	metricDatabaseErrors = "lazyframe_database_errors_total"

	labelOperation = "operation"
	labelStatus    = "status"
	labelErrorType = "error_type"

	operationRead      = "read"
	operationReadBatch = "read_batch"
	operationWrite     = "write"

	statusSuccess = "success"
	statusError   = "error"

	errorTypeBuildQuery      = "build_query"
	errorTypeQuery           = "query"
	errorTypeScan            = "scan"
	errorTypeDecode          = "decode"
	errorTypeNotFound        = "not_found"
	errorTypeEncode          = "encode"
	errorTypeConcurrentWrite = "concurrent_write"
	errorTypeValidation      = "validation"
)

// logQueryWithDuration logs SQL statements with execution time at debug level.
func (ss SymbolStore) logQueryWithDuration(ctx context.Context, sqlQuery string, action string, duration time.Duration) {
	if ss.logger != nil {
		ss.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, ss.toMilliseconds(duration), logAttrQuery, sqlQuery)
	}

	if ss.contextualLogger != nil {
		ss.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, logAttrDurationMS, ss.toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level.
func (ss SymbolStore) logOperation(ctx context.Context, action string, args ...any) {
	if ss.logger != nil {
		ss.logger.Info(logMsgOperation+action, args...)
	}

	if ss.contextualLogger != nil {
		ss.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	}
}

// logWarn logs non-critical issues at warn level.
func (ss SymbolStore) logWarn(ctx context.Context, message string, err error) {
	if ss.logger != nil {
		ss.logger.Warn(message, logAttrError, err.Error())
	}

	if ss.contextualLogger != nil {
		ss.contextualLogger.WarnContext(ctx, message, logAttrError, err.Error())
	}
}

// logError logs error information at the error level.
func (ss SymbolStore) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if ss.logger != nil {
		ss.logger.Error(message, allArgs...)
	}

	if ss.contextualLogger != nil {
		ss.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func (ss SymbolStore) toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

// recordDuration records a duration metric, with context if the collector supports it.
func (ss SymbolStore) recordDuration(ctx context.Context, metric string, duration time.Duration, operation, status string) {
	if ss.metricsCollector == nil {
		return
	}

	labels := map[string]string{labelOperation: operation, labelStatus: status}

	if contextualCollector, ok := ss.metricsCollector.(lazyframe.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	ss.metricsCollector.RecordDuration(metric, duration, labels)
}

// recordValue records a value metric, with context if the collector supports it.
func (ss SymbolStore) recordValue(ctx context.Context, metric string, value float64, operation, status string) {
	if ss.metricsCollector == nil {
		return
	}

	labels := map[string]string{labelOperation: operation, labelStatus: status}

	if contextualCollector, ok := ss.metricsCollector.(lazyframe.ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metric, value, labels)
		return
	}

	ss.metricsCollector.RecordValue(metric, value, labels)
}

// recordError increments the database error counter, with context if the collector supports it.
func (ss SymbolStore) recordError(ctx context.Context, operation, errorType string) {
	if ss.metricsCollector == nil {
		return
	}

	labels := map[string]string{labelOperation: operation, labelStatus: statusError, labelErrorType: errorType}

	if contextualCollector, ok := ss.metricsCollector.(lazyframe.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metricDatabaseErrors, labels)
		return
	}

	ss.metricsCollector.IncrementCounter(metricDatabaseErrors, labels)
}

// === Metrics Observer Pattern ===
// These observers encapsulate the metrics recorded at the end of each operation.

// readMetricsObserver encapsulates the metrics collection for single reads.
type readMetricsObserver struct {
	ss    SymbolStore
	ctx   context.Context
	start time.Time
}

// writeMetricsObserver encapsulates the metrics collection for writes.
type writeMetricsObserver struct {
	ss    SymbolStore
	ctx   context.Context
	start time.Time
}

func (ss SymbolStore) startReadMetrics(ctx context.Context) *readMetricsObserver {
	return &readMetricsObserver{ss: ss, ctx: ctx, start: time.Now()}
}

func (ss SymbolStore) startWriteMetrics(ctx context.Context) *writeMetricsObserver {
	return &writeMetricsObserver{ss: ss, ctx: ctx, start: time.Now()}
}

// recordSuccess records the duration and row count of a successful read.
func (rmo *readMetricsObserver) recordSuccess(rows int) {
	rmo.ss.recordDuration(rmo.ctx, metricReadDuration, time.Since(rmo.start), operationRead, statusSuccess)
	rmo.ss.recordValue(rmo.ctx, metricRowsRead, float64(rows), operationRead, statusSuccess)
}

// recordError records the duration and the error type of a failed read.
func (rmo *readMetricsObserver) recordError(errorType string) {
	rmo.ss.recordDuration(rmo.ctx, metricReadDuration, time.Since(rmo.start), operationRead, statusError)
	rmo.ss.recordError(rmo.ctx, operationRead, errorType)
}

// recordSuccess records the duration and row count of a successful write.
func (wmo *writeMetricsObserver) recordSuccess(rows int) {
	wmo.ss.recordDuration(wmo.ctx, metricWriteDuration, time.Since(wmo.start), operationWrite, statusSuccess)
	wmo.ss.recordValue(wmo.ctx, metricRowsWritten, float64(rows), operationWrite, statusSuccess)
}

// recordError records the duration and the error type of a failed write.
func (wmo *writeMetricsObserver) recordError(errorType string) {
	wmo.ss.recordDuration(wmo.ctx, metricWriteDuration, time.Since(wmo.start), operationWrite, statusError)
	wmo.ss.recordError(wmo.ctx, operationWrite, errorType)
}
