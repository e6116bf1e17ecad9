package postgresengine

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore"
)

const (
	metricOperationDuration = "eventstore_operation_duration_seconds"
	metricVersionConflicts  = "eventstore_version_conflicts_total"
	metricDatabaseErrors    = "eventstore_database_errors_total"
	spanNamePrefix          = "eventstore."
	spanAttrOperation       = "operation"
	spanAttrAggregateID     = "aggregate_id"
	spanAttrEventCount      = "event_count"
	spanAttrEventType       = "event_type"
	spanAttrExpectedVersion = "expected_version"
	spanAttrAfterOffset     = "after_offset"
	spanAttrRowsAffected    = "rows_affected"
	spanAttrErrorType       = "error_type"
	spanAttrDurationMS      = "duration_ms"
	labelStatus             = "status"
	statusSuccess           = "success"
	statusError             = "error"
	statusConflict          = "conflict"
	operationLoad           = "load"
	operationStream         = "stream"
	operationAppend         = "append"
	operationSaveSnapshot   = "save_snapshot"
	operationLoadSnapshot   = "load_snapshot"
	errorTypeBuildQuery     = "build_query"
	errorTypeQuery          = "query"
	errorTypeExec           = "exec"
)

// operationObserver bundles span and metrics bookkeeping for one engine operation.
type operationObserver struct {
	es        EventStore
	operation string
	span      eventstore.SpanContext
	start     time.Time
}

func (es EventStore) startObserving(
	ctx context.Context,
	operation string,
	attrs map[string]string,
) (context.Context, operationObserver) {

	observer := operationObserver{es: es, operation: operation, start: time.Now()}

	if es.tracingCollector != nil {
		spanAttrs := map[string]string{spanAttrOperation: operation}
		for key, value := range attrs {
			spanAttrs[key] = value
		}

		ctx, observer.span = es.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, spanAttrs)
	}

	return ctx, observer
}

func (o operationObserver) succeed(ctx context.Context, attrs map[string]string) {
	o.finish(ctx, statusSuccess, attrs)
}

func (o operationObserver) conflict(ctx context.Context) {
	o.es.incrementCounter(ctx, metricVersionConflicts, map[string]string{spanAttrOperation: o.operation})
	o.finish(ctx, statusConflict, nil)
}

func (o operationObserver) fail(ctx context.Context, errorType string) {
	o.es.incrementCounter(ctx, metricDatabaseErrors, map[string]string{
		spanAttrOperation: o.operation,
		spanAttrErrorType: errorType,
	})
	o.finish(ctx, statusError, map[string]string{spanAttrErrorType: errorType})
}

func (o operationObserver) finish(ctx context.Context, status string, attrs map[string]string) {
	duration := time.Since(o.start)
	o.es.recordDuration(ctx, metricOperationDuration, duration, map[string]string{
		spanAttrOperation: o.operation,
		labelStatus:       status,
	})

	if o.es.tracingCollector == nil || o.span == nil {
		return
	}

	spanAttrs := map[string]string{spanAttrDurationMS: formatMilliseconds(duration)}
	for key, value := range attrs {
		spanAttrs[key] = value
	}

	o.es.tracingCollector.FinishSpan(o.span, status, spanAttrs)
}

func (es EventStore) recordDuration(ctx context.Context, metric string, duration time.Duration, labels map[string]string) {
	if es.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := es.metricsCollector.(eventstore.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	es.metricsCollector.RecordDuration(metric, duration, labels)
}

func (es EventStore) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if es.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := es.metricsCollector.(eventstore.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	es.metricsCollector.IncrementCounter(metric, labels)
}

// logQueryWithDuration logs SQL statements with execution time at debug level.
func (es EventStore) logQueryWithDuration(ctx context.Context, sqlQuery string, action string, duration time.Duration) {
	es.logDebug(ctx, logMsgSQLExecuted+action, logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
}

func (es EventStore) logDebug(ctx context.Context, msg string, args ...any) {
	if es.contextualLogger != nil {
		es.contextualLogger.DebugContext(ctx, msg, args...)
		return
	}

	if es.logger != nil {
		es.logger.Debug(msg, args...)
	}
}

// logOperation logs operational information at info level.
func (es EventStore) logOperation(ctx context.Context, action string, args ...any) {
	if es.contextualLogger != nil {
		es.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
		return
	}

	if es.logger != nil {
		es.logger.Info(logMsgOperation+action, args...)
	}
}

func (es EventStore) logWarn(ctx context.Context, msg string, args ...any) {
	if es.contextualLogger != nil {
		es.contextualLogger.WarnContext(ctx, msg, args...)
		return
	}

	if es.logger != nil {
		es.logger.Warn(msg, args...)
	}
}

func (es EventStore) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if es.contextualLogger != nil {
		es.contextualLogger.ErrorContext(ctx, msg, allArgs...)
		return
	}

	if es.logger != nil {
		es.logger.Error(msg, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

func formatMilliseconds(d time.Duration) string {
	return strconv.FormatFloat(toMilliseconds(d), 'f', 3, 64)
}
