package shell

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore"
)

const (
	// CommandHandlerDurationMetric tracks command handler execution duration.
	CommandHandlerDurationMetric = "commandhandler_handle_duration_seconds"
	// CommandHandlerCallsMetric tracks total command handler calls.
	CommandHandlerCallsMetric = "commandhandler_handle_calls_total"
	// CommandHandlerRejectionsMetric counts domain rejections by reason.
	CommandHandlerRejectionsMetric = "commandhandler_rejections_total"
	// CommandHandlerRetriesMetric counts retries after an append conflict.
	CommandHandlerRetriesMetric = "commandhandler_retry_attempts_total"
	// CommandHandlerRetryDelayMetric records each backoff delay.
	CommandHandlerRetryDelayMetric = "commandhandler_retry_delay_seconds"
	// CommandHandlerMaxRetriesReachedMetric counts exhausted retries.
	CommandHandlerMaxRetriesReachedMetric = "commandhandler_max_retries_reached_total"

	StatusSuccess  = "success"
	StatusRejected = "rejected"
	StatusError    = "error"

	LogMsgCommandStarted   = "command handler started"
	LogMsgCommandCompleted = "command handler completed"
	LogMsgCommandRejected  = "command handler rejected command"
	LogMsgCommandFailed    = "command handler failed"

	LogAttrCommandType   = "command_type"
	LogAttrReservationID = "reservation_id"
	LogAttrStatus        = "status"
	LogAttrVersion       = "version"
	LogAttrReason        = "reason"
	LogAttrDurationMS    = "duration_ms"
	LogAttrAttempts      = "attempts"
	LogAttrError         = "error"

	// SpanNameCommandHandle is the tracing span name for command handling.
	SpanNameCommandHandle = "commandhandler.handle"
)

// MetricsCollector is the same contract the event store engines use.
type MetricsCollector = eventstore.MetricsCollector

// ContextualMetricsCollector extends MetricsCollector with context-aware methods.
type ContextualMetricsCollector = eventstore.ContextualMetricsCollector

// TracingCollector interface for distributed tracing in command handlers.
type TracingCollector = eventstore.TracingCollector

// SpanContext represents an active tracing span.
type SpanContext = eventstore.SpanContext

// ContextualLogger interface for context-aware logging in command handlers.
type ContextualLogger = eventstore.ContextualLogger

// Logger interface for basic logging in command handlers.
type Logger = eventstore.Logger

// RejectionReason classifies a domain rejection for logs and metric labels.
// It returns "" for errors that are not domain rejections.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, core.ErrSlotConflict):
		return "slot_conflict"
	case errors.Is(err, core.ErrVersionConflict):
		return "version_conflict"
	case errors.Is(err, core.ErrIllegalTransition):
		return "illegal_transition"
	case errors.Is(err, core.ErrDailyLimit):
		return "daily_limit"
	case errors.Is(err, core.ErrNotFound):
		return "not_found"
	case errors.Is(err, core.ErrInvalidCommand):
		return "invalid_command"
	default:
		return ""
	}
}

// BuildCommandLabels creates standard metric labels for command handler operations.
func BuildCommandLabels(commandType, status string) map[string]string {
	return map[string]string{
		LogAttrCommandType: commandType,
		LogAttrStatus:      status,
	}
}

// ToMilliseconds converts a time.Duration to float64 milliseconds.
func ToMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// RecordCommandMetrics records duration and call count, plus the rejection counter for rejected commands.
func RecordCommandMetrics(
	ctx context.Context,
	collector MetricsCollector,
	commandType string,
	status string,
	reason string,
	duration time.Duration,
) {

	if collector == nil {
		return
	}

	labels := BuildCommandLabels(commandType, status)
	contextualCollector, isContextual := collector.(ContextualMetricsCollector)

	if isContextual {
		contextualCollector.RecordDurationContext(ctx, CommandHandlerDurationMetric, duration, labels)
		contextualCollector.IncrementCounterContext(ctx, CommandHandlerCallsMetric, labels)
	} else {
		collector.RecordDuration(CommandHandlerDurationMetric, duration, labels)
		collector.IncrementCounter(CommandHandlerCallsMetric, labels)
	}

	if status != StatusRejected {
		return
	}

	rejectionLabels := map[string]string{LogAttrCommandType: commandType, LogAttrReason: reason}
	if isContextual {
		contextualCollector.IncrementCounterContext(ctx, CommandHandlerRejectionsMetric, rejectionLabels)
	} else {
		collector.IncrementCounter(CommandHandlerRejectionsMetric, rejectionLabels)
	}
}

// StartCommandSpan starts a span, or returns ctx and nil if tracing is disabled.
func StartCommandSpan(
	ctx context.Context,
	tracingCollector TracingCollector,
	commandType string,
	reservationID core.ReservationIDString,
) (context.Context, SpanContext) {

	if tracingCollector == nil {
		return ctx, nil
	}

	return tracingCollector.StartSpan(ctx, SpanNameCommandHandle, map[string]string{
		LogAttrCommandType:   commandType,
		LogAttrReservationID: reservationID,
	})
}

// FinishCommandSpan completes a span with the operation outcome.
func FinishCommandSpan(
	tracingCollector TracingCollector,
	span SpanContext,
	status string,
	duration time.Duration,
	err error,
) {

	if tracingCollector == nil || span == nil {
		return
	}

	attrs := map[string]string{
		LogAttrStatus:     status,
		LogAttrDurationMS: strconv.FormatFloat(ToMilliseconds(duration), 'f', 2, 64),
	}

	if err != nil {
		attrs[LogAttrError] = err.Error()
	}

	tracingCollector.FinishSpan(span, status, attrs)
}

func logInfo(ctx context.Context, logger Logger, contextualLogger ContextualLogger, msg string, args ...any) {
	if contextualLogger != nil {
		contextualLogger.InfoContext(ctx, msg, args...)
	} else if logger != nil {
		logger.Info(msg, args...)
	}
}

func logDebug(ctx context.Context, logger Logger, contextualLogger ContextualLogger, msg string, args ...any) {
	if contextualLogger != nil {
		contextualLogger.DebugContext(ctx, msg, args...)
	} else if logger != nil {
		logger.Debug(msg, args...)
	}
}

func logError(ctx context.Context, logger Logger, contextualLogger ContextualLogger, msg string, args ...any) {
	if contextualLogger != nil {
		contextualLogger.ErrorContext(ctx, msg, args...)
	} else if logger != nil {
		logger.Error(msg, args...)
	}
}
