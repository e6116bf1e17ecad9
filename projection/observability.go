package projection

import (
	"context"
	"time"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore"
)

const (
	metricEventsApplied     = "projector_events_applied_total"
	metricUndecodableEvents = "projector_events_skipped_total"
	metricCatchUpFailures   = "projector_catchup_failures_total"
	metricCatchUpDuration   = "projector_catchup_duration_seconds"
	metricLagEvents         = "projector_lag_events"
	metricApplyLagSeconds   = "projector_apply_lag_seconds"
)

const (
	logMsgSnapshotRestored      = "projector: snapshot restored"
	logMsgSnapshotRestoreFailed = "projector: snapshot restore failed, replaying from the start"
	logMsgSnapshotSaved         = "projector: snapshot saved"
	logMsgSnapshotSaveFailed    = "projector: snapshot save failed"
	logMsgCatchUpFailed         = "projector: catch-up failed"
	logMsgCaughtUp              = "projector: caught up"
	logMsgEventSkipped          = "projector: event skipped"
	logMsgRebuildStarted        = "projector: rebuild started"
	logMsgRebuildFinished       = "projector: rebuild finished"
	logMsgRebuildFailed         = "projector: rebuild failed, keeping the current state"

	logAttrCheckpoint   = "checkpoint"
	logAttrReservations = "reservations"
	logAttrApplied      = "applied"
	logAttrBackoffMS    = "backoff_ms"
	logAttrGlobalOffset = "global_offset"
	logAttrAggregateID  = "aggregate_id"
	logAttrEventType    = "event_type"
	logAttrError        = "error"
)

func (p *Projector) logInfo(ctx context.Context, msg string, args ...any) {
	if p.contextualLogger != nil {
		p.contextualLogger.InfoContext(ctx, msg, args...)
		return
	}

	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Projector) logDebug(ctx context.Context, msg string, args ...any) {
	if p.contextualLogger != nil {
		p.contextualLogger.DebugContext(ctx, msg, args...)
		return
	}

	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Projector) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if p.contextualLogger != nil {
		p.contextualLogger.ErrorContext(ctx, msg, allArgs...)
		return
	}

	if p.logger != nil {
		p.logger.Error(msg, allArgs...)
	}
}

func (p *Projector) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if p.metricsCollector == nil {
		return
	}

	if collector, ok := p.metricsCollector.(eventstore.ContextualMetricsCollector); ok {
		collector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	p.metricsCollector.IncrementCounter(metric, labels)
}

func (p *Projector) recordDuration(ctx context.Context, metric string, duration time.Duration) {
	if p.metricsCollector == nil {
		return
	}

	if collector, ok := p.metricsCollector.(eventstore.ContextualMetricsCollector); ok {
		collector.RecordDurationContext(ctx, metric, duration, nil)
		return
	}

	p.metricsCollector.RecordDuration(metric, duration, nil)
}

func (p *Projector) recordValue(ctx context.Context, metric string, value float64) {
	if p.metricsCollector == nil {
		return
	}

	if collector, ok := p.metricsCollector.(eventstore.ContextualMetricsCollector); ok {
		collector.RecordValueContext(ctx, metric, value, nil)
		return
	}

	p.metricsCollector.RecordValue(metric, value, nil)
}
