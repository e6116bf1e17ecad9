package postgresengine

import (
	"errors"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore"
)

var ErrInvalidStreamBatchSize = errors.New("stream batch size must be greater than zero")

// Option defines a functional option for configuring EventStore.
type Option func(*EventStore) error

// WithTableName sets the events table name for the EventStore.
func WithTableName(tableName string) Option {
	return func(es *EventStore) error {
		if tableName == "" {
			return eventstore.ErrEmptyEventsTableName
		}

		es.eventTableName = tableName

		return nil
	}
}

// WithSnapshotTableName sets the snapshots table name for the EventStore.
func WithSnapshotTableName(tableName string) Option {
	return func(es *EventStore) error {
		if tableName == "" {
			return eventstore.ErrEmptySnapshotsTableName
		}

		es.snapshotTableName = tableName

		return nil
	}
}

// WithStreamBatchSize sets how many rows StreamAll fetches per page.
func WithStreamBatchSize(size uint) Option {
	return func(es *EventStore) error {
		if size == 0 {
			return ErrInvalidStreamBatchSize
		}

		es.streamBatchSize = size

		return nil
	}
}

// WithAppendLockKey sets the advisory lock key that serializes appends.
// Serialized appends commit their global offsets in increasing order, so a StreamAll reader
// never sees a later offset before an earlier one.
func WithAppendLockKey(key int64) Option {
	return func(es *EventStore) error {
		es.appendLockKey = key
		return nil
	}
}

// WithLogger sets the logger for the EventStore.
//
// Debug level: SQL statements with execution timing (development use)
// Info level: Event counts, durations, version conflicts (production-safe)
// Warn level: Non-critical issues like cleanup failures
// Error level: Critical failures that cause operation failures.
func WithLogger(logger eventstore.Logger) Option {
	return func(es *EventStore) error {
		es.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the EventStore.
func WithMetrics(collector eventstore.MetricsCollector) Option {
	return func(es *EventStore) error {
		es.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the EventStore.
func WithTracing(collector eventstore.TracingCollector) Option {
	return func(es *EventStore) error {
		es.tracingCollector = collector
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the EventStore.
// It is used instead of the plain logger for operational messages so that they carry trace ids.
func WithContextualLogger(logger eventstore.ContextualLogger) Option {
	return func(es *EventStore) error {
		es.contextualLogger = logger
		return nil
	}
}
