package eventstore

import (
	"context"
	"errors"
	"iter"
)

var (
	// ErrVersionConflict is returned by Append when the expected version does not match
	// the last version stored for the aggregate.
	ErrVersionConflict = errors.New("version conflict: expected version does not match the stream")

	// ErrStoreUnavailable marks infrastructure failures while reading or appending.
	// No partial state is left behind when it is returned from Append.
	ErrStoreUnavailable = errors.New("event store unavailable")

	ErrEmptyEventsTableName    = errors.New("events table name must not be empty")
	ErrEmptySnapshotsTableName = errors.New("snapshots table name must not be empty")
	ErrNilDatabaseConnection   = errors.New("database connection must not be nil")
	ErrEmptyAggregateID        = errors.New("aggregate id must not be empty")
	ErrForeignAggregateEvent   = errors.New("event belongs to a different aggregate")
	ErrNonContiguousVersions   = errors.New("event versions must continue the stream without gaps")

	ErrBuildingQueryFailed         = errors.New("building query failed")
	ErrQueryingEventsFailed        = errors.New("querying events failed")
	ErrScanningDBRowFailed         = errors.New("scanning db row failed")
	ErrBuildingStorableEventFailed = errors.New("building storable event failed")
	ErrAppendingEventFailed        = errors.New("appending the event failed")
	ErrGettingRowsAffectedFailed   = errors.New("getting rows affected failed")
)

// AggregateVersionUint is the position of an event inside its aggregate's stream, starting at 1.
// Zero means "the aggregate has no events yet".
type AggregateVersionUint = uint

// GlobalOffsetUint is the position of an event in the global append order across all aggregates.
type GlobalOffsetUint = uint

// EventStore is the contract every storage engine fulfills.
//
// Append is atomic: either all events are written with contiguous versions following
// expectedVersion, or none are and ErrVersionConflict (or ErrStoreUnavailable) is returned.
//
// StreamAll yields the events with a GlobalOffset strictly greater than afterOffset, in global
// append order. The sequence is lazy and can be restarted from any offset.
type EventStore interface {
	Append(
		ctx context.Context,
		aggregateID string,
		expectedVersion AggregateVersionUint,
		event StorableEvent,
		additionalEvents ...StorableEvent,
	) error
	Load(ctx context.Context, aggregateID string) (StorableEvents, AggregateVersionUint, error)
	LoadAfter(ctx context.Context, aggregateID string, version AggregateVersionUint) (StorableEvents, error)
	StreamAll(ctx context.Context, afterOffset GlobalOffsetUint) iter.Seq2[StorableEvent, error]
}

// SnapshotStore persists projection snapshots.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snapshot Snapshot) error
	LoadSnapshot(ctx context.Context, projectionType string, key string) (*Snapshot, error)
}

// ValidateAppendBatch checks that all events belong to aggregateID and continue its stream
// with contiguous versions starting at expectedVersion+1.
func ValidateAppendBatch(aggregateID string, expectedVersion AggregateVersionUint, events StorableEvents) error {
	if aggregateID == "" {
		return ErrEmptyAggregateID
	}

	for i, event := range events {
		if event.AggregateID != aggregateID {
			return ErrForeignAggregateEvent
		}

		if event.AggregateVersion != expectedVersion+AggregateVersionUint(i)+1 {
			return ErrNonContiguousVersions
		}
	}

	return nil
}
