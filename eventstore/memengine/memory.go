// Package memengine provides an in-process implementation of eventstore.EventStore and
// eventstore.SnapshotStore.
//
// It is used for tests and single node development setups. Global offsets are contiguous and start at 1.
package memengine

import (
	"context"
	"iter"
	"sync"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore"
)

const (
	logMsgEventsAppended     = "eventstore operation: events appended"
	logMsgVersionConflict    = "eventstore operation: version conflict detected"
	logAttrAggregateID       = "aggregate_id"
	logAttrExpectedVersion   = "expected_version"
	logAttrActualVersion     = "actual_version"
	logAttrEventCount        = "event_count"
	logAttrGlobalOffset      = "global_offset"
	snapshotKeySeparator     = "|"
	initialAggregateCapacity = 8
)

// EventStore keeps all events in memory, guarded by a single RWMutex.
type EventStore struct {
	mu          sync.RWMutex
	global      eventstore.StorableEvents
	byAggregate map[string][]int
	snapshots   map[string]eventstore.Snapshot
	logger      eventstore.Logger
}

// Option defines a functional option for configuring EventStore.
type Option func(*EventStore)

// WithLogger sets the logger for the EventStore.
func WithLogger(logger eventstore.Logger) Option {
	return func(es *EventStore) {
		es.logger = logger
	}
}

// NewEventStore creates an empty in-memory EventStore.
func NewEventStore(options ...Option) *EventStore {
	es := &EventStore{
		byAggregate: make(map[string][]int),
		snapshots:   make(map[string]eventstore.Snapshot),
	}

	for _, option := range options {
		option(es)
	}

	return es
}

// Append stores the events if expectedVersion equals the current version of the aggregate.
func (es *EventStore) Append(
	ctx context.Context,
	aggregateID string,
	expectedVersion eventstore.AggregateVersionUint,
	event eventstore.StorableEvent,
	additionalEvents ...eventstore.StorableEvent,
) error {

	if err := ctx.Err(); err != nil {
		return err
	}

	allEvents := eventstore.StorableEvents{event}
	allEvents = append(allEvents, additionalEvents...)

	if err := eventstore.ValidateAppendBatch(aggregateID, expectedVersion, allEvents); err != nil {
		return err
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	currentVersion := eventstore.AggregateVersionUint(len(es.byAggregate[aggregateID]))
	if currentVersion != expectedVersion {
		if es.logger != nil {
			es.logger.Info(
				logMsgVersionConflict,
				logAttrAggregateID, aggregateID,
				logAttrExpectedVersion, expectedVersion,
				logAttrActualVersion, currentVersion,
			)
		}

		return eventstore.ErrVersionConflict
	}

	positions := es.byAggregate[aggregateID]
	if positions == nil {
		positions = make([]int, 0, initialAggregateCapacity)
	}

	for _, e := range allEvents {
		offset := eventstore.GlobalOffsetUint(len(es.global) + 1)
		es.global = append(es.global, e.WithGlobalOffset(offset))
		positions = append(positions, len(es.global)-1)
	}

	es.byAggregate[aggregateID] = positions

	if es.logger != nil {
		es.logger.Info(
			logMsgEventsAppended,
			logAttrAggregateID, aggregateID,
			logAttrEventCount, len(allEvents),
			logAttrGlobalOffset, len(es.global),
		)
	}

	return nil
}

// Load returns all events of the aggregate in version order together with the current version.
// An unknown aggregate yields no events and version 0.
func (es *EventStore) Load(ctx context.Context, aggregateID string) (
	eventstore.StorableEvents,
	eventstore.AggregateVersionUint,
	error,
) {

	events, err := es.LoadAfter(ctx, aggregateID, 0)
	if err != nil {
		return nil, 0, err
	}

	return events, eventstore.AggregateVersionUint(len(events)), nil
}

// LoadAfter returns the events of the aggregate with a version greater than the given one.
func (es *EventStore) LoadAfter(
	ctx context.Context,
	aggregateID string,
	version eventstore.AggregateVersionUint,
) (eventstore.StorableEvents, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	es.mu.RLock()
	defer es.mu.RUnlock()

	positions := es.byAggregate[aggregateID]
	events := make(eventstore.StorableEvents, 0, len(positions))

	for _, position := range positions {
		if es.global[position].AggregateVersion > version {
			events = append(events, es.global[position])
		}
	}

	return events, nil
}

// StreamAll lazily yields every event after the given offset in global append order.
// Events appended while the sequence is consumed are yielded as well.
func (es *EventStore) StreamAll(
	ctx context.Context,
	afterOffset eventstore.GlobalOffsetUint,
) iter.Seq2[eventstore.StorableEvent, error] {

	return func(yield func(eventstore.StorableEvent, error) bool) {
		for position := int(afterOffset); ; position++ {
			if err := ctx.Err(); err != nil {
				yield(eventstore.StorableEvent{}, err)
				return
			}

			event, ok := es.eventAt(position)
			if !ok {
				return
			}

			if !yield(event, nil) {
				return
			}
		}
	}
}

func (es *EventStore) eventAt(position int) (eventstore.StorableEvent, bool) {
	es.mu.RLock()
	defer es.mu.RUnlock()

	if position >= len(es.global) {
		return eventstore.StorableEvent{}, false
	}

	return es.global[position], true
}

// HeadOffset returns the global offset of the latest appended event.
func (es *EventStore) HeadOffset(_ context.Context) (eventstore.GlobalOffsetUint, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()

	return eventstore.GlobalOffsetUint(len(es.global)), nil
}

// SaveSnapshot stores or replaces the snapshot for its projection type and key.
func (es *EventStore) SaveSnapshot(ctx context.Context, snapshot eventstore.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := snapshot.Validate(); err != nil {
		return err
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	es.snapshots[snapshot.ProjectionType+snapshotKeySeparator+snapshot.Key] = snapshot

	return nil
}

// LoadSnapshot returns the snapshot for the projection type and key, or nil if none was saved.
func (es *EventStore) LoadSnapshot(ctx context.Context, projectionType string, key string) (*eventstore.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	es.mu.RLock()
	defer es.mu.RUnlock()

	snapshot, ok := es.snapshots[projectionType+snapshotKeySeparator+key]
	if !ok {
		return nil, nil //nolint:nilnil
	}

	return &snapshot, nil
}
