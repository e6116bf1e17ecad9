// Package eventstore provides the core abstractions for an append-only, per-aggregate event log.
//
// Events are stored per aggregate stream, ordered by AggregateVersion (1, 2, 3, ...) and globally
// ordered by GlobalOffset. Appends are guarded by optimistic concurrency: the caller supplies the
// version it based its decision on and the engine rejects the append with ErrVersionConflict if
// the stream has moved on.
//
// Key types:
//   - EventStore: the engine contract (Append, Load, LoadAfter, StreamAll)
//   - StorableEvent: a scalar DTO that is agnostic of the client's domain events
//   - Snapshot: serialized projection state with the global offset it was taken at
//
// Common usage pattern:
//
//	events, version, err := store.Load(ctx, reservationID)
//	if err != nil {
//		// handle error
//	}
//
//	newEvent, _ := eventstore.BuildStorableEvent(eventID, reservationID, version+1, eventType, occurredAt, payload, metadata)
//	err = store.Append(ctx, reservationID, version, newEvent)
//
// Engines live in the sub packages memengine (in process) and postgresengine (durable).
package eventstore
