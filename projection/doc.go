// Package projection builds the queryable read model from the global event stream.
//
// The Projector tails eventstore.EventStore.StreamAll in global offset order and applies every event
// exactly once, keyed by (aggregate id, aggregate version): duplicates are skipped and events that arrive
// ahead of their predecessor are buffered until the gap closes. While applying, it assigns the
// human-readable reservation number and keeps the conflict index in line with the read model.
//
// All state here is derived. Rebuild replays the store from the first offset into a fresh model and
// swaps it in, and periodic snapshots shorten restarts.
package projection
