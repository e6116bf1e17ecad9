package eventstore

import "context"

// ConsistencyLevel defines the consistency requirements for EventStore reads.
type ConsistencyLevel int

const (
	// StrongConsistency requires reads from the primary database so that a command handler
	// sees its own writes before making the next decision. This is the default.
	StrongConsistency ConsistencyLevel = iota

	// EventualConsistency allows reads from a replica database. The projector uses it for
	// StreamAll because the read model is eventually consistent anyway.
	EventualConsistency
)

type contextKey string

// ConsistencyLevelKey is the context key used to store consistency level preferences.
const ConsistencyLevelKey contextKey = "eventstore.consistency_level"

// WithStrongConsistency returns a context that routes EventStore reads to the primary database.
//
//	ctx = eventstore.WithStrongConsistency(ctx)
//	events, version, err := store.Load(ctx, reservationID)
func WithStrongConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, ConsistencyLevelKey, StrongConsistency)
}

// WithEventualConsistency returns a context that allows EventStore reads from a replica.
//
//	ctx = eventstore.WithEventualConsistency(ctx)
//	for event, err := range store.StreamAll(ctx, checkpoint) { ... }
func WithEventualConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, ConsistencyLevelKey, EventualConsistency)
}

// GetConsistencyLevel extracts the consistency level from the context.
// If no consistency level is set, it returns StrongConsistency.
func GetConsistencyLevel(ctx context.Context) ConsistencyLevel {
	if level, ok := ctx.Value(ConsistencyLevelKey).(ConsistencyLevel); ok {
		return level
	}
	return StrongConsistency
}

// String provides a string representation of ConsistencyLevel for logging and debugging.
func (c ConsistencyLevel) String() string {
	switch c {
	case StrongConsistency:
		return "strong"
	case EventualConsistency:
		return "eventual"
	default:
		return "unknown"
	}
}
