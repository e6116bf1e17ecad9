package shell

import (
	"context"
	"errors"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore"
)

// ErrMappingToEventMetadataFailed is returned when metadata conversion fails.
var ErrMappingToEventMetadataFailed = errors.New("mapping to event metadata failed")

// MessageID represents a unique message identifier.
type MessageID = string

// CausationID represents the ID of the message that caused this event.
type CausationID = string

// CorrelationID represents the ID correlating related events.
type CorrelationID = string

// EventMetadata contains event tracking information.
type EventMetadata struct {
	MessageID     MessageID
	CausationID   CausationID
	CorrelationID CorrelationID
	CommandType   string
	Actor         string
}

type correlationIDKey struct{}
type actorKey struct{}

// WithCorrelationID attaches a correlation id that is copied into the metadata of every event
// appended while handling the request.
func WithCorrelationID(ctx context.Context, correlationID CorrelationID) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, correlationID)
}

// CorrelationIDFrom returns the correlation id stored in ctx, if any.
func CorrelationIDFrom(ctx context.Context) (CorrelationID, bool) {
	correlationID, ok := ctx.Value(correlationIDKey{}).(CorrelationID)
	return correlationID, ok && correlationID != ""
}

// WithActor attaches the identity of the caller issuing the command.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the caller identity stored in ctx, if any.
func ActorFrom(ctx context.Context) (string, bool) {
	actor, ok := ctx.Value(actorKey{}).(string)
	return actor, ok && actor != ""
}

// BuildEventMetadata creates EventMetadata for a new event. The message id is fresh, the correlation id
// comes from ctx or defaults to the message id, and the causation id is the correlation id.
func BuildEventMetadata(ctx context.Context, commandType string) EventMetadata {
	messageID := uuid.New().String()

	correlationID, ok := CorrelationIDFrom(ctx)
	if !ok {
		correlationID = messageID
	}

	actor, _ := ActorFrom(ctx)

	return EventMetadata{
		MessageID:     messageID,
		CausationID:   correlationID,
		CorrelationID: correlationID,
		CommandType:   commandType,
		Actor:         actor,
	}
}

// EventMetadataFrom extracts EventMetadata from a StorableEvent.
func EventMetadataFrom(storableEvent eventstore.StorableEvent) (EventMetadata, error) {
	metadata := new(EventMetadata)

	err := jsoniter.ConfigFastest.Unmarshal(storableEvent.MetadataJSON, metadata)
	if err != nil {
		return EventMetadata{}, errors.Join(ErrMappingToEventMetadataFailed, err)
	}

	return *metadata, nil
}
