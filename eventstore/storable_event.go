package eventstore

import (
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var ErrInvalidPayloadJSON = errors.New("payload json is not valid")
var ErrInvalidMetadataJSON = errors.New("metadata json is not valid")
var ErrEmptyEventID = errors.New("event id must not be empty")
var ErrZeroAggregateVersion = errors.New("aggregate version must be greater than zero")

// StorableEvents is an alias type for a slice of StorableEvent
type StorableEvents = []StorableEvent

// StorableEvent is a DTO (data transfer object) used by the EventStore to append events and load them back.
//
// It is built on scalars to be completely agnostic of the implementation of Domain Events in the client code.
//
// GlobalOffset is assigned by the engine on Append, it is zero on events that were not stored yet.
//
// While its properties are exported, it should only be constructed with the supplied factory methods:
//   - BuildStorableEvent
//   - BuildStorableEventWithEmptyMetadata
type StorableEvent struct {
	EventID          string
	AggregateID      string
	AggregateVersion AggregateVersionUint
	EventType        string
	OccurredAt       time.Time
	PayloadJSON      []byte
	MetadataJSON     []byte
	GlobalOffset     GlobalOffsetUint
}

// BuildStorableEvent is a factory method for StorableEvent.
//
// It populates the StorableEvent with the given scalar input.
// Returns an error if payloadJSON or metadataJSON are not valid JSON, or if the identity fields are empty.
func BuildStorableEvent(
	eventID string,
	aggregateID string,
	aggregateVersion AggregateVersionUint,
	eventType string,
	occurredAt time.Time,
	payloadJSON []byte,
	metadataJSON []byte,
) (StorableEvent, error) {

	switch {
	case eventID == "":
		return StorableEvent{}, ErrEmptyEventID
	case aggregateID == "":
		return StorableEvent{}, ErrEmptyAggregateID
	case aggregateVersion == 0:
		return StorableEvent{}, ErrZeroAggregateVersion
	}

	if !jsoniter.ConfigFastest.Valid(payloadJSON) {
		return StorableEvent{}, ErrInvalidPayloadJSON
	}

	if !jsoniter.ConfigFastest.Valid(metadataJSON) {
		return StorableEvent{}, ErrInvalidMetadataJSON
	}

	return StorableEvent{
		EventID:          eventID,
		AggregateID:      aggregateID,
		AggregateVersion: aggregateVersion,
		EventType:        eventType,
		OccurredAt:       occurredAt,
		PayloadJSON:      payloadJSON,
		MetadataJSON:     metadataJSON,
	}, nil
}

// BuildStorableEventWithEmptyMetadata is a factory method for StorableEvent.
//
// It populates the StorableEvent with the given scalar input and creates valid empty JSON for MetadataJSON.
func BuildStorableEventWithEmptyMetadata(
	eventID string,
	aggregateID string,
	aggregateVersion AggregateVersionUint,
	eventType string,
	occurredAt time.Time,
	payloadJSON []byte,
) (StorableEvent, error) {

	return BuildStorableEvent(eventID, aggregateID, aggregateVersion, eventType, occurredAt, payloadJSON, []byte("{}"))
}

// WithGlobalOffset returns a copy of the event carrying the given global offset.
// Engines use it when handing stored events back to callers.
func (e StorableEvent) WithGlobalOffset(offset GlobalOffsetUint) StorableEvent {
	e.GlobalOffset = offset
	return e
}
