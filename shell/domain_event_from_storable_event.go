package shell

import (
	"errors"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore"
)

var (
	// ErrMappingToDomainEventFailed is returned when domain event conversion fails.
	ErrMappingToDomainEventFailed = errors.New("mapping to domain event failed")

	// ErrMappingToDomainEventUnknownEventType is returned for unrecognized event types.
	ErrMappingToDomainEventUnknownEventType = errors.New("unknown event type")
)

// DomainEventsFrom converts multiple StorableEvents to DomainEvents.
func DomainEventsFrom(storableEvents eventstore.StorableEvents) (core.DomainEvents, error) {
	domainEvents := make(core.DomainEvents, 0, len(storableEvents))

	for _, storableEvent := range storableEvents {
		domainEvent, err := DomainEventFrom(storableEvent)
		if err != nil {
			return nil, err
		}

		domainEvents = append(domainEvents, domainEvent)
	}

	return domainEvents, nil
}

// DomainEventFrom converts a StorableEvent to its corresponding DomainEvent.
func DomainEventFrom(storableEvent eventstore.StorableEvent) (core.DomainEvent, error) {
	switch storableEvent.EventType {
	case core.ReservationCreatedEventType:
		return unmarshalInto[core.ReservationCreated](storableEvent.PayloadJSON)

	case core.ReservationConfirmedEventType:
		return unmarshalInto[core.ReservationConfirmed](storableEvent.PayloadJSON)

	case core.ReservationCancelledEventType:
		return unmarshalInto[core.ReservationCancelled](storableEvent.PayloadJSON)

	case core.ReservationRescheduledEventType:
		return unmarshalInto[core.ReservationRescheduled](storableEvent.PayloadJSON)

	case core.ReservationCompletedEventType:
		return unmarshalInto[core.ReservationCompleted](storableEvent.PayloadJSON)

	case core.ReservationNoShowEventType:
		return unmarshalInto[core.ReservationMarkedNoShow](storableEvent.PayloadJSON)

	case core.RefundRequestedEventType:
		return unmarshalInto[core.RefundRequested](storableEvent.PayloadJSON)

	case core.ReservationRefundedEventType:
		return unmarshalInto[core.ReservationRefunded](storableEvent.PayloadJSON)
	}

	return nil, errors.Join(ErrMappingToDomainEventFailed, ErrMappingToDomainEventUnknownEventType)
}

func unmarshalInto[E core.DomainEvent](payloadJSON []byte) (core.DomainEvent, error) {
	payload := new(E)

	err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(payloadJSON, payload)
	if err != nil {
		return nil, errors.Join(ErrMappingToDomainEventFailed, err)
	}

	return *payload, nil
}
