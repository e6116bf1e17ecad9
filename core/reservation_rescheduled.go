package core

import "time"

// ReservationRescheduled moves an active reservation to a new window without changing its status.
type ReservationRescheduled struct {
	EventType      EventTypeString
	ReservationID  ReservationIDString
	PreviousWindow Window
	NewWindow      Window
	OccurredAt     OccurredAt
}

func BuildReservationRescheduled(
	reservationID ReservationIDString,
	previousWindow Window,
	newWindow Window,
	occurredAt time.Time,
) ReservationRescheduled {

	return ReservationRescheduled{
		EventType:      ReservationRescheduledEventType,
		ReservationID:  reservationID,
		PreviousWindow: previousWindow,
		NewWindow:      newWindow,
		OccurredAt:     ToOccurredAt(occurredAt),
	}
}

func (e ReservationRescheduled) IsEventType() EventTypeString {
	return ReservationRescheduledEventType
}

func (e ReservationRescheduled) HasOccurredAt() OccurredAt {
	return e.OccurredAt
}

func (e ReservationRescheduled) BelongsToReservation() ReservationIDString {
	return e.ReservationID
}
