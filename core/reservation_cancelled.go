package core

import "time"

type ReservationCancelled struct {
	EventType      EventTypeString
	ReservationID  ReservationIDString
	PreviousStatus Status
	Reason         string
	OccurredAt     OccurredAt
}

func BuildReservationCancelled(
	reservationID ReservationIDString,
	previousStatus Status,
	reason string,
	occurredAt time.Time,
) ReservationCancelled {

	return ReservationCancelled{
		EventType:      ReservationCancelledEventType,
		ReservationID:  reservationID,
		PreviousStatus: previousStatus,
		Reason:         reason,
		OccurredAt:     ToOccurredAt(occurredAt),
	}
}

func (e ReservationCancelled) IsEventType() EventTypeString {
	return ReservationCancelledEventType
}

func (e ReservationCancelled) HasOccurredAt() OccurredAt {
	return e.OccurredAt
}

func (e ReservationCancelled) BelongsToReservation() ReservationIDString {
	return e.ReservationID
}
