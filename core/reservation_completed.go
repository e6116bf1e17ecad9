package core

import "time"

type ReservationCompleted struct {
	EventType     EventTypeString
	ReservationID ReservationIDString
	OccurredAt    OccurredAt
}

func BuildReservationCompleted(reservationID ReservationIDString, occurredAt time.Time) ReservationCompleted {
	return ReservationCompleted{
		EventType:     ReservationCompletedEventType,
		ReservationID: reservationID,
		OccurredAt:    ToOccurredAt(occurredAt),
	}
}

func (e ReservationCompleted) IsEventType() EventTypeString {
	return ReservationCompletedEventType
}

func (e ReservationCompleted) HasOccurredAt() OccurredAt {
	return e.OccurredAt
}

func (e ReservationCompleted) BelongsToReservation() ReservationIDString {
	return e.ReservationID
}
