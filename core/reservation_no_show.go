package core

import "time"

type ReservationMarkedNoShow struct {
	EventType     EventTypeString
	ReservationID ReservationIDString
	OccurredAt    OccurredAt
}

func BuildReservationMarkedNoShow(reservationID ReservationIDString, occurredAt time.Time) ReservationMarkedNoShow {
	return ReservationMarkedNoShow{
		EventType:     ReservationNoShowEventType,
		ReservationID: reservationID,
		OccurredAt:    ToOccurredAt(occurredAt),
	}
}

func (e ReservationMarkedNoShow) IsEventType() EventTypeString {
	return ReservationNoShowEventType
}

func (e ReservationMarkedNoShow) HasOccurredAt() OccurredAt {
	return e.OccurredAt
}

func (e ReservationMarkedNoShow) BelongsToReservation() ReservationIDString {
	return e.ReservationID
}
