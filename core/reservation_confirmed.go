package core

import "time"

// ReservationConfirmed records the price quoted at confirmation.
type ReservationConfirmed struct {
	EventType     EventTypeString
	ReservationID ReservationIDString
	ConfirmedBy   string
	TotalPrice    Money
	OccurredAt    OccurredAt
}

func BuildReservationConfirmed(
	reservationID ReservationIDString,
	confirmedBy string,
	totalPrice Money,
	occurredAt time.Time,
) ReservationConfirmed {

	return ReservationConfirmed{
		EventType:     ReservationConfirmedEventType,
		ReservationID: reservationID,
		ConfirmedBy:   confirmedBy,
		TotalPrice:    totalPrice,
		OccurredAt:    ToOccurredAt(occurredAt),
	}
}

func (e ReservationConfirmed) IsEventType() EventTypeString {
	return ReservationConfirmedEventType
}

func (e ReservationConfirmed) HasOccurredAt() OccurredAt {
	return e.OccurredAt
}

func (e ReservationConfirmed) BelongsToReservation() ReservationIDString {
	return e.ReservationID
}
