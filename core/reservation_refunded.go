package core

import "time"

// ReservationRefunded closes the lifecycle. RefundedAmount defaults to the confirmed price.
type ReservationRefunded struct {
	EventType      EventTypeString
	ReservationID  ReservationIDString
	RefundedAmount Money
	OccurredAt     OccurredAt
}

func BuildReservationRefunded(
	reservationID ReservationIDString,
	refundedAmount Money,
	occurredAt time.Time,
) ReservationRefunded {

	return ReservationRefunded{
		EventType:      ReservationRefundedEventType,
		ReservationID:  reservationID,
		RefundedAmount: refundedAmount,
		OccurredAt:     ToOccurredAt(occurredAt),
	}
}

func (e ReservationRefunded) IsEventType() EventTypeString {
	return ReservationRefundedEventType
}

func (e ReservationRefunded) HasOccurredAt() OccurredAt {
	return e.OccurredAt
}

func (e ReservationRefunded) BelongsToReservation() ReservationIDString {
	return e.ReservationID
}
