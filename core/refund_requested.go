package core

import "time"

type RefundRequested struct {
	EventType     EventTypeString
	ReservationID ReservationIDString
	Reason        string
	OccurredAt    OccurredAt
}

func BuildRefundRequested(reservationID ReservationIDString, reason string, occurredAt time.Time) RefundRequested {
	return RefundRequested{
		EventType:     RefundRequestedEventType,
		ReservationID: reservationID,
		Reason:        reason,
		OccurredAt:    ToOccurredAt(occurredAt),
	}
}

func (e RefundRequested) IsEventType() EventTypeString {
	return RefundRequestedEventType
}

func (e RefundRequested) HasOccurredAt() OccurredAt {
	return e.OccurredAt
}

func (e RefundRequested) BelongsToReservation() ReservationIDString {
	return e.ReservationID
}
