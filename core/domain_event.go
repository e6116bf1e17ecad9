package core

// DomainEvent represents a fact that happened to a reservation.
type DomainEvent interface {
	IsEventType() EventTypeString
	HasOccurredAt() OccurredAt
	BelongsToReservation() ReservationIDString
}

// DomainEvents is a slice of DomainEvent instances.
type DomainEvents = []DomainEvent

const (
	ReservationCreatedEventType     EventTypeString = "Created"
	ReservationConfirmedEventType   EventTypeString = "Confirmed"
	ReservationCancelledEventType   EventTypeString = "Cancelled"
	ReservationRescheduledEventType EventTypeString = "Rescheduled"
	ReservationCompletedEventType   EventTypeString = "Completed"
	ReservationNoShowEventType      EventTypeString = "NoShow"
	RefundRequestedEventType        EventTypeString = "RefundRequested"
	ReservationRefundedEventType    EventTypeString = "Refunded"
)

// ResultingStatus returns the status a reservation has after the given event type.
// Rescheduled keeps the current status and returns false.
func ResultingStatus(eventType EventTypeString) (Status, bool) {
	switch eventType {
	case ReservationCreatedEventType:
		return StatusPending, true
	case ReservationConfirmedEventType:
		return StatusConfirmed, true
	case ReservationCancelledEventType:
		return StatusCancelled, true
	case ReservationCompletedEventType:
		return StatusCompleted, true
	case ReservationNoShowEventType:
		return StatusNoShow, true
	case RefundRequestedEventType:
		return StatusRefundRequested, true
	case ReservationRefundedEventType:
		return StatusRefunded, true
	default:
		return "", false
	}
}
