package core

import "slices"

// Status is a state of the reservation state machine.
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusConfirmed       Status = "CONFIRMED"
	StatusCancelled       Status = "CANCELLED"
	StatusCompleted       Status = "COMPLETED"
	StatusNoShow          Status = "NO_SHOW"
	StatusRefundRequested Status = "REFUND_REQUESTED"
	StatusRefunded        Status = "REFUNDED"
)

// transitions is the complete state diagram. A status missing as a key has no outgoing transitions.
var transitions = map[Status][]Status{
	StatusPending:         {StatusConfirmed, StatusCancelled},
	StatusConfirmed:       {StatusCompleted, StatusCancelled, StatusNoShow, StatusRefundRequested},
	StatusCancelled:       {StatusRefundRequested},
	StatusNoShow:          {StatusRefundRequested},
	StatusRefundRequested: {StatusRefunded},
}

// AllStatuses lists every status in lifecycle order.
func AllStatuses() []Status {
	return []Status{
		StatusPending,
		StatusConfirmed,
		StatusCancelled,
		StatusCompleted,
		StatusNoShow,
		StatusRefundRequested,
		StatusRefunded,
	}
}

// ParseStatus returns the Status for s and whether it is known.
func ParseStatus(s string) (Status, bool) {
	status := Status(s)

	return status, slices.Contains(AllStatuses(), status)
}

// AllowedTransitions returns the statuses reachable from s in one step.
func (s Status) AllowedTransitions() []Status {
	return slices.Clone(transitions[s])
}

// CanTransitionTo reports whether the diagram has an edge from s to target.
func (s Status) CanTransitionTo(target Status) bool {
	return slices.Contains(transitions[s], target)
}

// IsActive reports whether a reservation in this status occupies its doctor's slot.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// IsTerminal reports whether no event is legal from this status any more.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// StatusesLeadingTo returns every status that has an edge to target.
func StatusesLeadingTo(target Status) []Status {
	sources := make([]Status, 0)

	for _, status := range AllStatuses() {
		if status.CanTransitionTo(target) {
			sources = append(sources, status)
		}
	}

	return sources
}

// ActiveStatuses returns the statuses that occupy a slot.
func ActiveStatuses() []Status {
	return []Status{StatusPending, StatusConfirmed}
}
