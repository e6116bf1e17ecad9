package core

// DecisionResult is the outcome of a pure Decide function.
// An accepted decision carries the event to append, a rejected decision carries the typed error.
type DecisionResult struct {
	Outcome string
	Event   DomainEvent
	Err     error
}

const (
	DecisionAccepted = "accepted"
	DecisionRejected = "rejected"
)

// AcceptDecision creates a DecisionResult with the event that must be appended.
func AcceptDecision(event DomainEvent) DecisionResult {
	return DecisionResult{
		Outcome: DecisionAccepted,
		Event:   event,
	}
}

// RejectDecision creates a DecisionResult that carries the rejection error and no event.
func RejectDecision(err error) DecisionResult {
	return DecisionResult{
		Outcome: DecisionRejected,
		Err:     err,
	}
}

// HasEventToAppend returns true if the decision produced an event that must be stored.
func (r DecisionResult) HasEventToAppend() bool {
	return r.Event != nil
}

// HasError returns true if the decision was a rejection.
func (r DecisionResult) HasError() bool {
	return r.Err != nil
}
