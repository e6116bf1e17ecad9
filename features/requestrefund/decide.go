package requestrefund

import (
	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
)

// Decide implements the business logic of requesting a refund.
//
// Business Rules:
//
//	GIVEN: a CONFIRMED, CANCELLED or NO_SHOW reservation at the expected version
//	WHEN: RequestRefund command is received
//	THEN: RefundRequested event is generated
//	ERROR: NotFound, VersionConflict, IllegalTransition, checked in this order
func Decide(state core.Reservation, command Command, _ core.SlotChecker) core.DecisionResult {
	err := core.CheckPreconditions(
		state,
		command.ReservationID,
		command.ExpectedVersion,
		"request refund",
		core.StatusesLeadingTo(core.StatusRefundRequested)...,
	)
	if err != nil {
		return core.RejectDecision(err)
	}

	return core.AcceptDecision(core.BuildRefundRequested(command.ReservationID, command.Reason, command.OccurredAt))
}
