package cancelreservation

import (
	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
)

// Decide implements the business logic of cancelling a reservation.
//
// Business Rules:
//
//	GIVEN: a PENDING or CONFIRMED reservation at the expected version
//	WHEN: CancelReservation command is received
//	THEN: ReservationCancelled event is generated, remembering the status it was cancelled from
//	ERROR: NotFound, VersionConflict, IllegalTransition, checked in this order
func Decide(state core.Reservation, command Command, _ core.SlotChecker) core.DecisionResult {
	err := core.CheckPreconditions(
		state,
		command.ReservationID,
		command.ExpectedVersion,
		"cancel",
		core.StatusesLeadingTo(core.StatusCancelled)...,
	)
	if err != nil {
		return core.RejectDecision(err)
	}

	return core.AcceptDecision(
		core.BuildReservationCancelled(command.ReservationID, state.Status, command.Reason, command.OccurredAt),
	)
}
