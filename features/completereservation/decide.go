package completereservation

import (
	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
)

// Decide implements the business logic of completing a reservation.
//
// Business Rules:
//
//	GIVEN: a CONFIRMED reservation at the expected version
//	WHEN: CompleteReservation command is received
//	THEN: ReservationCompleted event is generated, COMPLETED is terminal
//	ERROR: NotFound, VersionConflict, IllegalTransition, checked in this order
func Decide(state core.Reservation, command Command, _ core.SlotChecker) core.DecisionResult {
	err := core.CheckPreconditions(
		state,
		command.ReservationID,
		command.ExpectedVersion,
		"complete",
		core.StatusesLeadingTo(core.StatusCompleted)...,
	)
	if err != nil {
		return core.RejectDecision(err)
	}

	return core.AcceptDecision(core.BuildReservationCompleted(command.ReservationID, command.OccurredAt))
}
