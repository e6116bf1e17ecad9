package confirmreservation

import (
	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
)

// Decide implements the business logic of confirming a reservation.
//
// Business Rules:
//
//	GIVEN: a PENDING reservation at the expected version
//	WHEN: ConfirmReservation command is received
//	THEN: ReservationConfirmed event is generated with the quoted price
//	ERROR: NotFound, VersionConflict, IllegalTransition, checked in this order
func Decide(state core.Reservation, command Command, _ core.SlotChecker) core.DecisionResult {
	if err := checkPreconditions(state, command); err != nil {
		return core.RejectDecision(err)
	}

	return core.AcceptDecision(
		core.BuildReservationConfirmed(
			command.ReservationID,
			command.ConfirmedBy,
			command.TotalPrice,
			command.OccurredAt,
		),
	)
}

func checkPreconditions(state core.Reservation, command Command) error {
	return core.CheckPreconditions(
		state,
		command.ReservationID,
		command.ExpectedVersion,
		"confirm",
		core.StatusesLeadingTo(core.StatusConfirmed)...,
	)
}
