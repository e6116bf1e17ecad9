package marknoshow

import (
	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
)

// Decide accepts a no-show only for a CONFIRMED reservation at the expected version.
func Decide(state core.Reservation, command Command, _ core.SlotChecker) core.DecisionResult {
	err := core.CheckPreconditions(
		state,
		command.ReservationID,
		command.ExpectedVersion,
		"mark no-show",
		core.StatusesLeadingTo(core.StatusNoShow)...,
	)
	if err != nil {
		return core.RejectDecision(err)
	}

	return core.AcceptDecision(core.BuildReservationMarkedNoShow(command.ReservationID, command.OccurredAt))
}
