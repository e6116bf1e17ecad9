package reschedulereservation

import (
	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
)

// Decide implements the business logic of moving a reservation.
//
// Business Rules:
//
//	GIVEN: a PENDING or CONFIRMED reservation at the expected version
//	WHEN: RescheduleReservation command is received
//	THEN: ReservationRescheduled event is generated with the previous and the new window
//	ERROR: NotFound, VersionConflict, IllegalTransition, checked in this order
//	ERROR: SlotConflict if another active reservation of the doctor overlaps the new window
func Decide(state core.Reservation, command Command, slots core.SlotChecker) core.DecisionResult {
	err := core.CheckPreconditions(
		state,
		command.ReservationID,
		command.ExpectedVersion,
		"reschedule",
		core.ActiveStatuses()...,
	)
	if err != nil {
		return core.RejectDecision(err)
	}

	if err = core.CheckSlotAvailable(slots, state.DoctorID, command.NewWindow, command.ReservationID); err != nil {
		return core.RejectDecision(err)
	}

	return core.AcceptDecision(
		core.BuildReservationRescheduled(command.ReservationID, state.Window, command.NewWindow, command.OccurredAt),
	)
}
