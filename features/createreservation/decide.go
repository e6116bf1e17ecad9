package createreservation

import (
	"time"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
)

// Decide implements the business logic of booking a window.
//
// Business Rules:
//
//	GIVEN: a reservation id that has no history and a doctor's window
//	WHEN: CreateReservation command is received
//	THEN: ReservationCreated event is generated, the reservation is PENDING
//	ERROR: IllegalTransition if the reservation already exists
//	ERROR: SlotConflict if an active reservation of the doctor overlaps the window
//	ERROR: DailyLimit if a limit is set and the patient already holds that many active reservations that day
func Decide(state core.Reservation, command Command, slots core.SlotChecker) core.DecisionResult {
	if state.Exists() {
		return core.RejectDecision(core.IllegalTransitionError{
			ReservationID:      command.ReservationID,
			CurrentStatus:      state.Status,
			Attempted:          "create",
			AllowedTransitions: state.Status.AllowedTransitions(),
		})
	}

	if err := core.CheckSlotAvailable(slots, command.DoctorID, command.Window, command.ReservationID); err != nil {
		return core.RejectDecision(err)
	}

	if command.PatientDailyLimit > 0 && command.PatientActiveOnDay >= command.PatientDailyLimit {
		return core.RejectDecision(core.DailyLimitError{
			PatientID: command.PatientID,
			Day:       command.Window.Start.UTC().Format(time.DateOnly),
			Active:    command.PatientActiveOnDay,
			Limit:     command.PatientDailyLimit,
		})
	}

	return core.AcceptDecision(
		core.BuildReservationCreated(
			command.ReservationID,
			command.PatientID,
			command.DoctorID,
			command.HospitalID,
			command.Window,
			command.Resources,
			command.Notes,
			command.OccurredAt,
		),
	)
}
