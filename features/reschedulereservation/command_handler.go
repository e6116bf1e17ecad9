package reschedulereservation

import (
	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/shell"
)

// NewCommandHandler creates the handler for RescheduleReservation commands.
// The doctor is only known after loading, so the slot lock is taken after the aggregate lock.
func NewCommandHandler(deps shell.Dependencies) shell.CommandHandler[Command] {
	return shell.NewCommandHandler(deps, shell.Behavior[Command]{
		Decide: Decide,
		SlotKey: func(state core.Reservation, _ Command) (core.DoctorIDString, bool) {
			return state.DoctorID, state.Exists()
		},
	})
}
