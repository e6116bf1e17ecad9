package createreservation

import (
	"context"
	"time"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/shell"
)

// DailyBookingCounter counts a patient's active reservations starting on the UTC day of the given time.
type DailyBookingCounter interface {
	CountActiveOnDay(patientID core.PatientIDString, day time.Time) int
}

type handlerOptions struct {
	counter    DailyBookingCounter
	dailyLimit int
}

// Option configures the CreateReservation handler.
type Option func(*handlerOptions)

// WithPatientDailyLimit rejects a booking when the patient already holds limit active reservations
// on the day the window starts. A limit below one disables the check.
func WithPatientDailyLimit(counter DailyBookingCounter, limit int) Option {
	return func(o *handlerOptions) {
		o.counter = counter
		o.dailyLimit = limit
	}
}

// NewCommandHandler creates the handler for CreateReservation commands.
// It serializes bookings per doctor through the slot lock.
func NewCommandHandler(deps shell.Dependencies, options ...Option) shell.CommandHandler[Command] {
	config := handlerOptions{}
	for _, option := range options {
		option(&config)
	}

	behavior := shell.Behavior[Command]{
		Decide: Decide,
		SlotKey: func(_ core.Reservation, command Command) (core.DoctorIDString, bool) {
			return command.DoctorID, true
		},
	}

	if config.counter != nil && config.dailyLimit > 0 {
		behavior.Enrich = func(_ context.Context, _ core.Reservation, command Command) (Command, error) {
			command.PatientDailyLimit = config.dailyLimit
			command.PatientActiveOnDay = config.counter.CountActiveOnDay(command.PatientID, command.Window.Start)

			return command, nil
		}
	}

	return shell.NewCommandHandler(deps, behavior)
}
