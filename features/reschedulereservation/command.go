package reschedulereservation

import (
	"time"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
)

const commandType = "RescheduleReservation"

// Command represents the intent to move a reservation to another window.
type Command struct {
	ReservationID   core.ReservationIDString
	ExpectedVersion core.VersionUint
	NewWindow       core.Window
	OccurredAt      core.OccurredAt
}

// BuildCommand validates the new window and creates a Command.
func BuildCommand(
	reservationID core.ReservationIDString,
	expectedVersion core.VersionUint,
	newWindow core.Window,
	occurredAt time.Time,
) (Command, error) {

	if reservationID == "" {
		return Command{}, core.InvalidCommand(core.ErrEmptyReservationID)
	}

	if err := newWindow.Validate(); err != nil {
		return Command{}, core.InvalidCommand(err)
	}

	if !newWindow.Start.After(occurredAt) {
		return Command{}, core.InvalidCommand(core.ErrWindowNotInFuture)
	}

	return Command{
		ReservationID:   reservationID,
		ExpectedVersion: expectedVersion,
		NewWindow:       newWindow,
		OccurredAt:      core.ToOccurredAt(occurredAt),
	}, nil
}

func (c Command) CommandType() string {
	return commandType
}

func (c Command) AggregateID() core.ReservationIDString {
	return c.ReservationID
}
