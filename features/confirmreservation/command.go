package confirmreservation

import (
	"time"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
)

const commandType = "ConfirmReservation"

// Command represents the intent to confirm a pending reservation.
// TotalPrice is filled in by the command handler from the pricing service.
type Command struct {
	ReservationID   core.ReservationIDString
	ExpectedVersion core.VersionUint
	ConfirmedBy     string
	TotalPrice      core.Money
	OccurredAt      core.OccurredAt
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(
	reservationID core.ReservationIDString,
	expectedVersion core.VersionUint,
	confirmedBy string,
	occurredAt time.Time,
) (Command, error) {

	if reservationID == "" {
		return Command{}, core.InvalidCommand(core.ErrEmptyReservationID)
	}

	return Command{
		ReservationID:   reservationID,
		ExpectedVersion: expectedVersion,
		ConfirmedBy:     confirmedBy,
		OccurredAt:      core.ToOccurredAt(occurredAt),
	}, nil
}

func (c Command) CommandType() string {
	return commandType
}

func (c Command) AggregateID() core.ReservationIDString {
	return c.ReservationID
}
