package requestrefund

import (
	"time"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
)

const commandType = "RequestRefund"

// Command represents the intent to ask for the money back.
type Command struct {
	ReservationID   core.ReservationIDString
	ExpectedVersion core.VersionUint
	Reason          string
	OccurredAt      core.OccurredAt
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(
	reservationID core.ReservationIDString,
	expectedVersion core.VersionUint,
	reason string,
	occurredAt time.Time,
) (Command, error) {

	if reservationID == "" {
		return Command{}, core.InvalidCommand(core.ErrEmptyReservationID)
	}

	return Command{
		ReservationID:   reservationID,
		ExpectedVersion: expectedVersion,
		Reason:          reason,
		OccurredAt:      core.ToOccurredAt(occurredAt),
	}, nil
}

func (c Command) CommandType() string {
	return commandType
}

func (c Command) AggregateID() core.ReservationIDString {
	return c.ReservationID
}
