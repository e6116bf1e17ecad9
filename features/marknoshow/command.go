package marknoshow

import (
	"time"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
)

const commandType = "MarkNoShow"

type Command struct {
	ReservationID   core.ReservationIDString
	ExpectedVersion core.VersionUint
	OccurredAt      core.OccurredAt
}

func BuildCommand(reservationID core.ReservationIDString, expectedVersion core.VersionUint, occurredAt time.Time) (Command, error) {
	if reservationID == "" {
		return Command{}, core.InvalidCommand(core.ErrEmptyReservationID)
	}

	return Command{
		ReservationID:   reservationID,
		ExpectedVersion: expectedVersion,
		OccurredAt:      core.ToOccurredAt(occurredAt),
	}, nil
}

func (c Command) CommandType() string {
	return commandType
}

func (c Command) AggregateID() core.ReservationIDString {
	return c.ReservationID
}
