package refundreservation

import (
	"errors"
	"time"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
)

const commandType = "RefundReservation"

var (
	ErrNegativeRefundAmount   = errors.New("refund amount must not be negative")
	ErrRefundExceedsPrice     = errors.New("refund amount exceeds the confirmed price")
	ErrRefundCurrencyMismatch = errors.New("refund currency differs from the confirmed price")
)

// Command represents the intent to pay a refund. A zero Amount means "refund the confirmed price".
type Command struct {
	ReservationID   core.ReservationIDString
	ExpectedVersion core.VersionUint
	Amount          core.Money
	OccurredAt      core.OccurredAt
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(
	reservationID core.ReservationIDString,
	expectedVersion core.VersionUint,
	amount core.Money,
	occurredAt time.Time,
) (Command, error) {

	if reservationID == "" {
		return Command{}, core.InvalidCommand(core.ErrEmptyReservationID)
	}

	if amount.AmountMinor < 0 {
		return Command{}, core.InvalidCommand(ErrNegativeRefundAmount)
	}

	return Command{
		ReservationID:   reservationID,
		ExpectedVersion: expectedVersion,
		Amount:          amount,
		OccurredAt:      core.ToOccurredAt(occurredAt),
	}, nil
}

func (c Command) CommandType() string {
	return commandType
}

func (c Command) AggregateID() core.ReservationIDString {
	return c.ReservationID
}
