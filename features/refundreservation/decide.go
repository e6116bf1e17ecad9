package refundreservation

import (
	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
)

// Decide implements the business logic of paying a refund.
//
// Business Rules:
//
//	GIVEN: a REFUND_REQUESTED reservation at the expected version
//	WHEN: RefundReservation command is received
//	THEN: ReservationRefunded event is generated, REFUNDED is terminal
//	ERROR: NotFound, VersionConflict, IllegalTransition, checked in this order
//	ERROR: InvalidCommand if the amount exceeds the confirmed price or uses another currency
func Decide(state core.Reservation, command Command, _ core.SlotChecker) core.DecisionResult {
	err := core.CheckPreconditions(
		state,
		command.ReservationID,
		command.ExpectedVersion,
		"refund",
		core.StatusesLeadingTo(core.StatusRefunded)...,
	)
	if err != nil {
		return core.RejectDecision(err)
	}

	amount := command.Amount
	if amount.IsZero() {
		amount = state.TotalPrice
	}

	if !state.TotalPrice.IsZero() {
		if amount.Currency != state.TotalPrice.Currency {
			return core.RejectDecision(core.InvalidCommand(ErrRefundCurrencyMismatch))
		}

		if amount.AmountMinor > state.TotalPrice.AmountMinor {
			return core.RejectDecision(core.InvalidCommand(ErrRefundExceedsPrice))
		}
	}

	return core.AcceptDecision(core.BuildReservationRefunded(command.ReservationID, amount, command.OccurredAt))
}
