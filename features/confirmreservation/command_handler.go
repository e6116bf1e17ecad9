package confirmreservation

import (
	"context"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/collaborator"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/shell"
)

// PriceQuoter is the part of the pricing service this feature consumes.
type PriceQuoter interface {
	Quote(ctx context.Context, request collaborator.QuoteRequest) (core.Money, error)
}

// NewCommandHandler creates the handler for ConfirmReservation commands.
// The price is only requested when the reservation can actually be confirmed.
func NewCommandHandler(deps shell.Dependencies, pricing PriceQuoter) shell.CommandHandler[Command] {
	return shell.NewCommandHandler(deps, shell.Behavior[Command]{
		Decide: Decide,
		Enrich: func(ctx context.Context, state core.Reservation, command Command) (Command, error) {
			if pricing == nil || checkPreconditions(state, command) != nil {
				return command, nil
			}

			price, err := pricing.Quote(ctx, collaborator.QuoteRequest{
				ReservationID: state.ReservationID,
				HospitalID:    state.HospitalID,
				DoctorID:      state.DoctorID,
				Window:        state.Window,
			})
			if err != nil {
				return command, err
			}

			command.TotalPrice = price

			return command, nil
		},
	})
}
