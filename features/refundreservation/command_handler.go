package refundreservation

import (
	"github.com/AntonStoeckl/reservation-lifecycle-engine/shell"
)

// NewCommandHandler creates the handler for RefundReservation commands.
func NewCommandHandler(deps shell.Dependencies) shell.CommandHandler[Command] {
	return shell.NewCommandHandler(deps, shell.Behavior[Command]{Decide: Decide})
}
