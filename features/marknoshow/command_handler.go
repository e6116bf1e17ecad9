package marknoshow

import (
	"github.com/AntonStoeckl/reservation-lifecycle-engine/shell"
)

func NewCommandHandler(deps shell.Dependencies) shell.CommandHandler[Command] {
	return shell.NewCommandHandler(deps, shell.Behavior[Command]{Decide: Decide})
}
