// Package testdoubles provides spies for the observability contracts shared by the event store engines,
// the command handlers, and the read model projector.
//
// Every spy is safe for concurrent use, so it can be handed to a projector running in its own goroutine.
package testdoubles
