// Package collaborator holds the contracts and adapters of the services this subsystem talks to
// without owning them: the pricing service, consulted when a reservation is confirmed, and the
// notification service, which receives a fire-and-forget message on every status change.
package collaborator
