// Package core contains the reservation domain: the appointment window, the status state machine,
// the domain events, the aggregate state folded from them, and the typed rejections a decision
// can produce.
//
// Nothing in here performs I/O. Decide functions in the features packages read a Reservation
// folded from history, optionally consult a SlotChecker, and return a DecisionResult.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'domain' layer.
package core
