// Package confirmreservation implements the Confirm Reservation use case.
//
// Confirming is legal only from PENDING. The total price is quoted by the pricing service at this point
// and stored on the event, so later refunds know what was charged.
package confirmreservation
