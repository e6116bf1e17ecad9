// Package refundreservation implements the Refund Reservation use case, which closes the lifecycle of a
// reservation with a requested refund. The refunded amount defaults to the price quoted at confirmation
// and must not exceed it.
package refundreservation
