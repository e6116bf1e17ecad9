// Package cancelreservation implements the Cancel Reservation use case.
//
// A PENDING or CONFIRMED reservation can be cancelled. Cancelling frees the doctor's window: the conflict
// index drops the entry as soon as the event is appended.
package cancelreservation
