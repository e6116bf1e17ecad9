// Package reschedulereservation implements the Reschedule Reservation use case.
//
// An active reservation moves to a new window. The new window goes through the same overlap check as a
// booking, except that the reservation's own current slot does not count as a conflict. The status is kept.
package reschedulereservation
