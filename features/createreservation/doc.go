// Package createreservation implements the Create Reservation use case.
//
// A patient books a window with a doctor at a hospital. The booking is admitted only if no active
// reservation of the same doctor overlaps the window. The overlap check and the append run under the
// doctor's slot lock, so two concurrent bookings for one doctor can never both pass the check.
package createreservation
