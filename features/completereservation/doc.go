// Package completereservation implements the Complete Reservation use case.
//
// Only a CONFIRMED reservation can be completed. Whether the appointment window has passed is the
// caller's concern; the decision trusts the command's timestamp.
package completereservation
