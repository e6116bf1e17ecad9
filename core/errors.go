package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSlotConflict      = errors.New("slot conflict")
	ErrVersionConflict   = errors.New("version conflict")
	ErrIllegalTransition = errors.New("illegal transition")
	ErrNotFound          = errors.New("reservation not found")
	ErrInvalidCommand    = errors.New("invalid command")
	ErrDailyLimit        = errors.New("patient daily booking limit reached")
)

// SlotConflictError is returned when the requested window overlaps active reservations of the same doctor.
type SlotConflictError struct {
	DoctorID                  DoctorIDString
	Window                    Window
	ConflictingReservationIDs []ReservationIDString
}

func (e SlotConflictError) Error() string {
	return fmt.Sprintf(
		"slot conflict: doctor %s already has active reservations [%s] overlapping %s",
		e.DoctorID,
		strings.Join(e.ConflictingReservationIDs, ", "),
		e.Window,
	)
}

func (e SlotConflictError) Unwrap() error {
	return ErrSlotConflict
}

// VersionConflictError is returned when the caller's expected version differs from the stored one.
type VersionConflictError struct {
	ReservationID   ReservationIDString
	ExpectedVersion VersionUint
	CurrentVersion  VersionUint
}

func (e VersionConflictError) Error() string {
	return fmt.Sprintf(
		"version conflict on reservation %s: expected version %d, current version %d",
		e.ReservationID,
		e.ExpectedVersion,
		e.CurrentVersion,
	)
}

func (e VersionConflictError) Unwrap() error {
	return ErrVersionConflict
}

// IllegalTransitionError is returned when the state machine has no edge for the attempted command.
type IllegalTransitionError struct {
	ReservationID      ReservationIDString
	CurrentStatus      Status
	Attempted          string
	AllowedTransitions []Status
}

func (e IllegalTransitionError) Error() string {
	allowed := make([]string, 0, len(e.AllowedTransitions))
	for _, status := range e.AllowedTransitions {
		allowed = append(allowed, string(status))
	}

	return fmt.Sprintf(
		"illegal transition on reservation %s: cannot %s from %s (allowed: [%s])",
		e.ReservationID,
		e.Attempted,
		e.CurrentStatus,
		strings.Join(allowed, ", "),
	)
}

func (e IllegalTransitionError) Unwrap() error {
	return ErrIllegalTransition
}

// DailyLimitError is returned when a patient already holds the allowed number of active
// reservations on the day the new window starts.
type DailyLimitError struct {
	PatientID PatientIDString
	Day       string
	Active    int
	Limit     int
}

func (e DailyLimitError) Error() string {
	return fmt.Sprintf(
		"patient %s already has %d active reservation(s) on %s, the limit is %d",
		e.PatientID,
		e.Active,
		e.Day,
		e.Limit,
	)
}

func (e DailyLimitError) Unwrap() error {
	return ErrDailyLimit
}

// InvalidCommand wraps a validation failure so that it matches ErrInvalidCommand.
func InvalidCommand(cause error) error {
	return errors.Join(ErrInvalidCommand, cause)
}

var (
	ErrEmptyReservationID = errors.New("reservation id must not be empty")
	ErrEmptyPatientID     = errors.New("patient id must not be empty")
	ErrEmptyDoctorID      = errors.New("doctor id must not be empty")
	ErrEmptyHospitalID    = errors.New("hospital id must not be empty")
)
