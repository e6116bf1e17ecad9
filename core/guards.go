package core

import "slices"

// SlotChecker answers which active reservations of a doctor overlap a window.
type SlotChecker interface {
	FindActiveOverlaps(doctorID DoctorIDString, window Window) []ReservationIDString
}

// CheckPreconditions applies the guards every command on an existing reservation shares,
// in this order: the reservation must exist, its version must equal expectedVersion,
// and its status must be one of allowedFrom.
func CheckPreconditions(
	state Reservation,
	reservationID ReservationIDString,
	expectedVersion VersionUint,
	attempted string,
	allowedFrom ...Status,
) error {

	if !state.Exists() {
		return ErrNotFound
	}

	if state.Version != expectedVersion {
		return VersionConflictError{
			ReservationID:   reservationID,
			ExpectedVersion: expectedVersion,
			CurrentVersion:  state.Version,
		}
	}

	if !slices.Contains(allowedFrom, state.Status) {
		return IllegalTransitionError{
			ReservationID:      reservationID,
			CurrentStatus:      state.Status,
			Attempted:          attempted,
			AllowedTransitions: state.Status.AllowedTransitions(),
		}
	}

	return nil
}

// CheckSlotAvailable returns a SlotConflictError if any active reservation of the doctor other than
// ownReservationID overlaps the window.
func CheckSlotAvailable(
	checker SlotChecker,
	doctorID DoctorIDString,
	window Window,
	ownReservationID ReservationIDString,
) error {

	overlapping := checker.FindActiveOverlaps(doctorID, window)

	conflicting := make([]ReservationIDString, 0, len(overlapping))
	for _, id := range overlapping {
		if id != ownReservationID {
			conflicting = append(conflicting, id)
		}
	}

	if len(conflicting) > 0 {
		return SlotConflictError{
			DoctorID:                  doctorID,
			Window:                    window,
			ConflictingReservationIDs: conflicting,
		}
	}

	return nil
}
