package core

import "time"

// Reservation is the aggregate state derived by folding a reservation's events in version order.
// The zero value represents a reservation that does not exist yet.
type Reservation struct {
	ReservationID      ReservationIDString
	PatientID          PatientIDString
	DoctorID           DoctorIDString
	HospitalID         HospitalIDString
	Window             Window
	Resources          Resources
	Notes              string
	Status             Status
	Version            VersionUint
	ConfirmedBy        string
	TotalPrice         Money
	CancellationReason string
	RefundReason       string
	RefundedAmount     Money
	CreatedAt          time.Time
	LastTransitionAt   time.Time
}

// Exists reports whether at least one event was applied.
func (r Reservation) Exists() bool {
	return r.Version > 0
}

// ProjectReservation folds the given history, ordered by version, into the aggregate state.
func ProjectReservation(history DomainEvents) Reservation {
	state := Reservation{}

	for _, event := range history {
		state = state.Apply(event)
	}

	return state
}

// Apply returns the state after the event and increments the version.
// Events are facts, so Apply never rejects one.
func (r Reservation) Apply(event DomainEvent) Reservation {
	switch e := event.(type) {
	case ReservationCreated:
		r.ReservationID = e.ReservationID
		r.PatientID = e.PatientID
		r.DoctorID = e.DoctorID
		r.HospitalID = e.HospitalID
		r.Window = e.Window
		r.Resources = e.Resources
		r.Notes = e.Notes
		r.CreatedAt = e.OccurredAt

	case ReservationConfirmed:
		r.ConfirmedBy = e.ConfirmedBy
		r.TotalPrice = e.TotalPrice

	case ReservationCancelled:
		r.CancellationReason = e.Reason

	case ReservationRescheduled:
		r.Window = e.NewWindow

	case RefundRequested:
		r.RefundReason = e.Reason

	case ReservationRefunded:
		r.RefundedAmount = e.RefundedAmount
	}

	if status, changesStatus := ResultingStatus(event.IsEventType()); changesStatus {
		r.Status = status
	}

	r.LastTransitionAt = event.HasOccurredAt()
	r.Version++

	return r
}

// IsActive reports whether the reservation occupies its doctor's window.
func (r Reservation) IsActive() bool {
	return r.Exists() && r.Status.IsActive()
}
