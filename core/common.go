package core

import (
	"fmt"
	"time"
)

// ReservationIDString represents a reservation identifier (the aggregate id).
type ReservationIDString = string

// PatientIDString represents an opaque reference to a patient of the patient service.
type PatientIDString = string

// DoctorIDString represents an opaque reference to a doctor of the doctor service.
type DoctorIDString = string

// HospitalIDString represents an opaque reference to a hospital of the hospital service.
type HospitalIDString = string

// EventTypeString represents the type of domain event.
type EventTypeString = string

// VersionUint is the number of events applied to a reservation.
type VersionUint = uint

// OccurredAt represents when an event occurred
type OccurredAt = time.Time

// ToOccurredAt converts a time to OccurredAt with UTC normalization and microsecond precision
func ToOccurredAt(t time.Time) OccurredAt {
	return t.UTC().Truncate(time.Microsecond)
}

// Resources holds references that travel with a reservation but are not interpreted here.
type Resources struct {
	AccommodationID string
	TransferID      string
}

// Money is an amount in minor units (cents) of a currency.
type Money struct {
	AmountMinor int64
	Currency    string
}

// IsZero reports whether no amount was set.
func (m Money) IsZero() bool {
	return m.AmountMinor == 0 && m.Currency == ""
}

func (m Money) String() string {
	return fmt.Sprintf("%d.%02d %s", m.AmountMinor/100, m.AmountMinor%100, m.Currency)
}
