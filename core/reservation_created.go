package core

import "time"

// ReservationCreated starts the lifecycle of a reservation in PENDING.
type ReservationCreated struct {
	EventType     EventTypeString
	ReservationID ReservationIDString
	PatientID     PatientIDString
	DoctorID      DoctorIDString
	HospitalID    HospitalIDString
	Window        Window
	Resources     Resources
	Notes         string
	OccurredAt    OccurredAt
}

func BuildReservationCreated(
	reservationID ReservationIDString,
	patientID PatientIDString,
	doctorID DoctorIDString,
	hospitalID HospitalIDString,
	window Window,
	resources Resources,
	notes string,
	occurredAt time.Time,
) ReservationCreated {

	return ReservationCreated{
		EventType:     ReservationCreatedEventType,
		ReservationID: reservationID,
		PatientID:     patientID,
		DoctorID:      doctorID,
		HospitalID:    hospitalID,
		Window:        window,
		Resources:     resources,
		Notes:         notes,
		OccurredAt:    ToOccurredAt(occurredAt),
	}
}

func (e ReservationCreated) IsEventType() EventTypeString {
	return ReservationCreatedEventType
}

func (e ReservationCreated) HasOccurredAt() OccurredAt {
	return e.OccurredAt
}

func (e ReservationCreated) BelongsToReservation() ReservationIDString {
	return e.ReservationID
}
