package createreservation

import (
	"time"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
)

const commandType = "CreateReservation"

// Command represents the intent to book a window with a doctor.
type Command struct {
	ReservationID core.ReservationIDString
	PatientID     core.PatientIDString
	DoctorID      core.DoctorIDString
	HospitalID    core.HospitalIDString
	Window        core.Window
	Resources     core.Resources
	Notes         string
	OccurredAt    core.OccurredAt

	// Set by the handler when a per-patient daily limit is configured. A zero limit disables the check.
	PatientDailyLimit  int
	PatientActiveOnDay int
}

// BuildCommand validates the input and creates a Command. Validation failures match core.ErrInvalidCommand.
func BuildCommand(
	reservationID core.ReservationIDString,
	patientID core.PatientIDString,
	doctorID core.DoctorIDString,
	hospitalID core.HospitalIDString,
	window core.Window,
	resources core.Resources,
	notes string,
	occurredAt time.Time,
) (Command, error) {

	switch {
	case reservationID == "":
		return Command{}, core.InvalidCommand(core.ErrEmptyReservationID)
	case patientID == "":
		return Command{}, core.InvalidCommand(core.ErrEmptyPatientID)
	case doctorID == "":
		return Command{}, core.InvalidCommand(core.ErrEmptyDoctorID)
	case hospitalID == "":
		return Command{}, core.InvalidCommand(core.ErrEmptyHospitalID)
	}

	if err := window.Validate(); err != nil {
		return Command{}, core.InvalidCommand(err)
	}

	if !window.Start.After(occurredAt) {
		return Command{}, core.InvalidCommand(core.ErrWindowNotInFuture)
	}

	return Command{
		ReservationID: reservationID,
		PatientID:     patientID,
		DoctorID:      doctorID,
		HospitalID:    hospitalID,
		Window:        window,
		Resources:     resources,
		Notes:         notes,
		OccurredAt:    core.ToOccurredAt(occurredAt),
	}, nil
}

func (c Command) CommandType() string {
	return commandType
}

func (c Command) AggregateID() core.ReservationIDString {
	return c.ReservationID
}
