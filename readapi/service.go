package readapi

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/projection"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

var (
	ErrInvalidDateRange = errors.New("date range must end after it starts")
	ErrInvalidLimit     = errors.New("limit must be between 1 and 1000")
	ErrUnknownStatus    = errors.New("unknown reservation status")
)

// AvailabilityIndex answers overlap queries for a doctor's schedule.
type AvailabilityIndex interface {
	FindActiveOverlaps(doctorID core.DoctorIDString, window core.Window) []core.ReservationIDString
}

// ListQuery combines the list filters. Empty fields do not filter.
// From and To select reservations whose window overlaps [From, To).
type ListQuery struct {
	PatientID  core.PatientIDString
	DoctorID   core.DoctorIDString
	HospitalID core.HospitalIDString
	Statuses   []core.Status
	From       time.Time
	To         time.Time
	Limit      int
}

// Availability is the answer to an availability check.
type Availability struct {
	DoctorID                  core.DoctorIDString
	Window                    core.Window
	Available                 bool
	ConflictingReservationIDs []core.ReservationIDString
}

// HospitalStats counts the reservations of a hospital per status.
type HospitalStats struct {
	HospitalID core.HospitalIDString
	Total      int
	ByStatus   map[core.Status]int
}

// Service is the query side of the engine.
type Service struct {
	model *projection.ReadModel
	slots AvailabilityIndex
	now   func() time.Time
}

// NewService creates a Service. The clock is used by time-relative queries like Upcoming.
func NewService(model *projection.ReadModel, slots AvailabilityIndex, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}

	return Service{model: model, slots: slots, now: now}
}

// GetByID returns the reservation or an error that wraps core.ErrNotFound.
func (s Service) GetByID(reservationID core.ReservationIDString) (projection.ReservationView, error) {
	view, found := s.model.Get(reservationID)
	if !found {
		return projection.ReservationView{}, notFound(reservationID)
	}

	return view, nil
}

// GetByNumber looks a reservation up by its reservation number.
func (s Service) GetByNumber(number string) (projection.ReservationView, error) {
	view, found := s.model.GetByNumber(number)
	if !found {
		return projection.ReservationView{}, notFound(number)
	}

	return view, nil
}

func (s Service) ListByPatient(patientID core.PatientIDString) []projection.ReservationView {
	return s.model.ListByPatient(patientID)
}

// ListByDoctor returns the doctor's reservations, restricted to the given statuses if there are any.
func (s Service) ListByDoctor(doctorID core.DoctorIDString, statuses ...core.Status) []projection.ReservationView {
	return filterViews(s.model.ListByDoctor(doctorID), func(view projection.ReservationView) bool {
		return hasStatus(view, statuses)
	})
}

func (s Service) ListByStatus(status core.Status) []projection.ReservationView {
	return s.model.Select(func(view projection.ReservationView) bool {
		return view.Status == status
	})
}

// ListByDateRange returns reservations whose window overlaps [from, to), optionally for one doctor.
func (s Service) ListByDateRange(from, to time.Time, doctorID core.DoctorIDString) ([]projection.ReservationView, error) {
	return s.List(ListQuery{DoctorID: doctorID, From: from, To: to, Limit: MaxListLimit})
}

// List answers a combined query. The most selective lookup available is used first.
func (s Service) List(query ListQuery) ([]projection.ReservationView, error) {
	if err := query.validate(); err != nil {
		return nil, core.InvalidCommand(err)
	}

	limit := query.Limit
	if limit == 0 {
		limit = DefaultListLimit
	}

	var candidates []projection.ReservationView

	switch {
	case query.PatientID != "":
		candidates = s.model.ListByPatient(query.PatientID)
	case query.DoctorID != "":
		candidates = s.model.ListByDoctor(query.DoctorID)
	default:
		candidates = s.model.Select(func(projection.ReservationView) bool { return true })
	}

	result := filterViews(candidates, query.matches)
	if len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// Upcoming returns the patient's active reservations that have not started yet.
func (s Service) Upcoming(patientID core.PatientIDString) []projection.ReservationView {
	now := s.now()

	return filterViews(s.model.ListByPatient(patientID), func(view projection.ReservationView) bool {
		return view.IsActive() && view.Window.Start.After(now)
	})
}

// DailySchedule returns the doctor's active reservations that overlap the UTC day of date.
func (s Service) DailySchedule(doctorID core.DoctorIDString, date time.Time) []projection.ReservationView {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	day := core.Window{Start: dayStart, End: dayStart.AddDate(0, 0, 1)}

	return filterViews(s.model.ListByDoctor(doctorID), func(view projection.ReservationView) bool {
		return view.IsActive() && view.Window.Overlaps(day)
	})
}

// CheckAvailability asks the conflict index whether the window is free for the doctor.
func (s Service) CheckAvailability(doctorID core.DoctorIDString, window core.Window) (Availability, error) {
	if doctorID == "" {
		return Availability{}, core.InvalidCommand(core.ErrEmptyDoctorID)
	}

	if err := window.Validate(); err != nil {
		return Availability{}, core.InvalidCommand(err)
	}

	conflicts := s.slots.FindActiveOverlaps(doctorID, window)

	return Availability{
		DoctorID:                  doctorID,
		Window:                    window,
		Available:                 len(conflicts) == 0,
		ConflictingReservationIDs: conflicts,
	}, nil
}

// AllowedTransitions returns the statuses the reservation can move to next.
func (s Service) AllowedTransitions(reservationID core.ReservationIDString) ([]core.Status, error) {
	view, err := s.GetByID(reservationID)
	if err != nil {
		return nil, err
	}

	return view.Status.AllowedTransitions(), nil
}

// StatsByHospital counts the hospital's reservations per status. Every status is present, zero or not.
func (s Service) StatsByHospital(hospitalID core.HospitalIDString) HospitalStats {
	stats := HospitalStats{HospitalID: hospitalID, ByStatus: make(map[core.Status]int)}
	for _, status := range core.AllStatuses() {
		stats.ByStatus[status] = 0
	}

	for _, view := range s.model.Select(func(view projection.ReservationView) bool { return view.HospitalID == hospitalID }) {
		stats.ByStatus[view.Status]++
		stats.Total++
	}

	return stats
}

// ParseStatuses converts status names into statuses, ignoring case.
func ParseStatuses(names []string) ([]core.Status, error) {
	statuses := make([]core.Status, 0, len(names))

	for _, name := range names {
		status, ok := core.ParseStatus(strings.ToUpper(name))
		if !ok {
			return nil, core.InvalidCommand(errors.Join(ErrUnknownStatus, errors.New(name)))
		}

		statuses = append(statuses, status)
	}

	return statuses, nil
}

func (q ListQuery) validate() error {
	if !q.From.IsZero() && !q.To.IsZero() && !q.To.After(q.From) {
		return ErrInvalidDateRange
	}

	if q.Limit < 0 || q.Limit > MaxListLimit {
		return ErrInvalidLimit
	}

	return nil
}

func (q ListQuery) matches(view projection.ReservationView) bool {
	switch {
	case q.PatientID != "" && view.PatientID != q.PatientID:
		return false
	case q.DoctorID != "" && view.DoctorID != q.DoctorID:
		return false
	case q.HospitalID != "" && view.HospitalID != q.HospitalID:
		return false
	case !hasStatus(view, q.Statuses):
		return false
	case !q.From.IsZero() && !view.Window.End.After(q.From):
		return false
	case !q.To.IsZero() && !view.Window.Start.Before(q.To):
		return false
	default:
		return true
	}
}

func hasStatus(view projection.ReservationView, statuses []core.Status) bool {
	return len(statuses) == 0 || slices.Contains(statuses, view.Status)
}

func filterViews(views []projection.ReservationView, keep func(projection.ReservationView) bool) []projection.ReservationView {
	filtered := make([]projection.ReservationView, 0, len(views))

	for _, view := range views {
		if keep(view) {
			filtered = append(filtered, view)
		}
	}

	return filtered
}

func notFound(reference string) error {
	return errors.Join(core.ErrNotFound, errors.New("reservation "+reference))
}
