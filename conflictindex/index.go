package conflictindex

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
)

// Entry is an active reservation occupying a doctor's window.
type Entry struct {
	ReservationID core.ReservationIDString
	DoctorID      core.DoctorIDString
	Window        core.Window
}

type schedule struct {
	mu          sync.RWMutex
	entries     []Entry
	versions    map[core.ReservationIDString]core.VersionUint
	maxDuration time.Duration
}

// Index is safe for concurrent use. The index-wide lock guards only the doctor and owner maps,
// schedule changes lock just the doctor they belong to.
type Index struct {
	mu       sync.RWMutex
	doctors  map[core.DoctorIDString]*schedule
	owners   map[core.ReservationIDString]core.DoctorIDString
	patients *patientBook
}

// patientBook holds the window starts of each patient's active reservations.
// It is only changed while the schedule of the reservation is locked.
type patientBook struct {
	mu       sync.RWMutex
	starts   map[core.PatientIDString]map[core.ReservationIDString]time.Time
	patients map[core.ReservationIDString]core.PatientIDString
}

// New creates an empty Index.
func New() *Index {
	return &Index{
		doctors: make(map[core.DoctorIDString]*schedule),
		owners:  make(map[core.ReservationIDString]core.DoctorIDString),
		patients: &patientBook{
			starts:   make(map[core.PatientIDString]map[core.ReservationIDString]time.Time),
			patients: make(map[core.ReservationIDString]core.PatientIDString),
		},
	}
}

// FindActiveOverlaps returns the ids of the indexed reservations of the doctor whose window overlaps the given one.
func (idx *Index) FindActiveOverlaps(doctorID core.DoctorIDString, window core.Window) []core.ReservationIDString {
	s, ok := idx.existingSchedule(doctorID)
	if !ok {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// every entry before end starts before window.End
	end := sort.Search(len(s.entries), func(i int) bool {
		return !s.entries[i].Window.Start.Before(window.End)
	})

	earliestRelevantStart := window.Start.Add(-s.maxDuration)
	overlapping := make([]core.ReservationIDString, 0)

	for i := end - 1; i >= 0; i-- {
		entry := s.entries[i]
		if !entry.Window.Start.After(earliestRelevantStart) {
			break
		}

		if entry.Window.Overlaps(window) {
			overlapping = append(overlapping, entry.ReservationID)
		}
	}

	slices.Reverse(overlapping)

	return overlapping
}

// Upsert inserts the entry or moves an existing entry of the same reservation.
func (idx *Index) Upsert(entry Entry) {
	if previousDoctor, moved := idx.assignOwner(entry.ReservationID, entry.DoctorID); moved {
		if s, ok := idx.existingSchedule(previousDoctor); ok {
			s.remove(entry.ReservationID)
		}
	}

	idx.scheduleFor(entry.DoctorID).upsert(entry)
}

// Remove drops the reservation from its doctor's schedule. Unknown ids are ignored.
func (idx *Index) Remove(reservationID core.ReservationIDString) {
	idx.mu.RLock()
	doctorID, known := idx.owners[reservationID]
	idx.mu.RUnlock()

	if !known {
		return
	}

	if s, ok := idx.existingSchedule(doctorID); ok {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.removeLocked(reservationID)
		idx.patients.forget(reservationID)
	}
}

// Track brings the index in line with the given reservation state: active reservations are upserted,
// all others removed. States older than the last tracked version of the reservation are ignored,
// so the eager update after an append and the later projector update can arrive in any order,
// and tracking an older replay never takes back a newer state.
// It reports whether the state was applied.
func (idx *Index) Track(reservation core.Reservation) bool {
	if !reservation.Exists() {
		return false
	}

	idx.assignOwner(reservation.ReservationID, reservation.DoctorID)

	return idx.scheduleFor(reservation.DoctorID).track(reservation, idx.patients)
}

// CountActiveOnDay returns how many tracked active reservations of the patient start on the UTC day of the given time.
func (idx *Index) CountActiveOnDay(patientID core.PatientIDString, day time.Time) int {
	return idx.patients.countOnDay(patientID, day)
}

// AfterAppend tracks the state produced by a command right after its event was appended.
func (idx *Index) AfterAppend(_ context.Context, _ core.Reservation, current core.Reservation, _ core.DomainEvent) {
	idx.Track(current)
}

// Entries returns a copy of the doctor's schedule ordered by window start.
func (idx *Index) Entries(doctorID core.DoctorIDString) []Entry {
	s, ok := idx.existingSchedule(doctorID)
	if !ok {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.entries)
}

// Len returns the number of indexed reservations.
func (idx *Index) Len() int {
	idx.mu.RLock()
	schedules := make([]*schedule, 0, len(idx.doctors))
	for _, s := range idx.doctors {
		schedules = append(schedules, s)
	}
	idx.mu.RUnlock()

	total := 0
	for _, s := range schedules {
		s.mu.RLock()
		total += len(s.entries)
		s.mu.RUnlock()
	}

	return total
}

func (idx *Index) existingSchedule(doctorID core.DoctorIDString) (*schedule, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	s, ok := idx.doctors[doctorID]

	return s, ok
}

func (idx *Index) scheduleFor(doctorID core.DoctorIDString) *schedule {
	if s, ok := idx.existingSchedule(doctorID); ok {
		return s
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	s, ok := idx.doctors[doctorID]
	if !ok {
		s = &schedule{versions: make(map[core.ReservationIDString]core.VersionUint)}
		idx.doctors[doctorID] = s
	}

	return s
}

// assignOwner records the doctor of a reservation and reports the previous one if it changed.
func (idx *Index) assignOwner(
	reservationID core.ReservationIDString,
	doctorID core.DoctorIDString,
) (core.DoctorIDString, bool) {

	idx.mu.RLock()
	previous, known := idx.owners[reservationID]
	idx.mu.RUnlock()

	if known && previous == doctorID {
		return "", false
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	previous, known = idx.owners[reservationID]
	idx.owners[reservationID] = doctorID

	return previous, known && previous != doctorID
}

func (s *schedule) track(reservation core.Reservation, patients *patientBook) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if known, ok := s.versions[reservation.ReservationID]; ok && known >= reservation.Version {
		return false
	}
	s.versions[reservation.ReservationID] = reservation.Version

	if reservation.IsActive() {
		s.upsertLocked(Entry{
			ReservationID: reservation.ReservationID,
			DoctorID:      reservation.DoctorID,
			Window:        reservation.Window,
		})
		patients.record(reservation.PatientID, reservation.ReservationID, reservation.Window.Start)
	} else {
		s.removeLocked(reservation.ReservationID)
		patients.forget(reservation.ReservationID)
	}

	return true
}

func (s *schedule) upsert(entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.upsertLocked(entry)
}

func (s *schedule) upsertLocked(entry Entry) {
	s.removeLocked(entry.ReservationID)

	position := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].Window.Start.After(entry.Window.Start)
	})
	s.entries = slices.Insert(s.entries, position, entry)

	if duration := entry.Window.Duration(); duration > s.maxDuration {
		s.maxDuration = duration
	}
}

func (s *schedule) remove(reservationID core.ReservationIDString) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(reservationID)
}

func (s *schedule) removeLocked(reservationID core.ReservationIDString) {
	s.entries = slices.DeleteFunc(s.entries, func(entry Entry) bool {
		return entry.ReservationID == reservationID
	})
}

func (b *patientBook) record(
	patientID core.PatientIDString,
	reservationID core.ReservationIDString,
	start time.Time,
) {

	b.mu.Lock()
	defer b.mu.Unlock()

	b.forgetLocked(reservationID)

	days, ok := b.starts[patientID]
	if !ok {
		days = make(map[core.ReservationIDString]time.Time)
		b.starts[patientID] = days
	}

	days[reservationID] = start
	b.patients[reservationID] = patientID
}

func (b *patientBook) forget(reservationID core.ReservationIDString) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.forgetLocked(reservationID)
}

func (b *patientBook) forgetLocked(reservationID core.ReservationIDString) {
	patientID, ok := b.patients[reservationID]
	if !ok {
		return
	}

	delete(b.patients, reservationID)
	delete(b.starts[patientID], reservationID)

	if len(b.starts[patientID]) == 0 {
		delete(b.starts, patientID)
	}
}

func (b *patientBook) countOnDay(patientID core.PatientIDString, day time.Time) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	year, month, date := day.UTC().Date()
	count := 0

	for _, start := range b.starts[patientID] {
		y, m, d := start.UTC().Date()
		if y == year && m == month && d == date {
			count++
		}
	}

	return count
}
