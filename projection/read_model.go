package projection

import (
	"slices"
	"sync"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/shell"
)

// ReservationView is the current state of one reservation as the read side sees it.
type ReservationView struct {
	core.Reservation
	ReservationNumber string
}

// State is everything the projector derives. It is what a snapshot contains.
type State struct {
	Checkpoint eventstore.GlobalOffsetUint
	Views      map[core.ReservationIDString]ReservationView
	Numbering  NumberAllocator
	Pending    map[core.ReservationIDString]eventstore.StorableEvents
}

func newState(numberPrefix string) State {
	return State{
		Views:     make(map[core.ReservationIDString]ReservationView),
		Numbering: NewNumberAllocator(numberPrefix),
		Pending:   make(map[core.ReservationIDString]eventstore.StorableEvents),
	}
}

// ReadModel holds the projected views and secondary lookups. It is safe for concurrent use;
// queries see the state as of the last applied event.
type ReadModel struct {
	mu        sync.RWMutex
	state     State
	byNumber  map[string]core.ReservationIDString
	byPatient map[core.PatientIDString]map[core.ReservationIDString]struct{}
	byDoctor  map[core.DoctorIDString]map[core.ReservationIDString]struct{}
}

// NewReadModel creates an empty ReadModel.
func NewReadModel(numberPrefix string) *ReadModel {
	m := &ReadModel{}
	m.replace(newState(numberPrefix))

	return m
}

func (m *ReadModel) Get(reservationID core.ReservationIDString) (ReservationView, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	view, ok := m.state.Views[reservationID]

	return view, ok
}

func (m *ReadModel) GetByNumber(number string) (ReservationView, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reservationID, ok := m.byNumber[number]
	if !ok {
		return ReservationView{}, false
	}

	return m.state.Views[reservationID], true
}

// ListByPatient returns the patient's reservations ordered by window start.
func (m *ReadModel) ListByPatient(patientID core.PatientIDString) []ReservationView {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.collect(m.byPatient[patientID], nil)
}

// ListByDoctor returns the doctor's reservations ordered by window start.
func (m *ReadModel) ListByDoctor(doctorID core.DoctorIDString) []ReservationView {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.collect(m.byDoctor[doctorID], nil)
}

// Select returns all views matching the predicate, ordered by window start.
func (m *ReadModel) Select(predicate func(ReservationView) bool) []ReservationView {
	m.mu.RLock()
	defer m.mu.RUnlock()

	views := make([]ReservationView, 0)
	for _, view := range m.state.Views {
		if predicate(view) {
			views = append(views, view)
		}
	}

	sortViews(views)

	return views
}

// Checkpoint returns the global offset of the last event the model has seen.
func (m *ReadModel) Checkpoint() eventstore.GlobalOffsetUint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state.Checkpoint
}

func (m *ReadModel) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.state.Views)
}

// Snapshot returns a deep enough copy of the state to serialize it without holding the lock.
func (m *ReadModel) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	views := make(map[core.ReservationIDString]ReservationView, len(m.state.Views))
	for id, view := range m.state.Views {
		views[id] = view
	}

	counters := make(map[int]uint64, len(m.state.Numbering.Counters))
	for year, counter := range m.state.Numbering.Counters {
		counters[year] = counter
	}

	pending := make(map[core.ReservationIDString]eventstore.StorableEvents, len(m.state.Pending))
	for id, events := range m.state.Pending {
		pending[id] = slices.Clone(events)
	}

	return State{
		Checkpoint: m.state.Checkpoint,
		Views:      views,
		Numbering:  NumberAllocator{Prefix: m.state.Numbering.Prefix, Counters: counters},
		Pending:    pending,
	}
}

func (m *ReadModel) collect(ids map[core.ReservationIDString]struct{}, predicate func(ReservationView) bool) []ReservationView {
	views := make([]ReservationView, 0, len(ids))

	for id := range ids {
		view := m.state.Views[id]
		if predicate == nil || predicate(view) {
			views = append(views, view)
		}
	}

	sortViews(views)

	return views
}

// replace swaps the whole state and rebuilds the secondary lookups.
func (m *ReadModel) replace(state State) {
	if state.Views == nil {
		state.Views = make(map[core.ReservationIDString]ReservationView)
	}

	if state.Pending == nil {
		state.Pending = make(map[core.ReservationIDString]eventstore.StorableEvents)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = state
	m.byNumber = make(map[string]core.ReservationIDString)
	m.byPatient = make(map[core.PatientIDString]map[core.ReservationIDString]struct{})
	m.byDoctor = make(map[core.DoctorIDString]map[core.ReservationIDString]struct{})

	for _, view := range state.Views {
		m.indexLocked(view)
	}
}

func (m *ReadModel) indexLocked(view ReservationView) {
	if view.ReservationNumber != "" {
		m.byNumber[view.ReservationNumber] = view.ReservationID
	}

	addTo(m.byPatient, view.PatientID, view.ReservationID)
	addTo(m.byDoctor, view.DoctorID, view.ReservationID)
}

func addTo(lookup map[string]map[core.ReservationIDString]struct{}, key string, reservationID core.ReservationIDString) {
	ids, ok := lookup[key]
	if !ok {
		ids = make(map[core.ReservationIDString]struct{})
		lookup[key] = ids
	}

	ids[reservationID] = struct{}{}
}

func sortViews(views []ReservationView) {
	slices.SortFunc(views, func(a, b ReservationView) int {
		if c := a.Window.Start.Compare(b.Window.Start); c != 0 {
			return c
		}

		if a.ReservationID < b.ReservationID {
			return -1
		}

		if a.ReservationID > b.ReservationID {
			return 1
		}

		return 0
	})
}

// apply folds one stored event into the model. It returns the views that changed, which is more than one
// when the event closed a gap and buffered successors could be applied as well. Events whose version the
// view already contains are skipped.
func (m *ReadModel) apply(storable eventstore.StorableEvent) ([]ReservationView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if storable.GlobalOffset > m.state.Checkpoint {
		m.state.Checkpoint = storable.GlobalOffset
	}

	view, known := m.state.Views[storable.AggregateID]
	if known && storable.AggregateVersion <= view.Version {
		return nil, nil
	}

	if storable.AggregateVersion > view.Version+1 {
		m.bufferLocked(storable)
		return nil, nil
	}

	changed := make([]ReservationView, 0, 1)
	next := storable

	for {
		event, err := shell.DomainEventFrom(next)
		if err != nil {
			return changed, err
		}

		view = m.foldLocked(view, event)
		changed = append(changed, view)

		buffered, ok := m.takeBufferedLocked(next.AggregateID, view.Version+1)
		if !ok {
			return changed, nil
		}

		next = buffered
	}
}

func (m *ReadModel) foldLocked(view ReservationView, event core.DomainEvent) ReservationView {
	view.Reservation = view.Reservation.Apply(event)

	if created, ok := event.(core.ReservationCreated); ok && view.ReservationNumber == "" {
		view.ReservationNumber = m.state.Numbering.Next(created.OccurredAt)
	}

	m.state.Views[view.ReservationID] = view
	m.indexLocked(view)

	return view
}

func (m *ReadModel) bufferLocked(storable eventstore.StorableEvent) {
	pending := m.state.Pending[storable.AggregateID]

	for _, buffered := range pending {
		if buffered.AggregateVersion == storable.AggregateVersion {
			return
		}
	}

	m.state.Pending[storable.AggregateID] = append(pending, storable)
}

func (m *ReadModel) takeBufferedLocked(aggregateID string, version eventstore.AggregateVersionUint) (eventstore.StorableEvent, bool) {
	pending := m.state.Pending[aggregateID]

	for i, buffered := range pending {
		if buffered.AggregateVersion != version {
			continue
		}

		pending = slices.Delete(pending, i, i+1)
		if len(pending) == 0 {
			delete(m.state.Pending, aggregateID)
		} else {
			m.state.Pending[aggregateID] = pending
		}

		return buffered, true
	}

	return eventstore.StorableEvent{}, false
}

// PendingCount returns how many events wait for a missing predecessor.
func (m *ReadModel) PendingCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, pending := range m.state.Pending {
		count += len(pending)
	}

	return count
}
