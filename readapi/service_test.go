package readapi_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/conflictindex"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore/memengine"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/projection"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/readapi"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/shell"
)

var (
	fakeNow = time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	day     = time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)
)

type fixture struct {
	t       *testing.T
	store   *memengine.EventStore
	index   *conflictindex.Index
	model   *projection.ReadModel
	service readapi.Service
}

func givenFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		t:     t,
		store: memengine.NewEventStore(),
		index: conflictindex.New(),
		model: projection.NewReadModel("HT"),
	}
	f.service = readapi.NewService(f.model, f.index, func() time.Time { return fakeNow })

	return f
}

func (f *fixture) givenEvents(events ...core.DomainEvent) {
	f.t.Helper()
	ctx := context.Background()

	for _, event := range events {
		_, version, err := f.store.Load(ctx, event.BelongsToReservation())
		require.NoError(f.t, err)

		storable, err := shell.StorableEventFrom(event, version+1, shell.BuildEventMetadata(ctx, "test"))
		require.NoError(f.t, err)
		require.NoError(f.t, f.store.Append(ctx, event.BelongsToReservation(), version, storable))
	}

	projector := projection.NewProjector(f.store, f.model, projection.WithTrackers(f.index))
	require.NoError(f.t, projector.CatchUp(ctx))
}

func created(id, patientID, doctorID, hospitalID string, window core.Window) core.ReservationCreated {
	return core.BuildReservationCreated(id, patientID, doctorID, hospitalID, window, core.Resources{}, "", fakeNow)
}

func confirmed(id string) core.ReservationConfirmed {
	return core.BuildReservationConfirmed(id, "staff", core.Money{AmountMinor: 5000, Currency: "EUR"}, fakeNow)
}

func cancelled(id string) core.ReservationCancelled {
	return core.BuildReservationCancelled(id, core.StatusPending, "", fakeNow)
}

func window(t *testing.T, start time.Time, minutes int) core.Window {
	t.Helper()

	w, err := core.BuildWindow(start, time.Duration(minutes)*time.Minute)
	require.NoError(t, err)

	return w
}

func ids(views []projection.ReservationView) []string {
	result := make([]string, 0, len(views))
	for _, view := range views {
		result = append(result, view.ReservationID)
	}

	return result
}

func Test_GetByID_And_GetByNumber(t *testing.T) {
	// arrange
	f := givenFixture(t)
	f.givenEvents(created("r-1", "p-1", "d-1", "h-1", window(t, day.Add(9*time.Hour), 60)))

	// act
	byID, errByID := f.service.GetByID("r-1")
	byNumber, errByNumber := f.service.GetByNumber("HT-2025-0001")
	_, errMissing := f.service.GetByID("r-404")
	_, errMissingNumber := f.service.GetByNumber("HT-2025-0404")

	// assert
	require.NoError(t, errByID)
	require.NoError(t, errByNumber)
	assert.Equal(t, byID, byNumber)
	assert.ErrorIs(t, errMissing, core.ErrNotFound)
	assert.ErrorIs(t, errMissingNumber, core.ErrNotFound)
}

func Test_List_Filters(t *testing.T) {
	f := givenFixture(t)
	f.givenEvents(
		created("r-1", "p-1", "d-1", "h-1", window(t, day.Add(9*time.Hour), 60)),
		created("r-2", "p-2", "d-1", "h-1", window(t, day.Add(11*time.Hour), 60)),
		created("r-3", "p-1", "d-2", "h-2", window(t, day.Add(24*time.Hour), 60)),
		confirmed("r-2"),
		cancelled("r-3"),
	)

	testCases := []struct {
		name     string
		query    readapi.ListQuery
		expected []string
	}{
		{name: "by patient", query: readapi.ListQuery{PatientID: "p-1"}, expected: []string{"r-1", "r-3"}},
		{name: "by doctor", query: readapi.ListQuery{DoctorID: "d-1"}, expected: []string{"r-1", "r-2"}},
		{
			name:     "by doctor and status",
			query:    readapi.ListQuery{DoctorID: "d-1", Statuses: []core.Status{core.StatusConfirmed}},
			expected: []string{"r-2"},
		},
		{name: "by hospital", query: readapi.ListQuery{HospitalID: "h-2"}, expected: []string{"r-3"}},
		{
			name:     "by date range overlapping only the first",
			query:    readapi.ListQuery{From: day.Add(8 * time.Hour), To: day.Add(10 * time.Hour)},
			expected: []string{"r-1"},
		},
		{
			name:     "range end is exclusive",
			query:    readapi.ListQuery{From: day.Add(10 * time.Hour), To: day.Add(11 * time.Hour)},
			expected: []string{},
		},
		{name: "limit", query: readapi.ListQuery{Limit: 1}, expected: []string{"r-1"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			views, err := f.service.List(tc.query)

			require.NoError(t, err)
			assert.Equal(t, tc.expected, ids(views))
		})
	}
}

func Test_List_Rejects_Invalid_Queries(t *testing.T) {
	f := givenFixture(t)

	_, errRange := f.service.List(readapi.ListQuery{From: day, To: day})
	_, errLimit := f.service.List(readapi.ListQuery{Limit: readapi.MaxListLimit + 1})

	assert.ErrorIs(t, errRange, core.ErrInvalidCommand)
	assert.ErrorIs(t, errRange, readapi.ErrInvalidDateRange)
	assert.ErrorIs(t, errLimit, readapi.ErrInvalidLimit)
}

func Test_Upcoming_And_DailySchedule_Only_Show_Active_Reservations(t *testing.T) {
	// arrange
	f := givenFixture(t)
	f.givenEvents(
		created("r-1", "p-1", "d-1", "h-1", window(t, day.Add(9*time.Hour), 60)),
		created("r-2", "p-1", "d-1", "h-1", window(t, day.Add(10*time.Hour), 60)),
		created("r-3", "p-1", "d-1", "h-1", window(t, day.Add(33*time.Hour), 60)),
		cancelled("r-2"),
	)

	// act
	upcoming := f.service.Upcoming("p-1")
	schedule := f.service.DailySchedule("d-1", day.Add(15*time.Hour))

	// assert
	assert.Equal(t, []string{"r-1", "r-3"}, ids(upcoming))
	assert.Equal(t, []string{"r-1"}, ids(schedule))
}

func Test_CheckAvailability_Uses_The_Conflict_Index(t *testing.T) {
	f := givenFixture(t)
	f.givenEvents(created("r-1", "p-1", "d-1", "h-1", window(t, day.Add(9*time.Hour), 60)))

	taken, err := f.service.CheckAvailability("d-1", window(t, day.Add(9*time.Hour+30*time.Minute), 60))
	require.NoError(t, err)
	adjacent, err := f.service.CheckAvailability("d-1", window(t, day.Add(10*time.Hour), 60))
	require.NoError(t, err)
	_, errInvalid := f.service.CheckAvailability("", window(t, day, 60))

	assert.False(t, taken.Available)
	assert.Equal(t, []core.ReservationIDString{"r-1"}, taken.ConflictingReservationIDs)
	assert.True(t, adjacent.Available)
	assert.ErrorIs(t, errInvalid, core.ErrInvalidCommand)
}

func Test_AllowedTransitions(t *testing.T) {
	f := givenFixture(t)
	f.givenEvents(
		created("r-1", "p-1", "d-1", "h-1", window(t, day.Add(9*time.Hour), 60)),
		confirmed("r-1"),
	)

	transitions, err := f.service.AllowedTransitions("r-1")
	_, errMissing := f.service.AllowedTransitions("r-404")

	require.NoError(t, err)
	assert.ElementsMatch(t, core.StatusConfirmed.AllowedTransitions(), transitions)
	assert.ErrorIs(t, errMissing, core.ErrNotFound)
}

func Test_StatsByHospital_Counts_Every_Status(t *testing.T) {
	f := givenFixture(t)
	f.givenEvents(
		created("r-1", "p-1", "d-1", "h-1", window(t, day.Add(9*time.Hour), 60)),
		created("r-2", "p-2", "d-1", "h-1", window(t, day.Add(11*time.Hour), 60)),
		created("r-3", "p-3", "d-2", "h-2", window(t, day.Add(9*time.Hour), 60)),
		confirmed("r-2"),
	)

	stats := f.service.StatsByHospital("h-1")

	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[core.StatusPending])
	assert.Equal(t, 1, stats.ByStatus[core.StatusConfirmed])
	assert.Equal(t, 0, stats.ByStatus[core.StatusRefunded])
	assert.Len(t, stats.ByStatus, len(core.AllStatuses()))
}

func Test_ParseStatuses_Ignores_Case(t *testing.T) {
	statuses, err := readapi.ParseStatuses([]string{"confirmed", "PENDING"})
	require.NoError(t, err)
	assert.Equal(t, []core.Status{core.StatusConfirmed, core.StatusPending}, statuses)

	_, err = readapi.ParseStatuses([]string{"lost"})
	assert.ErrorIs(t, err, readapi.ErrUnknownStatus)
}
