package conflictindex_test

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/conflictindex"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
)

var tenOClock = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

func Test_FindActiveOverlaps_Uses_Half_Open_Windows(t *testing.T) {
	// arrange
	idx := conflictindex.New()
	idx.Upsert(givenEntry(t, "r-1", "d-1", tenOClock, time.Hour))

	// act + assert
	assert.Equal(t, []string{"r-1"}, idx.FindActiveOverlaps("d-1", givenWindow(t, tenOClock.Add(30*time.Minute), time.Hour)))
	assert.Empty(t, idx.FindActiveOverlaps("d-1", givenWindow(t, tenOClock.Add(time.Hour), time.Hour)))
	assert.Empty(t, idx.FindActiveOverlaps("d-1", givenWindow(t, tenOClock.Add(-time.Hour), time.Hour)))
	assert.Empty(t, idx.FindActiveOverlaps("d-2", givenWindow(t, tenOClock, time.Hour)))
}

func Test_FindActiveOverlaps_Finds_Long_Windows_Starting_Far_Before(t *testing.T) {
	idx := conflictindex.New()
	idx.Upsert(givenEntry(t, "long", "d-1", tenOClock.Add(-8*time.Hour), 10*time.Hour))
	idx.Upsert(givenEntry(t, "short", "d-1", tenOClock.Add(-3*time.Hour), time.Hour))
	idx.Upsert(givenEntry(t, "late", "d-1", tenOClock.Add(5*time.Minute), 10*time.Minute))

	overlapping := idx.FindActiveOverlaps("d-1", givenWindow(t, tenOClock, 30*time.Minute))

	assert.Equal(t, []string{"long", "late"}, overlapping)
}

func Test_Upsert_Moves_And_Remove_Frees_The_Slot(t *testing.T) {
	idx := conflictindex.New()
	idx.Upsert(givenEntry(t, "r-1", "d-1", tenOClock, time.Hour))
	idx.Upsert(givenEntry(t, "r-1", "d-1", tenOClock.Add(3*time.Hour), time.Hour))

	assert.Empty(t, idx.FindActiveOverlaps("d-1", givenWindow(t, tenOClock, time.Hour)), "old slot must be freed")
	assert.Equal(t, []string{"r-1"}, idx.FindActiveOverlaps("d-1", givenWindow(t, tenOClock.Add(3*time.Hour), time.Hour)))
	assert.Equal(t, 1, idx.Len())

	idx.Remove("r-1")
	idx.Remove("unknown")

	assert.Empty(t, idx.Entries("d-1"))
	assert.Equal(t, 0, idx.Len())
}

func Test_Track_Ignores_Stale_States(t *testing.T) {
	// arrange
	idx := conflictindex.New()
	window := givenWindow(t, tenOClock, time.Hour)
	created := core.ProjectReservation(core.DomainEvents{
		core.BuildReservationCreated("r-1", "p-1", "d-1", "h-1", window, core.Resources{}, "", tenOClock.Add(-24*time.Hour)),
	})
	cancelled := created.Apply(core.BuildReservationCancelled("r-1", core.StatusPending, "", tenOClock.Add(-time.Hour)))

	// act
	assert.True(t, idx.Track(cancelled))
	assert.False(t, idx.Track(created), "an older state must not resurrect a cancelled slot")

	// assert
	assert.Empty(t, idx.FindActiveOverlaps("d-1", window))
}

func Test_Track_Keeps_Active_Reservations(t *testing.T) {
	idx := conflictindex.New()
	window := givenWindow(t, tenOClock, time.Hour)
	created := core.ProjectReservation(core.DomainEvents{
		core.BuildReservationCreated("r-1", "p-1", "d-1", "h-1", window, core.Resources{}, "", tenOClock.Add(-24*time.Hour)),
	})
	confirmed := created.Apply(core.BuildReservationConfirmed("r-1", "", core.Money{}, tenOClock.Add(-time.Hour)))

	idx.Track(created)
	idx.Track(confirmed)

	assert.Equal(t, []string{"r-1"}, idx.FindActiveOverlaps("d-1", window))
	assert.Equal(t, 1, idx.Len())
}

func Test_Track_Converges_On_The_Newest_State_Under_Concurrent_Delivery(t *testing.T) {
	// arrange
	idx := conflictindex.New()
	window := givenWindow(t, tenOClock, time.Hour)
	states := []core.Reservation{core.ProjectReservation(core.DomainEvents{
		core.BuildReservationCreated("r-1", "p-1", "d-1", "h-1", window, core.Resources{}, "", tenOClock.Add(-24*time.Hour)),
	})}
	for hour := 1; hour <= 20; hour++ {
		moved := givenWindow(t, tenOClock.Add(time.Duration(hour)*time.Hour), time.Hour)
		states = append(states, states[len(states)-1].Apply(
			core.BuildReservationRescheduled("r-1", states[len(states)-1].Window, moved, tenOClock.Add(-time.Hour)),
		))
	}
	var wg sync.WaitGroup

	// act
	for _, state := range states {
		wg.Add(2)
		go func() { defer wg.Done(); idx.Track(state) }()
		go func() { defer wg.Done(); idx.Track(state) }()
	}
	wg.Wait()

	// assert
	newest := states[len(states)-1]
	assert.Equal(t, []conflictindex.Entry{{ReservationID: "r-1", DoctorID: "d-1", Window: newest.Window}}, idx.Entries("d-1"))
}

func Test_FindActiveOverlaps_Matches_A_Linear_Scan(t *testing.T) {
	// arrange
	rng := rand.New(rand.NewSource(42))
	idx := conflictindex.New()
	entries := make([]conflictindex.Entry, 0)

	for i := range 300 {
		start := tenOClock.Add(time.Duration(rng.Intn(7*24*60)) * time.Minute)
		entry := givenEntry(t, fmt.Sprintf("r-%d", i), "d-1", start, time.Duration(15+rng.Intn(240))*time.Minute)
		idx.Upsert(entry)
		entries = append(entries, entry)
	}

	for range 200 {
		start := tenOClock.Add(time.Duration(rng.Intn(7*24*60)) * time.Minute)
		probe := givenWindow(t, start, time.Duration(5+rng.Intn(120))*time.Minute)

		// act
		found := idx.FindActiveOverlaps("d-1", probe)

		// assert
		expected := make([]string, 0)
		for _, entry := range entries {
			if entry.Window.Overlaps(probe) {
				expected = append(expected, entry.ReservationID)
			}
		}
		assert.ElementsMatch(t, expected, found)
	}
}

func Test_Index_Is_Safe_For_Concurrent_Doctors(t *testing.T) {
	idx := conflictindex.New()
	var wg sync.WaitGroup

	for d := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doctorID := fmt.Sprintf("d-%d", d)

			for i := range 50 {
				start := tenOClock.Add(time.Duration(i) * time.Hour)
				window, err := core.BuildWindow(start, time.Hour)
				if err != nil {
					return
				}

				idx.Upsert(conflictindex.Entry{ReservationID: fmt.Sprintf("%s-r-%d", doctorID, i), DoctorID: doctorID, Window: window})
				idx.FindActiveOverlaps(doctorID, window)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 400, idx.Len())
}

func Test_CountActiveOnDay_Follows_Reschedules_And_Cancellations(t *testing.T) {
	// arrange
	idx := conflictindex.New()
	created := core.ProjectReservation(core.DomainEvents{
		core.BuildReservationCreated("r-1", "p-1", "d-1", "h-1", givenWindow(t, tenOClock, time.Hour), core.Resources{}, "", tenOClock.Add(-48*time.Hour)),
	})
	nextDay := givenWindow(t, tenOClock.Add(24*time.Hour), time.Hour)
	rescheduled := created.Apply(core.BuildReservationRescheduled("r-1", created.Window, nextDay, tenOClock.Add(-24*time.Hour)))
	cancelled := rescheduled.Apply(core.BuildReservationCancelled("r-1", core.StatusPending, "", tenOClock.Add(-time.Hour)))

	// act + assert
	require.True(t, idx.Track(created))
	assert.Equal(t, 1, idx.CountActiveOnDay("p-1", tenOClock))
	assert.Equal(t, 0, idx.CountActiveOnDay("p-2", tenOClock))

	require.True(t, idx.Track(rescheduled))
	assert.Equal(t, 0, idx.CountActiveOnDay("p-1", tenOClock))
	assert.Equal(t, 1, idx.CountActiveOnDay("p-1", tenOClock.Add(20*time.Hour)))

	require.True(t, idx.Track(cancelled))
	assert.Equal(t, 0, idx.CountActiveOnDay("p-1", tenOClock.Add(24*time.Hour)))
}

func givenWindow(t *testing.T, start time.Time, duration time.Duration) core.Window {
	t.Helper()

	window, err := core.BuildWindow(start, duration)
	require.NoError(t, err)

	return window
}

func givenEntry(t *testing.T, reservationID, doctorID string, start time.Time, duration time.Duration) conflictindex.Entry {
	t.Helper()

	return conflictindex.Entry{ReservationID: reservationID, DoctorID: doctorID, Window: givenWindow(t, start, duration)}
}
