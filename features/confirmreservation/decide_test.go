package confirmreservation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/features/confirmreservation"
)

var fakeNow = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func Test_Decide_Success_WhenPending(t *testing.T) {
	// arrange
	state := givenPendingReservation(t)
	command := givenCommand(t, 1)
	command.TotalPrice = core.Money{AmountMinor: 12000, Currency: "EUR"}

	// act
	result := confirmreservation.Decide(state, command, nil)

	// assert
	require.True(t, result.HasEventToAppend())
	confirmed, ok := result.Event.(core.ReservationConfirmed)
	require.True(t, ok)
	assert.Equal(t, command.TotalPrice, confirmed.TotalPrice)
	assert.Equal(t, core.StatusConfirmed, state.Apply(confirmed).Status)
}

func Test_Decide_Error_WhenVersionIsStale(t *testing.T) {
	state := givenPendingReservation(t)
	window, err := core.BuildWindow(fakeNow.Add(30*time.Hour), time.Hour)
	require.NoError(t, err)
	state = state.Apply(core.BuildReservationRescheduled("r-1", state.Window, window, fakeNow))

	result := confirmreservation.Decide(state, givenCommand(t, 1), nil)

	var versionConflict core.VersionConflictError
	require.ErrorAs(t, result.Err, &versionConflict)
	assert.Equal(t, core.VersionUint(2), versionConflict.CurrentVersion)
}

func Test_Decide_Error_WhenAlreadyConfirmed(t *testing.T) {
	state := givenPendingReservation(t)
	state = state.Apply(core.BuildReservationConfirmed("r-1", "", core.Money{}, fakeNow))

	result := confirmreservation.Decide(state, givenCommand(t, 2), nil)

	assert.ErrorIs(t, result.Err, core.ErrIllegalTransition)
}

func Test_Decide_Error_WhenNotFound(t *testing.T) {
	result := confirmreservation.Decide(core.Reservation{}, givenCommand(t, 0), nil)

	assert.ErrorIs(t, result.Err, core.ErrNotFound)
}

func givenPendingReservation(t *testing.T) core.Reservation {
	t.Helper()

	window, err := core.BuildWindow(fakeNow.Add(24*time.Hour), time.Hour)
	require.NoError(t, err)

	return core.ProjectReservation(core.DomainEvents{
		core.BuildReservationCreated("r-1", "p-1", "d-1", "h-1", window, core.Resources{}, "", fakeNow),
	})
}

func givenCommand(t *testing.T, expectedVersion core.VersionUint) confirmreservation.Command {
	t.Helper()

	command, err := confirmreservation.BuildCommand("r-1", expectedVersion, "front-desk", fakeNow)
	require.NoError(t, err)

	return command
}
