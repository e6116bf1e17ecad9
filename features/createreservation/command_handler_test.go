package createreservation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/conflictindex"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore/memengine"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/features/cancelreservation"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/features/createreservation"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/shell"
)

func Test_CommandHandler_Rejects_A_Second_Booking_Of_The_Patient_On_The_Same_Day(t *testing.T) {
	// arrange
	ctx := context.Background()
	deps, index := givenDependencies()
	handler := createreservation.NewCommandHandler(deps, createreservation.WithPatientDailyLimit(index, 1))

	_, err := handler.Handle(ctx, givenCommandFor(t, "r-1", "d-1", 10*time.Hour))
	require.NoError(t, err)

	// act
	_, sameDayErr := handler.Handle(ctx, givenCommandFor(t, "r-2", "d-2", 12*time.Hour))
	_, nextDayErr := handler.Handle(ctx, givenCommandFor(t, "r-3", "d-2", 34*time.Hour))

	// assert
	assert.ErrorIs(t, sameDayErr, core.ErrDailyLimit)
	assert.NoError(t, nextDayErr)
	assert.Equal(t, 1, index.CountActiveOnDay("p-1", fakeNow))
}

func Test_CommandHandler_Frees_The_Daily_Limit_When_A_Booking_Is_Cancelled(t *testing.T) {
	ctx := context.Background()
	deps, index := givenDependencies()
	handler := createreservation.NewCommandHandler(deps, createreservation.WithPatientDailyLimit(index, 1))

	_, err := handler.Handle(ctx, givenCommandFor(t, "r-1", "d-1", 10*time.Hour))
	require.NoError(t, err)

	cancel, err := cancelreservation.BuildCommand("r-1", 1, "", fakeNow)
	require.NoError(t, err)
	_, err = cancelreservation.NewCommandHandler(deps).Handle(ctx, cancel)
	require.NoError(t, err)

	_, err = handler.Handle(ctx, givenCommandFor(t, "r-2", "d-2", 12*time.Hour))

	assert.NoError(t, err)
}

func Test_CommandHandler_Without_A_Daily_Limit_Accepts_Several_Bookings_Per_Day(t *testing.T) {
	ctx := context.Background()
	deps, index := givenDependencies()
	handler := createreservation.NewCommandHandler(deps, createreservation.WithPatientDailyLimit(index, 0))

	_, err := handler.Handle(ctx, givenCommandFor(t, "r-1", "d-1", 10*time.Hour))
	require.NoError(t, err)
	_, err = handler.Handle(ctx, givenCommandFor(t, "r-2", "d-2", 12*time.Hour))

	assert.NoError(t, err)
	assert.Equal(t, 2, index.CountActiveOnDay("p-1", fakeNow))
}

func givenDependencies() (shell.Dependencies, *conflictindex.Index) {
	index := conflictindex.New()

	return shell.Dependencies{
		EventStore:     memengine.NewEventStore(),
		Slots:          index,
		AggregateLocks: shell.NewKeyedLocks(),
		SlotLocks:      shell.NewKeyedLocks(),
		Hooks:          []shell.AfterAppendHook{index},
	}, index
}

func givenCommandFor(
	t *testing.T,
	reservationID string,
	doctorID string,
	startOffset time.Duration,
) createreservation.Command {

	t.Helper()

	window, err := core.BuildWindow(fakeNow.Add(startOffset), time.Hour)
	require.NoError(t, err)

	command, err := createreservation.BuildCommand(reservationID, "p-1", doctorID, "h-1", window, core.Resources{}, "", fakeNow)
	require.NoError(t, err)

	return command
}
