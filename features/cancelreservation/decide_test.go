package cancelreservation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/features/cancelreservation"
)

var fakeNow = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func Test_Decide(t *testing.T) {
	testCases := []struct {
		name            string
		history         core.DomainEvents
		expectedVersion core.VersionUint
		expectedErr     error
	}{
		{
			name:            "pending reservation",
			history:         givenHistory(t),
			expectedVersion: 1,
		},
		{
			name:            "confirmed reservation",
			history:         givenHistory(t, core.BuildReservationConfirmed("r-1", "", core.Money{}, fakeNow)),
			expectedVersion: 2,
		},
		{
			name:            "already cancelled",
			history:         givenHistory(t, core.BuildReservationCancelled("r-1", core.StatusPending, "", fakeNow)),
			expectedVersion: 2,
			expectedErr:     core.ErrIllegalTransition,
		},
		{
			name: "completed",
			history: givenHistory(t,
				core.BuildReservationConfirmed("r-1", "", core.Money{}, fakeNow),
				core.BuildReservationCompleted("r-1", fakeNow),
			),
			expectedVersion: 3,
			expectedErr:     core.ErrIllegalTransition,
		},
		{
			name:            "stale version",
			history:         givenHistory(t),
			expectedVersion: 0,
			expectedErr:     core.ErrVersionConflict,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			state := core.ProjectReservation(tc.history)
			command, err := cancelreservation.BuildCommand("r-1", tc.expectedVersion, "patient request", fakeNow)
			require.NoError(t, err)

			// act
			result := cancelreservation.Decide(state, command, nil)

			// assert
			if tc.expectedErr != nil {
				assert.ErrorIs(t, result.Err, tc.expectedErr)
				assert.False(t, result.HasEventToAppend())
				return
			}

			require.True(t, result.HasEventToAppend())
			cancelled := result.Event.(core.ReservationCancelled)
			assert.Equal(t, state.Status, cancelled.PreviousStatus)
			assert.Equal(t, "patient request", cancelled.Reason)
		})
	}
}

func givenHistory(t *testing.T, events ...core.DomainEvent) core.DomainEvents {
	t.Helper()

	window, err := core.BuildWindow(fakeNow.Add(24*time.Hour), time.Hour)
	require.NoError(t, err)

	history := core.DomainEvents{
		core.BuildReservationCreated("r-1", "p-1", "d-1", "h-1", window, core.Resources{}, "", fakeNow),
	}

	return append(history, events...)
}
