package shell_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore/memengine"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/shell"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/testutil/observability/testdoubles"
)

func Test_CommandHandler_Records_Success_And_Rejection_Metrics(t *testing.T) {
	// arrange
	metrics := testdoubles.NewMetricsCollectorSpy()
	handler := shell.NewCommandHandler(
		shell.Dependencies{EventStore: memengine.NewEventStore(), MetricsCollector: metrics},
		shell.Behavior[createCommand]{Decide: decideCreate},
	)

	// act
	_, err := handler.Handle(context.Background(), createCommand{id: "r-1"})
	require.NoError(t, err)
	_, err = handler.Handle(context.Background(), createCommand{id: "r-1"})
	require.ErrorIs(t, err, core.ErrIllegalTransition)

	// assert
	assert.Equal(t, 1, metrics.CountCounter(shell.CommandHandlerCallsMetric,
		shell.BuildCommandLabels("CreateTestReservation", shell.StatusSuccess)))
	assert.Equal(t, 1, metrics.CountCounter(shell.CommandHandlerCallsMetric,
		shell.BuildCommandLabels("CreateTestReservation", shell.StatusRejected)))
	assert.Equal(t, 1, metrics.CountCounter(shell.CommandHandlerRejectionsMetric,
		map[string]string{shell.LogAttrReason: "illegal_transition"}))
	assert.Len(t, metrics.Find(testdoubles.KindDuration, shell.CommandHandlerDurationMetric, nil), 2)

	for _, record := range metrics.Records() {
		assert.True(t, record.Context, "contextual collectors receive the context variant")
	}
}

func Test_CommandHandler_Finishes_Its_Span_And_Logs_The_Outcome(t *testing.T) {
	// arrange
	tracing := testdoubles.NewTracingCollectorSpy()
	logger := testdoubles.NewContextualLoggerSpy()
	handler := shell.NewCommandHandler(
		shell.Dependencies{
			EventStore:       &unavailableStore{},
			TracingCollector: tracing,
			ContextualLogger: logger,
		},
		shell.Behavior[createCommand]{Decide: decideCreate},
	)

	// act
	_, err := handler.Handle(context.Background(), createCommand{id: "r-9"})

	// assert
	require.Error(t, err)

	spans := tracing.Spans(shell.SpanNameCommandHandle)
	require.Len(t, spans, 1)
	assert.True(t, spans[0].Finished)
	assert.Equal(t, shell.StatusError, spans[0].Status)
	assert.Equal(t, "r-9", spans[0].StartAttributes[shell.LogAttrReservationID])
	assert.NotEmpty(t, spans[0].EndAttributes[shell.LogAttrError])

	failures := logger.Records(testdoubles.LevelError, shell.LogMsgCommandFailed)
	require.Len(t, failures, 1)
	reservationID, ok := failures[0].Attr(shell.LogAttrReservationID)
	assert.True(t, ok)
	assert.Equal(t, "r-9", reservationID)
}

func Test_RejectionReason_Classifies_Domain_Rejections(t *testing.T) {
	testCases := []struct {
		err      error
		expected string
	}{
		{err: core.SlotConflictError{DoctorID: "d-1"}, expected: "slot_conflict"},
		{err: core.DailyLimitError{PatientID: "p-1", Limit: 1}, expected: "daily_limit"},
		{err: core.ErrNotFound, expected: "not_found"},
		{err: errors.New("connection refused"), expected: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, shell.RejectionReason(tc.err))
		})
	}
}
