package eventstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_BuildStorableEvent_ErrorCases(t *testing.T) {
	validTime := time.Now()
	validPayloadJSON := []byte(`{"key": "value"}`)
	validMetadataJSON := []byte(`{"meta": "data"}`)

	testCases := []struct {
		name         string
		eventID      string
		aggregateID  string
		version      AggregateVersionUint
		payloadJSON  []byte
		metadataJSON []byte
		expectedErr  error
	}{
		{
			name:         "empty event id",
			aggregateID:  "reservation-1",
			version:      1,
			payloadJSON:  validPayloadJSON,
			metadataJSON: validMetadataJSON,
			expectedErr:  ErrEmptyEventID,
		},
		{
			name:         "empty aggregate id",
			eventID:      "event-1",
			version:      1,
			payloadJSON:  validPayloadJSON,
			metadataJSON: validMetadataJSON,
			expectedErr:  ErrEmptyAggregateID,
		},
		{
			name:         "zero aggregate version",
			eventID:      "event-1",
			aggregateID:  "reservation-1",
			payloadJSON:  validPayloadJSON,
			metadataJSON: validMetadataJSON,
			expectedErr:  ErrZeroAggregateVersion,
		},
		{
			name:         "invalid payload JSON",
			eventID:      "event-1",
			aggregateID:  "reservation-1",
			version:      1,
			payloadJSON:  []byte(`{"invalid": json}`),
			metadataJSON: validMetadataJSON,
			expectedErr:  ErrInvalidPayloadJSON,
		},
		{
			name:         "nil payload JSON",
			eventID:      "event-1",
			aggregateID:  "reservation-1",
			version:      1,
			payloadJSON:  nil,
			metadataJSON: validMetadataJSON,
			expectedErr:  ErrInvalidPayloadJSON,
		},
		{
			name:         "invalid metadata JSON",
			eventID:      "event-1",
			aggregateID:  "reservation-1",
			version:      1,
			payloadJSON:  validPayloadJSON,
			metadataJSON: []byte(``),
			expectedErr:  ErrInvalidMetadataJSON,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildStorableEvent(tc.eventID, tc.aggregateID, tc.version, "Created", validTime, tc.payloadJSON, tc.metadataJSON)
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func Test_BuildStorableEvent_Success(t *testing.T) {
	// arrange
	occurredAt := time.Now()
	payloadJSON := []byte(`{"ReservationID": "reservation-1", "DoctorID": "doctor-7"}`)
	metadataJSON := []byte(`{"CorrelationID": "corr-789"}`)

	// act
	storableEvent, err := BuildStorableEvent("event-1", "reservation-1", 3, "Confirmed", occurredAt, payloadJSON, metadataJSON)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "event-1", storableEvent.EventID)
	assert.Equal(t, "reservation-1", storableEvent.AggregateID)
	assert.Equal(t, AggregateVersionUint(3), storableEvent.AggregateVersion)
	assert.Equal(t, "Confirmed", storableEvent.EventType)
	assert.Equal(t, occurredAt, storableEvent.OccurredAt)
	assert.Equal(t, payloadJSON, storableEvent.PayloadJSON)
	assert.Equal(t, metadataJSON, storableEvent.MetadataJSON)
	assert.Zero(t, storableEvent.GlobalOffset)
}

func Test_BuildStorableEventWithEmptyMetadata_Success(t *testing.T) {
	storableEvent, err := BuildStorableEventWithEmptyMetadata("event-1", "reservation-1", 1, "Created", time.Now(), []byte(`{}`))

	require.NoError(t, err)
	assert.Equal(t, []byte(`{}`), storableEvent.MetadataJSON)
}

func Test_ValidateAppendBatch(t *testing.T) {
	given := func(aggregateID string, version AggregateVersionUint) StorableEvent {
		return StorableEvent{EventID: "e", AggregateID: aggregateID, AggregateVersion: version}
	}

	testCases := []struct {
		name            string
		aggregateID     string
		expectedVersion AggregateVersionUint
		events          StorableEvents
		expectedErr     error
	}{
		{
			name:            "contiguous batch on a new stream",
			aggregateID:     "r-1",
			expectedVersion: 0,
			events:          StorableEvents{given("r-1", 1), given("r-1", 2)},
		},
		{
			name:            "contiguous batch on an existing stream",
			aggregateID:     "r-1",
			expectedVersion: 4,
			events:          StorableEvents{given("r-1", 5)},
		},
		{
			name:            "gap in versions",
			aggregateID:     "r-1",
			expectedVersion: 1,
			events:          StorableEvents{given("r-1", 3)},
			expectedErr:     ErrNonContiguousVersions,
		},
		{
			name:            "duplicate version in batch",
			aggregateID:     "r-1",
			expectedVersion: 0,
			events:          StorableEvents{given("r-1", 1), given("r-1", 1)},
			expectedErr:     ErrNonContiguousVersions,
		},
		{
			name:            "event of another aggregate",
			aggregateID:     "r-1",
			expectedVersion: 0,
			events:          StorableEvents{given("r-2", 1)},
			expectedErr:     ErrForeignAggregateEvent,
		},
		{
			name:        "empty aggregate id",
			events:      StorableEvents{given("", 1)},
			expectedErr: ErrEmptyAggregateID,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateAppendBatch(tc.aggregateID, tc.expectedVersion, tc.events)

			if tc.expectedErr == nil {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func Test_BuildSnapshot(t *testing.T) {
	t.Run("valid snapshot", func(t *testing.T) {
		snapshot, err := BuildSnapshot("ReservationReadModel", "default", 42, []byte(`{"a":1}`))

		require.NoError(t, err)
		assert.Equal(t, GlobalOffsetUint(42), snapshot.GlobalOffset)
		assert.False(t, snapshot.CreatedAt.IsZero())
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := BuildSnapshot("ReservationReadModel", "default", 42, []byte(`{`))

		assert.ErrorIs(t, err, ErrInvalidSnapshotJSON)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := BuildSnapshot("ReservationReadModel", "", 42, []byte(`{}`))

		assert.ErrorIs(t, err, ErrEmptySnapshotKey)
	})
}
