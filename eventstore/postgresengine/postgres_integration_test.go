package postgresengine_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore/postgresengine"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/testutil/postgresengine/pgtesthelpers"
)

var occurredAt = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func Test_Postgres_Append_Then_Load_Returns_The_Stream_In_Version_Order(t *testing.T) {
	// arrange
	ctx := context.Background()
	es := pgtesthelpers.NewWrapper(t, postgresengine.WithStreamBatchSize(2)).EventStore

	// act
	err := es.Append(ctx, "r-1", 0, givenEvent(t, "r-1", 1), givenEvent(t, "r-1", 2))
	require.NoError(t, err)
	err = es.Append(ctx, "r-2", 0, givenEvent(t, "r-2", 1))
	require.NoError(t, err)
	err = es.Append(ctx, "r-1", 2, givenEvent(t, "r-1", 3))
	require.NoError(t, err)

	// assert
	events, version, err := es.Load(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, eventstore.AggregateVersionUint(3), version)
	require.Len(t, events, 3)

	for i, event := range events {
		assert.Equal(t, eventstore.AggregateVersionUint(i+1), event.AggregateVersion)
	}

	head, err := es.HeadOffset(ctx)
	require.NoError(t, err)
	assert.Equal(t, events[2].GlobalOffset, head)
}

func Test_Postgres_Append_With_A_Stale_Version_Fails_With_VersionConflict(t *testing.T) {
	ctx := context.Background()
	es := pgtesthelpers.NewWrapper(t).EventStore
	require.NoError(t, es.Append(ctx, "r-1", 0, givenEvent(t, "r-1", 1)))

	err := es.Append(ctx, "r-1", 0, givenEvent(t, "r-1", 1))

	assert.ErrorIs(t, err, eventstore.ErrVersionConflict)
}

func Test_Postgres_StreamAll_Pages_Through_All_Events_After_An_Offset(t *testing.T) {
	// arrange
	ctx := context.Background()
	es := pgtesthelpers.NewWrapper(t, postgresengine.WithStreamBatchSize(2)).EventStore

	for i := range 5 {
		aggregateID := fmt.Sprintf("r-%d", i)
		require.NoError(t, es.Append(ctx, aggregateID, 0, givenEvent(t, aggregateID, 1)))
	}

	// act
	var offsets []eventstore.GlobalOffsetUint
	for event, err := range es.StreamAll(ctx, 0) {
		require.NoError(t, err)
		offsets = append(offsets, event.GlobalOffset)
	}

	var tail []eventstore.GlobalOffsetUint
	for event, err := range es.StreamAll(ctx, offsets[1]) {
		require.NoError(t, err)
		tail = append(tail, event.GlobalOffset)
	}

	// assert
	require.Len(t, offsets, 5)
	assert.IsIncreasing(t, offsets)
	assert.Equal(t, offsets[2:], tail)
}

func Test_Postgres_Snapshots_Are_Upserted(t *testing.T) {
	ctx := context.Background()
	es := pgtesthelpers.NewWrapper(t).EventStore

	missing, err := es.LoadSnapshot(ctx, "ReservationReadModel", "default")
	require.NoError(t, err)
	assert.Nil(t, missing)

	for _, offset := range []eventstore.GlobalOffsetUint{3, 7} {
		snapshot, buildErr := eventstore.BuildSnapshot("ReservationReadModel", "default", offset, []byte(`{"a":1}`))
		require.NoError(t, buildErr)
		require.NoError(t, es.SaveSnapshot(ctx, snapshot))
	}

	loaded, err := es.LoadSnapshot(ctx, "ReservationReadModel", "default")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, eventstore.GlobalOffsetUint(7), loaded.GlobalOffset)
	assert.JSONEq(t, `{"a":1}`, string(loaded.Data))
}

func givenEvent(t *testing.T, aggregateID string, version eventstore.AggregateVersionUint) eventstore.StorableEvent {
	t.Helper()

	event, err := eventstore.BuildStorableEventWithEmptyMetadata(
		uuid.NewString(),
		aggregateID,
		version,
		"ReservationCreated",
		occurredAt,
		[]byte(`{}`),
	)
	require.NoError(t, err)

	return event
}
