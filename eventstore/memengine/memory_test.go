package memengine_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore/memengine"
)

func Test_Append_Then_Load_Returns_Events_In_Version_Order(t *testing.T) {
	// arrange
	ctx := context.Background()
	es := memengine.NewEventStore()

	// act
	require.NoError(t, es.Append(ctx, "r-1", 0, givenEvent(t, "r-1", 1), givenEvent(t, "r-1", 2)))
	require.NoError(t, es.Append(ctx, "r-1", 2, givenEvent(t, "r-1", 3)))

	// assert
	events, version, err := es.Load(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, eventstore.AggregateVersionUint(3), version)
	require.Len(t, events, 3)

	for i, event := range events {
		assert.Equal(t, eventstore.AggregateVersionUint(i+1), event.AggregateVersion)
		assert.Equal(t, eventstore.GlobalOffsetUint(i+1), event.GlobalOffset)
	}
}

func Test_Append_With_Stale_Expected_Version_Fails_With_VersionConflict(t *testing.T) {
	// arrange
	ctx := context.Background()
	es := memengine.NewEventStore()
	require.NoError(t, es.Append(ctx, "r-1", 0, givenEvent(t, "r-1", 1)))

	// act
	err := es.Append(ctx, "r-1", 0, givenEvent(t, "r-1", 1))

	// assert
	assert.ErrorIs(t, err, eventstore.ErrVersionConflict)

	_, version, loadErr := es.Load(ctx, "r-1")
	require.NoError(t, loadErr)
	assert.Equal(t, eventstore.AggregateVersionUint(1), version)
}

func Test_Append_Rejects_A_Non_Contiguous_Batch_Without_Writing_Anything(t *testing.T) {
	ctx := context.Background()
	es := memengine.NewEventStore()

	err := es.Append(ctx, "r-1", 0, givenEvent(t, "r-1", 1), givenEvent(t, "r-1", 3))

	assert.ErrorIs(t, err, eventstore.ErrNonContiguousVersions)
	head, headErr := es.HeadOffset(ctx)
	require.NoError(t, headErr)
	assert.Equal(t, eventstore.GlobalOffsetUint(0), head)
}

func Test_Concurrent_Appends_With_Same_Expected_Version_Admit_Exactly_One(t *testing.T) {
	// arrange
	ctx := context.Background()
	es := memengine.NewEventStore()
	workers := 16
	results := make(chan error, workers)
	wg := sync.WaitGroup{}
	event := givenEvent(t, "r-1", 1)

	// act
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- es.Append(ctx, "r-1", 0, event)
		}()
	}
	wg.Wait()
	close(results)

	// assert
	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, eventstore.ErrVersionConflict)
	}
	assert.Equal(t, 1, succeeded)
}

func Test_LoadAfter_Returns_Only_The_Tail(t *testing.T) {
	ctx := context.Background()
	es := memengine.NewEventStore()
	require.NoError(t, es.Append(ctx, "r-1", 0, givenEvent(t, "r-1", 1), givenEvent(t, "r-1", 2), givenEvent(t, "r-1", 3)))

	tail, err := es.LoadAfter(ctx, "r-1", 1)

	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, eventstore.AggregateVersionUint(2), tail[0].AggregateVersion)
}

func Test_StreamAll_Yields_Global_Order_And_Is_Restartable(t *testing.T) {
	// arrange
	ctx := context.Background()
	es := memengine.NewEventStore()
	require.NoError(t, es.Append(ctx, "r-1", 0, givenEvent(t, "r-1", 1)))
	require.NoError(t, es.Append(ctx, "r-2", 0, givenEvent(t, "r-2", 1)))
	require.NoError(t, es.Append(ctx, "r-1", 1, givenEvent(t, "r-1", 2)))

	// act
	var all []string
	for event, err := range es.StreamAll(ctx, 0) {
		require.NoError(t, err)
		all = append(all, fmt.Sprintf("%s/%d", event.AggregateID, event.AggregateVersion))
	}

	var tail []eventstore.GlobalOffsetUint
	for event, err := range es.StreamAll(ctx, 2) {
		require.NoError(t, err)
		tail = append(tail, event.GlobalOffset)
	}

	// assert
	assert.Equal(t, []string{"r-1/1", "r-2/1", "r-1/2"}, all)
	assert.Equal(t, []eventstore.GlobalOffsetUint{3}, tail)
}

func Test_StreamAll_Stops_On_Cancelled_Context(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	es := memengine.NewEventStore()
	require.NoError(t, es.Append(ctx, "r-1", 0, givenEvent(t, "r-1", 1)))
	cancel()

	var lastErr error
	for _, err := range es.StreamAll(ctx, 0) {
		lastErr = err
	}

	assert.ErrorIs(t, lastErr, context.Canceled)
}

func Test_Snapshots_Are_Saved_And_Loaded_By_Type_And_Key(t *testing.T) {
	ctx := context.Background()
	es := memengine.NewEventStore()

	missing, err := es.LoadSnapshot(ctx, "ReservationReadModel", "default")
	require.NoError(t, err)
	assert.Nil(t, missing)

	snapshot, err := eventstore.BuildSnapshot("ReservationReadModel", "default", 7, []byte(`{"x":1}`))
	require.NoError(t, err)
	require.NoError(t, es.SaveSnapshot(ctx, snapshot))

	loaded, err := es.LoadSnapshot(ctx, "ReservationReadModel", "default")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, eventstore.GlobalOffsetUint(7), loaded.GlobalOffset)
}

func givenEvent(t *testing.T, aggregateID string, version eventstore.AggregateVersionUint) eventstore.StorableEvent {
	t.Helper()

	event, err := eventstore.BuildStorableEventWithEmptyMetadata(
		fmt.Sprintf("%s-%d", aggregateID, version),
		aggregateID,
		version,
		"Created",
		time.Now(),
		[]byte(`{}`),
	)
	require.NoError(t, err)

	return event
}
