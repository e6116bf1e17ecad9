package shell_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/shell"
)

func Test_StorableEventFrom_And_Back_Preserves_Every_Event_Type(t *testing.T) {
	now := time.Date(2025, 5, 1, 9, 0, 0, 123456789, time.UTC)
	window, err := core.BuildWindow(now.Add(24*time.Hour), time.Hour)
	require.NoError(t, err)
	price := core.Money{AmountMinor: 9900, Currency: "EUR"}

	events := core.DomainEvents{
		core.BuildReservationCreated("r-1", "p-1", "d-1", "h-1", window, core.Resources{AccommodationID: "a-1"}, "note", now),
		core.BuildReservationConfirmed("r-1", "clerk", price, now),
		core.BuildReservationRescheduled("r-1", window, window, now),
		core.BuildReservationCancelled("r-1", core.StatusConfirmed, "sick", now),
		core.BuildReservationCompleted("r-1", now),
		core.BuildReservationMarkedNoShow("r-1", now),
		core.BuildRefundRequested("r-1", "why not", now),
		core.BuildReservationRefunded("r-1", price, now),
	}

	for i, event := range events {
		t.Run(event.IsEventType(), func(t *testing.T) {
			metadata := shell.BuildEventMetadata(context.Background(), "Test")

			storableEvent, err := shell.StorableEventFrom(event, core.VersionUint(i+1), metadata)
			require.NoError(t, err)
			assert.Equal(t, "r-1", storableEvent.AggregateID)
			assert.Equal(t, eventstore.AggregateVersionUint(i+1), storableEvent.AggregateVersion)
			assert.Equal(t, metadata.MessageID, storableEvent.EventID)

			domainEvent, err := shell.DomainEventFrom(storableEvent)
			require.NoError(t, err)
			assert.Equal(t, event, domainEvent)

			roundTrippedMetadata, err := shell.EventMetadataFrom(storableEvent)
			require.NoError(t, err)
			assert.Equal(t, metadata, roundTrippedMetadata)
		})
	}
}

func Test_DomainEventFrom_Rejects_Unknown_Types(t *testing.T) {
	storableEvent, err := eventstore.BuildStorableEventWithEmptyMetadata("e-1", "r-1", 1, "Archived", time.Now(), []byte(`{}`))
	require.NoError(t, err)

	_, err = shell.DomainEventFrom(storableEvent)

	assert.ErrorIs(t, err, shell.ErrMappingToDomainEventUnknownEventType)
}

func Test_BuildEventMetadata_Uses_Correlation_And_Actor_From_Context(t *testing.T) {
	ctx := shell.WithActor(shell.WithCorrelationID(context.Background(), "corr-1"), "front-desk")

	metadata := shell.BuildEventMetadata(ctx, "ConfirmReservation")

	assert.Equal(t, "corr-1", metadata.CorrelationID)
	assert.Equal(t, "corr-1", metadata.CausationID)
	assert.Equal(t, "front-desk", metadata.Actor)
	assert.NotEqual(t, metadata.CorrelationID, metadata.MessageID)

	withoutCorrelation := shell.BuildEventMetadata(context.Background(), "ConfirmReservation")
	assert.Equal(t, withoutCorrelation.MessageID, withoutCorrelation.CorrelationID)
}
