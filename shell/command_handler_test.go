package shell_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore/memengine"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/shell"
)

var fakeNow = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func Test_CommandHandler_Appends_The_Decided_Event_And_Returns_The_New_State(t *testing.T) {
	// arrange
	store := memengine.NewEventStore()
	var hookCalls []core.EventTypeString
	handler := shell.NewCommandHandler(
		shell.Dependencies{
			EventStore: store,
			Hooks: []shell.AfterAppendHook{shell.AfterAppendFunc(
				func(_ context.Context, _ core.Reservation, _ core.Reservation, event core.DomainEvent) {
					hookCalls = append(hookCalls, event.IsEventType())
				},
			)},
		},
		shell.Behavior[createCommand]{Decide: decideCreate},
	)

	// act
	result, err := handler.Handle(context.Background(), createCommand{id: "r-1"})

	// assert
	require.NoError(t, err)
	assert.Equal(t, core.VersionUint(1), result.Reservation.Version)
	assert.Equal(t, core.StatusPending, result.Reservation.Status)
	assert.Equal(t, 1, result.RetryAttempts)
	assert.Equal(t, []core.EventTypeString{core.ReservationCreatedEventType}, hookCalls)

	_, version, err := store.Load(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, eventstore.AggregateVersionUint(1), version)
}

func Test_CommandHandler_Returns_Rejections_Without_Appending(t *testing.T) {
	store := memengine.NewEventStore()
	handler := shell.NewCommandHandler(shell.Dependencies{EventStore: store}, shell.Behavior[createCommand]{Decide: decideCreate})

	_, err := handler.Handle(context.Background(), createCommand{id: "r-1"})
	require.NoError(t, err)

	result, err := handler.Handle(context.Background(), createCommand{id: "r-1"})

	assert.ErrorIs(t, err, core.ErrIllegalTransition)
	assert.Equal(t, 1, result.RetryAttempts)

	head, err := store.HeadOffset(context.Background())
	require.NoError(t, err)
	assert.Equal(t, eventstore.GlobalOffsetUint(1), head)
}

func Test_CommandHandler_Reloads_And_Redecides_After_An_Append_Conflict(t *testing.T) {
	// arrange
	store := &conflictingOnceStore{EventStore: memengine.NewEventStore()}
	decideCalls := 0
	handler := shell.NewCommandHandler(
		shell.Dependencies{EventStore: store, RetryOptions: []shell.RetryOption{shell.WithBaseDelay(time.Millisecond)}},
		shell.Behavior[createCommand]{Decide: func(state core.Reservation, command createCommand, slots core.SlotChecker) core.DecisionResult {
			decideCalls++
			return decideCreate(state, command, slots)
		}},
	)

	// act
	result, err := handler.Handle(context.Background(), createCommand{id: "r-1"})

	// assert
	require.NoError(t, err)
	assert.Equal(t, 2, decideCalls)
	assert.Equal(t, 2, result.RetryAttempts)
}

func Test_CommandHandler_Maps_Exhausted_Retries_To_VersionConflict(t *testing.T) {
	store := &alwaysConflictingStore{EventStore: memengine.NewEventStore()}
	handler := shell.NewCommandHandler(
		shell.Dependencies{
			EventStore:   store,
			RetryOptions: []shell.RetryOption{shell.WithMaxAttempts(2), shell.WithBaseDelay(time.Millisecond)},
		},
		shell.Behavior[createCommand]{Decide: decideCreate},
	)

	result, err := handler.Handle(context.Background(), createCommand{id: "r-1"})

	assert.ErrorIs(t, err, core.ErrVersionConflict)
	assert.True(t, result.RetriesExhausted)
}

func Test_CommandHandler_Passes_StoreUnavailable_Through(t *testing.T) {
	store := &unavailableStore{}
	handler := shell.NewCommandHandler(shell.Dependencies{EventStore: store}, shell.Behavior[createCommand]{Decide: decideCreate})

	_, err := handler.Handle(context.Background(), createCommand{id: "r-1"})

	assert.ErrorIs(t, err, eventstore.ErrStoreUnavailable)
}

func Test_CommandHandler_Runs_Enrich_Before_Decide(t *testing.T) {
	store := memengine.NewEventStore()
	handler := shell.NewCommandHandler(
		shell.Dependencies{EventStore: store},
		shell.Behavior[createCommand]{
			Decide: decideCreate,
			Enrich: func(_ context.Context, _ core.Reservation, command createCommand) (createCommand, error) {
				command.notes = "enriched"
				return command, nil
			},
		},
	)

	result, err := handler.Handle(context.Background(), createCommand{id: "r-1"})

	require.NoError(t, err)
	assert.Equal(t, "enriched", result.Reservation.Notes)
}

func Test_CommandHandler_Without_A_Slot_Checker_Treats_Every_Window_As_Free(t *testing.T) {
	// arrange
	handler := shell.NewCommandHandler(
		shell.Dependencies{EventStore: memengine.NewEventStore()},
		shell.Behavior[createCommand]{Decide: func(state core.Reservation, command createCommand, slots core.SlotChecker) core.DecisionResult {
			window, _ := core.BuildWindow(fakeNow.Add(time.Hour), time.Hour)
			if err := core.CheckSlotAvailable(slots, "d-1", window, command.id); err != nil {
				return core.RejectDecision(err)
			}

			return decideCreate(state, command, slots)
		}},
	)

	// act
	var err error
	assert.NotPanics(t, func() { _, err = handler.Handle(context.Background(), createCommand{id: "r-1"}) })

	// assert
	assert.NoError(t, err)
}

type createCommand struct {
	id    string
	notes string
}

func (c createCommand) CommandType() string                   { return "CreateTestReservation" }
func (c createCommand) AggregateID() core.ReservationIDString { return c.id }

func decideCreate(state core.Reservation, command createCommand, _ core.SlotChecker) core.DecisionResult {
	if state.Exists() {
		return core.RejectDecision(core.IllegalTransitionError{ReservationID: command.id, CurrentStatus: state.Status, Attempted: "create"})
	}

	window, _ := core.BuildWindow(fakeNow.Add(time.Hour), time.Hour)

	return core.AcceptDecision(core.BuildReservationCreated(command.id, "p-1", "d-1", "h-1", window, core.Resources{}, command.notes, fakeNow))
}

type conflictingOnceStore struct {
	*memengine.EventStore
	conflicted bool
}

func (s *conflictingOnceStore) Append(
	ctx context.Context,
	aggregateID string,
	expectedVersion eventstore.AggregateVersionUint,
	event eventstore.StorableEvent,
	additionalEvents ...eventstore.StorableEvent,
) error {

	if !s.conflicted {
		s.conflicted = true
		return eventstore.ErrVersionConflict
	}

	return s.EventStore.Append(ctx, aggregateID, expectedVersion, event, additionalEvents...)
}

type alwaysConflictingStore struct {
	*memengine.EventStore
}

func (s *alwaysConflictingStore) Append(
	_ context.Context,
	_ string,
	_ eventstore.AggregateVersionUint,
	_ eventstore.StorableEvent,
	_ ...eventstore.StorableEvent,
) error {

	return eventstore.ErrVersionConflict
}

type unavailableStore struct{}

func (s *unavailableStore) Load(_ context.Context, _ string) (eventstore.StorableEvents, eventstore.AggregateVersionUint, error) {
	return nil, 0, errors.Join(eventstore.ErrStoreUnavailable, errors.New("connection refused"))
}

func (s *unavailableStore) Append(
	_ context.Context,
	_ string,
	_ eventstore.AggregateVersionUint,
	_ eventstore.StorableEvent,
	_ ...eventstore.StorableEvent,
) error {

	return nil
}
