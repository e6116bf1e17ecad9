package shell

import (
	"context"
	"errors"
	"time"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore"
)

const slotLockPrefix = "doctor:"

// Command is implemented by every command of the features packages.
type Command interface {
	CommandType() string
	AggregateID() core.ReservationIDString
}

// EventStore defines the part of the event store the command handlers need.
type EventStore interface {
	Load(ctx context.Context, aggregateID string) (eventstore.StorableEvents, eventstore.AggregateVersionUint, error)
	Append(
		ctx context.Context,
		aggregateID string,
		expectedVersion eventstore.AggregateVersionUint,
		event eventstore.StorableEvent,
		additionalEvents ...eventstore.StorableEvent,
	) error
}

// AfterAppendHook is called synchronously after every successful append, while the handler still holds
// the aggregate lock and, for slot-affecting commands, the doctor's slot lock.
type AfterAppendHook interface {
	AfterAppend(ctx context.Context, previous core.Reservation, current core.Reservation, event core.DomainEvent)
}

// AfterAppendFunc adapts a function to AfterAppendHook.
type AfterAppendFunc func(ctx context.Context, previous core.Reservation, current core.Reservation, event core.DomainEvent)

func (f AfterAppendFunc) AfterAppend(
	ctx context.Context,
	previous core.Reservation,
	current core.Reservation,
	event core.DomainEvent,
) {

	f(ctx, previous, current, event)
}

// Dependencies are shared by all command handlers of one process.
// AggregateLocks and SlotLocks must be shared too, otherwise commands on the same reservation
// or the same doctor are not serialized. Without Slots every window counts as free.
type Dependencies struct {
	EventStore       EventStore
	Slots            core.SlotChecker
	AggregateLocks   *KeyedLocks
	SlotLocks        *KeyedLocks
	Hooks            []AfterAppendHook
	RetryOptions     []RetryOption
	Logger           Logger
	ContextualLogger ContextualLogger
	MetricsCollector MetricsCollector
	TracingCollector TracingCollector
}

// DecideFunc is the pure decision of a feature.
type DecideFunc[C Command] func(state core.Reservation, command C, slots core.SlotChecker) core.DecisionResult

// EnrichFunc may complete a command with data from collaborators before Decide runs.
type EnrichFunc[C Command] func(ctx context.Context, state core.Reservation, command C) (C, error)

// SlotKeyFunc names the doctor whose schedule the command changes, if any.
type SlotKeyFunc[C Command] func(state core.Reservation, command C) (core.DoctorIDString, bool)

// Behavior is what a feature contributes to the generic CommandHandler.
type Behavior[C Command] struct {
	Decide  DecideFunc[C]
	Enrich  EnrichFunc[C]
	SlotKey SlotKeyFunc[C]
}

// CommandHandler runs Load -> fold -> Decide -> Append -> hooks for one command type.
// Commands on the same reservation are serialized. Commands that occupy a doctor's window are
// additionally serialized per doctor, so that the overlap check and the append happen atomically
// with respect to other reservations of that doctor.
type CommandHandler[C Command] struct {
	deps     Dependencies
	behavior Behavior[C]
}

// NewCommandHandler creates a CommandHandler. Missing lock registries and a missing slot checker are created.
func NewCommandHandler[C Command](deps Dependencies, behavior Behavior[C]) CommandHandler[C] {
	if deps.Slots == nil {
		deps.Slots = emptySchedule{}
	}

	if deps.AggregateLocks == nil {
		deps.AggregateLocks = NewKeyedLocks()
	}

	if deps.SlotLocks == nil {
		deps.SlotLocks = NewKeyedLocks()
	}

	return CommandHandler[C]{deps: deps, behavior: behavior}
}

type emptySchedule struct{}

func (emptySchedule) FindActiveOverlaps(core.DoctorIDString, core.Window) []core.ReservationIDString {
	return nil
}

type executionOutcome struct {
	current core.Reservation
	event   core.DomainEvent
}

// Handle executes the command and returns the post-append state of the reservation.
func (h CommandHandler[C]) Handle(ctx context.Context, command C) (HandlerResult, error) {
	commandType := command.CommandType()
	reservationID := command.AggregateID()
	start := time.Now()

	ctx, span := StartCommandSpan(ctx, h.deps.TracingCollector, commandType, reservationID)
	logDebug(ctx, h.deps.Logger, h.deps.ContextualLogger, LogMsgCommandStarted,
		LogAttrCommandType, commandType, LogAttrReservationID, reservationID)

	release, err := h.deps.AggregateLocks.Lock(ctx, reservationID)
	if err != nil {
		retryMetrics := RetryMetrics{LastErrorType: errorTypeOf(err)}
		h.finish(ctx, span, commandType, reservationID, start, retryMetrics, err)

		return NewErrorResult(retryMetrics), err
	}
	defer release()

	var outcome executionOutcome

	retryMetrics, err := RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var execErr error
		outcome, execErr = h.executeCommand(retryCtx, command)

		return execErr
	}, h.deps.RetryOptions...)

	if err != nil {
		if retryMetrics.RetriesExhausted {
			err = errors.Join(core.ErrVersionConflict, err)
		}

		h.finish(ctx, span, commandType, reservationID, start, retryMetrics, err)

		return NewErrorResult(retryMetrics), err
	}

	h.finish(ctx, span, commandType, reservationID, start, retryMetrics, nil)

	return NewSuccessResult(outcome.current, outcome.event, retryMetrics), nil
}

func (h CommandHandler[C]) executeCommand(ctx context.Context, command C) (executionOutcome, error) {
	reservationID := command.AggregateID()
	ctx = eventstore.WithStrongConsistency(ctx)

	storableEvents, version, err := h.deps.EventStore.Load(ctx, reservationID)
	if err != nil {
		return executionOutcome{}, err
	}

	history, err := DomainEventsFrom(storableEvents)
	if err != nil {
		return executionOutcome{}, err
	}

	state := core.ProjectReservation(history)

	if h.behavior.SlotKey != nil {
		if doctorID, ok := h.behavior.SlotKey(state, command); ok {
			releaseSlot, lockErr := h.deps.SlotLocks.Lock(ctx, slotLockPrefix+doctorID)
			if lockErr != nil {
				return executionOutcome{}, lockErr
			}
			defer releaseSlot()
		}
	}

	if h.behavior.Enrich != nil {
		command, err = h.behavior.Enrich(ctx, state, command)
		if err != nil {
			return executionOutcome{}, err
		}
	}

	result := h.behavior.Decide(state, command, h.deps.Slots)
	if result.HasError() {
		return executionOutcome{}, result.Err
	}

	storableEvent, err := StorableEventFrom(result.Event, version+1, BuildEventMetadata(ctx, command.CommandType()))
	if err != nil {
		return executionOutcome{}, err
	}

	if err = h.deps.EventStore.Append(ctx, reservationID, version, storableEvent); err != nil {
		return executionOutcome{}, err
	}

	current := state.Apply(result.Event)

	for _, hook := range h.deps.Hooks {
		hook.AfterAppend(ctx, state, current, result.Event)
	}

	return executionOutcome{current: current, event: result.Event}, nil
}

func (h CommandHandler[C]) finish(
	ctx context.Context,
	span SpanContext,
	commandType string,
	reservationID core.ReservationIDString,
	start time.Time,
	retryMetrics RetryMetrics,
	err error,
) {

	duration := time.Since(start)
	status := StatusSuccess
	reason := RejectionReason(err)

	switch {
	case err == nil:
		logInfo(ctx, h.deps.Logger, h.deps.ContextualLogger, LogMsgCommandCompleted,
			LogAttrCommandType, commandType,
			LogAttrReservationID, reservationID,
			LogAttrAttempts, retryMetrics.Attempts,
			LogAttrDurationMS, ToMilliseconds(duration))

	case reason != "":
		status = StatusRejected
		logInfo(ctx, h.deps.Logger, h.deps.ContextualLogger, LogMsgCommandRejected,
			LogAttrCommandType, commandType,
			LogAttrReservationID, reservationID,
			LogAttrReason, reason,
			LogAttrError, err.Error())

	default:
		status = StatusError
		logError(ctx, h.deps.Logger, h.deps.ContextualLogger, LogMsgCommandFailed,
			LogAttrCommandType, commandType,
			LogAttrReservationID, reservationID,
			LogAttrError, err.Error())
	}

	RecordCommandMetrics(ctx, h.deps.MetricsCollector, commandType, status, reason, duration)
	FinishCommandSpan(h.deps.TracingCollector, span, status, duration, err)
}
