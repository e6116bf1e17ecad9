package projection

import (
	"context"
	"errors"
	"iter"
	"sync"
	"time"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/core"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore"
)

const (
	defaultPollInterval  = time.Second
	defaultSnapshotEvery = 1000
	defaultRetryBackoff  = 200 * time.Millisecond
	maxRetryBackoff      = 30 * time.Second
)

var (
	// ErrProjectorRunning is returned by Run when the projector is already running.
	ErrProjectorRunning = errors.New("projector is already running")
	// ErrRebuildFailed is returned by Rebuild when the replay did not finish. The previous state stays in place.
	ErrRebuildFailed = errors.New("rebuilding the read model failed")
)

// EventSource is the part of the event store the projector reads from.
type EventSource interface {
	StreamAll(ctx context.Context, afterOffset eventstore.GlobalOffsetUint) iter.Seq2[eventstore.StorableEvent, error]
	HeadOffset(ctx context.Context) (eventstore.GlobalOffsetUint, error)
}

// Tracker receives every projected reservation state. The conflict index implements it.
// Track must ignore states older than the ones it already holds, the projector re-tracks whole
// states after a restore or a rebuild and never clears a tracker.
type Tracker interface {
	Track(reservation core.Reservation) bool
}

// Projector keeps a ReadModel up to date with the global event stream.
type Projector struct {
	source    EventSource
	model     *ReadModel
	trackers  []Tracker
	snapshots eventstore.SnapshotStore

	pollInterval  time.Duration
	snapshotEvery int
	retryBackoff  time.Duration

	logger           eventstore.Logger
	contextualLogger eventstore.ContextualLogger
	metricsCollector eventstore.MetricsCollector

	catchUpMu            sync.Mutex
	running              sync.Mutex
	wake                 chan struct{}
	appliedSinceSnapshot int
}

// NewProjector creates a Projector that folds the events of source into model.
func NewProjector(source EventSource, model *ReadModel, options ...Option) *Projector {
	p := &Projector{
		source:        source,
		model:         model,
		pollInterval:  defaultPollInterval,
		snapshotEvery: defaultSnapshotEvery,
		retryBackoff:  defaultRetryBackoff,
		wake:          make(chan struct{}, 1),
	}

	for _, option := range options {
		option(p)
	}

	return p
}

// Model returns the read model the projector writes to.
func (p *Projector) Model() *ReadModel {
	return p.model
}

// Notify wakes a running projector without waiting for the next poll.
func (p *Projector) Notify() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// AfterAppend lets the projector be registered as a command handler hook.
func (p *Projector) AfterAppend(_ context.Context, _ core.Reservation, _ core.Reservation, _ core.DomainEvent) {
	p.Notify()
}

// Restore loads the latest snapshot, if any, and makes it the current state.
// Without a snapshot store, without a saved snapshot, or with a snapshot that is not ahead of the
// model it leaves the model untouched.
func (p *Projector) Restore(ctx context.Context) error {
	if p.snapshots == nil {
		return nil
	}

	p.catchUpMu.Lock()
	defer p.catchUpMu.Unlock()

	state, found, err := loadSnapshot(ctx, p.snapshots)
	if err != nil {
		return err
	}

	if !found || state.Checkpoint <= p.model.Checkpoint() {
		return nil
	}

	p.install(state)
	p.logInfo(ctx, logMsgSnapshotRestored, logAttrCheckpoint, state.Checkpoint, logAttrReservations, len(state.Views))

	return nil
}

// Run restores the latest snapshot unless the model already holds events, and then keeps catching up
// until ctx is done.
// Failures are logged and retried with growing backoff, they never stop the loop.
func (p *Projector) Run(ctx context.Context) error {
	if !p.running.TryLock() {
		return ErrProjectorRunning
	}
	defer p.running.Unlock()

	// A model that already holds events was restored or caught up by the caller.
	if p.model.Checkpoint() == 0 {
		if err := p.Restore(ctx); err != nil {
			p.logError(ctx, logMsgSnapshotRestoreFailed, err)
		}
	}

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	backoff := p.retryBackoff

	for {
		err := p.catchUp(eventstore.WithEventualConsistency(ctx))

		switch {
		case err == nil:
			backoff = p.retryBackoff
			p.recordLag(ctx)
		case ctx.Err() != nil:
			return p.shutdown()
		default:
			p.incrementCounter(ctx, metricCatchUpFailures, nil)
			p.logError(ctx, logMsgCatchUpFailed, err, logAttrBackoffMS, backoff.Milliseconds())

			if !sleep(ctx, backoff) {
				return p.shutdown()
			}

			backoff = min(backoff*2, maxRetryBackoff)

			continue
		}

		select {
		case <-ctx.Done():
			return p.shutdown()
		case <-p.wake:
		case <-ticker.C:
		}
	}
}

// CatchUp applies all events up to the current head of the stream, reading with strong consistency.
// Command paths use it when they need to read their own writes, like the number of a new reservation.
func (p *Projector) CatchUp(ctx context.Context) error {
	return p.catchUp(eventstore.WithStrongConsistency(ctx))
}

// Rebuild replays the stream from the first event into a fresh read model and swaps it in once the
// replay succeeded. On failure the current state stays untouched. The trackers keep serving
// throughout and only receive the replayed states.
func (p *Projector) Rebuild(ctx context.Context) error {
	p.catchUpMu.Lock()
	defer p.catchUpMu.Unlock()

	p.logInfo(ctx, logMsgRebuildStarted)

	staging := NewReadModel(p.model.Snapshot().Numbering.Prefix)
	if _, err := p.streamInto(eventstore.WithStrongConsistency(ctx), staging, false); err != nil {
		p.logError(ctx, logMsgRebuildFailed, err)
		return errors.Join(ErrRebuildFailed, err)
	}

	p.install(staging.Snapshot())
	p.logInfo(ctx, logMsgRebuildFinished, logAttrCheckpoint, p.model.Checkpoint(), logAttrReservations, p.model.Len())

	return p.saveSnapshotLocked(ctx)
}

// SaveSnapshot stores the current state. Without a snapshot store it does nothing.
func (p *Projector) SaveSnapshot(ctx context.Context) error {
	p.catchUpMu.Lock()
	defer p.catchUpMu.Unlock()

	return p.saveSnapshotLocked(ctx)
}

func (p *Projector) saveSnapshotLocked(ctx context.Context) error {
	if p.snapshots == nil {
		return nil
	}

	state := p.model.Snapshot()
	if err := saveSnapshot(ctx, p.snapshots, state); err != nil {
		return err
	}

	p.appliedSinceSnapshot = 0
	p.logDebug(ctx, logMsgSnapshotSaved, logAttrCheckpoint, state.Checkpoint)

	return nil
}

// Apply folds a single stored event. Events may be delivered more than once and out of order per
// reservation; duplicates are skipped and early events wait for their predecessors.
func (p *Projector) Apply(ctx context.Context, storable eventstore.StorableEvent) error {
	p.catchUpMu.Lock()
	defer p.catchUpMu.Unlock()

	return p.applyLocked(ctx, storable)
}

func (p *Projector) catchUp(ctx context.Context) error {
	p.catchUpMu.Lock()
	defer p.catchUpMu.Unlock()

	started := time.Now()

	applied, err := p.streamInto(ctx, p.model, true)
	if err != nil {
		return err
	}

	if applied > 0 {
		p.recordDuration(ctx, metricCatchUpDuration, time.Since(started))
		p.logDebug(ctx, logMsgCaughtUp, logAttrApplied, applied, logAttrCheckpoint, p.model.Checkpoint())
	}

	if p.snapshotEvery > 0 && p.appliedSinceSnapshot >= p.snapshotEvery {
		if err := p.saveSnapshotLocked(ctx); err != nil {
			p.logError(ctx, logMsgSnapshotSaveFailed, err)
		}
	}

	return nil
}

// streamInto folds every event after the model's checkpoint into model. Only the live model feeds the trackers.
func (p *Projector) streamInto(ctx context.Context, model *ReadModel, live bool) (int, error) {
	applied := 0

	for storable, err := range p.source.StreamAll(ctx, model.Checkpoint()) {
		if err != nil {
			return applied, err
		}

		if err = p.applyTo(ctx, model, storable, live); err != nil {
			p.incrementCounter(ctx, metricUndecodableEvents, map[string]string{logAttrEventType: storable.EventType})
			p.logError(ctx, logMsgEventSkipped, err,
				logAttrGlobalOffset, storable.GlobalOffset,
				logAttrAggregateID, storable.AggregateID,
				logAttrEventType, storable.EventType,
			)
		}

		applied++
	}

	return applied, nil
}

func (p *Projector) applyLocked(ctx context.Context, storable eventstore.StorableEvent) error {
	return p.applyTo(ctx, p.model, storable, true)
}

func (p *Projector) applyTo(ctx context.Context, model *ReadModel, storable eventstore.StorableEvent, live bool) error {
	changed, err := model.apply(storable)

	if !live {
		return err
	}

	for _, view := range changed {
		for _, tracker := range p.trackers {
			tracker.Track(view.Reservation)
		}

		p.appliedSinceSnapshot++
		p.incrementCounter(ctx, metricEventsApplied, nil)
	}

	if len(changed) > 0 {
		p.recordValue(ctx, metricApplyLagSeconds, time.Since(storable.OccurredAt).Seconds())
	}

	return err
}

// install makes state the current read model in one step and hands every view to the trackers.
func (p *Projector) install(state State) {
	p.model.replace(state)

	for _, view := range state.Views {
		for _, tracker := range p.trackers {
			tracker.Track(view.Reservation)
		}
	}

	p.appliedSinceSnapshot = 0
}

func (p *Projector) recordLag(ctx context.Context) {
	head, err := p.source.HeadOffset(ctx)
	if err != nil {
		return
	}

	checkpoint := p.model.Checkpoint()
	lag := 0.0
	if head > checkpoint {
		lag = float64(head - checkpoint)
	}

	p.recordValue(ctx, metricLagEvents, lag)
}

func (p *Projector) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.SaveSnapshot(ctx); err != nil {
		p.logError(ctx, logMsgSnapshotSaveFailed, err)
	}

	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
