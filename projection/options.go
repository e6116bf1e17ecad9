package projection

import (
	"time"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore"
)

// Option configures a Projector.
type Option func(*Projector)

// WithTrackers registers receivers of every projected reservation state.
func WithTrackers(trackers ...Tracker) Option {
	return func(p *Projector) {
		p.trackers = append(p.trackers, trackers...)
	}
}

// WithSnapshots enables restoring from and saving to the given snapshot store.
func WithSnapshots(store eventstore.SnapshotStore) Option {
	return func(p *Projector) {
		p.snapshots = store
	}
}

// WithSnapshotEvery sets after how many applied events a snapshot is saved. Zero disables periodic snapshots.
func WithSnapshotEvery(events int) Option {
	return func(p *Projector) {
		p.snapshotEvery = events
	}
}

// WithPollInterval sets how often Run checks for new events when nobody calls Notify.
func WithPollInterval(interval time.Duration) Option {
	return func(p *Projector) {
		if interval > 0 {
			p.pollInterval = interval
		}
	}
}

// WithRetryBackoff sets the first delay after a failed catch-up. It doubles up to 30s.
func WithRetryBackoff(backoff time.Duration) Option {
	return func(p *Projector) {
		if backoff > 0 {
			p.retryBackoff = backoff
		}
	}
}

func WithLogger(logger eventstore.Logger) Option {
	return func(p *Projector) {
		p.logger = logger
	}
}

func WithContextualLogger(logger eventstore.ContextualLogger) Option {
	return func(p *Projector) {
		p.contextualLogger = logger
	}
}

func WithMetrics(collector eventstore.MetricsCollector) Option {
	return func(p *Projector) {
		p.metricsCollector = collector
	}
}
