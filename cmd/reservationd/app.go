package main

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/collaborator"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/conflictindex"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore/memengine"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore/oteladapters"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore/postgresengine"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/features/cancelreservation"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/features/completereservation"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/features/confirmreservation"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/features/createreservation"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/features/marknoshow"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/features/refundreservation"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/features/requestrefund"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/features/reschedulereservation"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/httpapi"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/projection"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/readapi"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/shell"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/shell/config"
)

const instrumentationName = "github.com/AntonStoeckl/reservation-lifecycle-engine"

// store is what the process needs from an engine.
type store interface {
	shell.EventStore
	eventstore.SnapshotStore
	StreamAll(ctx context.Context, afterOffset eventstore.GlobalOffsetUint) iter.Seq2[eventstore.StorableEvent, error]
	HeadOffset(ctx context.Context) (eventstore.GlobalOffsetUint, error)
}

type app struct {
	router    http.Handler
	projector *projection.Projector
	closers   []func() error
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{}

	providers, err := config.NewObservabilityProviders(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error { return providers.Shutdown(context.Background()) })

	metrics := oteladapters.NewMetricsCollector(otel.Meter(instrumentationName))
	tracing := oteladapters.NewTracingCollector(otel.Tracer(instrumentationName))
	contextualLogger := oteladapters.NewSlogBridgeLoggerWithHandler(logger.Handler())

	es, err := a.openStore(ctx, cfg, logger, metrics, tracing, contextualLogger)
	if err != nil {
		a.close()
		return nil, err
	}

	index := conflictindex.New()
	model := projection.NewReadModel(cfg.NumberPrefix)
	a.projector = projection.NewProjector(
		es,
		model,
		projection.WithTrackers(index),
		projection.WithSnapshots(es),
		projection.WithSnapshotEvery(cfg.SnapshotEvery),
		projection.WithPollInterval(cfg.ProjectorPollInterval),
		projection.WithContextualLogger(contextualLogger),
		projection.WithMetrics(metrics),
	)

	publisher, err := a.openPublisher(cfg, logger)
	if err != nil {
		a.close()
		return nil, err
	}

	deps := shell.Dependencies{
		EventStore:     es,
		Slots:          index,
		AggregateLocks: shell.NewKeyedLocks(),
		SlotLocks:      shell.NewKeyedLocks(),
		Hooks: []shell.AfterAppendHook{
			index,
			a.projector,
			collaborator.NewNotificationHook(publisher, logger, collaborator.WithPublishTimeout(cfg.NotifyPublishTimeout)),
		},
		RetryOptions: []shell.RetryOption{
			shell.WithMaxAttempts(cfg.RetryMaxAttempts),
			shell.WithBaseDelay(cfg.RetryBaseDelay),
		},
		ContextualLogger: contextualLogger,
		MetricsCollector: metrics,
		TracingCollector: tracing,
	}

	// Retry metrics are labelled per command type.
	depsFor := func(commandType string) shell.Dependencies {
		d := deps
		d.RetryOptions = append(append([]shell.RetryOption{}, deps.RetryOptions...), shell.WithRetryMetrics(metrics, commandType))

		return d
	}

	pricing := collaborator.FixedPricing{
		Currency:        cfg.PricingCurrency,
		BaseAmountMinor: cfg.PricingBaseMinor,
		HourlyMinor:     cfg.PricingHourlyMinor,
	}

	commands := httpapi.Commands{
		Create: createreservation.NewCommandHandler(
			depsFor(createreservation.Command{}.CommandType()),
			createreservation.WithPatientDailyLimit(index, cfg.PatientDailyLimit),
		),
		Confirm:    confirmreservation.NewCommandHandler(depsFor(confirmreservation.Command{}.CommandType()), pricing),
		Cancel:     cancelreservation.NewCommandHandler(depsFor(cancelreservation.Command{}.CommandType())),
		Reschedule: reschedulereservation.NewCommandHandler(depsFor(reschedulereservation.Command{}.CommandType())),
		Complete:   completereservation.NewCommandHandler(depsFor(completereservation.Command{}.CommandType())),
		NoShow:     marknoshow.NewCommandHandler(depsFor(marknoshow.Command{}.CommandType())),
		Request:    requestrefund.NewCommandHandler(depsFor(requestrefund.Command{}.CommandType())),
		Refund:     refundreservation.NewCommandHandler(depsFor(refundreservation.Command{}.CommandType())),
	}

	server := httpapi.NewServer(
		commands,
		readapi.NewService(model, index, nil),
		httpapi.WithFreshness(a.projector),
		httpapi.WithLogger(logger),
		httpapi.WithMetrics(metrics),
		httpapi.WithDefaultSlotDuration(cfg.DefaultSlotDuration),
		httpapi.WithRequestTimeout(cfg.RequestTimeout),
		httpapi.WithRateLimit(httpapi.RateLimit{RequestsPerSecond: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst}),
	)
	a.router = server.Router()

	// Restore before serving, so that the conflict index knows the existing schedule from the first request.
	if err = a.projector.Restore(ctx); err != nil {
		logger.Warn("snapshot restore failed, replaying from the start", "error", err.Error())
	}

	if err = a.projector.CatchUp(ctx); err != nil {
		a.close()
		return nil, err
	}

	return a, nil
}

func (a *app) openStore(
	ctx context.Context,
	cfg config.Config,
	logger *slog.Logger,
	metrics eventstore.MetricsCollector,
	tracing eventstore.TracingCollector,
	contextualLogger eventstore.ContextualLogger,
) (store, error) {

	if cfg.Engine == config.EngineMemory {
		return memengine.NewEventStore(memengine.WithLogger(logger)), nil
	}

	options := []postgresengine.Option{
		postgresengine.WithTableName(cfg.EventsTable),
		postgresengine.WithSnapshotTableName(cfg.SnapshotsTable),
		postgresengine.WithLogger(logger),
		postgresengine.WithContextualLogger(contextualLogger),
		postgresengine.WithMetrics(metrics),
		postgresengine.WithTracing(tracing),
	}

	var es postgresengine.EventStore
	var err error

	switch cfg.PostgresDriver {
	case config.DriverSQL:
		db, openErr := config.PostgresSQLDB(ctx, cfg.PostgresDSN)
		if openErr != nil {
			return nil, openErr
		}
		a.closers = append(a.closers, db.Close)
		es, err = postgresengine.NewEventStoreFromSQLDB(db, options...)

	case config.DriverSQLX:
		db, openErr := config.PostgresSQLXDB(ctx, cfg.PostgresDSN)
		if openErr != nil {
			return nil, openErr
		}
		a.closers = append(a.closers, db.Close)
		es, err = postgresengine.NewEventStoreFromSQLX(db, options...)

	default:
		pool, openErr := config.PostgresPGXPool(ctx, cfg.PostgresDSN)
		if openErr != nil {
			return nil, openErr
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })

		if cfg.PostgresReplicaDSN == "" {
			es, err = postgresengine.NewEventStoreFromPGXPool(pool, options...)
			break
		}

		replica, replicaErr := config.PostgresPGXPool(ctx, cfg.PostgresReplicaDSN)
		if replicaErr != nil {
			return nil, replicaErr
		}
		a.closers = append(a.closers, func() error { replica.Close(); return nil })
		es, err = postgresengine.NewEventStoreFromPGXPoolWithReplica(pool, replica, options...)
	}

	if err != nil {
		return nil, err
	}

	if cfg.CreateSchema {
		if err = es.CreateSchema(ctx); err != nil {
			return nil, err
		}
	}

	return es, nil
}

func (a *app) openPublisher(cfg config.Config, logger *slog.Logger) (collaborator.StatusChangePublisher, error) {
	if cfg.AMQPURL == "" {
		return collaborator.LogPublisher{Logger: logger}, nil
	}

	publisher, err := collaborator.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, publisher.Close)

	return publisher, nil
}

func (a *app) close() {
	var errs []error

	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}

	if err := errors.Join(errs...); err != nil {
		slog.Error("closing resources failed", "error", err.Error())
	}

	a.closers = nil
}
