package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore/postgresengine/internal/adapters"
)

const (
	defaultEventTableName          = "events"
	defaultSnapshotTableName       = "snapshots"
	defaultStreamBatchSize         = 500
	defaultAppendLockKey           = 7_302_115
	logMsgBuildSelectQueryFailed   = "failed to build select query"
	logMsgBuildInsertQueryFailed   = "failed to build insert query"
	logMsgDBQueryFailed            = "database query execution failed"
	logMsgCloseRowsFailed          = "failed to close database rows"
	logMsgScanRowFailed            = "failed to scan database row"
	logMsgBuildStorableEventFailed = "failed to build storable event from database row"
	logMsgDBExecFailed             = "database execution failed during event append"
	logMsgRowsAffectedFailed       = "failed to get rows affected count"
	logMsgLoadCompleted            = "load completed"
	logMsgStreamPageLoaded         = "stream page loaded"
	logMsgEventsAppended           = "events appended"
	logMsgVersionConflict          = "version conflict detected"
	logMsgSQLExecuted              = "executed sql for: "
	logMsgOperation                = "eventstore operation: "
	logAttrError                   = "error"
	logAttrQuery                   = "query"
	logAttrAggregateID             = "aggregate_id"
	logAttrEventType               = "event_type"
	logAttrEventCount              = "event_count"
	logAttrDurationMS              = "duration_ms"
	logAttrExpectedEvents          = "expected_events"
	logAttrRowsAffected            = "rows_affected"
	logAttrExpectedVersion         = "expected_version"
	logAttrAfterOffset             = "after_offset"
	logActionLoad                  = "load"
	logActionStream                = "stream"
	logActionAppend                = "append"
	colGlobalOffset                = "global_offset"
	colEventID                     = "event_id"
	colAggregateID                 = "aggregate_id"
	colAggregateVersion            = "aggregate_version"
	colEventType                   = "event_type"
	colOccurredAt                  = "occurred_at"
	colPayload                     = "payload"
	colMetadata                    = "metadata"
	cteLock                        = "append_lock"
	cteContext                     = "context"
	cteVals                        = "vals"
	dialectPostgres                = "postgres"
	aliasMaxVersion                = "max_version"
	aliasLocked                    = "locked"
	castUUID                       = "?::uuid"
	castText                       = "?::text"
	castBigint                     = "?::bigint"
	castTimestamp                  = "?::timestamp with time zone"
	castJsonb                      = "?::jsonb"
	exprAdvisoryLock               = "pg_advisory_xact_lock(?)"
	exprEventIDAsText              = `"event_id"::text`
)

type (
	sqlQueryString    = string
	rowsAffectedInt64 = int64
)

// EventStore is the Postgres engine. It is safe for concurrent use; all state lives in the database.
type EventStore struct {
	db                adapters.DBAdapter
	eventTableName    string
	snapshotTableName string
	streamBatchSize   uint
	appendLockKey     int64
	logger            eventstore.Logger
	metricsCollector  eventstore.MetricsCollector
	tracingCollector  eventstore.TracingCollector
	contextualLogger  eventstore.ContextualLogger
}

type loadedRow struct {
	globalOffset     int64
	eventID          string
	aggregateID      string
	aggregateVersion int64
	eventType        string
	occurredAt       time.Time
	payload          []byte
	metadata         []byte
}

// NewEventStoreFromPGXPool creates a new EventStore using a pgx Pool with optional configuration.
func NewEventStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewPGXAdapter(db), options...)
}

// NewEventStoreFromPGXPoolWithReplica creates a new EventStore that appends to the primary pool and serves
// eventually consistent reads (see eventstore.WithEventualConsistency) from the replica pool.
func NewEventStoreFromPGXPoolWithReplica(primary *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (EventStore, error) {
	if primary == nil || replica == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewPGXAdapterWithReplica(primary, replica), options...)
}

// NewEventStoreFromSQLDB creates a new EventStore using a sql.DB with optional configuration.
func NewEventStoreFromSQLDB(db *sql.DB, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLAdapter(db), options...)
}

// NewEventStoreFromSQLX creates a new EventStore using a sqlx.DB with optional configuration.
func NewEventStoreFromSQLX(db *sqlx.DB, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLXAdapter(db), options...)
}

func newEventStore(db adapters.DBAdapter, options ...Option) (EventStore, error) {
	es := EventStore{
		db:                db,
		eventTableName:    defaultEventTableName,
		snapshotTableName: defaultSnapshotTableName,
		streamBatchSize:   defaultStreamBatchSize,
		appendLockKey:     defaultAppendLockKey,
	}

	for _, option := range options {
		if err := option(&es); err != nil {
			return EventStore{}, err
		}
	}

	return es, nil
}

// Load returns all events of the aggregate in version order and the current version of the aggregate.
func (es EventStore) Load(ctx context.Context, aggregateID string) (
	eventstore.StorableEvents,
	eventstore.AggregateVersionUint,
	error,
) {

	events, err := es.LoadAfter(ctx, aggregateID, 0)
	if err != nil {
		return nil, 0, err
	}

	var version eventstore.AggregateVersionUint
	if len(events) > 0 {
		version = events[len(events)-1].AggregateVersion
	}

	return events, version, nil
}

// LoadAfter returns the events of the aggregate with a version greater than the given one.
func (es EventStore) LoadAfter(
	ctx context.Context,
	aggregateID string,
	version eventstore.AggregateVersionUint,
) (eventstore.StorableEvents, error) {

	ctx, observer := es.startObserving(ctx, operationLoad, map[string]string{spanAttrAggregateID: aggregateID})

	sqlQuery, buildErr := es.buildLoadQuery(aggregateID, version)
	if buildErr != nil {
		es.logError(ctx, logMsgBuildSelectQueryFailed, buildErr)
		observer.fail(ctx, errorTypeBuildQuery)
		return nil, buildErr
	}

	events, duration, queryErr := es.queryEvents(ctx, sqlQuery, logActionLoad)
	if queryErr != nil {
		observer.fail(ctx, errorTypeQuery)
		return nil, queryErr
	}

	es.logOperation(
		ctx,
		logMsgLoadCompleted,
		logAttrAggregateID, aggregateID,
		logAttrEventCount, len(events),
		logAttrDurationMS, toMilliseconds(duration),
	)

	observer.succeed(ctx, map[string]string{spanAttrEventCount: fmt.Sprintf("%d", len(events))})

	return events, nil
}

// StreamAll yields all events after the given global offset, page by page.
// Each page is read completely before it is yielded, so no connection is held while the consumer works.
func (es EventStore) StreamAll(
	ctx context.Context,
	afterOffset eventstore.GlobalOffsetUint,
) iter.Seq2[eventstore.StorableEvent, error] {

	return func(yield func(eventstore.StorableEvent, error) bool) {
		cursor := afterOffset

		for {
			page, err := es.loadStreamPage(ctx, cursor)
			if err != nil {
				yield(eventstore.StorableEvent{}, err)
				return
			}

			for _, event := range page {
				if !yield(event, nil) {
					return
				}

				cursor = event.GlobalOffset
			}

			if uint(len(page)) < es.streamBatchSize {
				return
			}
		}
	}
}

func (es EventStore) loadStreamPage(ctx context.Context, afterOffset eventstore.GlobalOffsetUint) (eventstore.StorableEvents, error) {
	ctx, observer := es.startObserving(ctx, operationStream, map[string]string{spanAttrAfterOffset: fmt.Sprintf("%d", afterOffset)})

	sqlQuery, buildErr := es.buildStreamQuery(afterOffset)
	if buildErr != nil {
		es.logError(ctx, logMsgBuildSelectQueryFailed, buildErr)
		observer.fail(ctx, errorTypeBuildQuery)
		return nil, buildErr
	}

	events, duration, queryErr := es.queryEvents(ctx, sqlQuery, logActionStream)
	if queryErr != nil {
		observer.fail(ctx, errorTypeQuery)
		return nil, queryErr
	}

	es.logDebug(
		ctx,
		logMsgStreamPageLoaded,
		logAttrAfterOffset, afterOffset,
		logAttrEventCount, len(events),
		logAttrDurationMS, toMilliseconds(duration),
	)

	observer.succeed(ctx, map[string]string{spanAttrEventCount: fmt.Sprintf("%d", len(events))})

	return events, nil
}

// HeadOffset returns the highest global offset written so far, zero for an empty store.
func (es EventStore) HeadOffset(ctx context.Context) (eventstore.GlobalOffsetUint, error) {
	sqlQuery, _, toSQLErr := goqu.Dialect(dialectPostgres).
		From(es.eventTableName).
		Select(goqu.COALESCE(goqu.MAX(colGlobalOffset), 0)).
		ToSQL()
	if toSQLErr != nil {
		return 0, errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	rows, queryErr := es.db.Query(ctx, sqlQuery)
	if queryErr != nil {
		return 0, errors.Join(eventstore.ErrStoreUnavailable, eventstore.ErrQueryingEventsFailed, queryErr)
	}
	defer es.closeRows(ctx, rows)

	var head int64
	if rows.Next() {
		if scanErr := rows.Scan(&head); scanErr != nil {
			return 0, errors.Join(eventstore.ErrScanningDBRowFailed, scanErr)
		}
	}

	return eventstore.GlobalOffsetUint(head), nil
}

// queryEvents executes a select statement built by buildLoadQuery or buildStreamQuery.
func (es EventStore) queryEvents(ctx context.Context, sqlQuery string, action string) (
	eventstore.StorableEvents,
	time.Duration,
	error,
) {

	start := time.Now()
	rows, queryErr := es.db.Query(ctx, sqlQuery)
	if queryErr != nil {
		duration := time.Since(start)
		es.logQueryWithDuration(ctx, sqlQuery, action, duration)
		es.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)

		return nil, duration, errors.Join(eventstore.ErrStoreUnavailable, eventstore.ErrQueryingEventsFailed, queryErr)
	}
	defer es.closeRows(ctx, rows)

	events, scanErr := es.processRows(ctx, rows)
	duration := time.Since(start)
	es.logQueryWithDuration(ctx, sqlQuery, action, duration)

	if scanErr != nil {
		return nil, duration, scanErr
	}

	return events, duration, nil
}

// processRows converts database rows to storable events.
func (es EventStore) processRows(ctx context.Context, rows adapters.DBRows) (eventstore.StorableEvents, error) {
	row := loadedRow{}
	events := make(eventstore.StorableEvents, 0)

	for rows.Next() {
		scanErr := rows.Scan(
			&row.globalOffset,
			&row.eventID,
			&row.aggregateID,
			&row.aggregateVersion,
			&row.eventType,
			&row.occurredAt,
			&row.payload,
			&row.metadata,
		)
		if scanErr != nil {
			es.logError(ctx, logMsgScanRowFailed, scanErr)
			return nil, errors.Join(eventstore.ErrScanningDBRowFailed, scanErr)
		}

		event, buildErr := eventstore.BuildStorableEvent(
			row.eventID,
			row.aggregateID,
			eventstore.AggregateVersionUint(row.aggregateVersion),
			row.eventType,
			row.occurredAt,
			row.payload,
			row.metadata,
		)
		if buildErr != nil {
			es.logError(ctx, logMsgBuildStorableEventFailed, buildErr, logAttrEventType, row.eventType)
			return nil, errors.Join(eventstore.ErrBuildingStorableEventFailed, buildErr)
		}

		events = append(events, event.WithGlobalOffset(eventstore.GlobalOffsetUint(row.globalOffset)))
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		es.logError(ctx, logMsgScanRowFailed, rowsErr)
		return nil, errors.Join(eventstore.ErrStoreUnavailable, eventstore.ErrScanningDBRowFailed, rowsErr)
	}

	return events, nil
}

// closeRows safely closes database rows and logs any errors.
func (es EventStore) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		es.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

// Append appends one or multiple events to the aggregate's stream if its current version equals expectedVersion.
//
// The insert runs as one statement: it takes a transaction scoped advisory lock, reads the current
// max version of the aggregate, and inserts the events only if that version matches. A concurrent
// writer that slipped in between is caught by the unique constraint on (aggregate_id, aggregate_version).
// Both cases surface as eventstore.ErrVersionConflict.
func (es EventStore) Append(
	ctx context.Context,
	aggregateID string,
	expectedVersion eventstore.AggregateVersionUint,
	event eventstore.StorableEvent,
	additionalEvents ...eventstore.StorableEvent,
) error {

	allEvents := eventstore.StorableEvents{event}
	allEvents = append(allEvents, additionalEvents...)

	if err := eventstore.ValidateAppendBatch(aggregateID, expectedVersion, allEvents); err != nil {
		return err
	}

	ctx, observer := es.startObserving(ctx, operationAppend, map[string]string{
		spanAttrAggregateID:     aggregateID,
		spanAttrEventCount:      fmt.Sprintf("%d", len(allEvents)),
		spanAttrExpectedVersion: fmt.Sprintf("%d", expectedVersion),
		spanAttrEventType:       allEvents[0].EventType,
	})

	sqlQuery, buildErr := es.buildAppendQuery(aggregateID, expectedVersion, allEvents)
	if buildErr != nil {
		es.logError(ctx, logMsgBuildInsertQueryFailed, buildErr, logAttrEventCount, len(allEvents))
		observer.fail(ctx, errorTypeBuildQuery)
		return buildErr
	}

	rowsAffected, duration, execErr := es.executeAppendQuery(ctx, sqlQuery)
	if execErr != nil {
		if adapters.IsUniqueViolation(execErr) {
			es.logVersionConflict(ctx, aggregateID, expectedVersion, len(allEvents), 0)
			observer.conflict(ctx)
			return eventstore.ErrVersionConflict
		}

		observer.fail(ctx, errorTypeExec)
		return execErr
	}

	if rowsAffected < int64(len(allEvents)) {
		es.logVersionConflict(ctx, aggregateID, expectedVersion, len(allEvents), rowsAffected)
		observer.conflict(ctx)
		return eventstore.ErrVersionConflict
	}

	es.logOperation(
		ctx,
		logMsgEventsAppended,
		logAttrAggregateID, aggregateID,
		logAttrEventCount, len(allEvents),
		logAttrDurationMS, toMilliseconds(duration),
	)

	observer.succeed(ctx, map[string]string{spanAttrRowsAffected: fmt.Sprintf("%d", rowsAffected)})

	return nil
}

// executeAppendQuery executes the SQL append statement and returns rows affected and duration.
func (es EventStore) executeAppendQuery(ctx context.Context, sqlQuery string) (
	rowsAffectedInt64,
	time.Duration,
	error,
) {

	start := time.Now()
	result, execErr := es.db.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	es.logQueryWithDuration(ctx, sqlQuery, logActionAppend, duration)

	if execErr != nil {
		if adapters.IsUniqueViolation(execErr) {
			return 0, duration, execErr
		}

		es.logError(ctx, logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)

		return 0, duration, errors.Join(eventstore.ErrStoreUnavailable, eventstore.ErrAppendingEventFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		es.logError(ctx, logMsgRowsAffectedFailed, rowsAffectedErr)
		return 0, duration, errors.Join(eventstore.ErrStoreUnavailable, eventstore.ErrGettingRowsAffectedFailed, rowsAffectedErr)
	}

	return rowsAffected, duration, nil
}

func (es EventStore) logVersionConflict(
	ctx context.Context,
	aggregateID string,
	expectedVersion eventstore.AggregateVersionUint,
	expectedEvents int,
	rowsAffected int64,
) {

	es.logOperation(
		ctx,
		logMsgVersionConflict,
		logAttrAggregateID, aggregateID,
		logAttrExpectedVersion, expectedVersion,
		logAttrExpectedEvents, expectedEvents,
		logAttrRowsAffected, rowsAffected,
	)
}

func (es EventStore) selectColumns() []any {
	return []any{
		colGlobalOffset,
		goqu.L(exprEventIDAsText).As(colEventID),
		colAggregateID,
		colAggregateVersion,
		colEventType,
		colOccurredAt,
		colPayload,
		colMetadata,
	}
}

func (es EventStore) buildLoadQuery(aggregateID string, afterVersion eventstore.AggregateVersionUint) (sqlQueryString, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(es.eventTableName).
		Select(es.selectColumns()...).
		Where(
			goqu.C(colAggregateID).Eq(aggregateID),
			goqu.C(colAggregateVersion).Gt(afterVersion),
		).
		Order(goqu.I(colAggregateVersion).Asc())

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (es EventStore) buildStreamQuery(afterOffset eventstore.GlobalOffsetUint) (sqlQueryString, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(es.eventTableName).
		Select(es.selectColumns()...).
		Where(goqu.C(colGlobalOffset).Gt(afterOffset)).
		Order(goqu.I(colGlobalOffset).Asc()).
		Limit(es.streamBatchSize)

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (es EventStore) buildAppendQuery(
	aggregateID string,
	expectedVersion eventstore.AggregateVersionUint,
	events eventstore.StorableEvents,
) (sqlQueryString, error) {

	builder := goqu.Dialect(dialectPostgres)

	lockStmt := builder.Select(goqu.L(exprAdvisoryLock, es.appendLockKey).As(aliasLocked))

	contextStmt := builder.
		From(es.eventTableName).
		Select(goqu.MAX(colAggregateVersion).As(aliasMaxVersion)).
		Where(goqu.C(colAggregateID).Eq(aggregateID))

	unionStatements := make([]*goqu.SelectDataset, len(events))
	for i, event := range events {
		unionStatements[i] = builder.
			Select(
				goqu.L(castUUID, event.EventID).As(colEventID),
				goqu.L(castText, event.AggregateID).As(colAggregateID),
				goqu.L(castBigint, event.AggregateVersion).As(colAggregateVersion),
				goqu.L(castText, event.EventType).As(colEventType),
				goqu.L(castTimestamp, event.OccurredAt).As(colOccurredAt),
				goqu.L(castJsonb, event.PayloadJSON).As(colPayload),
				goqu.L(castJsonb, event.MetadataJSON).As(colMetadata),
			)
	}

	valuesStmt := unionStatements[0]
	for i := 1; i < len(unionStatements); i++ {
		valuesStmt = valuesStmt.UnionAll(unionStatements[i])
	}

	insertCols := []any{
		colEventID, colAggregateID, colAggregateVersion, colEventType, colOccurredAt, colPayload, colMetadata,
	}

	valsCols := make([]any, len(insertCols))
	for i, col := range insertCols {
		valsCols[i] = fmt.Sprintf("%s.%s", cteVals, col)
	}

	insertStmt := builder.
		Insert(es.eventTableName).
		Cols(insertCols...).
		With(cteLock, lockStmt).
		With(cteContext, contextStmt).
		With(cteVals, valuesStmt).
		FromQuery(
			builder.From(cteLock, cteContext, cteVals).
				Select(valsCols...).
				Where(goqu.COALESCE(goqu.C(aliasMaxVersion), 0).Eq(goqu.V(expectedVersion))),
		)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}
