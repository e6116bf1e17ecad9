package postgresengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore"
)

const (
	colProjectionType = "projection_type"
	colSnapshotKey    = "snapshot_key"
	colData           = "data"
	colCreatedAt      = "created_at"
	excludedPrefix    = "EXCLUDED."

	logMsgSnapshotSaved = "snapshot saved"
)

// SaveSnapshot inserts or replaces the snapshot for its projection type and key.
func (es EventStore) SaveSnapshot(ctx context.Context, snapshot eventstore.Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}

	ctx, observer := es.startObserving(ctx, operationSaveSnapshot, map[string]string{
		spanAttrAfterOffset: fmt.Sprintf("%d", snapshot.GlobalOffset),
	})

	sqlQuery, buildErr := es.buildSaveSnapshotQuery(snapshot)
	if buildErr != nil {
		observer.fail(ctx, errorTypeBuildQuery)
		return buildErr
	}

	start := time.Now()
	_, execErr := es.db.Exec(ctx, sqlQuery)
	es.logQueryWithDuration(ctx, sqlQuery, operationSaveSnapshot, time.Since(start))

	if execErr != nil {
		es.logError(ctx, logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)
		observer.fail(ctx, errorTypeExec)

		return errors.Join(eventstore.ErrStoreUnavailable, eventstore.ErrSavingSnapshotFailed, execErr)
	}

	es.logOperation(ctx, logMsgSnapshotSaved, colProjectionType, snapshot.ProjectionType, colGlobalOffset, snapshot.GlobalOffset)
	observer.succeed(ctx, nil)

	return nil
}

// LoadSnapshot returns the snapshot for the projection type and key, or nil if there is none.
func (es EventStore) LoadSnapshot(ctx context.Context, projectionType string, key string) (*eventstore.Snapshot, error) {
	ctx, observer := es.startObserving(ctx, operationLoadSnapshot, nil)

	sqlQuery, _, toSQLErr := goqu.Dialect(dialectPostgres).
		From(es.snapshotTableName).
		Select(colProjectionType, colSnapshotKey, colGlobalOffset, colData, colCreatedAt).
		Where(
			goqu.C(colProjectionType).Eq(projectionType),
			goqu.C(colSnapshotKey).Eq(key),
		).
		ToSQL()
	if toSQLErr != nil {
		observer.fail(ctx, errorTypeBuildQuery)
		return nil, errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	rows, queryErr := es.db.Query(ctx, sqlQuery)
	if queryErr != nil {
		es.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)
		observer.fail(ctx, errorTypeQuery)

		return nil, errors.Join(eventstore.ErrStoreUnavailable, eventstore.ErrLoadingSnapshotFailed, queryErr)
	}
	defer es.closeRows(ctx, rows)

	if !rows.Next() {
		observer.succeed(ctx, nil)
		return nil, rows.Err()
	}

	var snapshot eventstore.Snapshot
	var offset int64

	if scanErr := rows.Scan(&snapshot.ProjectionType, &snapshot.Key, &offset, &snapshot.Data, &snapshot.CreatedAt); scanErr != nil {
		observer.fail(ctx, errorTypeQuery)
		return nil, errors.Join(eventstore.ErrLoadingSnapshotFailed, scanErr)
	}

	snapshot.GlobalOffset = eventstore.GlobalOffsetUint(offset)
	observer.succeed(ctx, nil)

	return &snapshot, nil
}

func (es EventStore) buildSaveSnapshotQuery(snapshot eventstore.Snapshot) (sqlQueryString, error) {
	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(es.snapshotTableName).
		Rows(goqu.Record{
			colProjectionType: snapshot.ProjectionType,
			colSnapshotKey:    snapshot.Key,
			colGlobalOffset:   snapshot.GlobalOffset,
			colData:           goqu.L(castJsonb, []byte(snapshot.Data)),
			colCreatedAt:      snapshot.CreatedAt,
		}).
		OnConflict(goqu.DoUpdate(
			colProjectionType+", "+colSnapshotKey,
			goqu.Record{
				colGlobalOffset: goqu.L(excludedPrefix + colGlobalOffset),
				colData:         goqu.L(excludedPrefix + colData),
				colCreatedAt:    goqu.L(excludedPrefix + colCreatedAt),
			},
		))

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}
