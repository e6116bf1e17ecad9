package postgresengine

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore"
)

var ErrCreatingSchemaFailed = errors.New("creating schema failed")

const schemaTemplate = `
CREATE TABLE IF NOT EXISTS %[1]s (
    global_offset     BIGSERIAL PRIMARY KEY,
    event_id          UUID NOT NULL UNIQUE,
    aggregate_id      TEXT NOT NULL,
    aggregate_version BIGINT NOT NULL CHECK (aggregate_version > 0),
    event_type        TEXT NOT NULL,
    occurred_at       TIMESTAMP WITH TIME ZONE NOT NULL,
    payload           JSONB NOT NULL,
    metadata          JSONB NOT NULL,
    CONSTRAINT %[2]s UNIQUE (aggregate_id, aggregate_version)
);

CREATE TABLE IF NOT EXISTS %[3]s (
    projection_type TEXT NOT NULL,
    snapshot_key    TEXT NOT NULL,
    global_offset   BIGINT NOT NULL,
    data            JSONB NOT NULL,
    created_at      TIMESTAMP WITH TIME ZONE NOT NULL,
    PRIMARY KEY (projection_type, snapshot_key)
);`

// SchemaSQL returns the DDL for the configured events and snapshots tables.
func (es EventStore) SchemaSQL() string {
	return fmt.Sprintf(
		schemaTemplate,
		pq.QuoteIdentifier(es.eventTableName),
		pq.QuoteIdentifier(es.eventTableName+"_aggregate_version_unique"),
		pq.QuoteIdentifier(es.snapshotTableName),
	)
}

// CreateSchema creates the events and snapshots tables if they do not exist yet.
func (es EventStore) CreateSchema(ctx context.Context) error {
	if _, err := es.db.Exec(ctx, es.SchemaSQL()); err != nil {
		return errors.Join(eventstore.ErrStoreUnavailable, ErrCreatingSchemaFailed, err)
	}

	return nil
}
