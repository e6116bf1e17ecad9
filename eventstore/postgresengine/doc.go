// Package postgresengine provides a PostgreSQL implementation of eventstore.EventStore and
// eventstore.SnapshotStore.
//
// Key features:
//   - Multiple database adapter support (pgx pool with optional read replica, sql.DB, sqlx.DB)
//   - Atomic multi event appends guarded by the expected aggregate version in a single statement
//   - A unique constraint on (aggregate_id, aggregate_version) as the last line of defense
//   - Paged, restartable StreamAll in global offset order
//   - Optional logging, metrics, and tracing through the eventstore observability interfaces
//
// Usage:
//
//	db, _ := pgxpool.NewWithConfig(ctx, config.PostgresPGXPoolConfig(dsn))
//	store, _ := postgresengine.NewEventStoreFromPGXPool(
//		db,
//		postgresengine.WithTableName("reservation_events"),
//		postgresengine.WithLogger(logger),
//	)
//	_ = store.CreateSchema(ctx)
//
//	events, version, _ := store.Load(ctx, reservationID)
//	err := store.Append(ctx, reservationID, version, newEvent)
package postgresengine
