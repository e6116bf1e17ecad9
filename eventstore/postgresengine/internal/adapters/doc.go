// Package adapters provide database adapter implementations for the PostgreSQL event store.
//
// The adapters wrap pgxpool.Pool, sql.DB, and sqlx.DB behind the DBAdapter interface so that
// the engine builds its SQL once and runs it on any of them.
package adapters
