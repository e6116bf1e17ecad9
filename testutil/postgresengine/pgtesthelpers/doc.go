// Package pgtesthelpers opens a PostgreSQL event store for integration tests through any of the supported drivers.
//
// Tests are skipped unless RESERVATIONS_TEST_DSN points at a reachable database.
// RESERVATIONS_TEST_DRIVER selects the driver (pgx, sql, sqlx), pgx is the default.
// Every wrapper gets its own pair of tables, dropped again on cleanup.
package pgtesthelpers
