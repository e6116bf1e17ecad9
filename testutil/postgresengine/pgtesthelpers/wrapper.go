package pgtesthelpers

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore/postgresengine"
	"github.com/AntonStoeckl/reservation-lifecycle-engine/shell/config"
)

const (
	EnvDSN    = "RESERVATIONS_TEST_DSN"
	EnvDriver = "RESERVATIONS_TEST_DRIVER"
)

// Wrapper hides which driver backs the event store under test.
type Wrapper struct {
	EventStore postgresengine.EventStore
	Driver     string
	TableName  string

	exec  func(ctx context.Context, statement string) error
	close func()
}

// NewWrapper opens a store on fresh tables, or skips the test if no database is configured.
func NewWrapper(t testing.TB, options ...postgresengine.Option) *Wrapper {
	t.Helper()

	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		t.Skipf("%s is not set", EnvDSN)
	}

	driver := strings.ToLower(os.Getenv(EnvDriver))
	if driver == "" {
		driver = config.DriverPGX
	}

	ctx := context.Background()
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	wrapper := &Wrapper{Driver: driver, TableName: "events_" + suffix}
	options = append(options,
		postgresengine.WithTableName(wrapper.TableName),
		postgresengine.WithSnapshotTableName("snapshots_"+suffix),
	)

	var err error

	switch driver {
	case config.DriverPGX:
		pool, poolErr := config.PostgresPGXPool(ctx, dsn)
		require.NoError(t, poolErr, "connecting pgx pool")

		wrapper.close = pool.Close
		wrapper.exec = func(ctx context.Context, statement string) error {
			_, execErr := pool.Exec(ctx, statement)
			return execErr
		}
		wrapper.EventStore, err = postgresengine.NewEventStoreFromPGXPool(pool, options...)

	case config.DriverSQL:
		db, dbErr := config.PostgresSQLDB(ctx, dsn)
		require.NoError(t, dbErr, "connecting sql.DB")

		wrapper.close = func() { _ = db.Close() }
		wrapper.exec = func(ctx context.Context, statement string) error {
			_, execErr := db.ExecContext(ctx, statement)
			return execErr
		}
		wrapper.EventStore, err = postgresengine.NewEventStoreFromSQLDB(db, options...)

	case config.DriverSQLX:
		db, dbErr := config.PostgresSQLXDB(ctx, dsn)
		require.NoError(t, dbErr, "connecting sqlx.DB")

		wrapper.close = func() { _ = db.Close() }
		wrapper.exec = func(ctx context.Context, statement string) error {
			_, execErr := db.ExecContext(ctx, statement)
			return execErr
		}
		wrapper.EventStore, err = postgresengine.NewEventStoreFromSQLX(db, options...)

	default:
		t.Fatalf("unsupported driver from %s: %s", EnvDriver, driver)
	}

	require.NoError(t, err)
	require.NoError(t, wrapper.EventStore.CreateSchema(ctx))

	t.Cleanup(func() {
		_ = wrapper.exec(context.Background(), fmt.Sprintf(
			`DROP TABLE IF EXISTS "%s", "snapshots_%s"`, wrapper.TableName, suffix,
		))
		wrapper.close()
	})

	return wrapper
}
