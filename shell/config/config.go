package config

import (
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "RESERVATIONS"

const (
	EngineMemory   = "memory"
	EnginePostgres = "postgres"

	DriverPGX  = "pgx"
	DriverSQL  = "sql"
	DriverSQLX = "sqlx"
)

var (
	ErrUnknownEngine   = errors.New("unknown event store engine")
	ErrUnknownDriver   = errors.New("unknown postgres driver")
	ErrUnknownLogLevel = errors.New("unknown log level")
	ErrMissingDSN      = errors.New("postgres dsn is required for the postgres engine")

	ErrInvalidDailyLimit = errors.New("patient daily limit must not be negative")
)

// Config is the complete process configuration.
type Config struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	RateLimitRPS    float64       `envconfig:"RATE_LIMIT_RPS" default:"20"`
	RateLimitBurst  int           `envconfig:"RATE_LIMIT_BURST" default:"40"`

	Engine             string `envconfig:"ENGINE" default:"memory"`
	PostgresDriver     string `envconfig:"POSTGRES_DRIVER" default:"pgx"`
	PostgresDSN        string `envconfig:"POSTGRES_DSN"`
	PostgresReplicaDSN string `envconfig:"POSTGRES_REPLICA_DSN"`
	EventsTable        string `envconfig:"EVENTS_TABLE" default:"events"`
	SnapshotsTable     string `envconfig:"SNAPSHOTS_TABLE" default:"snapshots"`
	CreateSchema       bool   `envconfig:"CREATE_SCHEMA" default:"true"`

	DefaultSlotDuration time.Duration `envconfig:"DEFAULT_SLOT_DURATION" default:"60m"`
	NumberPrefix        string        `envconfig:"NUMBER_PREFIX" default:"HT"`
	RetryMaxAttempts    int           `envconfig:"RETRY_MAX_ATTEMPTS" default:"5"`
	RetryBaseDelay      time.Duration `envconfig:"RETRY_BASE_DELAY" default:"10ms"`

	ProjectorPollInterval time.Duration `envconfig:"PROJECTOR_POLL_INTERVAL" default:"1s"`
	SnapshotEvery         int           `envconfig:"SNAPSHOT_EVERY" default:"1000"`

	// Zero disables the per-patient daily booking limit.
	PatientDailyLimit int `envconfig:"PATIENT_DAILY_LIMIT" default:"0"`

	PricingCurrency    string `envconfig:"PRICING_CURRENCY" default:"EUR"`
	PricingBaseMinor   int64  `envconfig:"PRICING_BASE_MINOR" default:"5000"`
	PricingHourlyMinor int64  `envconfig:"PRICING_HOURLY_MINOR" default:"0"`

	AMQPURL              string        `envconfig:"AMQP_URL"`
	AMQPExchange         string        `envconfig:"AMQP_EXCHANGE" default:"reservations"`
	NotifyPublishTimeout time.Duration `envconfig:"NOTIFY_PUBLISH_TIMEOUT" default:"5s"`

	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"LOG_FORMAT" default:"json"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"reservationd"`
	OTLPEndpoint string `envconfig:"OTLP_ENDPOINT"`
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the values envconfig cannot check on its own.
func (c Config) Validate() error {
	if !slices.Contains([]string{EngineMemory, EnginePostgres}, c.Engine) {
		return errors.Join(ErrUnknownEngine, errors.New(c.Engine))
	}

	if c.Engine == EnginePostgres {
		if c.PostgresDSN == "" {
			return ErrMissingDSN
		}

		if !slices.Contains([]string{DriverPGX, DriverSQL, DriverSQLX}, c.PostgresDriver) {
			return errors.Join(ErrUnknownDriver, errors.New(c.PostgresDriver))
		}
	}

	if c.PatientDailyLimit < 0 {
		return errors.Join(ErrInvalidDailyLimit, errors.New(strconv.Itoa(c.PatientDailyLimit)))
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	return nil
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo, errors.Join(ErrUnknownLogLevel, err)
	}

	return level, nil
}
