package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config is the root configuration of the retainer.
type Config struct {
	// Database selects and configures the relational store.
	Database DatabaseConfig `yaml:"database"`

	// Retention contains the schedules and the archive retention window.
	Retention RetentionConfig `yaml:"retention"`

	// Blobs configures where attachment blobs are deleted from.
	Blobs BlobsConfig `yaml:"blobs"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// DatabaseConfig contains database configuration.
type DatabaseConfig struct {
	// Driver is the database/sql driver.
	// Options: "sqlite" (pure Go), "sqlite3" (cgo), "pgx" (PostgreSQL)
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// SQLite contains SQLite settings, used by both SQLite drivers.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Postgres contains PostgreSQL settings, used by the pgx driver.
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/retainer.db"
	Path string `yaml:"path"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// WALMode enables Write-Ahead Logging mode.
	// Default: true
	WALMode bool `yaml:"wal_mode"`
}

// PostgresConfig contains PostgreSQL-specific configuration.
type PostgresConfig struct {
	// Host is the PostgreSQL server hostname.
	Host string `yaml:"host"`

	// Port is the PostgreSQL server port.
	// Default: 5432
	Port int `yaml:"port"`

	// Database is the name of the database to use.
	Database string `yaml:"database"`

	// User is the PostgreSQL user for authentication.
	User string `yaml:"user"`

	// Password is the PostgreSQL password for authentication.
	// This should typically be loaded from an environment variable.
	Password string `yaml:"password"`

	// SSLMode controls SSL/TLS connection mode.
	// Options: "disable", "require", "verify-ca", "verify-full"
	// Default: "require"
	SSLMode string `yaml:"ssl_mode"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`
}

// DSN returns the connection URL for the pgx driver.
func (p PostgresConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:   "/" + p.Database,
	}
	if p.User != "" {
		if p.Password != "" {
			u.User = url.UserPassword(p.User, p.Password)
		} else {
			u.User = url.User(p.User)
		}
	}
	q := url.Values{}
	q.Set("sslmode", p.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// RetentionConfig contains scheduling and archive retention configuration.
type RetentionConfig struct {
	// ArchiveSchedule is the cron expression of the archive pipeline.
	// An empty string disables scheduled archiving.
	// Default: "0 2 * * *" (daily at 2 AM)
	ArchiveSchedule string `yaml:"archive_schedule"`

	// JanitorSchedule is the cron expression of the archive janitor.
	// An empty string disables scheduled archive cleanup.
	// Default: "0 4 * * *" (daily at 4 AM)
	JanitorSchedule string `yaml:"janitor_schedule"`

	// ArchivedDataRetentionDays is how many days archive rows are kept
	// before the janitor deletes them.
	// Default: 30
	ArchivedDataRetentionDays int `yaml:"archived_data_retention_days"`
}

// BlobsConfig contains blob storage configuration.
type BlobsConfig struct {
	// Backend selects the blob store.
	// Options: "local"
	// Default: "local"
	Backend string `yaml:"backend"`

	// Local contains local filesystem settings.
	Local LocalBlobsConfig `yaml:"local"`
}

// LocalBlobsConfig contains local filesystem blob storage configuration.
type LocalBlobsConfig struct {
	// Root is the directory attachment path ids are resolved against.
	// Default: "data/uploads"
	Root string `yaml:"root"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check endpoint configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// ListenAddress is where `retainer run` serves the metrics endpoint.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "retainer"
	Namespace string `yaml:"namespace"`

	// DurationBuckets defines histogram buckets for pipeline durations
	// (seconds).
	// Default: [0.1, 0.5, 1, 5, 15, 60, 300, 900]
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig contains OpenTelemetry tracing configuration. Each
// pipeline run becomes a trace with one span per step.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of runs to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "retainer"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS for the collector connection.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout is the export timeout.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains health check endpoint configuration. The
// endpoints are served next to the metrics endpoint by `retainer run`.
type HealthConfig struct {
	// Enabled controls whether health check endpoints are served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/healthz"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/readyz"
	ReadinessPath string `yaml:"readiness_path"`

	// CheckTimeout is the timeout for individual component checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}
