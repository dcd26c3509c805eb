package config

import "time"

// Default values for configuration fields.
const (
	// Database defaults
	DefaultDatabaseDriver       = "sqlite"
	DefaultSQLitePath           = "data/retainer.db"
	DefaultSQLiteBusyTimeout    = 5 * time.Second
	DefaultSQLiteWALMode        = true
	DefaultPostgresPort         = 5432
	DefaultPostgresSSLMode      = "require"
	DefaultPostgresMaxOpenConns = 10

	// Retention defaults
	DefaultArchiveSchedule           = "0 2 * * *"
	DefaultJanitorSchedule           = "0 4 * * *"
	DefaultArchivedDataRetentionDays = 30

	// Blob defaults
	DefaultBlobsBackend   = "local"
	DefaultBlobsLocalRoot = "data/uploads"

	// Telemetry defaults
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "json"
	DefaultMetricsEnabled       = true
	DefaultMetricsListenAddress = "127.0.0.1:9090"
	DefaultMetricsPath          = "/metrics"
	DefaultMetricsNamespace     = "retainer"

	DefaultTracingSampler     = "always"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingServiceName = "retainer"
	DefaultTracingTimeout     = 10 * time.Second

	DefaultHealthEnabled       = true
	DefaultHealthLivenessPath  = "/healthz"
	DefaultHealthReadinessPath = "/readyz"
	DefaultHealthCheckTimeout  = 5 * time.Second
)

// DefaultDurationBuckets are the histogram buckets for pipeline durations.
var DefaultDurationBuckets = []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900}

// NewDefaultConfig returns a configuration with every default applied.
// Boolean defaults are only set here, so a file that sets them to false
// keeps them false.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Database.SQLite.WALMode = DefaultSQLiteWALMode
	cfg.Retention.ArchiveSchedule = DefaultArchiveSchedule
	cfg.Retention.JanitorSchedule = DefaultJanitorSchedule
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Telemetry.Health.Enabled = DefaultHealthEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every unset non-boolean field with its default.
// Schedules are not defaulted here: an empty schedule disables the job.
func ApplyDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DefaultDatabaseDriver
	}
	if cfg.Database.SQLite.Path == "" {
		cfg.Database.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Database.SQLite.BusyTimeout == 0 {
		cfg.Database.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = DefaultPostgresPort
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = DefaultPostgresSSLMode
	}
	if cfg.Database.Postgres.MaxOpenConns == 0 {
		cfg.Database.Postgres.MaxOpenConns = DefaultPostgresMaxOpenConns
	}

	// Retention defaults
	if cfg.Retention.ArchivedDataRetentionDays == 0 {
		cfg.Retention.ArchivedDataRetentionDays = DefaultArchivedDataRetentionDays
	}

	// Blob defaults
	if cfg.Blobs.Backend == "" {
		cfg.Blobs.Backend = DefaultBlobsBackend
	}
	if cfg.Blobs.Local.Root == "" {
		cfg.Blobs.Local.Root = DefaultBlobsLocalRoot
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) == 0 {
		cfg.Telemetry.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
	if cfg.Telemetry.Health.LivenessPath == "" {
		cfg.Telemetry.Health.LivenessPath = DefaultHealthLivenessPath
	}
	if cfg.Telemetry.Health.ReadinessPath == "" {
		cfg.Telemetry.Health.ReadinessPath = DefaultHealthReadinessPath
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
