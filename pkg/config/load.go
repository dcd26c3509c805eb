package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable override.
const EnvPrefix = "RETAINER_"

// LoadConfig loads configuration from a YAML file at the specified path.
// Fields missing from the file keep their defaults. An empty path yields
// the default configuration. The result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}

		ApplyDefaults(cfg)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention RETAINER_SECTION_FIELD (e.g., RETAINER_DATABASE_DRIVER).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Values that fail to parse are ignored.
func applyEnvOverrides(cfg *Config) {
	// Database overrides
	envString("DATABASE_DRIVER", &cfg.Database.Driver)
	envString("DATABASE_SQLITE_PATH", &cfg.Database.SQLite.Path)
	envDuration("DATABASE_SQLITE_BUSY_TIMEOUT", &cfg.Database.SQLite.BusyTimeout)
	envBool("DATABASE_SQLITE_WAL_MODE", &cfg.Database.SQLite.WALMode)
	envString("DATABASE_POSTGRES_HOST", &cfg.Database.Postgres.Host)
	envInt("DATABASE_POSTGRES_PORT", &cfg.Database.Postgres.Port)
	envString("DATABASE_POSTGRES_DATABASE", &cfg.Database.Postgres.Database)
	envString("DATABASE_POSTGRES_USER", &cfg.Database.Postgres.User)
	envString("DATABASE_POSTGRES_PASSWORD", &cfg.Database.Postgres.Password)
	envString("DATABASE_POSTGRES_SSL_MODE", &cfg.Database.Postgres.SSLMode)
	envInt("DATABASE_POSTGRES_MAX_OPEN_CONNS", &cfg.Database.Postgres.MaxOpenConns)

	// Retention overrides
	envString("RETENTION_ARCHIVE_SCHEDULE", &cfg.Retention.ArchiveSchedule)
	envString("RETENTION_JANITOR_SCHEDULE", &cfg.Retention.JanitorSchedule)
	envInt("RETENTION_ARCHIVED_DATA_RETENTION_DAYS", &cfg.Retention.ArchivedDataRetentionDays)

	// Blob overrides
	envString("BLOBS_BACKEND", &cfg.Blobs.Backend)
	envString("BLOBS_LOCAL_ROOT", &cfg.Blobs.Local.Root)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_LOGGING_ADD_SOURCE", &cfg.Telemetry.Logging.AddSource)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_LISTEN_ADDRESS", &cfg.Telemetry.Metrics.ListenAddress)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_SAMPLER", &cfg.Telemetry.Tracing.Sampler)
	envFloat("TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	envBool("TELEMETRY_TRACING_INSECURE", &cfg.Telemetry.Tracing.Insecure)
	envBool("TELEMETRY_HEALTH_ENABLED", &cfg.Telemetry.Health.Enabled)
}

func envString(name string, dst *string) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		*dst = val
	}
}

func envInt(name string, dst *int) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envBool(name string, dst *bool) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envFloat(name string, dst *float64) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
