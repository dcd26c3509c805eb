package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/adhocore/gronx"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "database.driver").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateDatabase(&cfg.Database)...)
	errs = append(errs, validateRetention(&cfg.Retention)...)
	errs = append(errs, validateBlobs(&cfg.Blobs)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateDatabase validates database configuration.
func validateDatabase(cfg *DatabaseConfig) []FieldError {
	var errs []FieldError

	switch cfg.Driver {
	case "sqlite", "sqlite3":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "database.sqlite.path",
				Message: "path is required for SQLite",
			})
		}
		if cfg.SQLite.BusyTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "database.sqlite.busy_timeout",
				Message: "busy timeout must be non-negative",
			})
		}
	case "pgx":
		if cfg.Postgres.Host == "" {
			errs = append(errs, FieldError{
				Field:   "database.postgres.host",
				Message: "host is required for PostgreSQL",
			})
		}
		if cfg.Postgres.Database == "" {
			errs = append(errs, FieldError{
				Field:   "database.postgres.database",
				Message: "database name is required for PostgreSQL",
			})
		}
		if cfg.Postgres.Port <= 0 || cfg.Postgres.Port > 65535 {
			errs = append(errs, FieldError{
				Field:   "database.postgres.port",
				Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Postgres.Port),
			})
		}
		if !contains([]string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}, cfg.Postgres.SSLMode) {
			errs = append(errs, FieldError{
				Field:   "database.postgres.ssl_mode",
				Message: fmt.Sprintf("invalid SSL mode %q", cfg.Postgres.SSLMode),
			})
		}
		if cfg.Postgres.MaxOpenConns < 0 {
			errs = append(errs, FieldError{
				Field:   "database.postgres.max_open_conns",
				Message: "max open connections must be non-negative",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "database.driver",
			Message: fmt.Sprintf("invalid driver %q (must be sqlite, sqlite3 or pgx)", cfg.Driver),
		})
	}

	return errs
}

// validateRetention validates schedules and the archive retention window.
func validateRetention(cfg *RetentionConfig) []FieldError {
	var errs []FieldError

	gron := gronx.New()
	if cfg.ArchiveSchedule != "" && !gron.IsValid(cfg.ArchiveSchedule) {
		errs = append(errs, FieldError{
			Field:   "retention.archive_schedule",
			Message: fmt.Sprintf("invalid cron expression %q", cfg.ArchiveSchedule),
		})
	}
	if cfg.JanitorSchedule != "" && !gron.IsValid(cfg.JanitorSchedule) {
		errs = append(errs, FieldError{
			Field:   "retention.janitor_schedule",
			Message: fmt.Sprintf("invalid cron expression %q", cfg.JanitorSchedule),
		})
	}

	if cfg.ArchivedDataRetentionDays <= 0 {
		errs = append(errs, FieldError{
			Field:   "retention.archived_data_retention_days",
			Message: "archived data retention days must be positive",
		})
	}

	return errs
}

// validateBlobs validates blob storage configuration.
func validateBlobs(cfg *BlobsConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "local":
		if cfg.Local.Root == "" {
			errs = append(errs, FieldError{
				Field:   "blobs.local.root",
				Message: "root directory is required for the local backend",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "blobs.backend",
			Message: fmt.Sprintf("invalid backend %q (must be local)", cfg.Backend),
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	if !contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(cfg.Logging.Level)) {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be debug, info, warn or error)", cfg.Logging.Level),
		})
	}
	if !contains([]string{"json", "text"}, cfg.Logging.Format) {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be json or text)", cfg.Logging.Format),
		})
	}

	// The health endpoints share the metrics listener.
	if cfg.Metrics.Enabled || cfg.Health.Enabled {
		if _, _, err := net.SplitHostPort(cfg.Metrics.ListenAddress); err != nil {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.listen_address",
				Message: fmt.Sprintf("invalid listen address: %v", err),
			})
		}
	}
	if cfg.Metrics.Enabled {
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "path must start with /",
			})
		}
	}

	if cfg.Tracing.Enabled {
		if !contains([]string{"always", "never", "ratio"}, cfg.Tracing.Sampler) {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("invalid sampler %q (must be always, never or ratio)", cfg.Tracing.Sampler),
			})
		}
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sample_ratio",
				Message: fmt.Sprintf("sample ratio must be between 0 and 1, got %g", cfg.Tracing.SampleRatio),
			})
		}
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.endpoint",
				Message: "endpoint is required when tracing is enabled",
			})
		}
	}

	if cfg.Health.Enabled {
		for field, path := range map[string]string{
			"telemetry.health.liveness_path":  cfg.Health.LivenessPath,
			"telemetry.health.readiness_path": cfg.Health.ReadinessPath,
		} {
			if !strings.HasPrefix(path, "/") {
				errs = append(errs, FieldError{
					Field:   field,
					Message: "path must start with /",
				})
			}
		}
		if cfg.Health.LivenessPath == cfg.Metrics.Path || cfg.Health.ReadinessPath == cfg.Metrics.Path {
			errs = append(errs, FieldError{
				Field:   "telemetry.health",
				Message: "health paths must differ from the metrics path",
			})
		}
	}

	return errs
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
