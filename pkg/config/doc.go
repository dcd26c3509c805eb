// Package config loads the retainer configuration.
//
// Configuration comes from a YAML file, then RETAINER_* environment
// variables, then validation:
//
//	database:
//	  driver: sqlite            # sqlite | sqlite3 | pgx
//	  sqlite:
//	    path: data/retainer.db
//	    busy_timeout: 5s
//	    wal_mode: true
//	  postgres:
//	    host: localhost
//	    port: 5432
//	    database: zulip
//	    user: retainer
//	    ssl_mode: require
//	retention:
//	  archive_schedule: "0 2 * * *"
//	  janitor_schedule: "0 4 * * *"
//	  archived_data_retention_days: 30
//	blobs:
//	  backend: local
//	  local:
//	    root: data/uploads
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
//	  metrics:
//	    enabled: true
//	    listen_address: 127.0.0.1:9090
//	    path: /metrics
//	  tracing:
//	    enabled: false
//	    endpoint: localhost:4317
//	    sampler: always
//	  health:
//	    enabled: true
//	    liveness_path: /healthz
//	    readiness_path: /readyz
//
// Environment variables mirror the YAML paths, upper-cased and joined with
// underscores: RETAINER_DATABASE_POSTGRES_PASSWORD,
// RETAINER_RETENTION_ARCHIVED_DATA_RETENTION_DAYS and so on.
//
// Validate collects every problem into a single ValidationError. Watch
// reloads the file on change for long-running processes.
package config
