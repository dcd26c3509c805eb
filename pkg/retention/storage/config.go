package storage

import "time"

// Driver names accepted by Open.
const (
	DriverSQLite     = "sqlite"  // modernc.org/sqlite
	DriverSQLiteCGO  = "sqlite3" // github.com/mattn/go-sqlite3
	DriverPostgreSQL = "pgx"     // github.com/jackc/pgx/v5/stdlib
)

// Config contains configuration for the storage backend.
type Config struct {
	// Driver selects the database/sql driver.
	// Default: "sqlite"
	Driver string

	// Path is the SQLite database file path.
	Path string

	// DSN is the PostgreSQL connection string.
	DSN string

	// MaxOpenConns is the maximum number of open connections.
	// Always 1 for SQLite. Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging on SQLite.
	// Default: true
	WALMode bool

	// BusyTimeout is how long SQLite waits on a locked database.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultConfig returns the default storage configuration.
func DefaultConfig() *Config {
	return &Config{
		Driver:       DriverSQLite,
		Path:         "data/retainer.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}
