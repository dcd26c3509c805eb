package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"mercator-hq/retainer/pkg/retention"
)

// Store is the relational store the retention pipelines run against. It
// owns the connection pool and the SQL dialect of the configured driver.
type Store struct {
	db      *sql.DB
	config  *Config
	dialect Dialect
	logger  *slog.Logger
}

// Statement is one SQL statement executed by ExecTx. Query uses '?'
// placeholders; the store rebinds it for the active dialect.
type Statement struct {
	// Name identifies the statement in errors and logs.
	Name  string
	Query string
	Args  []any
}

// Open connects to the database described by config. It does not create
// the schema; call Migrate for that.
func Open(ctx context.Context, config *Config) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}

	dialect, err := DialectFor(config.Driver)
	if err != nil {
		return nil, retention.NewStorageError(config.Driver, "open", err)
	}

	dsn, err := dataSourceName(config)
	if err != nil {
		return nil, retention.NewStorageError(dialect.Name(), "open", err)
	}

	db, err := sql.Open(config.Driver, dsn)
	if err != nil {
		return nil, retention.NewStorageError(dialect.Name(), "open", err)
	}

	// SQLite allows a single writer; a pool of one keeps every step on the
	// same connection and avoids SQLITE_BUSY between our own statements.
	if dialect.Name() == "sqlite" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		if config.MaxOpenConns > 0 {
			db.SetMaxOpenConns(config.MaxOpenConns)
		}
		if config.MaxIdleConns > 0 {
			db.SetMaxIdleConns(config.MaxIdleConns)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, retention.NewStorageError(dialect.Name(), "ping", err)
	}

	s := &Store{
		db:      db,
		config:  config,
		dialect: dialect,
		logger:  slog.Default().With("component", "retention.storage"),
	}

	s.logger.Info("storage opened",
		"driver", config.Driver,
		"dialect", dialect.Name(),
		"path", config.Path,
	)

	return s, nil
}

// dataSourceName builds the driver-specific DSN. Foreign keys are always
// enforced on SQLite.
func dataSourceName(config *Config) (string, error) {
	switch config.Driver {
	case DriverSQLite:
		if config.Path == "" {
			return "", errors.New("sqlite path is required")
		}
		q := url.Values{}
		q.Add("_pragma", "foreign_keys(1)")
		q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", config.BusyTimeout.Milliseconds()))
		if config.WALMode {
			q.Add("_pragma", "journal_mode(WAL)")
		}
		return "file:" + config.Path + "?" + q.Encode(), nil
	case DriverSQLiteCGO:
		if config.Path == "" {
			return "", errors.New("sqlite path is required")
		}
		q := url.Values{}
		q.Set("_foreign_keys", "on")
		q.Set("_busy_timeout", fmt.Sprintf("%d", config.BusyTimeout.Milliseconds()))
		if config.WALMode {
			q.Set("_journal_mode", "WAL")
		}
		return "file:" + config.Path + "?" + q.Encode(), nil
	case DriverPostgreSQL:
		if config.DSN == "" {
			return "", errors.New("postgres dsn is required")
		}
		return config.DSN, nil
	default:
		return "", fmt.Errorf("unsupported driver %q", config.Driver)
	}
}

// Migrate creates the live and archive tables if they do not exist and
// verifies the schema version.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.Schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return retention.NewStorageError(s.dialect.Name(), "create_schema", err)
		}
	}
	s.logger.Debug("database schema created")

	_, err := s.db.ExecContext(ctx,
		s.dialect.Rebind(fmt.Sprintf(InsertSchemaVersion, s.dialect.Timestamp())),
		SchemaVersion, s.dialect.TimeArg(time.Now()), SchemaVersion)
	if err != nil {
		return retention.NewStorageError(s.dialect.Name(), "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, GetSchemaVersion).Scan(&version); err != nil {
		return retention.NewStorageError(s.dialect.Name(), "get_schema_version", err)
	}
	if version != SchemaVersion {
		return retention.NewStorageError(s.dialect.Name(), "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)
	return nil
}

// Dialect returns the SQL dialect of the store.
func (s *Store) Dialect() Dialect { return s.dialect }

// Backend returns the dialect name, used as the backend label in errors.
func (s *Store) Backend() string { return s.dialect.Name() }

// DB exposes the underlying pool.
func (s *Store) DB() *sql.DB { return s.db }

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return retention.NewStorageError(s.Backend(), "ping", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return retention.NewStorageError(s.Backend(), "close", err)
	}
	s.logger.Info("storage closed")
	return nil
}

// ExecTx runs stmts in order inside a single transaction and returns the
// rows affected by each. Any failure rolls the whole transaction back.
func (s *Store) ExecTx(ctx context.Context, stmts ...Statement) ([]int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, retention.NewStorageError(s.Backend(), "begin", err)
	}
	defer tx.Rollback()

	affected := make([]int64, len(stmts))
	for i, stmt := range stmts {
		res, err := tx.ExecContext(ctx, s.dialect.Rebind(stmt.Query), stmt.Args...)
		if err != nil {
			return nil, retention.NewStorageError(s.Backend(), stmt.Name, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, retention.NewStorageError(s.Backend(), stmt.Name, err)
		}
		affected[i] = n
	}

	if err := tx.Commit(); err != nil {
		return nil, retention.NewStorageError(s.Backend(), "commit", err)
	}
	return affected, nil
}

// QueryInt64 runs a query returning a single integer.
func (s *Store) QueryInt64(ctx context.Context, name, query string, args ...any) (int64, error) {
	var n sql.NullInt64
	if err := s.db.QueryRowContext(ctx, s.dialect.Rebind(query), args...).Scan(&n); err != nil {
		return 0, retention.NewStorageError(s.Backend(), name, err)
	}
	return n.Int64, nil
}

// QueryBlobs runs a query selecting (id, path_id) pairs of attachments.
func (s *Store) QueryBlobs(ctx context.Context, name, query string, args ...any) ([]retention.BlobRef, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, retention.NewStorageError(s.Backend(), name, err)
	}
	defer rows.Close()

	var refs []retention.BlobRef
	for rows.Next() {
		var ref retention.BlobRef
		if err := rows.Scan(&ref.AttachmentID, &ref.PathID); err != nil {
			return nil, retention.NewStorageError(s.Backend(), name, err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, retention.NewStorageError(s.Backend(), name, err)
	}
	return refs, nil
}
