package storage

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// sqliteTimeFormat is how timestamps are written to SQLite. Both SQLite
// drivers parse it back into time.Time for TIMESTAMP columns and the
// julianday() function accepts it.
const sqliteTimeFormat = "2006-01-02 15:04:05.000000"

// Dialect hides the SQL differences between SQLite and PostgreSQL that the
// retention statements care about.
type Dialect interface {
	// Name returns "sqlite" or "postgres".
	Name() string

	// Rebind rewrites '?' placeholders into the dialect's bind syntax.
	Rebind(query string) string

	// Timestamp returns the expression for a timestamp bind parameter.
	Timestamp() string

	// TimeArg converts t into the bind value matching Timestamp.
	TimeArg(t time.Time) any

	// DaysSince returns an expression for the whole number of days from
	// column to nowExpr, rounded down.
	DaysSince(nowExpr, column string) string

	// Schema returns the statements that create the schema.
	Schema() []string
}

// DialectFor returns the dialect used by the named driver.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case DriverSQLite, DriverSQLiteCGO:
		return sqliteDialect{}, nil
	case DriverPostgreSQL:
		return postgresDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q (supported: sqlite, sqlite3, pgx)", driver)
	}
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) Rebind(query string) string { return query }

func (sqliteDialect) Timestamp() string { return "?" }

func (sqliteDialect) TimeArg(t time.Time) any {
	return t.UTC().Format(sqliteTimeFormat)
}

// DaysSince rounds the julianday difference to whole milliseconds before
// dividing, so that an age of exactly N days never comes out as N-1.
func (sqliteDialect) DaysSince(nowExpr, column string) string {
	return fmt.Sprintf("(CAST(ROUND((julianday(%s) - julianday(%s)) * 86400000) AS INTEGER) / 86400000)", nowExpr, column)
}

func (sqliteDialect) Schema() []string { return sqliteSchema }

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

// Rebind replaces each '?' with $1, $2, ... in order.
func (postgresDialect) Rebind(query string) string {
	var sb strings.Builder
	sb.Grow(len(query) + 16)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteByte(query[i])
	}
	return sb.String()
}

func (postgresDialect) Timestamp() string { return "CAST(? AS TIMESTAMPTZ)" }

func (postgresDialect) TimeArg(t time.Time) any { return t.UTC() }

func (postgresDialect) DaysSince(nowExpr, column string) string {
	return fmt.Sprintf("EXTRACT(DAY FROM (%s - %s))", nowExpr, column)
}

func (postgresDialect) Schema() []string { return postgresSchema }
