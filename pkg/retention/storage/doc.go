// Package storage provides the relational backend for the retention
// pipelines.
//
// # Backends
//
// Three database/sql drivers are supported:
//
//   - "sqlite"  - modernc.org/sqlite, pure Go (default)
//   - "sqlite3" - github.com/mattn/go-sqlite3, cgo
//   - "pgx"     - github.com/jackc/pgx/v5 stdlib, PostgreSQL
//
// Both SQLite drivers share one dialect. SQLite connections are limited to a
// single writer, foreign keys are enabled and WAL mode is on by default.
//
// # Statements
//
// Pipelines write SQL with '?' placeholders and dialect fragments
// (Dialect.Timestamp, Dialect.DaysSince). The store rebinds placeholders for
// PostgreSQL before execution.
//
// # Move Primitive
//
// Move describes "copy every row of table A matching a join predicate into
// table B, skipping rows already in B, one row per primary key":
//
//	INSERT INTO archive_messages (id, ..., archived_date)
//	SELECT m.id, ..., ?
//	FROM messages m
//	INNER JOIN user_messages um ON um.message_id = m.id
//	...
//	WHERE ... AND m.id NOT IN (SELECT id FROM archive_messages)
//	GROUP BY m.id
//
// Every archive, restore and purge step is executed with ExecTx, one
// transaction per step.
package storage
