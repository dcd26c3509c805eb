package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema version statements, shared by every dialect once rebound.
const (
	// InsertSchemaVersion records a schema version unless already present.
	// The %s verb takes the dialect's timestamp parameter expression.
	InsertSchemaVersion = `
		INSERT INTO schema_version (version, applied_at)
		SELECT CAST(? AS INTEGER), %s
		WHERE NOT EXISTS (SELECT 1 FROM schema_version WHERE version = ?)
	`

	// GetSchemaVersion retrieves the newest schema version.
	GetSchemaVersion = `SELECT COALESCE(MAX(version), 0) FROM schema_version`
)
