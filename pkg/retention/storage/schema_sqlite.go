package storage

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL
	)`,

	// Live tables
	`CREATE TABLE IF NOT EXISTS realms (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		message_retention_days INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		realm_id INTEGER NOT NULL REFERENCES realms(id)
	)`,
	`CREATE TABLE IF NOT EXISTS clients (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS recipients (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type INTEGER NOT NULL,
		type_id INTEGER NOT NULL,
		UNIQUE (type, type_id)
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sender_id INTEGER NOT NULL REFERENCES users(id),
		recipient_id INTEGER NOT NULL REFERENCES recipients(id),
		sending_client_id INTEGER NOT NULL REFERENCES clients(id),
		subject TEXT NOT NULL,
		content TEXT NOT NULL,
		rendered_content TEXT,
		rendered_content_version INTEGER,
		pub_date TIMESTAMP NOT NULL,
		last_edit_time TIMESTAMP,
		edit_history TEXT,
		has_attachment BOOLEAN NOT NULL DEFAULT 0,
		has_image BOOLEAN NOT NULL DEFAULT 0,
		has_link BOOLEAN NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS user_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id),
		message_id INTEGER NOT NULL REFERENCES messages(id),
		flags INTEGER NOT NULL DEFAULT 0,
		UNIQUE (user_id, message_id)
	)`,
	`CREATE TABLE IF NOT EXISTS attachments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_name TEXT NOT NULL,
		path_id TEXT NOT NULL,
		owner_id INTEGER NOT NULL REFERENCES users(id),
		realm_id INTEGER REFERENCES realms(id),
		is_realm_public BOOLEAN NOT NULL DEFAULT 0,
		create_time TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS attachment_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		attachment_id INTEGER NOT NULL REFERENCES attachments(id),
		message_id INTEGER NOT NULL REFERENCES messages(id),
		UNIQUE (attachment_id, message_id)
	)`,

	// Archive twins keep the live primary keys.
	`CREATE TABLE IF NOT EXISTS archive_messages (
		id INTEGER PRIMARY KEY,
		sender_id INTEGER NOT NULL REFERENCES users(id),
		recipient_id INTEGER NOT NULL REFERENCES recipients(id),
		sending_client_id INTEGER NOT NULL REFERENCES clients(id),
		subject TEXT NOT NULL,
		content TEXT NOT NULL,
		rendered_content TEXT,
		rendered_content_version INTEGER,
		pub_date TIMESTAMP NOT NULL,
		last_edit_time TIMESTAMP,
		edit_history TEXT,
		has_attachment BOOLEAN NOT NULL DEFAULT 0,
		has_image BOOLEAN NOT NULL DEFAULT 0,
		has_link BOOLEAN NOT NULL DEFAULT 0,
		archived_date TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS archive_user_messages (
		id INTEGER PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		message_id INTEGER NOT NULL REFERENCES archive_messages(id),
		flags INTEGER NOT NULL DEFAULT 0,
		archived_date TIMESTAMP NOT NULL,
		UNIQUE (user_id, message_id)
	)`,
	`CREATE TABLE IF NOT EXISTS archive_attachments (
		id INTEGER PRIMARY KEY,
		file_name TEXT NOT NULL,
		path_id TEXT NOT NULL,
		owner_id INTEGER NOT NULL REFERENCES users(id),
		realm_id INTEGER REFERENCES realms(id),
		is_realm_public BOOLEAN NOT NULL DEFAULT 0,
		create_time TIMESTAMP NOT NULL,
		archived_date TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS archive_attachment_messages (
		id INTEGER PRIMARY KEY,
		attachment_id INTEGER NOT NULL REFERENCES archive_attachments(id),
		message_id INTEGER NOT NULL REFERENCES archive_messages(id),
		archived_date TIMESTAMP NOT NULL,
		UNIQUE (attachment_id, message_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_messages_pub_date ON messages(pub_date)`,
	`CREATE INDEX IF NOT EXISTS idx_user_messages_message_id ON user_messages(message_id)`,
	`CREATE INDEX IF NOT EXISTS idx_attachment_messages_message_id ON attachment_messages(message_id)`,
	`CREATE INDEX IF NOT EXISTS idx_archive_messages_archived_date ON archive_messages(archived_date)`,
	`CREATE INDEX IF NOT EXISTS idx_archive_user_messages_message_id ON archive_user_messages(message_id)`,
	`CREATE INDEX IF NOT EXISTS idx_archive_user_messages_archived_date ON archive_user_messages(archived_date)`,
	`CREATE INDEX IF NOT EXISTS idx_archive_attachments_archived_date ON archive_attachments(archived_date)`,
	`CREATE INDEX IF NOT EXISTS idx_archive_attachment_messages_message_id ON archive_attachment_messages(message_id)`,
}
