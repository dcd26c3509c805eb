package storage

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL
	)`,

	// Live tables
	`CREATE TABLE IF NOT EXISTS realms (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		message_retention_days INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		realm_id BIGINT NOT NULL REFERENCES realms(id)
	)`,
	`CREATE TABLE IF NOT EXISTS clients (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS recipients (
		id BIGSERIAL PRIMARY KEY,
		type INTEGER NOT NULL,
		type_id BIGINT NOT NULL,
		UNIQUE (type, type_id)
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id BIGSERIAL PRIMARY KEY,
		sender_id BIGINT NOT NULL REFERENCES users(id),
		recipient_id BIGINT NOT NULL REFERENCES recipients(id),
		sending_client_id BIGINT NOT NULL REFERENCES clients(id),
		subject TEXT NOT NULL,
		content TEXT NOT NULL,
		rendered_content TEXT,
		rendered_content_version INTEGER,
		pub_date TIMESTAMPTZ NOT NULL,
		last_edit_time TIMESTAMPTZ,
		edit_history TEXT,
		has_attachment BOOLEAN NOT NULL DEFAULT FALSE,
		has_image BOOLEAN NOT NULL DEFAULT FALSE,
		has_link BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS user_messages (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		message_id BIGINT NOT NULL REFERENCES messages(id),
		flags BIGINT NOT NULL DEFAULT 0,
		UNIQUE (user_id, message_id)
	)`,
	`CREATE TABLE IF NOT EXISTS attachments (
		id BIGSERIAL PRIMARY KEY,
		file_name TEXT NOT NULL,
		path_id TEXT NOT NULL,
		owner_id BIGINT NOT NULL REFERENCES users(id),
		realm_id BIGINT REFERENCES realms(id),
		is_realm_public BOOLEAN NOT NULL DEFAULT FALSE,
		create_time TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS attachment_messages (
		id BIGSERIAL PRIMARY KEY,
		attachment_id BIGINT NOT NULL REFERENCES attachments(id),
		message_id BIGINT NOT NULL REFERENCES messages(id),
		UNIQUE (attachment_id, message_id)
	)`,

	// Archive twins keep the live primary keys.
	`CREATE TABLE IF NOT EXISTS archive_messages (
		id BIGINT PRIMARY KEY,
		sender_id BIGINT NOT NULL REFERENCES users(id),
		recipient_id BIGINT NOT NULL REFERENCES recipients(id),
		sending_client_id BIGINT NOT NULL REFERENCES clients(id),
		subject TEXT NOT NULL,
		content TEXT NOT NULL,
		rendered_content TEXT,
		rendered_content_version INTEGER,
		pub_date TIMESTAMPTZ NOT NULL,
		last_edit_time TIMESTAMPTZ,
		edit_history TEXT,
		has_attachment BOOLEAN NOT NULL DEFAULT FALSE,
		has_image BOOLEAN NOT NULL DEFAULT FALSE,
		has_link BOOLEAN NOT NULL DEFAULT FALSE,
		archived_date TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS archive_user_messages (
		id BIGINT PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		message_id BIGINT NOT NULL REFERENCES archive_messages(id),
		flags BIGINT NOT NULL DEFAULT 0,
		archived_date TIMESTAMPTZ NOT NULL,
		UNIQUE (user_id, message_id)
	)`,
	`CREATE TABLE IF NOT EXISTS archive_attachments (
		id BIGINT PRIMARY KEY,
		file_name TEXT NOT NULL,
		path_id TEXT NOT NULL,
		owner_id BIGINT NOT NULL REFERENCES users(id),
		realm_id BIGINT REFERENCES realms(id),
		is_realm_public BOOLEAN NOT NULL DEFAULT FALSE,
		create_time TIMESTAMPTZ NOT NULL,
		archived_date TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS archive_attachment_messages (
		id BIGINT PRIMARY KEY,
		attachment_id BIGINT NOT NULL REFERENCES archive_attachments(id),
		message_id BIGINT NOT NULL REFERENCES archive_messages(id),
		archived_date TIMESTAMPTZ NOT NULL,
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
