package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mercator-hq/retainer/pkg/retention"
)

// The writers in this file create live rows the way normal message-send
// activity would. The retention pipelines never call them; they exist for
// ingest tooling and tests.

func (s *Store) insertReturningID(ctx context.Context, name, query string, args ...any) (int64, error) {
	var id int64
	if err := s.db.QueryRowContext(ctx, s.dialect.Rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
		return 0, retention.NewStorageError(s.Backend(), name, err)
	}
	return id, nil
}

// CreateRealm inserts a realm. A nil retentionDays means retain forever.
func (s *Store) CreateRealm(ctx context.Context, name string, retentionDays *int) (int64, error) {
	return s.insertReturningID(ctx, "create_realm",
		`INSERT INTO realms (name, message_retention_days) VALUES (?, ?)`,
		name, nullInt(retentionDays))
}

// SetRealmRetention updates a realm's message_retention_days.
func (s *Store) SetRealmRetention(ctx context.Context, realmID int64, retentionDays *int) error {
	res, err := s.db.ExecContext(ctx, s.dialect.Rebind(
		`UPDATE realms SET message_retention_days = ? WHERE id = ?`),
		nullInt(retentionDays), realmID)
	if err != nil {
		return retention.NewStorageError(s.Backend(), "set_realm_retention", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("realm %d: %w", realmID, retention.ErrRealmNotFound)
	}
	return nil
}

// GetRealm loads a realm by id. It returns an error wrapping
// retention.ErrRealmNotFound when no such realm exists.
func (s *Store) GetRealm(ctx context.Context, realmID int64) (*retention.Realm, error) {
	var (
		realm retention.Realm
		days  sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, s.dialect.Rebind(
		`SELECT id, name, message_retention_days FROM realms WHERE id = ?`), realmID).
		Scan(&realm.ID, &realm.Name, &days)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("realm %d: %w", realmID, retention.ErrRealmNotFound)
	}
	if err != nil {
		return nil, retention.NewStorageError(s.Backend(), "get_realm", err)
	}
	if days.Valid {
		realm.MessageRetentionDays = retention.RetentionDays(int(days.Int64))
	}
	return &realm, nil
}

// CreateUser inserts a user in a realm.
func (s *Store) CreateUser(ctx context.Context, email string, realmID int64) (int64, error) {
	return s.insertReturningID(ctx, "create_user",
		`INSERT INTO users (email, realm_id) VALUES (?, ?)`, email, realmID)
}

// CreateClient inserts a sending client.
func (s *Store) CreateClient(ctx context.Context, name string) (int64, error) {
	return s.insertReturningID(ctx, "create_client",
		`INSERT INTO clients (name) VALUES (?)`, name)
}

// CreateRecipient inserts a recipient.
func (s *Store) CreateRecipient(ctx context.Context, typ int, typeID int64) (int64, error) {
	return s.insertReturningID(ctx, "create_recipient",
		`INSERT INTO recipients (type, type_id) VALUES (?, ?)`, typ, typeID)
}

// CreateMessage inserts a live message and sets m.ID.
func (s *Store) CreateMessage(ctx context.Context, m *retention.Message) error {
	id, err := s.insertReturningID(ctx, "create_message",
		fmt.Sprintf(`INSERT INTO messages (
			sender_id, recipient_id, sending_client_id,
			subject, content, rendered_content, rendered_content_version,
			pub_date, last_edit_time, edit_history,
			has_attachment, has_image, has_link
		) VALUES (?, ?, ?, ?, ?, ?, ?, %s, %s, ?, ?, ?, ?)`, s.dialect.Timestamp(), s.dialect.Timestamp()),
		m.SenderID, m.RecipientID, m.SendingClientID,
		m.Subject, m.Content, nullString(m.RenderedContent), nullInt(m.RenderedContentVersion),
		s.dialect.TimeArg(m.PubDate), s.nullTime(m.LastEditTime), nullString(m.EditHistory),
		m.HasAttachment, m.HasImage, m.HasLink,
	)
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}

// CreateUserMessage inserts a delivery record and sets um.ID.
func (s *Store) CreateUserMessage(ctx context.Context, um *retention.UserMessage) error {
	id, err := s.insertReturningID(ctx, "create_user_message",
		`INSERT INTO user_messages (user_id, message_id, flags) VALUES (?, ?, ?)`,
		um.UserID, um.MessageID, um.Flags)
	if err != nil {
		return err
	}
	um.ID = id
	return nil
}

// CreateAttachment inserts a live attachment and sets a.ID.
func (s *Store) CreateAttachment(ctx context.Context, a *retention.Attachment) error {
	var realmID any
	if a.RealmID != nil {
		realmID = *a.RealmID
	}
	id, err := s.insertReturningID(ctx, "create_attachment",
		fmt.Sprintf(`INSERT INTO attachments (
			file_name, path_id, owner_id, realm_id, is_realm_public, create_time
		) VALUES (?, ?, ?, ?, ?, %s)`, s.dialect.Timestamp()),
		a.FileName, a.PathID, a.OwnerID, realmID, a.IsRealmPublic, s.dialect.TimeArg(a.CreateTime),
	)
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

// LinkAttachment links a live attachment to a live message.
func (s *Store) LinkAttachment(ctx context.Context, attachmentID, messageID int64) (int64, error) {
	return s.insertReturningID(ctx, "link_attachment",
		`INSERT INTO attachment_messages (attachment_id, message_id) VALUES (?, ?)`,
		attachmentID, messageID)
}

// SetMessagePubDate rewrites the publish date of live messages.
func (s *Store) SetMessagePubDate(ctx context.Context, pubDate time.Time, messageIDs ...int64) error {
	for _, id := range messageIDs {
		_, err := s.db.ExecContext(ctx, s.dialect.Rebind(fmt.Sprintf(
			`UPDATE messages SET pub_date = %s WHERE id = ?`, s.dialect.Timestamp())),
			s.dialect.TimeArg(pubDate), id)
		if err != nil {
			return retention.NewStorageError(s.Backend(), "set_message_pub_date", err)
		}
	}
	return nil
}

// SetArchivedDate rewrites archived_date on an archive table. With no ids
// every row is updated.
func (s *Store) SetArchivedDate(ctx context.Context, table Table, archivedDate time.Time, ids ...int64) error {
	if !knownTable(table.Name) {
		return fmt.Errorf("unknown table %q", table.Name)
	}
	query := fmt.Sprintf(`UPDATE %s SET archived_date = %s`, table.Name, s.dialect.Timestamp())
	if len(ids) == 0 {
		if _, err := s.db.ExecContext(ctx, s.dialect.Rebind(query), s.dialect.TimeArg(archivedDate)); err != nil {
			return retention.NewStorageError(s.Backend(), "set_archived_date", err)
		}
		return nil
	}
	for _, id := range ids {
		_, err := s.db.ExecContext(ctx, s.dialect.Rebind(query+` WHERE id = ?`), s.dialect.TimeArg(archivedDate), id)
		if err != nil {
			return retention.NewStorageError(s.Backend(), "set_archived_date", err)
		}
	}
	return nil
}

// GetMessage loads a message from the live table or its archive twin.
func (s *Store) GetMessage(ctx context.Context, table Table, id int64) (*retention.Message, error) {
	if table.Name != Messages.Name && table.Name != ArchiveMessages.Name {
		return nil, fmt.Errorf("table %q does not hold messages", table.Name)
	}

	var (
		m           retention.Message
		rendered    sql.NullString
		renderedVer sql.NullInt64
		pubDate     timeValue
		lastEdit    timeValue
		editHistory sql.NullString
	)
	query := fmt.Sprintf(`SELECT sender_id, recipient_id, sending_client_id,
		subject, content, rendered_content, rendered_content_version,
		pub_date, last_edit_time, edit_history,
		has_attachment, has_image, has_link
		FROM %s WHERE id = ?`, table.Name)
	err := s.db.QueryRowContext(ctx, s.dialect.Rebind(query), id).Scan(
		&m.SenderID, &m.RecipientID, &m.SendingClientID,
		&m.Subject, &m.Content, &rendered, &renderedVer,
		&pubDate, &lastEdit, &editHistory,
		&m.HasAttachment, &m.HasImage, &m.HasLink,
	)
	if err != nil {
		return nil, retention.NewStorageError(s.Backend(), "get_message", err)
	}

	m.ID = id
	m.PubDate = pubDate.Time
	if rendered.Valid {
		m.RenderedContent = &rendered.String
	}
	if renderedVer.Valid {
		v := int(renderedVer.Int64)
		m.RenderedContentVersion = &v
	}
	if lastEdit.Valid {
		t := lastEdit.Time
		m.LastEditTime = &t
	}
	if editHistory.Valid {
		m.EditHistory = &editHistory.String
	}
	return &m, nil
}

func (s *Store) nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return s.dialect.TimeArg(*t)
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

// timeValue scans timestamps stored either natively or as SQLite text.
type timeValue struct {
	Time  time.Time
	Valid bool
}

var timeLayouts = []string{
	sqliteTimeFormat,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
}

func (v *timeValue) Scan(src any) error {
	switch t := src.(type) {
	case nil:
		v.Time, v.Valid = time.Time{}, false
		return nil
	case time.Time:
		v.Time, v.Valid = t.UTC(), true
		return nil
	case string:
		return v.parse(t)
	case []byte:
		return v.parse(string(t))
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

func (v *timeValue) parse(s string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			v.Time, v.Valid = t.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("cannot parse timestamp %q", s)
}
