package storage

// Table describes one live table or archive twin. Columns is the explicit
// field list shared by a live table and its twin; archived_date is not part
// of it.
type Table struct {
	Name    string
	Columns []string
}

// Live tables.
var (
	Messages = Table{
		Name: "messages",
		Columns: []string{
			"id", "sender_id", "recipient_id", "sending_client_id",
			"subject", "content", "rendered_content", "rendered_content_version",
			"pub_date", "last_edit_time", "edit_history",
			"has_attachment", "has_image", "has_link",
		},
	}

	UserMessages = Table{
		Name:    "user_messages",
		Columns: []string{"id", "user_id", "message_id", "flags"},
	}

	Attachments = Table{
		Name: "attachments",
		Columns: []string{
			"id", "file_name", "path_id", "owner_id", "realm_id",
			"is_realm_public", "create_time",
		},
	}

	AttachmentMessages = Table{
		Name:    "attachment_messages",
		Columns: []string{"id", "attachment_id", "message_id"},
	}
)

// Archive twins.
var (
	ArchiveMessages           = Messages.Archive()
	ArchiveUserMessages       = UserMessages.Archive()
	ArchiveAttachments        = Attachments.Archive()
	ArchiveAttachmentMessages = AttachmentMessages.Archive()
)

// Archive returns the archive twin of t.
func (t Table) Archive() Table {
	return Table{Name: "archive_" + t.Name, Columns: t.Columns}
}

// CountedTables lists the tables reported by Counts, live tables first.
var CountedTables = []string{
	Messages.Name,
	UserMessages.Name,
	Attachments.Name,
	AttachmentMessages.Name,
	ArchiveMessages.Name,
	ArchiveUserMessages.Name,
	ArchiveAttachments.Name,
	ArchiveAttachmentMessages.Name,
}

func knownTable(name string) bool {
	switch name {
	case "realms", "users", "clients", "recipients":
		return true
	}
	for _, t := range CountedTables {
		if t == name {
			return true
		}
	}
	return false
}
