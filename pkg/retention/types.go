package retention

import "time"

// Realm is an isolated customer organization. It owns users, messages and
// a retention policy.
type Realm struct {
	ID   int64
	Name string

	// MessageRetentionDays is the expiry window in days.
	// nil means messages are retained forever.
	MessageRetentionDays *int
}

// User belongs to exactly one realm.
type User struct {
	ID      int64
	Email   string
	RealmID int64
}

// Client identifies the sending client of a message (web, mobile, API).
type Client struct {
	ID   int64
	Name string
}

// Recipient is the addressee of a message: a user, a stream or a huddle.
type Recipient struct {
	ID     int64
	Type   int
	TypeID int64
}

// Message is a posted message.
type Message struct {
	ID                     int64
	SenderID               int64
	RecipientID            int64
	SendingClientID        int64
	Subject                string
	Content                string
	RenderedContent        *string
	RenderedContentVersion *int
	PubDate                time.Time
	LastEditTime           *time.Time
	EditHistory            *string
	HasAttachment          bool
	HasImage               bool
	HasLink                bool
}

// UserMessage flags.
const (
	FlagRead int64 = 1 << iota
	FlagStarred
	FlagCollapsed
	FlagMentioned
	FlagWildcardMentioned
	FlagSummarizeInHome
	FlagSummarizeInStream
	FlagForceExpand
	FlagForceCollapse
	FlagHasAlertWord
	FlagHistorical
	FlagIsMeMessage
)

// UserMessage is the delivery record linking one message to one recipient
// user. It is unique per (user, message).
type UserMessage struct {
	ID        int64
	UserID    int64
	MessageID int64
	Flags     int64
}

// Attachment is an uploaded file owned by a user and optionally scoped to a
// realm. It is linked to zero or more messages through AttachmentMessage.
type Attachment struct {
	ID            int64
	FileName      string
	PathID        string
	OwnerID       int64
	RealmID       *int64
	IsRealmPublic bool
	CreateTime    time.Time
}

// AttachmentMessage is one row of the attachment<->message link table.
type AttachmentMessage struct {
	ID           int64
	AttachmentID int64
	MessageID    int64
}

// BlobRef identifies the stored file behind an archived attachment.
type BlobRef struct {
	AttachmentID int64
	PathID       string
}
