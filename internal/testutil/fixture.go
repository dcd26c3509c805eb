package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"mercator-hq/retainer/pkg/retention"
	"mercator-hq/retainer/pkg/retention/storage"
)

// Fixture creates live rows for tests. Every helper fails the test on
// error.
type Fixture struct {
	t     *testing.T
	ctx   context.Context
	Store *storage.Store

	clientID    int64
	recipientID int64
	seq         int
}

// NewFixture returns a fixture writing to store.
func NewFixture(t *testing.T, store *storage.Store) *Fixture {
	t.Helper()

	f := &Fixture{t: t, ctx: context.Background(), Store: store}

	var err error
	if f.clientID, err = store.CreateClient(f.ctx, "website"); err != nil {
		t.Fatalf("CreateClient() error = %v", err)
	}
	if f.recipientID, err = store.CreateRecipient(f.ctx, 2, 1); err != nil {
		t.Fatalf("CreateRecipient() error = %v", err)
	}
	return f
}

func (f *Fixture) next() int {
	f.seq++
	return f.seq
}

// Realm creates a realm with the given retention in days; nil retains
// forever.
func (f *Fixture) Realm(name string, retentionDays *int) int64 {
	f.t.Helper()
	id, err := f.Store.CreateRealm(f.ctx, name, retentionDays)
	if err != nil {
		f.t.Fatalf("CreateRealm(%q) error = %v", name, err)
	}
	return id
}

// User creates a user in a realm.
func (f *Fixture) User(realmID int64) int64 {
	f.t.Helper()
	id, err := f.Store.CreateUser(f.ctx, fmt.Sprintf("user%d@realm%d.test", f.next(), realmID), realmID)
	if err != nil {
		f.t.Fatalf("CreateUser() error = %v", err)
	}
	return id
}

// Message creates a message from sender published at pubDate, delivered to
// every recipient user.
func (f *Fixture) Message(senderID int64, pubDate time.Time, recipients ...int64) int64 {
	f.t.Helper()
	m := &retention.Message{
		SenderID:        senderID,
		RecipientID:     f.recipientID,
		SendingClientID: f.clientID,
		Subject:         "test",
		Content:         fmt.Sprintf("message %d", f.next()),
		PubDate:         pubDate,
	}
	if err := f.Store.CreateMessage(f.ctx, m); err != nil {
		f.t.Fatalf("CreateMessage() error = %v", err)
	}
	for _, userID := range recipients {
		um := &retention.UserMessage{UserID: userID, MessageID: m.ID}
		if err := f.Store.CreateUserMessage(f.ctx, um); err != nil {
			f.t.Fatalf("CreateUserMessage() error = %v", err)
		}
	}
	return m.ID
}

// Attachment creates an attachment owned by ownerID and links it to every
// message.
func (f *Fixture) Attachment(ownerID int64, pathID string, messageIDs ...int64) int64 {
	f.t.Helper()
	a := &retention.Attachment{
		FileName:   pathID,
		PathID:     pathID,
		OwnerID:    ownerID,
		CreateTime: time.Now(),
	}
	if err := f.Store.CreateAttachment(f.ctx, a); err != nil {
		f.t.Fatalf("CreateAttachment() error = %v", err)
	}
	for _, messageID := range messageIDs {
		if _, err := f.Store.LinkAttachment(f.ctx, a.ID, messageID); err != nil {
			f.t.Fatalf("LinkAttachment() error = %v", err)
		}
	}
	return a.ID
}

// Count returns the row count of a table.
func (f *Fixture) Count(table string) int64 {
	f.t.Helper()
	n, err := f.Store.Count(f.ctx, table)
	if err != nil {
		f.t.Fatalf("Count(%q) error = %v", table, err)
	}
	return n
}

// IDs returns the ids of a table.
func (f *Fixture) IDs(table string) []int64 {
	f.t.Helper()
	ids, err := f.Store.IDs(f.ctx, table)
	if err != nil {
		f.t.Fatalf("IDs(%q) error = %v", table, err)
	}
	return ids
}

// DaysAgo returns now minus days whole days.
func DaysAgo(now time.Time, days int) time.Time {
	return now.Add(-time.Duration(days) * retention.Day)
}
