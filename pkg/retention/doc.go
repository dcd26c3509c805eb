// Package retention provides time-based retention and archival for the
// multi-tenant message store. Messages, per-recipient delivery records and
// file attachments older than a realm's retention window are copied into
// parallel archive tables, then removed from the live tables once nothing
// live references them.
//
// # Architecture
//
// The retention system consists of three pipelines built on one storage
// primitive:
//
//  1. Archiver - copies expired rows into the archive twins, then purges
//     live rows with no remaining live references (all realms at once)
//  2. Restorer - copies a realm's archived rows back to the live tables and
//     clears the realm's retention setting
//  3. Janitor - permanently deletes archive rows older than the global
//     archive retention window, deleting orphaned attachment blobs first
//
// Every pipeline is a fixed sequence of steps. Each step is one atomic
// transaction and re-checks its own preconditions ("not already archived",
// "no remaining references"), so a run interrupted at any step can simply
// be started again.
//
// # Entity Graph
//
//	Realm ─┬─ User ─┬─ UserMessage ──► Message ◄── AttachmentMessage ──► Attachment
//	       │        └─ (sender) ─────────┘
//	       └─ message_retention_days (NULL = keep forever)
//
// Each of Message, UserMessage, Attachment and AttachmentMessage has an
// archive twin with the same columns plus archived_date.
//
// # Expiry
//
// A message is expired for a realm when the realm's retention is set and the
// whole number of days since the message was published is at least that
// many days. See Expired.
//
// # Basic Usage
//
//	store, err := storage.Open(ctx, &storage.Config{Driver: "sqlite", Path: "data/retainer.db"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	a := archiver.New(store, nil)
//	result, err := a.ArchiveMessages(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Printf("archived %d messages", result.Rows(archiver.StepArchiveMessages))
package retention
