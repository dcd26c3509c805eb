// Package janitor permanently deletes archived data. DeleteExpiredArchivedData
// sweeps rows older than the archive retention window across all realms;
// DeleteArchivedDataByRealm drops one realm's archive regardless of age.
// Orphaned attachments have their blobs deleted before their rows.
package janitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"mercator-hq/retainer/pkg/blobstore"
	"mercator-hq/retainer/pkg/retention"
	"mercator-hq/retainer/pkg/retention/storage"
	"mercator-hq/retainer/pkg/telemetry/tracing"
)

// Step names of DeleteExpiredArchivedData, in execution order.
const (
	StepDeleteArchiveUserMessages = "delete_archive_user_messages"
	StepDeleteArchiveMessages     = "delete_archive_messages"
	StepDeleteArchiveAttachments  = "delete_archive_attachments"
)

// Step names of DeleteArchivedDataByRealm, in execution order.
const (
	StepCheckRealm                     = "check_realm"
	StepDeleteRealmArchiveUserMessages = "delete_realm_archive_user_messages"
	StepDeleteRealmArchiveMessages     = "delete_realm_archive_messages"
	StepDeleteRealmArchiveAttachments  = "delete_realm_archive_attachments"
)

// Blob deletion results reported to the Recorder.
const (
	BlobDeleted = "deleted"
	BlobFailed  = "failed"
)

// Config contains configuration for the janitor.
type Config struct {
	// ArchivedDataRetentionDays is how long archive rows are kept before
	// they are deleted for good.
	// Default: 30
	ArchivedDataRetentionDays int
}

// DefaultConfig returns the default janitor configuration.
func DefaultConfig() Config {
	return Config{ArchivedDataRetentionDays: 30}
}

// Janitor deletes archive rows and the blobs of orphaned archived
// attachments.
type Janitor struct {
	store  *storage.Store
	blobs  blobstore.Deleter
	config Config
	opts   retention.Options
	logger *slog.Logger
}

// New creates a Janitor. opts may be nil.
func New(store *storage.Store, blobs blobstore.Deleter, config Config, opts *retention.Options) (*Janitor, error) {
	if config.ArchivedDataRetentionDays <= 0 {
		return nil, fmt.Errorf("archived data retention days must be positive, got %d", config.ArchivedDataRetentionDays)
	}
	if blobs == nil {
		return nil, errors.New("blob deleter is required")
	}

	o := opts.WithDefaults()
	return &Janitor{
		store:  store,
		blobs:  blobs,
		config: config,
		opts:   o,
		logger: o.Logger.With("component", "retention.janitor"),
	}, nil
}

// Cutoff returns the archived_date before which rows are deleted by a run
// starting at now.
func (j *Janitor) Cutoff(now time.Time) time.Time {
	return now.Add(-time.Duration(j.config.ArchivedDataRetentionDays) * retention.Day)
}

// DeleteExpiredArchivedData deletes archive rows archived before the
// retention window, children first:
//
//  1. archive user messages
//  2. archive messages left without archive user messages, with their
//     archive link rows
//  3. archive attachments left without archive link rows and with no live
//     attachment of the same id; each blob is deleted before its row
//
// A blob deletion error stops the run and keeps that attachment's row, so
// the next run retries it.
func (j *Janitor) DeleteExpiredArchivedData(ctx context.Context) (*retention.Result, error) {
	cutoff := j.Cutoff(j.opts.Now())

	runner := &retention.Runner{
		Pipeline: retention.PipelineJanitor,
		Options:  j.opts,
		Logger:   j.logger,
	}
	return runner.Run(ctx, j.expiredSteps(cutoff), "cutoff", cutoff)
}

func (j *Janitor) expiredSteps(cutoff time.Time) []retention.Step {
	d := j.store.Dialect()
	ts := d.Timestamp()
	at := d.TimeArg(cutoff)

	return []retention.Step{
		j.exec(StepDeleteArchiveUserMessages, storage.Delete{
			Name:  StepDeleteArchiveUserMessages,
			Table: storage.ArchiveUserMessages,
			Where: []string{"archived_date < " + ts},
			Args:  []any{at},
		}.Statement()),

		j.exec(StepDeleteArchiveMessages,
			storage.Delete{
				Name:  "delete_archive_message_links",
				Table: storage.ArchiveAttachmentMessages,
				Where: []string{`message_id IN (
					SELECT am.id FROM archive_messages am
					WHERE am.archived_date < ` + ts + `
					  AND NOT EXISTS (SELECT 1 FROM archive_user_messages aum WHERE aum.message_id = am.id))`},
				Args: []any{at},
			}.Statement(),
			storage.Delete{
				Name:  StepDeleteArchiveMessages,
				Table: storage.ArchiveMessages,
				Where: []string{
					"archived_date < " + ts,
					"NOT EXISTS (SELECT 1 FROM archive_user_messages aum WHERE aum.message_id = archive_messages.id)",
				},
				Args: []any{at},
			}.Statement(),
		),

		{
			Name: StepDeleteArchiveAttachments,
			Run: func(ctx context.Context) (int64, error) {
				refs, err := j.store.QueryBlobs(ctx, "find_expired_archive_attachments", `
					SELECT aa.id, aa.path_id FROM archive_attachments aa
					WHERE aa.archived_date < `+ts+`
					  AND NOT EXISTS (SELECT 1 FROM archive_attachment_messages al WHERE al.attachment_id = aa.id)
					  AND NOT EXISTS (SELECT 1 FROM attachments a WHERE a.id = aa.id)
					ORDER BY aa.id`, at)
				if err != nil {
					return 0, err
				}
				return j.purgeAttachments(ctx, refs, false)
			},
		},
	}
}

// DeleteArchivedDataByRealm deletes one realm's archived data whatever its
// age: the archive user messages of the realm's users, then the archive
// messages they sent that no archive user message still references, then
// the realm's archive attachments left without archive link rows. The blob
// of such an attachment is deleted only when no live attachment shares its
// id. An unknown realm fails with retention.ErrRealmNotFound before any
// row is touched.
func (j *Janitor) DeleteArchivedDataByRealm(ctx context.Context, realmID int64) (*retention.Result, error) {
	runner := &retention.Runner{
		Pipeline: retention.PipelinePurge,
		Options:  j.opts,
		Logger:   j.logger,
	}
	return runner.Run(ctx, j.realmSteps(realmID), "realm_id", realmID)
}

func (j *Janitor) realmSteps(realmID int64) []retention.Step {
	const realmUsers = "SELECT id FROM users WHERE realm_id = ?"

	return []retention.Step{
		{
			Name: StepCheckRealm,
			Run: func(ctx context.Context) (int64, error) {
				_, err := j.store.GetRealm(ctx, realmID)
				return 0, err
			},
		},

		j.exec(StepDeleteRealmArchiveUserMessages, storage.Delete{
			Name:  StepDeleteRealmArchiveUserMessages,
			Table: storage.ArchiveUserMessages,
			Where: []string{"user_id IN (" + realmUsers + ")"},
			Args:  []any{realmID},
		}.Statement()),

		j.exec(StepDeleteRealmArchiveMessages,
			storage.Delete{
				Name:  "delete_realm_archive_message_links",
				Table: storage.ArchiveAttachmentMessages,
				Where: []string{`message_id IN (
					SELECT am.id FROM archive_messages am
					WHERE am.sender_id IN (` + realmUsers + `)
					  AND NOT EXISTS (SELECT 1 FROM archive_user_messages aum WHERE aum.message_id = am.id))`},
				Args: []any{realmID},
			}.Statement(),
			storage.Delete{
				Name:  StepDeleteRealmArchiveMessages,
				Table: storage.ArchiveMessages,
				Where: []string{
					"sender_id IN (" + realmUsers + ")",
					"NOT EXISTS (SELECT 1 FROM archive_user_messages aum WHERE aum.message_id = archive_messages.id)",
				},
				Args: []any{realmID},
			}.Statement(),
		),

		{
			Name: StepDeleteRealmArchiveAttachments,
			Run: func(ctx context.Context) (int64, error) {
				refs, err := j.store.QueryBlobs(ctx, "find_realm_archive_attachments", `
					SELECT aa.id, aa.path_id FROM archive_attachments aa
					WHERE (aa.owner_id IN (`+realmUsers+`) OR aa.realm_id = ?)
					  AND NOT EXISTS (SELECT 1 FROM archive_attachment_messages al WHERE al.attachment_id = aa.id)
					ORDER BY aa.id`, realmID, realmID)
				if err != nil {
					return 0, err
				}
				return j.purgeAttachments(ctx, refs, true)
			},
		},
	}
}

// purgeAttachments deletes each attachment's blob, then its archive row,
// one attachment at a time. With checkLive set, the blob is kept when a
// live attachment with the same id still exists. It stops at the first
// blob error; attachments purged before it stay purged.
func (j *Janitor) purgeAttachments(ctx context.Context, refs []retention.BlobRef, checkLive bool) (int64, error) {
	var purged int64
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return purged, err
		}

		deleteBlob := true
		if checkLive {
			live, err := j.store.QueryInt64(ctx, "check_live_attachment",
				`SELECT COUNT(*) FROM attachments WHERE id = ?`, ref.AttachmentID)
			if err != nil {
				return purged, err
			}
			deleteBlob = live == 0
		}

		if deleteBlob {
			if err := j.blobs.DeleteBlob(ctx, ref.PathID); err != nil {
				j.opts.Recorder.RecordBlobDeletion(BlobFailed)
				tracing.AddBlobEvent(trace.SpanFromContext(ctx), ref.PathID, BlobFailed)
				j.logger.WarnContext(ctx, "blob deletion failed, keeping archive row",
					"attachment_id", ref.AttachmentID,
					"path_id", ref.PathID,
					"error", err,
				)
				return purged, retention.NewBlobError(ref.PathID, err)
			}
			j.opts.Recorder.RecordBlobDeletion(BlobDeleted)
			tracing.AddBlobEvent(trace.SpanFromContext(ctx), ref.PathID, BlobDeleted)
		}

		affected, err := j.store.ExecTx(ctx, storage.Delete{
			Name:  "delete_archive_attachment",
			Table: storage.ArchiveAttachments,
			Where: []string{
				"id = ?",
				"NOT EXISTS (SELECT 1 FROM archive_attachment_messages al WHERE al.attachment_id = archive_attachments.id)",
			},
			Args: []any{ref.AttachmentID},
		}.Statement())
		if err != nil {
			return purged, err
		}
		purged += affected[0]
	}
	return purged, nil
}

func (j *Janitor) exec(name string, stmts ...storage.Statement) retention.Step {
	return retention.Step{
		Name: name,
		Run: func(ctx context.Context) (int64, error) {
			affected, err := j.store.ExecTx(ctx, stmts...)
			if err != nil {
				return 0, err
			}
			return affected[len(affected)-1], nil
		},
	}
}
