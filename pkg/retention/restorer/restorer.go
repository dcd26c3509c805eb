// Package restorer copies one realm's archived data back into the live
// tables and switches the realm back to unlimited retention.
package restorer

import (
	"context"
	"log/slog"

	"mercator-hq/retainer/pkg/retention"
	"mercator-hq/retainer/pkg/retention/storage"
)

// Step names, in execution order.
const (
	StepCheckRealm                = "check_realm"
	StepRestoreMessages           = "restore_messages"
	StepRestoreUserMessages       = "restore_user_messages"
	StepRestoreAttachments        = "restore_attachments"
	StepRestoreAttachmentMessages = "restore_attachment_messages"
	StepClearRetention            = "clear_retention"
)

// Restorer runs the restore pipeline.
type Restorer struct {
	store  *storage.Store
	opts   retention.Options
	logger *slog.Logger
}

// New creates a Restorer. opts may be nil.
func New(store *storage.Store, opts *retention.Options) *Restorer {
	o := opts.WithDefaults()
	return &Restorer{
		store:  store,
		opts:   o,
		logger: o.Logger.With("component", "retention.restorer"),
	}
}

// RestoreRealmArchivedData restores the archived messages, deliveries,
// attachments and link rows of one realm, then sets the realm's
// message_retention_days to NULL. Archive rows are left in place.
//
// The realm is looked up before anything is copied; an unknown realm fails
// with an error wrapping retention.ErrRealmNotFound and touches no rows.
func (r *Restorer) RestoreRealmArchivedData(ctx context.Context, realmID int64) (*retention.Result, error) {
	runner := &retention.Runner{
		Pipeline: retention.PipelineRestore,
		Options:  r.opts,
		Logger:   r.logger,
	}
	return runner.Run(ctx, r.steps(realmID), "realm_id", realmID)
}

func (r *Restorer) steps(realmID int64) []retention.Step {
	d := r.store.Dialect()

	return []retention.Step{
		{
			Name: StepCheckRealm,
			Run: func(ctx context.Context) (int64, error) {
				_, err := r.store.GetRealm(ctx, realmID)
				return 0, err
			},
		},

		// Messages come first: a delivery or link row can only be restored
		// once its message is live again.
		r.exec(storage.Move{
			Name:  StepRestoreMessages,
			From:  storage.ArchiveMessages,
			Alias: "am",
			To:    storage.Messages,
			Joins: []string{
				"JOIN archive_user_messages aum ON aum.message_id = am.id",
				"JOIN users u ON u.id = aum.user_id",
			},
			Where:   []string{"u.realm_id = ?"},
			Args:    []any{realmID},
			GroupBy: true,
		}.Statement(d)),

		r.exec(storage.Move{
			Name:  StepRestoreUserMessages,
			From:  storage.ArchiveUserMessages,
			Alias: "aum",
			To:    storage.UserMessages,
			Joins: []string{"JOIN users u ON u.id = aum.user_id"},
			Where: []string{
				"u.realm_id = ?",
				"EXISTS (SELECT 1 FROM messages m WHERE m.id = aum.message_id)",
			},
			Args: []any{realmID},
		}.Statement(d)),

		r.exec(storage.Move{
			Name:  StepRestoreAttachments,
			From:  storage.ArchiveAttachments,
			Alias: "aa",
			To:    storage.Attachments,
			Joins: []string{
				"JOIN archive_attachment_messages al ON al.attachment_id = aa.id",
				"JOIN archive_messages am ON am.id = al.message_id",
				"JOIN archive_user_messages aum ON aum.message_id = am.id",
				"JOIN users u ON u.id = aum.user_id",
			},
			Where:   []string{"u.realm_id = ?"},
			Args:    []any{realmID},
			GroupBy: true,
		}.Statement(d)),

		r.exec(storage.Move{
			Name:  StepRestoreAttachmentMessages,
			From:  storage.ArchiveAttachmentMessages,
			Alias: "al",
			To:    storage.AttachmentMessages,
			Joins: []string{
				"JOIN archive_user_messages aum ON aum.message_id = al.message_id",
				"JOIN users u ON u.id = aum.user_id",
			},
			Where: []string{
				"u.realm_id = ?",
				"EXISTS (SELECT 1 FROM attachments a WHERE a.id = al.attachment_id)",
				"EXISTS (SELECT 1 FROM messages m WHERE m.id = al.message_id)",
			},
			Args:    []any{realmID},
			GroupBy: true,
		}.Statement(d)),

		r.exec(storage.Statement{
			Name:  StepClearRetention,
			Query: `UPDATE realms SET message_retention_days = NULL WHERE id = ?`,
			Args:  []any{realmID},
		}),
	}
}

func (r *Restorer) exec(stmt storage.Statement) retention.Step {
	return retention.Step{
		Name: stmt.Name,
		Run: func(ctx context.Context) (int64, error) {
			affected, err := r.store.ExecTx(ctx, stmt)
			if err != nil {
				return 0, err
			}
			return affected[0], nil
		},
	}
}
