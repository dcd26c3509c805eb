// Package archiver moves expired messages, delivery records and
// attachments from the live tables into their archive twins, then removes
// the live rows that nothing live references any more.
//
// The pipeline runs over every realm at once:
//
//  1. archive_messages: copy messages with at least one expired delivery
//  2. archive_user_messages: copy the expired deliveries
//  3. archive_attachments: copy attachments of expired messages
//  4. archive_attachment_messages: copy their link rows
//  5. delete_user_messages: delete live deliveries present in the archive
//  6. delete_messages: delete archived live messages with no live deliveries
//  7. delete_attachments: delete archived live attachments with no live links
//
// A message delivered into several realms is archived as soon as one
// realm's window elapses, but its live row is only deleted once every
// delivery is gone.
package archiver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/retainer/pkg/retention"
	"mercator-hq/retainer/pkg/retention/storage"
)

// Step names, in execution order.
const (
	StepArchiveMessages           = "archive_messages"
	StepArchiveUserMessages       = "archive_user_messages"
	StepArchiveAttachments        = "archive_attachments"
	StepArchiveAttachmentMessages = "archive_attachment_messages"
	StepDeleteUserMessages        = "delete_user_messages"
	StepDeleteMessages            = "delete_messages"
	StepDeleteAttachments         = "delete_attachments"
)

// Archiver runs the archive pipeline.
type Archiver struct {
	store  *storage.Store
	opts   retention.Options
	logger *slog.Logger
}

// New creates an Archiver. opts may be nil.
func New(store *storage.Store, opts *retention.Options) *Archiver {
	o := opts.WithDefaults()
	return &Archiver{
		store:  store,
		opts:   o,
		logger: o.Logger.With("component", "retention.archiver"),
	}
}

// ArchiveMessages runs the seven archive steps in order. Each step commits
// on its own, so on error the result lists the steps that did commit and a
// later run picks up where this one stopped. Running it again with no new
// expired data changes nothing.
func (a *Archiver) ArchiveMessages(ctx context.Context) (*retention.Result, error) {
	now := a.opts.Now()

	runner := &retention.Runner{
		Pipeline: retention.PipelineArchive,
		Options:  a.opts,
		Logger:   a.logger,
	}
	return runner.Run(ctx, a.steps(now))
}

func (a *Archiver) steps(now time.Time) []retention.Step {
	d := a.store.Dialect()
	today := d.TimeArg(retention.StartOfDay(now))

	return []retention.Step{
		a.exec(StepArchiveMessages, storage.Move{
			Name:    StepArchiveMessages,
			From:    storage.Messages,
			Alias:   "m",
			To:      storage.ArchiveMessages,
			Joins:   expiredJoins("m"),
			Where:   expiredWhere(d),
			Args:    []any{today},
			GroupBy: true,
			Stamp:   now,
		}.Statement(d)),

		a.exec(StepArchiveUserMessages, storage.Move{
			Name:  StepArchiveUserMessages,
			From:  storage.UserMessages,
			Alias: "um",
			To:    storage.ArchiveUserMessages,
			Joins: []string{
				"JOIN messages m ON m.id = um.message_id",
				"JOIN users u ON u.id = um.user_id",
				"JOIN realms r ON r.id = u.realm_id",
			},
			Where: append(expiredWhere(d),
				"EXISTS (SELECT 1 FROM archive_messages am WHERE am.id = um.message_id)"),
			Args:  []any{today},
			Stamp: now,
		}.Statement(d)),

		a.exec(StepArchiveAttachments, storage.Move{
			Name:  StepArchiveAttachments,
			From:  storage.Attachments,
			Alias: "a",
			To:    storage.ArchiveAttachments,
			Joins: append([]string{
				"JOIN attachment_messages l ON l.attachment_id = a.id",
				"JOIN messages m ON m.id = l.message_id",
			}, expiredJoins("m")...),
			Where:   expiredWhere(d),
			Args:    []any{today},
			GroupBy: true,
			Stamp:   now,
		}.Statement(d)),

		a.exec(StepArchiveAttachmentMessages, storage.Move{
			Name:  StepArchiveAttachmentMessages,
			From:  storage.AttachmentMessages,
			Alias: "l",
			To:    storage.ArchiveAttachmentMessages,
			Joins: append([]string{
				"JOIN messages m ON m.id = l.message_id",
			}, expiredJoins("m")...),
			Where: append(expiredWhere(d),
				"EXISTS (SELECT 1 FROM archive_attachments aa WHERE aa.id = l.attachment_id)",
				"EXISTS (SELECT 1 FROM archive_messages am WHERE am.id = l.message_id)",
			),
			Args:    []any{today},
			GroupBy: true,
			Stamp:   now,
		}.Statement(d)),

		a.exec(StepDeleteUserMessages, storage.Delete{
			Name:  StepDeleteUserMessages,
			Table: storage.UserMessages,
			Where: []string{"id IN (SELECT id FROM archive_user_messages)"},
		}.Statement()),

		// Link rows of a deleted message go with it.
		a.exec(StepDeleteMessages,
			storage.Delete{
				Name:  "delete_message_links",
				Table: storage.AttachmentMessages,
				Where: []string{`message_id IN (
					SELECT m.id FROM messages m
					WHERE NOT EXISTS (SELECT 1 FROM user_messages um WHERE um.message_id = m.id)
					  AND m.id IN (SELECT id FROM archive_messages))`},
			}.Statement(),
			storage.Delete{
				Name:  StepDeleteMessages,
				Table: storage.Messages,
				Where: []string{
					"NOT EXISTS (SELECT 1 FROM user_messages um WHERE um.message_id = messages.id)",
					"id IN (SELECT id FROM archive_messages)",
				},
			}.Statement(),
		),

		a.exec(StepDeleteAttachments, storage.Delete{
			Name:  StepDeleteAttachments,
			Table: storage.Attachments,
			Where: []string{
				"NOT EXISTS (SELECT 1 FROM attachment_messages l WHERE l.attachment_id = attachments.id)",
				"id IN (SELECT id FROM archive_attachments)",
			},
		}.Statement()),
	}
}

// exec wraps statements into a step run as one transaction. The step's row
// count is that of its last statement.
func (a *Archiver) exec(name string, stmts ...storage.Statement) retention.Step {
	return retention.Step{
		Name: name,
		Run: func(ctx context.Context) (int64, error) {
			affected, err := a.store.ExecTx(ctx, stmts...)
			if err != nil {
				return 0, err
			}
			if len(affected) > 1 {
				a.logger.DebugContext(ctx, "cascaded rows", "step", name, "rows", affected[:len(affected)-1])
			}
			return affected[len(affected)-1], nil
		},
	}
}

// expiredJoins joins a message alias to the realm of each of its
// deliveries.
func expiredJoins(message string) []string {
	return []string{
		fmt.Sprintf("JOIN user_messages um ON um.message_id = %s.id", message),
		"JOIN users u ON u.id = um.user_id",
		"JOIN realms r ON r.id = u.realm_id",
	}
}

// expiredWhere is the SQL form of retention.Expired over the aliases of
// expiredJoins. It takes the start of the current UTC day as its single
// argument.
func expiredWhere(d storage.Dialect) []string {
	return []string{
		"r.message_retention_days IS NOT NULL",
		d.DaysSince(d.Timestamp(), "m.pub_date") + " >= r.message_retention_days",
	}
}
