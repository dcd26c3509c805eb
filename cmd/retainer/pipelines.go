package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mercator-hq/retainer/pkg/retention"
	"mercator-hq/retainer/pkg/retention/storage"
)

// showProgress is bound to the --progress flag of every pipeline command.
var showProgress bool

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive expired messages once",
	Long: `Move every message whose realm retention window has passed into the
archive tables, together with its user messages and attachments.

Each step runs in its own transaction. If a step fails, the steps before it
stay committed and the next run picks up where this one stopped.

Examples:
  # Archive with the settings from a config file
  retainer archive --config /etc/retainer/config.yaml

  # Print each step as it commits
  retainer archive --progress`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, "archive", false, func(ctx context.Context, a *app) (*retention.Result, error) {
			return a.newArchiver().ArchiveMessages(ctx)
		})
	},
}

var restoreFlags struct {
	purgeArchive bool
}

var restoreCmd = &cobra.Command{
	Use:   "restore REALM_ID",
	Short: "Restore a realm's archived data",
	Long: `Copy every archived message, user message and attachment of a realm back
into the live tables and clear the realm's retention window. Rows already
present in the live tables are left alone, so restoring twice is harmless.

The archive rows are kept unless --purge-archive is given. While they
remain, the next archive run deletes the restored user messages again,
because they are still present in the archive. Restore prints a warning
in that case.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		realmID, err := parseRealmID(args[0])
		if err != nil {
			return err
		}

		return runPipeline(cmd, "restore", restoreFlags.purgeArchive, func(ctx context.Context, a *app) (*retention.Result, error) {
			result, err := a.newRestorer().RestoreRealmArchivedData(ctx, realmID)
			if err != nil {
				return result, err
			}
			if !restoreFlags.purgeArchive {
				warnArchiveRemains(ctx, cmd, a, realmID)
				return result, nil
			}

			jan, err := a.newJanitor()
			if err != nil {
				return result, err
			}
			purged, err := jan.DeleteArchivedDataByRealm(ctx, realmID)
			if purged != nil {
				result.Steps = append(result.Steps, purged.Steps...)
				result.Duration += purged.Duration
			}
			return result, err
		})
	},
}

// warnArchiveRemains tells the user that the archive rows of a restored
// realm are still there, so the next archive run removes the restored
// user messages again.
func warnArchiveRemains(ctx context.Context, cmd *cobra.Command, a *app, realmID int64) {
	n, err := a.store.CountRealmMessages(ctx, storage.ArchiveMessages, realmID)
	if err != nil {
		slog.Warn("failed to count archived messages", "realm_id", realmID, "error", err)
		return
	}
	if n == 0 {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(),
		"Warning: archived messages of realm %d remain (%s); the next archive run deletes the restored user messages again. Rerun with --purge-archive to drop them.\n",
		realmID, humanize.Comma(n))
}

var archiveJanitorCmd = &cobra.Command{
	Use:   "janitor",
	Short: "Delete expired archive rows and orphaned blobs once",
	Long: `Delete archived user messages, messages and attachments whose archived
date is older than retention.archived_data_retention_days. The blob of an
archived attachment is removed only when no live attachment uses it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, "janitor", true, func(ctx context.Context, a *app) (*retention.Result, error) {
			jan, err := a.newJanitor()
			if err != nil {
				return nil, err
			}
			return jan.DeleteExpiredArchivedData(ctx)
		})
	},
}

var purgeRealmCmd = &cobra.Command{
	Use:   "purge-realm REALM_ID",
	Short: "Delete a realm's archived data regardless of age",
	Long: `Delete every archive row that belongs to a realm, then the realm's
orphaned archived attachments and their blobs. Live data is not touched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		realmID, err := parseRealmID(args[0])
		if err != nil {
			return err
		}

		return runPipeline(cmd, "purge-realm", true, func(ctx context.Context, a *app) (*retention.Result, error) {
			jan, err := a.newJanitor()
			if err != nil {
				return nil, err
			}
			return jan.DeleteArchivedDataByRealm(ctx, realmID)
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{archiveCmd, restoreCmd, archiveJanitorCmd, purgeRealmCmd} {
		cmd.Flags().BoolVar(&showProgress, "progress", false, "print each step as it commits")
		rootCmd.AddCommand(cmd)
	}

	restoreCmd.Flags().BoolVar(&restoreFlags.purgeArchive, "purge-archive", false, "delete the realm's archive rows after restoring")
}
