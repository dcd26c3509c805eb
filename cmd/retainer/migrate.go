package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/retainer/pkg/cli"
	"mercator-hq/retainer/pkg/retention/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the live and archive tables",
	Long: `Create every live and archive table that does not exist yet and record
the schema version. Running it against an up to date database changes
nothing.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := cli.SetupSignalHandler(cmd.Context())
	defer cancel()

	store, err := openStore(ctx, &cfg.Database)
	if err != nil {
		return cli.NewCommandError("migrate", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return cli.NewCommandError("migrate", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Schema version %d ready (%s)\n", storage.SchemaVersion, store.Backend())
	return nil
}
