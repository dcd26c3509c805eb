package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/retainer/pkg/cli"
)

var (
	// Global flags
	cfgFile      string
	envFile      string
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "retainer",
	Short: "Retainer - time-based message retention and archival",
	Long: `Retainer enforces message retention for a multi-realm chat server.

Messages whose realm retention window has passed are moved into archive
tables together with their user messages and attachments. The archive is
kept for a fixed number of days and then deleted, along with any attachment
blobs that are no longer referenced.

Run the pipelines once with the archive, janitor, restore and purge-realm
commands, or keep them on a cron schedule with 'retainer run'.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the code matching the
// returned error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before environment overrides")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format (text, json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
