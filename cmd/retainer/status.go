package main

import (
	"time"

	"github.com/adhocore/gronx"
	"github.com/spf13/cobra"

	"mercator-hq/retainer/pkg/cli"
	"mercator-hq/retainer/pkg/config"
	"mercator-hq/retainer/pkg/retention/scheduler"
	"mercator-hq/retainer/pkg/retention/storage"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show table sizes and the next scheduled runs",
	Long: `Print the row count of every live and archive table, the schema version
and when the configured schedules fire next.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(outputFormat)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := cli.SetupSignalHandler(cmd.Context())
	defer cancel()

	store, err := openStore(ctx, &cfg.Database)
	if err != nil {
		return cli.NewCommandError("status", err)
	}
	defer store.Close()

	version, err := store.QueryInt64(ctx, "get_schema_version", storage.GetSchemaVersion)
	if err != nil {
		return cli.NewCommandError("status", err)
	}
	tables, err := store.Counts(ctx)
	if err != nil {
		return cli.NewCommandError("status", err)
	}

	now := time.Now()
	status := &cli.Status{
		Backend:       store.Backend(),
		SchemaVersion: version,
		Tables:        tables,
		Jobs:          scheduledJobs(&cfg.Retention, now),
	}
	return cli.WriteStatus(cmd.OutOrStdout(), format, status, now)
}

// scheduledJobs computes the next run of each configured schedule after
// now. A job with an empty schedule is listed without a next run.
func scheduledJobs(cfg *config.RetentionConfig, now time.Time) []cli.ScheduledJob {
	schedules := []struct {
		name string
		expr string
	}{
		{scheduler.JobArchive, cfg.ArchiveSchedule},
		{scheduler.JobJanitor, cfg.JanitorSchedule},
	}

	jobs := make([]cli.ScheduledJob, 0, len(schedules))
	for _, s := range schedules {
		job := cli.ScheduledJob{Name: s.name, Schedule: s.expr}
		if s.expr != "" {
			if next, err := gronx.NextTickAfter(s.expr, now, false); err == nil {
				job.Next = &next
			}
		}
		jobs = append(jobs, job)
	}
	return jobs
}
