package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"mercator-hq/retainer/pkg/cli"
	"mercator-hq/retainer/pkg/config"
	"mercator-hq/retainer/pkg/retention/janitor"
	"mercator-hq/retainer/pkg/retention/scheduler"
	"mercator-hq/retainer/pkg/server"
	"mercator-hq/retainer/pkg/telemetry/health"
	"mercator-hq/retainer/pkg/telemetry/metrics"
	"mercator-hq/retainer/pkg/telemetry/tracing"
)

var runFlags struct {
	listenAddress string
	statsInterval time.Duration
	noWatch       bool
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the archive and janitor on their schedules",
	Long: `Start the retention daemon. The archive pipeline and the archive janitor
run on the cron schedules from the retention section, one job at a time. A
job that fires while another is running is skipped.

Prometheus metrics and the liveness and readiness probes are served on
telemetry.metrics.listen_address. Writing the config file reloads the
schedules without a restart.

Examples:
  # Start with a config file
  retainer run --config /etc/retainer/config.yaml

  # Override the telemetry listen address
  retainer run --listen 0.0.0.0:9090

  # Validate config without starting
  retainer run --dry-run`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override telemetry listen address")
	runCmd.Flags().DurationVar(&runFlags.statsInterval, "stats-interval", time.Minute, "how often table sizes are refreshed for metrics (0 disables)")
	runCmd.Flags().BoolVar(&runFlags.noWatch, "no-watch", false, "do not reload the config file when it changes")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runFlags.listenAddress != "" {
		cfg.Telemetry.Metrics.ListenAddress = runFlags.listenAddress
	}

	if runFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	ctx, cancel := cli.SetupSignalHandler(cmd.Context())
	defer cancel()

	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, registry)

	a, err := newApp(ctx, cfg, appOptions{
		needBlobs: true,
		recorder:  collector,
		tracer:    tracer.Tracer(),
	})
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer a.Close()

	if err := a.store.Migrate(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	d := newDaemon(a, collector)
	if err := d.apply(ctx, &cfg.Retention); err != nil {
		return cli.NewCommandError("run", err)
	}
	defer d.stop()

	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
	checker.RegisterCheck("database", health.DatabaseCheck(a.store))
	checker.RegisterCheck("blobs", health.DirectoryCheck(a.blobs.Root()))
	checker.RegisterCheck("scheduler", health.SchedulerCheck(d.isRunning))

	errChan := make(chan error, 1)
	if cfg.Telemetry.Metrics.Enabled || cfg.Telemetry.Health.Enabled {
		srv := server.NewFromConfig(&cfg.Telemetry, collector, checker)
		go func() {
			if err := srv.Start(ctx); err != nil {
				errChan <- err
			}
		}()
	}

	if cfgFile != "" && !runFlags.noWatch {
		if err := config.Watch(ctx, cfgFile, func(next *config.Config) {
			d.reload(ctx, next)
		}); err != nil {
			slog.Warn("config file watching disabled", "error", err)
		}
	}

	if runFlags.statsInterval > 0 {
		go d.refreshTableRows(ctx, runFlags.statsInterval)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Retainer running (%s)\n", a.store.Backend())
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Metrics endpoint: http://%s%s\n", cfg.Telemetry.Metrics.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	if cfg.Telemetry.Health.Enabled {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Health endpoints: %s, %s\n", cfg.Telemetry.Health.LivenessPath, cfg.Telemetry.Health.ReadinessPath)
	}

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
		return nil
	case err := <-errChan:
		return cli.NewCommandError("run", err)
	}
}

// daemon owns the scheduler of `retainer run` and swaps it when the
// retention configuration changes.
type daemon struct {
	app       *app
	collector *metrics.Collector
	logger    *slog.Logger

	mu        sync.Mutex
	scheduler *scheduler.Scheduler
	retention config.RetentionConfig
	cancel    context.CancelFunc
}

func newDaemon(a *app, collector *metrics.Collector) *daemon {
	return &daemon{
		app:       a,
		collector: collector,
		logger:    slog.Default().With("component", "daemon"),
	}
}

// apply replaces the running scheduler with one built from cfg. The old
// scheduler is stopped first, which waits for a job in progress, so two
// jobs never overlap across a reload.
func (d *daemon) apply(ctx context.Context, cfg *config.RetentionConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	jan, err := janitor.New(d.app.store, d.app.blobs, janitor.Config{
		ArchivedDataRetentionDays: cfg.ArchivedDataRetentionDays,
	}, &d.app.opts)
	if err != nil {
		return err
	}

	sched := scheduler.New(d.app.newArchiver(), jan, scheduler.Config{
		ArchiveSchedule: cfg.ArchiveSchedule,
		JanitorSchedule: cfg.JanitorSchedule,
		Recorder:        d.collector,
	})

	d.stopLocked()

	jobCtx, cancel := context.WithCancel(ctx)
	if err := sched.Start(jobCtx); err != nil {
		cancel()
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	d.scheduler = sched
	d.retention = *cfg
	d.cancel = cancel

	for _, job := range []string{scheduler.JobArchive, scheduler.JobJanitor} {
		if next := sched.NextRun(job); next != nil {
			d.logger.Info("job scheduled", "job", job, "next_run", next.Format(time.RFC3339))
		}
	}
	return nil
}

// reload applies a reloaded configuration. Only the retention section
// takes effect without a restart.
func (d *daemon) reload(ctx context.Context, cfg *config.Config) {
	d.mu.Lock()
	unchanged := d.retention == cfg.Retention
	d.mu.Unlock()
	if unchanged {
		return
	}

	if err := d.apply(ctx, &cfg.Retention); err != nil {
		d.logger.Error("failed to apply reloaded retention configuration", "error", err)
		return
	}
	d.logger.Info("retention configuration reloaded",
		"archive_schedule", cfg.Retention.ArchiveSchedule,
		"janitor_schedule", cfg.Retention.JanitorSchedule,
		"archived_data_retention_days", cfg.Retention.ArchivedDataRetentionDays,
	)
}

// refreshTableRows updates the table size gauges every interval until ctx
// is done.
func (d *daemon) refreshTableRows(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		d.updateTableRows(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (d *daemon) updateTableRows(ctx context.Context) {
	counts, err := d.app.store.Counts(ctx)
	if err != nil {
		if ctx.Err() == nil {
			d.logger.Warn("failed to count table rows", "error", err)
		}
		return
	}
	d.collector.UpdateTableRows(counts)
}

func (d *daemon) isRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scheduler != nil && d.scheduler.IsRunning()
}

func (d *daemon) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *daemon) stopLocked() {
	if d.scheduler == nil {
		return
	}
	d.scheduler.Stop()
	d.cancel()
	d.scheduler = nil
	d.cancel = nil
}
