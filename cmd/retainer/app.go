package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/retainer/pkg/blobstore"
	"mercator-hq/retainer/pkg/cli"
	"mercator-hq/retainer/pkg/config"
	"mercator-hq/retainer/pkg/retention"
	"mercator-hq/retainer/pkg/retention/archiver"
	"mercator-hq/retainer/pkg/retention/janitor"
	"mercator-hq/retainer/pkg/retention/restorer"
	"mercator-hq/retainer/pkg/retention/storage"
	"mercator-hq/retainer/pkg/telemetry/logging"
	"mercator-hq/retainer/pkg/telemetry/tracing"
)

// loadConfig loads the dotenv file, the configuration and sets up the
// default logger. Every command except version starts here.
func loadConfig() (*config.Config, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError("config", err.Error())
	}
	cfg := config.GetConfig()

	logCfg := logging.FromConfig(cfg.Telemetry.Logging, os.Stderr)
	if verbose {
		logCfg.Level = "debug"
	}
	if _, err := logging.Setup(logCfg); err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}

	return cfg, nil
}

// loadEnvFile loads variables from a dotenv file without overriding the
// ones already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return cli.NewConfigError("env-file", fmt.Sprintf("failed to load %s: %v", path, err))
	}
	return nil
}

// storageConfig maps the database section onto the storage settings of
// the selected driver.
func storageConfig(cfg *config.DatabaseConfig) *storage.Config {
	sc := storage.DefaultConfig()
	sc.Driver = cfg.Driver

	switch cfg.Driver {
	case storage.DriverPostgreSQL:
		sc.Path = ""
		sc.DSN = cfg.Postgres.DSN()
		if cfg.Postgres.MaxOpenConns > 0 {
			sc.MaxOpenConns = cfg.Postgres.MaxOpenConns
		}
	default:
		sc.Path = cfg.SQLite.Path
		sc.WALMode = cfg.SQLite.WALMode
		sc.BusyTimeout = cfg.SQLite.BusyTimeout
	}
	return sc
}

// openStore opens the configured database. The parent directory of a
// SQLite file is created when missing.
func openStore(ctx context.Context, cfg *config.DatabaseConfig) (*storage.Store, error) {
	sc := storageConfig(cfg)
	if sc.Driver != storage.DriverPostgreSQL && sc.Path != "" {
		if err := os.MkdirAll(filepath.Dir(sc.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	store, err := storage.Open(ctx, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

// openBlobs opens the configured blob store.
func openBlobs(cfg *config.BlobsConfig) (*blobstore.LocalStore, error) {
	blobs, err := blobstore.NewLocalStore(cfg.Local.Root)
	if err != nil {
		return nil, cli.NewConfigError("blobs.local.root", err.Error())
	}
	return blobs, nil
}

// app holds what the retention commands share: the store, the blob store
// and the pipeline options.
type app struct {
	cfg   *config.Config
	store *storage.Store
	blobs *blobstore.LocalStore
	opts  retention.Options
}

// appOptions customizes the pipelines of an app.
type appOptions struct {
	// needBlobs opens the blob store. Only blob-deleting pipelines need it.
	needBlobs bool
	recorder  retention.Recorder
	tracer    trace.Tracer
	onStep    func(index, total int, step string, rows int64)
}

func newApp(ctx context.Context, cfg *config.Config, o appOptions) (*app, error) {
	store, err := openStore(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:   cfg,
		store: store,
		opts: retention.Options{
			Recorder: o.recorder,
			Logger:   slog.Default(),
			Tracer:   o.tracer,
			OnStep:   o.onStep,
		},
	}

	if o.needBlobs {
		blobs, err := openBlobs(&cfg.Blobs)
		if err != nil {
			store.Close()
			return nil, err
		}
		a.blobs = blobs
	}

	return a, nil
}

func (a *app) newArchiver() *archiver.Archiver {
	return archiver.New(a.store, &a.opts)
}

func (a *app) newRestorer() *restorer.Restorer {
	return restorer.New(a.store, &a.opts)
}

func (a *app) newJanitor() (*janitor.Janitor, error) {
	return janitor.New(a.store, a.blobs, janitor.Config{
		ArchivedDataRetentionDays: a.cfg.Retention.ArchivedDataRetentionDays,
	}, &a.opts)
}

func (a *app) Close() error {
	return a.store.Close()
}

// parseRealmID parses a realm id argument.
func parseRealmID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, cli.NewConfigError("realm_id", fmt.Sprintf("invalid realm id %q", arg))
	}
	return id, nil
}

// runPipeline loads the configuration, runs fn against a fresh app and
// prints its result. The partial result of a failed run is printed before
// the error is returned.
func runPipeline(cmd *cobra.Command, name string, needBlobs bool, fn func(ctx context.Context, a *app) (*retention.Result, error)) error {
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

	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
	if err != nil {
		return cli.NewCommandError(name, err)
	}
	defer func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	o := appOptions{needBlobs: needBlobs, tracer: tracer.Tracer()}
	if showProgress {
		o.onStep = cli.NewStepProgress(cmd.ErrOrStderr()).Step
	}
	a, err := newApp(ctx, cfg, o)
	if err != nil {
		return cli.NewCommandError(name, err)
	}
	defer a.Close()

	result, runErr := fn(ctx, a)
	if result != nil {
		if err := cli.WriteResult(cmd.OutOrStdout(), format, result); err != nil && runErr == nil {
			runErr = err
		}
	}
	if runErr != nil {
		return cli.NewCommandError(name, runErr)
	}
	return nil
}
