package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"mercator-hq/retainer/internal/testutil"
	"mercator-hq/retainer/pkg/blobstore"
	"mercator-hq/retainer/pkg/cli"
	"mercator-hq/retainer/pkg/config"
	"mercator-hq/retainer/pkg/retention/scheduler"
	"mercator-hq/retainer/pkg/retention/storage"
	"mercator-hq/retainer/pkg/telemetry/metrics"
)

func TestStorageConfig(t *testing.T) {
	tests := []struct {
		name     string
		modify   func(*config.DatabaseConfig)
		wantPath string
		wantDSN  string
		wantOpen int
	}{
		{
			name:     "sqlite",
			modify:   func(c *config.DatabaseConfig) { c.SQLite.Path = "/var/lib/retainer.db" },
			wantPath: "/var/lib/retainer.db",
			wantOpen: 10,
		},
		{
			name: "postgres",
			modify: func(c *config.DatabaseConfig) {
				c.Driver = storage.DriverPostgreSQL
				c.Postgres.Host = "db"
				c.Postgres.Database = "chat"
				c.Postgres.User = "retainer"
				c.Postgres.SSLMode = "disable"
				c.Postgres.MaxOpenConns = 4
			},
			wantDSN:  "postgres://retainer@db:5432/chat?sslmode=disable",
			wantOpen: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewDefaultConfig()
			tt.modify(&cfg.Database)

			sc := storageConfig(&cfg.Database)
			if sc.Driver != cfg.Database.Driver {
				t.Errorf("Driver = %q, want %q", sc.Driver, cfg.Database.Driver)
			}
			if sc.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", sc.Path, tt.wantPath)
			}
			if sc.DSN != tt.wantDSN {
				t.Errorf("DSN = %q, want %q", sc.DSN, tt.wantDSN)
			}
			if sc.MaxOpenConns != tt.wantOpen {
				t.Errorf("MaxOpenConns = %d, want %d", sc.MaxOpenConns, tt.wantOpen)
			}
		})
	}
}

func TestParseRealmID(t *testing.T) {
	tests := []struct {
		arg     string
		want    int64
		wantErr bool
	}{
		{"1", 1, false},
		{"9007199254740993", 9007199254740993, false},
		{"0", 0, true},
		{"-1", 0, true},
		{"1.5", 0, true},
		{"realm", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := parseRealmID(tt.arg)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseRealmID(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseRealmID(%q) = %d, want %d", tt.arg, got, tt.want)
		}
		if err != nil && cli.ExitCode(err) != cli.ExitConfig {
			t.Errorf("parseRealmID(%q) exit code = %d, want %d", tt.arg, cli.ExitCode(err), cli.ExitConfig)
		}
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		if err := loadEnvFile(filepath.Join(t.TempDir(), ".env")); err != nil {
			t.Errorf("loadEnvFile() error = %v", err)
		}
	})

	t.Run("variables are loaded without overriding", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		content := "RETAINER_TEST_FROM_FILE=file\nRETAINER_TEST_PRESET=file\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Setenv("RETAINER_TEST_PRESET", "env")
		t.Setenv("RETAINER_TEST_FROM_FILE", "")
		os.Unsetenv("RETAINER_TEST_FROM_FILE")

		if err := loadEnvFile(path); err != nil {
			t.Fatalf("loadEnvFile() error = %v", err)
		}
		if got := os.Getenv("RETAINER_TEST_FROM_FILE"); got != "file" {
			t.Errorf("RETAINER_TEST_FROM_FILE = %q, want %q", got, "file")
		}
		if got := os.Getenv("RETAINER_TEST_PRESET"); got != "env" {
			t.Errorf("RETAINER_TEST_PRESET = %q, want %q", got, "env")
		}
	})
}

func TestScheduledJobs(t *testing.T) {
	now := time.Date(2025, 11, 20, 10, 30, 0, 0, time.UTC)
	cfg := &config.RetentionConfig{
		ArchiveSchedule: "0 2 * * *",
		JanitorSchedule: "",
	}

	jobs := scheduledJobs(cfg, now)
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}

	if jobs[0].Name != scheduler.JobArchive || jobs[0].Next == nil {
		t.Fatalf("archive job = %+v, want a next run", jobs[0])
	}
	want := time.Date(2025, 11, 21, 2, 0, 0, 0, time.UTC)
	if !jobs[0].Next.Equal(want) {
		t.Errorf("archive next run = %v, want %v", jobs[0].Next, want)
	}

	if jobs[1].Name != scheduler.JobJanitor || jobs[1].Next != nil {
		t.Errorf("janitor job = %+v, want no next run", jobs[1])
	}
}

func newTestDaemon(t *testing.T) (*daemon, *metrics.Collector) {
	t.Helper()

	blobs, err := blobstore.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	cfg := config.NewDefaultConfig()
	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
	a := &app{
		cfg:   cfg,
		store: testutil.NewSQLiteStore(t),
		blobs: blobs,
	}
	a.opts.Recorder = collector

	return newDaemon(a, collector), collector
}

func TestDaemon_ApplyAndReload(t *testing.T) {
	d, _ := newTestDaemon(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.NewDefaultConfig()
	if err := d.apply(ctx, &cfg.Retention); err != nil {
		t.Fatalf("apply() error = %v", err)
	}
	defer d.stop()

	if !d.isRunning() {
		t.Fatal("isRunning() = false after apply")
	}
	first := d.scheduler

	// Unchanged retention keeps the scheduler.
	d.reload(ctx, cfg)
	if d.scheduler != first {
		t.Error("reload with unchanged retention replaced the scheduler")
	}

	next := config.NewDefaultConfig()
	next.Retention.ArchiveSchedule = "*/5 * * * *"
	d.reload(ctx, next)
	if d.scheduler == first {
		t.Fatal("reload with a new schedule kept the old scheduler")
	}
	if first.IsRunning() {
		t.Error("old scheduler still running after reload")
	}
	if !d.isRunning() {
		t.Error("isRunning() = false after reload")
	}

	d.stop()
	if d.isRunning() {
		t.Error("isRunning() = true after stop")
	}
}

func TestDaemon_ApplyRejectsInvalidRetention(t *testing.T) {
	d, _ := newTestDaemon(t)

	cfg := config.NewDefaultConfig()
	cfg.Retention.ArchivedDataRetentionDays = 0
	if err := d.apply(context.Background(), &cfg.Retention); err == nil {
		t.Error("apply() with zero retention days should fail")
	}
	if d.isRunning() {
		t.Error("isRunning() = true after a failed apply")
	}
}

func TestDaemon_UpdateTableRows(t *testing.T) {
	d, collector := newTestDaemon(t)

	d.updateTableRows(context.Background())

	n, err := promtestutil.GatherAndCount(collector.Registry(), "retainer_table_rows")
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if n != len(storage.CountedTables) {
		t.Errorf("table_rows series = %d, want %d", n, len(storage.CountedTables))
	}
}
