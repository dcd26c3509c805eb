// Package testutil provides stores and fixtures for retention tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"mercator-hq/retainer/pkg/retention/storage"
)

// NewSQLiteStore opens a migrated store on a fresh SQLite file. The store
// is closed when the test finishes.
func NewSQLiteStore(t *testing.T) *storage.Store {
	t.Helper()

	cfg := storage.DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "retainer.db")

	return open(t, cfg)
}

// SkipContainerTests reports whether container-backed tests should be
// skipped.
func SkipContainerTests() bool {
	return testing.Short() || os.Getenv("RETAINER_SKIP_CONTAINER_TESTS") != ""
}

// NewPostgresStore starts a PostgreSQL container and returns a migrated
// store connected to it. The container is terminated when the test
// finishes.
func NewPostgresStore(t *testing.T) *storage.Store {
	t.Helper()

	if SkipContainerTests() {
		t.Skip("skipping container test")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("retainer_test"),
		postgres.WithUsername("retainer"),
		postgres.WithPassword("retainer"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start Postgres container: %v", err)
	}

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Errorf("Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	cfg := storage.DefaultConfig()
	cfg.Driver = storage.DriverPostgreSQL
	cfg.DSN = dsn

	return open(t, cfg)
}

func open(t *testing.T, cfg *storage.Config) *storage.Store {
	t.Helper()

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Failed to migrate store: %v", err)
	}
	return store
}
