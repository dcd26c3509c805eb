package config

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	resetGlobal(t)

	path := writeConfig(t, "retention:\n  archived_data_retention_days: 10\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 16)
	if err := Watch(ctx, path, func(cfg *Config) { changes <- cfg }); err != nil {
		t.Fatalf("Watch() failed: %v", err)
	}

	// Keep rewriting until a reload lands; a single write can race the
	// watcher registration on some platforms.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	days := 11
	for {
		select {
		case cfg := <-changes:
			if cfg.Retention.ArchivedDataRetentionDays < 11 {
				t.Errorf("expected reloaded retention days, got %d", cfg.Retention.ArchivedDataRetentionDays)
			}
			if GetConfig() == nil {
				t.Error("expected global config updated by reload")
			}
			return
		case <-tick.C:
			content := "retention:\n  archived_data_retention_days: " + strconv.Itoa(days) + "\n"
			if err := writeFile(path, content); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}
			days++
		case <-deadline:
			t.Fatal("timed out waiting for config reload")
		}
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	err := Watch(context.Background(), "/does/not/exist/retainer.yaml", func(*Config) {})
	if err == nil {
		t.Fatal("expected error watching a missing directory")
	}
}
