package health

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Pinger is implemented by *storage.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatabaseCheck reports whether the database answers a ping.
func DatabaseCheck(db Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := db.Ping(ctx); err != nil {
			return fmt.Errorf("database unreachable: %w", err)
		}
		return nil
	}
}

// DirectoryCheck reports whether dir exists and is a directory. It guards
// the blob root, which the janitor deletes files from.
func DirectoryCheck(dir string) CheckFunc {
	return func(ctx context.Context) error {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("blob root unavailable: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("blob root %s is not a directory", dir)
		}
		return nil
	}
}

// SchedulerCheck reports whether the retention scheduler is running.
func SchedulerCheck(isRunning func() bool) CheckFunc {
	return func(ctx context.Context) error {
		if !isRunning() {
			return errors.New("retention scheduler is not running")
		}
		return nil
	}
}
