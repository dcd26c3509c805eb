package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the configuration file whenever it is written or replaced
// and passes each successfully loaded configuration to onChange. A reload
// that fails is logged and the previous configuration stays in effect.
// Watching stops when ctx is done.
//
// The parent directory is watched rather than the file, so editors that
// save by renaming a temporary file are picked up too.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve configuration path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch directory: %w", err)
	}

	logger := slog.Default().With("component", "config.watch")
	logger.Info("watching configuration file", "path", abs)

	go func() {
		defer watcher.Close()

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}

				logger.Debug("configuration change detected", "op", event.Op.String())

				cfg, err := ReloadConfig(abs)
				if err != nil {
					logger.Error("failed to reload configuration", "error", err)
					continue
				}
				onChange(cfg)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("file watcher error", "error", err)

			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}
