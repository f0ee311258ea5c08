package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDebounce batches bursts of writes from editors into one reload.
const WatchDebounce = 200 * time.Millisecond

// Watch reloads the config at path whenever it changes and passes each
// valid result to onChange. Invalid or unreadable files are logged and
// skipped. It blocks until ctx is done.
func Watch(ctx context.Context, path string, logger *slog.Logger, onChange func(GlobalConfig)) error {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file via rename.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("config: watch %s: %w", dir, err)
	}
	target := filepath.Clean(path)

	timer := time.NewTimer(WatchDebounce)
	timer.Stop() // Don't fire immediately.
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				timer.Reset(WatchDebounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config: watch error", "err", err)

		case <-timer.C:
			cfg, err := LoadFile(path)
			if err != nil {
				logger.Warn("config: reload failed", "err", err)
				continue
			}
			if err := cfg.Validate(); err != nil {
				logger.Warn("config: reloaded config invalid", "err", err)
				continue
			}
			logger.Info("config: reloaded", "path", path)
			onChange(cfg)
		}
	}
}
