package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchGrants calls apply with the parsed grants file each time it changes,
// until ctx is done. Bursts of events within debounce collapse into one
// reload. A file that fails to parse is logged and skipped.
//
// The parent directory is watched rather than the file, so editors that
// replace the file on save keep being picked up.
func WatchGrants(ctx context.Context, path string, debounce time.Duration, apply func(context.Context, Grants) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("grants watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	var (
		timer  *time.Timer
		reload <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounce)
			reload = timer.C

		case <-reload:
			reload = nil
			grants, err := LoadGrants(abs)
			if err != nil {
				slog.Warn("grants reload skipped", "path", abs, "err", err)
				continue
			}
			if err := apply(ctx, grants); err != nil {
				slog.Warn("grants reload failed", "path", abs, "err", err)
				continue
			}
			slog.Info("grants reloaded", "path", abs)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("grants watcher error", "err", err)
		}
	}
}
