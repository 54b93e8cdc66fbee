package ui

import (
	"context"
	"errors"
	"log"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fsnotify/fsnotify"
)

// reloadAttempts bounds the retries while an editor is still writing the file.
const reloadAttempts = 4

// watchConfig reloads path every time it is written or (re)created and passes each valid configuration to apply.
// The parent directory is watched, as many editors replace files instead of writing them in place.
// It returns once the watcher is running; the watcher stops with ctx.
func watchConfig(ctx context.Context, path string, apply func(Config)) error {
	watcher, err := newFsWatcher()
	if err != nil {
		return err
	}
	target, err := filepath.Abs(path)
	if err != nil {
		_ = watcher.Close()
		return err
	}
	if err = watcher.Add(filepath.Dir(target)); err != nil {
		_ = watcher.Close()
		return err
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if name, _ := filepath.Abs(ev.Name); name != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := reloadConfig(ctx, path)
				if err != nil {
					log.Println("[SpinCube] Keeping previous configuration:", err)
					continue
				}
				log.Println("[SpinCube] Reloaded configuration from", path)
				apply(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Println("[SpinCube] Config watcher error:", err)
			}
		}
	}()
	return nil
}

// reloadConfig loads path, retrying read and parse errors with exponential backoff (the file may be half written).
// Invalid values are not retried.
func reloadConfig(ctx context.Context, path string) (Config, error) {
	var cfg Config
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	err := backoff.Retry(func() error {
		loaded, err := LoadConfig(path)
		if errors.Is(err, ErrInvalidConfig) {
			return backoff.Permanent(err)
		}
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(b, reloadAttempts), ctx))
	return cfg, err
}
