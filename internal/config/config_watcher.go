package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

const watchDebounce = 100 * time.Millisecond

// Watch reloads the file at path whenever it is written and hands the fresh
// configuration to onChange. It returns once the watcher is installed; the
// watch loop stops when ctx is done.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	if path == "" || onChange == nil {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory too so atomic rename-style saves are seen.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return err
	}
	target := filepath.Clean(path)
	log.WithField("path", path).Info("config watcher started")

	go func() {
		defer watcher.Close()
		var (
			mu       sync.Mutex
			debounce *time.Timer
		)
		reload := func() {
			cfg, err := Load(path)
			if err != nil {
				log.WithError(err).WithField("path", path).Warn("failed to reload config")
				return
			}
			onChange(cfg)
		}
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				mu.Lock()
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(watchDebounce, reload)
				mu.Unlock()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("config watcher error")
			case <-ctx.Done():
				mu.Lock()
				if debounce != nil {
					debounce.Stop()
				}
				mu.Unlock()
				return
			}
		}
	}()
	return nil
}

// RequiresRestart reports whether next differs from prev in settings that are
// only read at startup.
func RequiresRestart(prev, next *Config) bool {
	if prev == nil || next == nil {
		return false
	}
	if len(prev.Upstream.APIKeys) != len(next.Upstream.APIKeys) {
		return true
	}
	for i := range prev.Upstream.APIKeys {
		if prev.Upstream.APIKeys[i] != next.Upstream.APIKeys[i] {
			return true
		}
	}
	return prev.Server.ListenAddr != next.Server.ListenAddr ||
		prev.Database != next.Database ||
		prev.Admin != next.Admin ||
		prev.Upstream.BaseURL != next.Upstream.BaseURL
}
