package config

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/ronospace/flowcache/internal/logger"
)

// Watcher reloads the configuration file when it changes on disk and
// applies the settings that are safe to change at runtime (currently the
// log level and format). Budget and interval changes require a restart.
//
// Thread safety: Start and Stop are safe for concurrent use.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
}

// NewWatcher creates a watcher for the given config file (not yet started).
func NewWatcher(path string) *Watcher {
	return &Watcher{
		path:   path,
		stopCh: make(chan struct{}),
	}
}

// Start begins watching the config file's directory for changes.
//
// The directory is watched rather than the file because editors and
// config-management tools commonly replace the file via rename, which
// drops a direct file watch.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return fmt.Errorf("watch config directory: %w", err)
	}

	w.watcher = fw
	go w.loop()

	logger.Info("Config hot-reload started", "path", w.path)
	return nil
}

// Stop stops the watcher. Safe to call multiple times or on a watcher
// that was never started.
func (w *Watcher) Stop() {
	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}
	if w.watcher != nil {
		w.watcher.Close()
	}
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Error("Config watcher error", "error", err)
		}
	}
}

// reload re-reads the config file and applies the runtime-adjustable
// settings. A file that fails to load or validate leaves the running
// configuration untouched.
func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		logger.Error("Config reload failed, keeping current settings",
			"path", w.path, "error", err)
		return
	}

	logger.SetLevel(cfg.Logging.Level)
	logger.SetFormat(cfg.Logging.Format)
	logger.Info("Config reloaded", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
}
