package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher hot-reloads the config file and hands each valid new version
// to the registered handler. Invalid versions are logged and skipped so
// a bad edit never takes the running process down.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	onLoad  func(*Config)
	logger  *zap.Logger
	stopCh  chan struct{}
}

// NewWatcher watches path's directory; editors often replace files by
// rename, so watching the file alone misses rewrites.
func NewWatcher(path string, onLoad func(*Config), logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	return &Watcher{
		path:    path,
		watcher: fw,
		onLoad:  onLoad,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}, nil
}

// Start runs the watch loop until Stop is called.
func (w *Watcher) Start() {
	go w.loop()
}

// Stop ends the watch loop and releases the fs watcher.
func (w *Watcher) Stop() {
	close(w.stopCh)
	_ = w.watcher.Close()
}

func (w *Watcher) loop() {
	// Debounce: editors emit bursts of write events per save.
	var pending <-chan time.Time

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
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(250 * time.Millisecond)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Config watcher error", zap.Error(err))
		case <-pending:
			pending = nil
			cfg, err := Load(w.path)
			if err != nil {
				w.logger.Warn("Ignoring invalid config reload",
					zap.String("path", w.path),
					zap.Error(err),
				)
				continue
			}
			w.logger.Info("Config reloaded", zap.String("path", w.path))
			w.onLoad(cfg)
		}
	}
}
