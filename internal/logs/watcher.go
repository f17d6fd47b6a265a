package logs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Notifier receives change notifications for watched log files.
type Notifier interface {
	BroadcastLogChange(projectID, file string)
}

// Watcher follows the storage/logs directories of registered projects and
// notifies clients when a .log file is written. Notifications are debounced
// per file since Laravel writes entries line by line.
type Watcher struct {
	fw       *fsnotify.Watcher
	notifier Notifier
	logger   *slog.Logger

	mu       sync.Mutex
	projects map[string]string // log dir -> project id
	pending  map[string]*time.Timer
}

const debounceInterval = 250 * time.Millisecond

func NewWatcher(notifier Notifier, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("logs: create watcher: %w", err)
	}
	return &Watcher{
		fw:       fw,
		notifier: notifier,
		logger:   logger,
		projects: make(map[string]string),
		pending:  make(map[string]*time.Timer),
	}, nil
}

// Watch starts following a project's log directory. Projects without one
// are skipped silently; the directory may appear later via a re-Watch.
func (w *Watcher) Watch(projectID, location string) error {
	dir := Dir(location)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil
	}

	w.mu.Lock()
	_, known := w.projects[dir]
	w.projects[dir] = projectID
	w.mu.Unlock()

	if known {
		return nil
	}
	if err := w.fw.Add(dir); err != nil {
		return fmt.Errorf("logs: watch %q: %w", dir, err)
	}
	w.logger.Debug("watching log directory", "project", projectID, "dir", dir)
	return nil
}

// Unwatch stops following a project's log directory.
func (w *Watcher) Unwatch(location string) {
	dir := Dir(location)

	w.mu.Lock()
	_, known := w.projects[dir]
	delete(w.projects, dir)
	w.mu.Unlock()

	if known {
		_ = w.fw.Remove(dir)
	}
}

// Run consumes filesystem events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fw.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("log watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	name := filepath.Base(event.Name)
	if !strings.HasSuffix(name, ".log") {
		return
	}

	dir := filepath.Dir(event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()

	projectID, ok := w.projects[dir]
	if !ok {
		return
	}
	if timer, ok := w.pending[event.Name]; ok {
		timer.Reset(debounceInterval)
		return
	}
	w.pending[event.Name] = time.AfterFunc(debounceInterval, func() {
		w.mu.Lock()
		delete(w.pending, event.Name)
		w.mu.Unlock()
		w.notifier.BroadcastLogChange(projectID, name)
	})
}
