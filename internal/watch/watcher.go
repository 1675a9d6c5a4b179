// Package watch re-exports parameter blocks when Markdown documents change.
//
// Filesystem events are debounced per path; once a path has been quiet for
// the debounce window its handler runs. Handler runs for the same path are
// collapsed with singleflight so at most one export per document is in flight.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Handler is called with the path of a settled document.
type Handler func(ctx context.Context, path string) error

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Handled       int
	Shared        int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
	LastEventType string
}

// Watcher watches a directory tree for document changes.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	root        string
	exts        []string
	handler     Handler
	logger      *zap.Logger
	debounceMap map[string]time.Time
	debounceDur time.Duration
	now         func() time.Time

	group singleflight.Group
	inner sync.WaitGroup

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool

	stats Stats
}

// New creates a Watcher for root. exts filters file names by suffix
// (case-insensitive); an empty list accepts every file.
func New(root string, exts []string, debounce time.Duration, handler Handler, logger *zap.Logger) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watch: handler is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	lower := make([]string, 0, len(exts))
	for _, e := range exts {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			lower = append(lower, e)
		}
	}

	return &Watcher{
		watcher:     fw,
		root:        root,
		exts:        lower,
		handler:     handler,
		logger:      logger,
		debounceMap: make(map[string]time.Time),
		debounceDur: debounce,
		now:         time.Now,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start adds root and its visible subdirectories to the watch list and
// begins the event loop in a goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
	if err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		_ = w.watcher.Close()
		return err
	}
	w.logger.Info("watching documents", zap.String("root", w.root), zap.Strings("extensions", w.exts))

	go w.run(ctx)
	return nil
}

// Stop stops the event loop, waits for in-flight handlers and closes the
// underlying watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	w.inner.Wait()

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("error closing watcher", zap.Error(err))
	}
	w.logger.Debug("watcher stopped")
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(tickInterval(w.debounceDur))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-ticker.C:
			w.dispatch(ctx, w.due())
		}
	}
}

func tickInterval(debounce time.Duration) time.Duration {
	tick := debounce / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	if tick > 100*time.Millisecond {
		tick = 100 * time.Millisecond
	}
	return tick
}

func (w *Watcher) matches(name string) bool {
	if len(w.exts) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, e := range w.exts {
		if strings.HasSuffix(lower, e) {
			return true
		}
	}
	return false
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	var eventType string
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
		// new directories join the watch list
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !strings.HasPrefix(filepath.Base(event.Name), ".") {
				if err := w.watcher.Add(event.Name); err != nil {
					w.logger.Warn("failed to watch new directory", zap.String("path", event.Name), zap.Error(err))
				}
			}
			return
		}
	case event.Op&fsnotify.Write != 0:
		eventType = "modify"
	default:
		// removals and renames leave nothing to export
		return
	}

	if !w.matches(event.Name) {
		return
	}

	w.logger.Debug("document event", zap.String("type", eventType), zap.String("path", event.Name))

	w.mu.Lock()
	now := w.now()
	w.stats.Events++
	w.stats.LastEventTime = now
	w.stats.LastEventPath = event.Name
	w.stats.LastEventType = eventType
	w.debounceMap[event.Name] = now
	w.mu.Unlock()
}

// due removes and returns the paths that have been quiet for the debounce window.
func (w *Watcher) due() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	var ready []string
	for path, at := range w.debounceMap {
		if now.Sub(at) >= w.debounceDur {
			ready = append(ready, path)
			delete(w.debounceMap, path)
		}
	}
	return ready
}

func (w *Watcher) dispatch(ctx context.Context, paths []string) {
	for _, path := range paths {
		w.inner.Add(1)
		go func(path string) {
			defer w.inner.Done()
			w.handle(ctx, path)
		}(path)
	}
}

func (w *Watcher) handle(ctx context.Context, path string) {
	_, err, shared := w.group.Do(path, func() (interface{}, error) {
		return nil, w.handler(ctx, path)
	})

	w.mu.Lock()
	defer w.mu.Unlock()
	if shared {
		w.stats.Shared++
	}
	if err != nil {
		w.stats.Errors++
		w.logger.Warn("document export failed", zap.String("path", path), zap.Error(err))
		return
	}
	w.stats.Handled++
}

// Stats returns a snapshot of the watcher counters.
func (w *Watcher) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// IsWatching reports whether the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// WatchedDirs returns the directories on the watch list.
func (w *Watcher) WatchedDirs() []string {
	return w.watcher.WatchList()
}
