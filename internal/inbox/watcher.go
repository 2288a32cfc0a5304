package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mgomes/plagdrop/internal/drop"
	"go.uber.org/zap"
)

const debounceDelay = 500 * time.Millisecond

// Gesture is a batch of files that landed in the inbox close together.
type Gesture struct {
	Paths []string
}

func (g Gesture) Providers() []drop.Provider {
	providers := make([]drop.Provider, 0, len(g.Paths))
	for _, p := range g.Paths {
		providers = append(providers, drop.FileProvider(p))
	}
	return providers
}

type GestureFunc func(Gesture)

// Watcher turns files dropped into a directory into drop gestures.
type Watcher struct {
	dir       string
	watcher   *fsnotify.Watcher
	pending   map[string]time.Time
	mu        sync.Mutex
	onGesture GestureFunc
	logger    *zap.Logger
	debounce  time.Duration
}

func NewWatcher(dir string, onGesture GestureFunc, logger *zap.Logger) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("inbox directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("inbox %s is not a directory", dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Watcher{
		dir:       dir,
		watcher:   fsw,
		pending:   make(map[string]time.Time),
		onGesture: onGesture,
		logger:    logger,
		debounce:  debounceDelay,
	}, nil
}

// Start watches until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	defer w.watcher.Close() //nolint:errcheck

	w.logger.Info("watching inbox", zap.String("dir", w.dir))

	go w.processEvents(ctx)

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.flush(time.Now())
		}
	}
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event, time.Now())
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("inbox watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event, at time.Time) {
	name := filepath.Base(event.Name)
	if isHidden(name) || !isDroppable(name) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case event.Op&fsnotify.Write == fsnotify.Write,
		event.Op&fsnotify.Create == fsnotify.Create:
		w.pending[event.Name] = at

	case event.Op&fsnotify.Remove == fsnotify.Remove,
		event.Op&fsnotify.Rename == fsnotify.Rename:
		delete(w.pending, event.Name)
	}
}

// collectReady removes and returns files that have been quiet for the
// debounce delay. A batch is only released once every pending file is quiet,
// so files copied together stay in one gesture.
func (w *Watcher) collectReady(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pending) == 0 {
		return nil
	}
	for _, ts := range w.pending {
		if now.Sub(ts) < w.debounce {
			return nil
		}
	}

	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	clear(w.pending)
	return paths
}

func (w *Watcher) flush(now time.Time) {
	paths := w.collectReady(now)
	if len(paths) == 0 {
		return
	}
	w.logger.Info("inbox gesture", zap.Strings("paths", paths))
	if w.onGesture != nil {
		w.onGesture(Gesture{Paths: paths})
	}
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func isDroppable(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".pdf":
		return true
	default:
		return false
	}
}
