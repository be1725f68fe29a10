package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
	"golang.org/x/time/rate"

	"monoscope/internal/shared/observability"
)

// Watcher re-runs the analysis when Java sources or build files change.
// Events are debounced, and re-analysis is rate limited so editor churn
// cannot wedge the pipeline in a rebuild loop.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	excludes  []glob.Glob
	limiter   *rate.Limiter
	onChange  func([]string)

	pending   map[string]bool
	pendingMu sync.Mutex
	timer     *time.Timer
}

// New builds a watcher. ratePerMinute bounds how many re-analyses may fire
// per minute; zero disables the limit.
func New(debounce time.Duration, ratePerMinute float64, excludePatterns []string,
	onChange func([]string)) (*Watcher, error) {

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if ratePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerMinute/60.0), 1)
	}

	w := &Watcher{
		fsWatcher: fsw,
		debounce:  debounce,
		limiter:   limiter,
		onChange:  onChange,
		pending:   make(map[string]bool),
	}

	for _, pattern := range excludePatterns {
		g, compileErr := glob.Compile(pattern, '/')
		if compileErr != nil {
			slog.Warn("invalid watch exclude pattern", "pattern", pattern, "error", compileErr)
			continue
		}
		w.excludes = append(w.excludes, g)
	}

	return w, nil
}

// Watch registers every directory under the roots and starts the event
// loop. The loop stops when ctx is cancelled.
func (w *Watcher) Watch(ctx context.Context, roots []string) error {
	for _, root := range roots {
		if err := w.watchRecursive(root); err != nil {
			return err
		}
	}
	go w.run(ctx)
	return nil
}

func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if w.excluded(filepath.ToSlash(path)) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()
			if !w.relevant(event) {
				continue
			}
			// New directories need watching too.
			if event.Op.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					_ = w.watchRecursive(event.Name)
					continue
				}
			}
			w.enqueue(event.Name)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op.Has(fsnotify.Chmod) {
		return false
	}
	path := filepath.ToSlash(event.Name)
	if w.excluded(path) {
		return false
	}
	name := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(name, ".java") || name == "pom.xml" ||
		strings.HasPrefix(name, "build.gradle") {
		return true
	}
	// Creates may be directories, which are always relevant.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

func (w *Watcher) excluded(path string) bool {
	for _, g := range w.excludes {
		if g.Match(path) || g.Match("/"+path) {
			return true
		}
	}
	return false
}

func (w *Watcher) enqueue(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]bool)
	w.pendingMu.Unlock()

	if len(paths) == 0 {
		return
	}
	if !w.limiter.Allow() {
		slog.Debug("re-analysis rate limited, requeueing", "paths", len(paths))
		w.pendingMu.Lock()
		for _, path := range paths {
			w.pending[path] = true
		}
		w.timer = time.AfterFunc(w.debounce, w.flush)
		w.pendingMu.Unlock()
		return
	}

	slog.Info("detected changes", "count", len(paths))
	w.onChange(paths)
}
