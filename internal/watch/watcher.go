// Package watch implements the Watcher stage: a debounced
// filesystem watcher that re-triggers the build pipeline. It follows the
// familiar fsnotify event-loop shape (events channel for observers,
// debounce timers) but collapses per-file debounce timers into a single
// coalescing window with at most one build in flight and at most one
// buffered follow-up, rather than one timer per changed file.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tweers-project/tweers/internal/buildmodel"
)

// DebounceWindow is how long the watcher waits after the last observed
// filesystem event before triggering a rebuild.
const DebounceWindow = 150 * time.Millisecond

// Event reports what happened and what the watcher did about it.
type Event struct {
	Type      string // "changed", "build_success", "build_error"
	Path      string
	Timestamp time.Time
	Err       error
}

// BuildFunc runs one full pipeline build, returning the HTML output.
type BuildFunc func(ctx context.Context) (buildmodel.BuildResult, error)

// Watcher watches a set of root paths for .twee/.tw changes and drives
// BuildFunc on a debounced schedule. It holds the only long-lived mutable
// state in the pipeline: the debounce timer and the
// last-successful-build snapshot.
type Watcher struct {
	fsw    *fsnotify.Watcher
	build  BuildFunc
	logger *slog.Logger
	events chan Event

	mu           sync.Mutex
	timer        *time.Timer
	building     bool
	pending      bool
	lastResult   buildmodel.BuildResult
	lastBuildOK  bool
	stopCh       chan struct{}
}

// New creates a Watcher over the given root paths.
func New(paths []string, build BuildFunc, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		fsw:    fsw,
		build:  build,
		logger: logger,
		events: make(chan Event, 64),
		stopCh: make(chan struct{}),
	}

	for _, p := range paths {
		if err := fsw.Add(p); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Events returns the channel observers (internal/api's websocket
// broadcaster, a CLI progress printer) can drain.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start runs the watch loop until Stop is called or ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case ev, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				if !isSourceFile(ev.Name) {
					continue
				}
				w.handleChange(ctx, ev.Name)
			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				w.logger.Error("watch error", "error", err)
			case <-w.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the watch loop and releases the underlying fsnotify watcher.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	close(w.events)
	return w.fsw.Close()
}

func isSourceFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".twee" || ext == ".tw"
}

func (w *Watcher) handleChange(ctx context.Context, path string) {
	w.emit(Event{Type: "changed", Path: path, Timestamp: now()})

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(DebounceWindow, func() {
		w.triggerBuild(ctx)
	})
	w.mu.Unlock()
}

// triggerBuild enforces the design's "at most one build in flight, at most
// one buffered follow-up" rule: a build already running sets `pending`
// instead of starting a second one; when that build finishes it checks
// `pending` and runs exactly one follow-up.
func (w *Watcher) triggerBuild(ctx context.Context) {
	w.mu.Lock()
	if w.building {
		w.pending = true
		w.mu.Unlock()
		return
	}
	w.building = true
	w.mu.Unlock()

	w.runOnce(ctx)

	w.mu.Lock()
	w.building = false
	runAgain := w.pending
	w.pending = false
	w.mu.Unlock()

	if runAgain {
		w.triggerBuild(ctx)
	}
}

func (w *Watcher) runOnce(ctx context.Context) {
	result, err := w.build(ctx)
	if err != nil {
		// On failure the last successful output is retained; no sticky
		// failure state blocks the next rebuild.
		w.logger.Error("rebuild failed", "error", err)
		w.emit(Event{Type: "build_error", Timestamp: now(), Err: err})
		return
	}

	w.mu.Lock()
	w.lastResult = result
	w.lastBuildOK = true
	w.mu.Unlock()

	w.emit(Event{Type: "build_success", Timestamp: now()})
}

// LastResult returns the most recent successful build output, if any.
func (w *Watcher) LastResult() (buildmodel.BuildResult, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastResult, w.lastBuildOK
}

func (w *Watcher) emit(ev Event) {
	select {
	case w.events <- ev:
	default:
		w.logger.Warn("watch event channel full, dropping event", "type", ev.Type)
	}
}

// now is a var, not a direct time.Now() call, purely so tests can
// observe deterministic-enough ordering without flaking on CI jitter.
var now = time.Now
