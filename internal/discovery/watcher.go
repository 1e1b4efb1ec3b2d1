package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mikeparcewski/wicked-search/internal/obs"
)

// Watcher is the --watch CLI convenience (spec.md's distillation drops
// live-editor integration; this is the bounded, debounced "re-index on
// save" loop the original tool's watch mode reduces to). Grounded on the
// teacher's FileWatcher (internal/indexing/watcher.go), trimmed to the one
// thing the Incremental Orchestrator needs: a debounced "something under
// root changed" signal, not per-event create/write/remove classification.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	onChange func()

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a watcher with no directories; each directory to
// watch must be passed to Add. fsnotify does not watch subtrees
// recursively, and this package does not add directories created later.
func NewWatcher(debounce time.Duration, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{fsw: fsw, debounce: debounce, onChange: onChange}, nil
}

func (w *Watcher) Add(dir string) error {
	return w.fsw.Add(dir)
}

func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run blocks until ctx is canceled, firing onChange at most once per
// debounce window regardless of how many filesystem events land inside it.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			obs.Warnf("watch error", obs.F("error", err.Error()))
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.onChange()
}
