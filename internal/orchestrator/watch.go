package orchestrator

import (
	"context"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/mikeparcewski/wicked-search/internal/discovery"
	"github.com/mikeparcewski/wicked-search/internal/obs"
)

// Watch runs one full Index immediately, then re-indexes incrementally
// every time discovery.Watcher fires, until ctx is canceled. Every
// directory under the project root is added to the underlying fsnotify
// watch up front; directories created afterward are picked up on the next
// scheduled reindex's own Walk, not live, matching the scope Watcher's own
// doc comment describes.
func (o *Orchestrator) Watch(ctx context.Context, project string) error {
	if _, err := o.Index(ctx, project, true); err != nil {
		return err
	}

	debounce := time.Duration(o.cfg.Index.WatchDebounceMs) * time.Millisecond
	reindexErrCh := make(chan error, 1)

	w, err := discovery.NewWatcher(debounce, func() {
		obs.Infof("change detected, reindexing", obs.F("project", project))
		if _, err := o.Index(ctx, project, true); err != nil {
			obs.Errorf("watch reindex failed", obs.F("error", err.Error()))
			select {
			case reindexErrCh <- err:
			default:
			}
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addTreeToWatch(w, o.cfg.Project.Root); err != nil {
		return err
	}

	go w.Run(ctx)

	select {
	case <-ctx.Done():
		return nil
	case err := <-reindexErrCh:
		return err
	}
}

// addTreeToWatch registers every directory under root with fsnotify
// up front, since fsnotify only watches the directories it's explicitly
// told about, never a subtree recursively.
func addTreeToWatch(w *discovery.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		if addErr := w.Add(path); addErr != nil {
			obs.Warnf("watch: cannot add directory", obs.F("dir", path), obs.F("error", addErr.Error()))
		}
		return nil
	})
}
