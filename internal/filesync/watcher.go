package filesync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"molink/internal/domain"
	"molink/internal/logger"
)

// Reimporter replaces a page's content with Markdown source.
type Reimporter interface {
	ReplaceWithMarkdown(ctx context.Context, pageID string, src []byte) error
}

// Watcher keeps pages in sync with their linked Markdown files. When a linked
// file is written, its content is re-imported into the page. Sync is one way:
// the watcher never writes files.
type Watcher struct {
	watcher *fsnotify.Watcher
	target  Reimporter
	log     *logger.Logger

	mu       sync.RWMutex
	watching map[string]string // abs file path -> page id
	dirs     map[string]int    // watched dir -> number of linked files in it
	last     map[string]string // abs file path -> last imported content
}

// New creates a watcher. Call Run to start processing file events.
func New(target Reimporter, log *logger.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Watcher{
		watcher:  fw,
		target:   target,
		log:      log.With("component", "filesync"),
		watching: make(map[string]string),
		dirs:     make(map[string]int),
		last:     make(map[string]string),
	}, nil
}

// WatchPages watches the linked file of every page that has one. Pages whose
// file cannot be watched are logged and skipped.
func (w *Watcher) WatchPages(pages []domain.Page) {
	for _, p := range pages {
		if p.LinkedFile == "" {
			continue
		}
		if err := w.Watch(p.ID, p.LinkedFile); err != nil {
			w.log.Warn("cannot watch linked file", "page", p.ID, "file", p.LinkedFile, "error", err)
		}
	}
}

// Watch links path to pageID. A page has at most one linked file; watching a
// new path replaces the previous one. A file has at most one page; linking a
// file another page owns moves it to pageID.
func (w *Watcher) Watch(pageID, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w.Unwatch(pageID)

	w.mu.Lock()
	defer w.mu.Unlock()

	if prev, ok := w.watching[absPath]; ok {
		w.watching[absPath] = pageID
		w.log.Info("linked file moved to page", "file", absPath, "from", prev, "page", pageID)
		return nil
	}

	// fsnotify watches directories so that editors replacing the file by
	// rename are still seen.
	dir := filepath.Dir(absPath)
	if w.dirs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.dirs[dir]++
	w.watching[absPath] = pageID
	w.log.Info("watching linked file", "page", pageID, "file", absPath)
	return nil
}

// Unwatch stops syncing the page's linked file.
func (w *Watcher) Unwatch(pageID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, id := range w.watching {
		if id != pageID {
			continue
		}
		delete(w.watching, path)
		delete(w.last, path)
		dir := filepath.Dir(path)
		w.dirs[dir]--
		if w.dirs[dir] <= 0 {
			delete(w.dirs, dir)
			_ = w.watcher.Remove(dir)
		}
		return
	}
}

// Watched returns the page linked to path, if any.
func (w *Watcher) Watched(path string) (string, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	id, ok := w.watching[absPath]
	return id, ok
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.sync(ctx, event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) sync(ctx context.Context, name string) {
	absPath, _ := filepath.Abs(name)
	w.mu.RLock()
	pageID, watched := w.watching[absPath]
	w.mu.RUnlock()
	if !watched {
		return
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		w.log.Warn("read linked file", "file", absPath, "error", err)
		return
	}

	// Editors often emit several events per save.
	w.mu.Lock()
	if w.last[absPath] == string(content) {
		w.mu.Unlock()
		return
	}
	w.last[absPath] = string(content)
	w.mu.Unlock()

	if err := w.target.ReplaceWithMarkdown(ctx, pageID, content); err != nil {
		w.log.Error("re-import linked file", "page", pageID, "file", absPath, "error", err)
		return
	}
	w.log.Debug("linked file re-imported", "page", pageID, "file", absPath)
}
