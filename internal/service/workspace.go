package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"molink/internal/domain"
	"molink/internal/editor"
	"molink/internal/logger"
	"molink/internal/markdown"
)

// ─────────────────────────────────────────────────────────────
// Workspace: live editing sessions, one per open page
// ─────────────────────────────────────────────────────────────

// Workspace owns the editing sessions of open pages. Every page has exactly
// one session; events for a page are serialized on its lock. Edits mark the
// page dirty and Flush writes dirty pages back through the PageService.
type Workspace struct {
	pages   *PageService
	emitter EventEmitter
	log     *logger.Logger
	layout  editor.LayoutOptions

	mu    sync.Mutex
	open  map[string]*openPage
	saves saveGuard
}

type openPage struct {
	mu      sync.Mutex
	session *editor.Session
	dirty   bool
}

// NewWorkspace creates a workspace. layout sizes the headless geometry each
// session uses to resolve pointer coordinates.
func NewWorkspace(pages *PageService, emitter EventEmitter, log *logger.Logger, layout editor.LayoutOptions) *Workspace {
	if log == nil {
		log = logger.Nop()
	}
	return &Workspace{
		pages:   pages,
		emitter: emitter,
		log:     log.With("component", "workspace"),
		layout:  layout,
		open:    make(map[string]*openPage),
	}
}

// Pages returns the page service the workspace persists through.
func (w *Workspace) Pages() *PageService {
	return w.pages
}

// page returns the open page, loading its document on first use.
func (w *Workspace) page(ctx context.Context, pageID string) (*openPage, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if op, ok := w.open[pageID]; ok {
		return op, nil
	}
	doc, err := w.pages.LoadDocument(pageID)
	if err != nil {
		return nil, err
	}
	op := &openPage{}
	emitCtx := context.WithoutCancel(ctx)
	op.session = editor.NewSession(doc,
		editor.WithGeometry(editor.NewStackLayout(w.layout)),
		editor.WithLogger(w.log.SugaredLogger.With("page", pageID)),
		editor.WithPersister(editor.PersisterFunc(func(*domain.Document) error {
			// Called with op.mu held by the dispatching goroutine.
			op.dirty = true
			w.emitter.Emit(emitCtx, EventBlocksChanged, pageID)
			return nil
		})),
	)
	w.open[pageID] = op
	w.log.Debug("session opened", "page", pageID)
	return op, nil
}

// Dispatch delivers one input event to the page's session.
func (w *Workspace) Dispatch(ctx context.Context, pageID string, ev editor.Event) error {
	return w.Edit(ctx, pageID, func(s *editor.Session) error {
		return s.Dispatch(ev)
	})
}

// Edit runs fn with exclusive access to the page's session.
func (w *Workspace) Edit(ctx context.Context, pageID string, fn func(*editor.Session) error) error {
	op, err := w.page(ctx, pageID)
	if err != nil {
		return err
	}
	op.mu.Lock()
	defer op.mu.Unlock()
	return fn(op.session)
}

// Snapshot returns a copy of the page's live document.
func (w *Workspace) Snapshot(ctx context.Context, pageID string) (*domain.Document, error) {
	var doc *domain.Document
	err := w.Edit(ctx, pageID, func(s *editor.Session) error {
		doc = s.Document().Clone()
		return nil
	})
	return doc, err
}

// Reload replaces the page's blocks, e.g. from a re-imported file.
func (w *Workspace) Reload(ctx context.Context, pageID string, blocks []*domain.Block) error {
	return w.Edit(ctx, pageID, func(s *editor.Session) error {
		return s.Reload(blocks)
	})
}

// ── Markdown ───────────────────────────────────────────────

// ImportMarkdown creates a new page from Markdown source. The title is the
// first level-one heading, else fallback.
func (w *Workspace) ImportMarkdown(ctx context.Context, src []byte, fallback string) (*domain.Page, error) {
	title := markdown.Title(src)
	if title == "" {
		title = fallback
	}
	return w.pages.createWithBlocks(ctx, title, markdown.Import(src))
}

// ImportFile creates a new page from a Markdown file.
func (w *Workspace) ImportFile(ctx context.Context, path string) (*domain.Page, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return w.ImportMarkdown(ctx, src, name)
}

// ReplaceWithMarkdown replaces an existing page's content with Markdown source.
func (w *Workspace) ReplaceWithMarkdown(ctx context.Context, pageID string, src []byte) error {
	return w.Reload(ctx, pageID, markdown.Import(src))
}

// ExportMarkdown renders the page's current content as Markdown.
func (w *Workspace) ExportMarkdown(ctx context.Context, pageID string) (string, error) {
	doc, err := w.Snapshot(ctx, pageID)
	if err != nil {
		return "", err
	}
	return markdown.Export(doc.Blocks), nil
}

// LinkFile links the page to a Markdown file and imports the file's content.
// The file watcher keeps the page in sync afterwards.
func (w *Workspace) LinkFile(ctx context.Context, pageID, path string) (*domain.Page, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	page, err := w.pages.SetLinkedFile(ctx, pageID, path)
	if err != nil {
		return nil, err
	}
	if err := w.ReplaceWithMarkdown(ctx, pageID, src); err != nil {
		return nil, err
	}
	return page, nil
}

// ── Lifecycle ──────────────────────────────────────────────

// Flush writes every dirty page. Pages already being saved are skipped;
// their next edit marks them dirty again.
func (w *Workspace) Flush(ctx context.Context) error {
	w.mu.Lock()
	ids := make([]string, 0, len(w.open))
	for id := range w.open {
		ids = append(ids, id)
	}
	w.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := w.FlushPage(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FlushPage writes the page if it has unsaved edits.
func (w *Workspace) FlushPage(ctx context.Context, pageID string) error {
	w.mu.Lock()
	op, ok := w.open[pageID]
	w.mu.Unlock()
	if !ok {
		return nil
	}
	if !w.saves.TryLock(pageID) {
		return nil
	}
	defer w.saves.Unlock(pageID)

	op.mu.Lock()
	if !op.dirty {
		op.mu.Unlock()
		return nil
	}
	doc := op.session.Document().Clone()
	op.dirty = false
	op.mu.Unlock()

	if err := w.pages.SaveDocument(ctx, doc); err != nil {
		op.mu.Lock()
		op.dirty = true
		op.mu.Unlock()
		return fmt.Errorf("flush page %s: %w", pageID, err)
	}
	w.log.Debug("page saved", "page", pageID)
	return nil
}

// Dirty reports whether the page has unsaved edits.
func (w *Workspace) Dirty(pageID string) bool {
	w.mu.Lock()
	op, ok := w.open[pageID]
	w.mu.Unlock()
	if !ok {
		return false
	}
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.dirty
}

// Close flushes the page and drops its session.
func (w *Workspace) Close(ctx context.Context, pageID string) error {
	w.saves.WaitAll(ctx)
	if err := w.FlushPage(ctx, pageID); err != nil {
		return err
	}
	w.mu.Lock()
	delete(w.open, pageID)
	w.mu.Unlock()
	return nil
}

// Delete drops the page's session without saving and deletes the page.
func (w *Workspace) Delete(ctx context.Context, pageID string) error {
	w.mu.Lock()
	delete(w.open, pageID)
	w.mu.Unlock()
	return w.pages.DeletePage(ctx, pageID)
}

// Shutdown waits for running saves and flushes everything still dirty.
func (w *Workspace) Shutdown(ctx context.Context) error {
	w.saves.WaitAll(ctx)
	return w.Flush(ctx)
}
