package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"molink/internal/domain"
	"molink/internal/logger"
)

// ─────────────────────────────────────────────────────────────
// Page Service: page metadata and stored documents
// ─────────────────────────────────────────────────────────────

// PageService manages page metadata. Block content of open pages is owned by
// the Workspace; PageService only reads and writes stored documents.
type PageService struct {
	store   domain.PageStore
	emitter EventEmitter
	log     *logger.Logger
}

// NewPageService creates a PageService.
func NewPageService(store domain.PageStore, emitter EventEmitter, log *logger.Logger) *PageService {
	if log == nil {
		log = logger.Nop()
	}
	return &PageService{store: store, emitter: emitter, log: log.With("component", "pages")}
}

func (s *PageService) ListPages() ([]domain.Page, error) {
	return s.store.ListPages()
}

func (s *PageService) GetPage(id string) (*domain.Page, error) {
	return s.store.GetPage(id)
}

// CreatePage creates a page holding one empty paragraph.
func (s *PageService) CreatePage(ctx context.Context, title string) (*domain.Page, error) {
	return s.createWithBlocks(ctx, title, nil)
}

func (s *PageService) createWithBlocks(ctx context.Context, title string, blocks []*domain.Block) (*domain.Page, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled"
	}
	page := &domain.Page{ID: uuid.New().String(), Title: title}
	if err := s.store.CreatePage(page); err != nil {
		return nil, err
	}
	doc := domain.NewDocument(*page)
	if len(blocks) > 0 {
		doc.Blocks = blocks
	}
	if err := s.store.SaveDocument(doc); err != nil {
		return nil, fmt.Errorf("save new page: %w", err)
	}
	s.log.Info("page created", "page", page.ID, "title", page.Title)
	s.emitter.Emit(ctx, EventPageCreated, page)
	return page, nil
}

func (s *PageService) RenamePage(ctx context.Context, id, title string) (*domain.Page, error) {
	return s.update(ctx, id, func(p *domain.Page) { p.Title = strings.TrimSpace(title) })
}

// SetCover sets the page's cover reference; an empty cover removes it.
func (s *PageService) SetCover(ctx context.Context, id, cover string) (*domain.Page, error) {
	return s.update(ctx, id, func(p *domain.Page) { p.Cover = cover })
}

// SetLinkedFile records the Markdown file a page is kept in sync with.
func (s *PageService) SetLinkedFile(ctx context.Context, id, path string) (*domain.Page, error) {
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", path, err)
		}
		path = abs
	}
	return s.update(ctx, id, func(p *domain.Page) { p.LinkedFile = path })
}

func (s *PageService) update(ctx context.Context, id string, fn func(*domain.Page)) (*domain.Page, error) {
	page, err := s.store.GetPage(id)
	if err != nil {
		return nil, err
	}
	fn(page)
	if err := s.store.UpdatePage(page); err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, EventPageUpdated, page)
	return page, nil
}

func (s *PageService) DeletePage(ctx context.Context, id string) error {
	if err := s.store.DeletePage(id); err != nil {
		return err
	}
	s.log.Info("page deleted", "page", id)
	s.emitter.Emit(ctx, EventPageDeleted, id)
	return nil
}

// LinkedPages returns every page that has a linked Markdown file.
func (s *PageService) LinkedPages() ([]domain.Page, error) {
	pages, err := s.store.ListPages()
	if err != nil {
		return nil, err
	}
	var linked []domain.Page
	for _, p := range pages {
		if p.LinkedFile != "" {
			linked = append(linked, p)
		}
	}
	return linked, nil
}

// LoadDocument reads the stored document of a page.
func (s *PageService) LoadDocument(id string) (*domain.Document, error) {
	return s.store.LoadDocument(id)
}

// SaveDocument writes doc's block tree.
func (s *PageService) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if err := s.store.SaveDocument(doc); err != nil {
		return err
	}
	s.emitter.Emit(ctx, EventPageSaved, doc.Page.ID)
	return nil
}
