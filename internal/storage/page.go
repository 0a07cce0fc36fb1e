package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"molink/internal/domain"
)

// PageStore implements domain.PageStore on a SQL database.
type PageStore struct {
	db *DB
}

func NewPageStore(db *DB) *PageStore {
	return &PageStore{db: db}
}

var _ domain.PageStore = (*PageStore)(nil)

const pageColumns = `id, title, cover, linked_file, sort_order, created_at, updated_at`

func scanPage(row interface{ Scan(...any) error }, p *domain.Page) error {
	return row.Scan(&p.ID, &p.Title, &p.Cover, &p.LinkedFile, &p.Order, &p.CreatedAt, &p.UpdatedAt)
}

// CreatePage inserts p at the end of the page list. An empty ID is filled in.
func (s *PageStore) CreatePage(p *domain.Page) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if err := s.db.conn.QueryRow(s.db.q(`SELECT COALESCE(MAX(sort_order), -1) + 1 FROM pages`)).Scan(&p.Order); err != nil {
		return fmt.Errorf("next page order: %w", err)
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := s.db.conn.Exec(
		s.db.q(`INSERT INTO pages (`+pageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.Title, p.Cover, p.LinkedFile, p.Order, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create page: %w", err)
	}
	return nil
}

func (s *PageStore) GetPage(id string) (*domain.Page, error) {
	p := &domain.Page{}
	err := scanPage(s.db.conn.QueryRow(s.db.q(`SELECT `+pageColumns+` FROM pages WHERE id = ?`), id), p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get page %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get page: %w", err)
	}
	return p, nil
}

func (s *PageStore) ListPages() ([]domain.Page, error) {
	rows, err := s.db.conn.Query(s.db.q(`SELECT ` + pageColumns + ` FROM pages ORDER BY sort_order ASC, created_at ASC`))
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var pages []domain.Page
	for rows.Next() {
		var p domain.Page
		if err := scanPage(rows, &p); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func (s *PageStore) UpdatePage(p *domain.Page) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := s.db.conn.Exec(
		s.db.q(`UPDATE pages SET title = ?, cover = ?, linked_file = ?, sort_order = ?, updated_at = ? WHERE id = ?`),
		p.Title, p.Cover, p.LinkedFile, p.Order, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update page: %w", err)
	}
	return expectOne(res, "update page", p.ID)
}

// DeletePage removes the page and all of its blocks.
func (s *PageStore) DeletePage(id string) error {
	tx, err := s.db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(s.db.q(`DELETE FROM blocks WHERE page_id = ?`), id); err != nil {
		return fmt.Errorf("delete blocks: %w", err)
	}
	res, err := tx.Exec(s.db.q(`DELETE FROM pages WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	if err := expectOne(res, "delete page", id); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadDocument reads a page and rebuilds its block forest.
func (s *PageStore) LoadDocument(pageID string) (*domain.Document, error) {
	page, err := s.GetPage(pageID)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.conn.Query(
		s.db.q(`SELECT id, parent_id, type, content, checked FROM blocks WHERE page_id = ? ORDER BY parent_id ASC, sort_order ASC`),
		pageID,
	)
	if err != nil {
		return nil, fmt.Errorf("load blocks: %w", err)
	}
	defer rows.Close()

	byParent := make(map[string][]*domain.Block)
	for rows.Next() {
		var (
			b        domain.Block
			parentID string
			content  string
		)
		if err := rows.Scan(&b.ID, &parentID, &b.Kind, &content, &b.Checked); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		b.SetText(content)
		byParent[parentID] = append(byParent[parentID], &b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var attach func(blocks []*domain.Block)
	attach = func(blocks []*domain.Block) {
		for _, b := range blocks {
			if children := byParent[b.ID]; len(children) > 0 {
				b.Children = children
				b.Runs = nil
				attach(children)
			}
		}
	}
	roots := byParent[""]
	attach(roots)

	doc := &domain.Document{Page: *page, Blocks: roots}
	if len(doc.Blocks) == 0 {
		doc.Blocks = []*domain.Block{domain.NewBlock(domain.KindParagraph, "")}
	}
	return doc, nil
}

// SaveDocument atomically replaces all blocks of the page with doc's tree.
func (s *PageStore) SaveDocument(doc *domain.Document) error {
	tx, err := s.db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.Exec(s.db.q(`UPDATE pages SET updated_at = ? WHERE id = ?`), now, doc.Page.ID)
	if err != nil {
		return fmt.Errorf("touch page: %w", err)
	}
	if err := expectOne(res, "save document", doc.Page.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(s.db.q(`DELETE FROM blocks WHERE page_id = ?`), doc.Page.ID); err != nil {
		return fmt.Errorf("delete blocks: %w", err)
	}

	insert := s.db.q(`INSERT INTO blocks (id, page_id, parent_id, sort_order, type, content, checked) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	var werr error
	var walk func(parentID string, blocks []*domain.Block)
	walk = func(parentID string, blocks []*domain.Block) {
		for i, b := range blocks {
			if werr != nil {
				return
			}
			if _, err := tx.Exec(insert, b.ID, doc.Page.ID, parentID, i, string(b.Kind), b.Text(), b.Checked); err != nil {
				werr = fmt.Errorf("insert block %s: %w", b.ID, err)
				return
			}
			walk(b.ID, b.Children)
		}
	}
	walk("", doc.Blocks)
	if werr != nil {
		return werr
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	doc.Page.UpdatedAt = now
	return nil
}

func expectOne(res sql.Result, op, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", op, id, domain.ErrNotFound)
	}
	return nil
}
