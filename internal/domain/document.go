package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores when the requested page does not exist.
var ErrNotFound = errors.New("not found")

// Page is the metadata of one editable page.
type Page struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Cover      string    `json:"cover"`      // cover image reference, empty when unset
	LinkedFile string    `json:"linkedFile"` // markdown file kept in sync with the page
	Order      int       `json:"order"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Document is the block content of a page plus its metadata.
// Blocks is the single top-level ordered sequence of the page.
type Document struct {
	Page   Page     `json:"page"`
	Blocks []*Block `json:"blocks"`
}

// NewDocument returns a document for page holding one empty paragraph.
func NewDocument(page Page) *Document {
	return &Document{
		Page:   page,
		Blocks: []*Block{NewBlock(KindParagraph, "")},
	}
}

// Clone deep-copies the document, keeping block identities.
func (d *Document) Clone() *Document {
	c := &Document{Page: d.Page, Blocks: make([]*Block, len(d.Blocks))}
	for i, b := range d.Blocks {
		c.Blocks[i] = b.Clone()
	}
	return c
}

// Walk visits every block in document order with its path.
// Returning false from fn skips the block's children.
func (d *Document) Walk(fn func(p Path, b *Block) bool) {
	var walk func(parent Path, blocks []*Block)
	walk = func(parent Path, blocks []*Block) {
		for i, b := range blocks {
			p := parent.Child(i)
			if fn(p, b) {
				walk(p, b.Children)
			}
		}
	}
	walk(Path{}, d.Blocks)
}

// PageStore persists pages and their block trees.
type PageStore interface {
	CreatePage(p *Page) error
	GetPage(id string) (*Page, error)
	ListPages() ([]Page, error)
	UpdatePage(p *Page) error
	DeletePage(id string) error

	LoadDocument(pageID string) (*Document, error)
	SaveDocument(doc *Document) error
}
