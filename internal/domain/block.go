package domain

import (
	"strings"

	"github.com/google/uuid"
)

// BlockKind is the closed set of block types a page can hold.
type BlockKind string

const (
	KindParagraph     BlockKind = "paragraph"
	KindHeading1      BlockKind = "heading-one"
	KindHeading2      BlockKind = "heading-two"
	KindHeading3      BlockKind = "heading-three"
	KindHeading4      BlockKind = "heading-four"
	KindTodo          BlockKind = "todo"
	KindBulletedList  BlockKind = "bulleted-list"
	KindNumberedList  BlockKind = "numbered-list"
	KindToggleList    BlockKind = "toggle-list"
	KindBlockquote    BlockKind = "blockquote"
	KindCodeBlock     BlockKind = "code-block"
	KindMathBlock     BlockKind = "math-block"
	KindEmphasisBlock BlockKind = "emphasis-block"
)

// KindInfo describes how a block kind behaves structurally.
// Container kinds may hold child blocks; leaf kinds hold inline text only.
type KindInfo struct {
	Container bool
	// Allowed lists the child kinds a container accepts. Nil means any kind.
	Allowed []BlockKind
	// SplitAs is the kind of the new block produced by a line break inside this kind.
	SplitAs BlockKind
}

var listChildren = []BlockKind{KindParagraph, KindTodo, KindBulletedList, KindNumberedList, KindToggleList}

var kindTable = map[BlockKind]KindInfo{
	KindParagraph:     {SplitAs: KindParagraph},
	KindHeading1:      {SplitAs: KindParagraph},
	KindHeading2:      {SplitAs: KindParagraph},
	KindHeading3:      {SplitAs: KindParagraph},
	KindHeading4:      {SplitAs: KindParagraph},
	KindTodo:          {SplitAs: KindTodo},
	KindBulletedList:  {Container: true, Allowed: listChildren, SplitAs: KindBulletedList},
	KindNumberedList:  {Container: true, Allowed: listChildren, SplitAs: KindNumberedList},
	KindToggleList:    {Container: true, SplitAs: KindToggleList},
	KindBlockquote:    {SplitAs: KindBlockquote},
	KindCodeBlock:     {SplitAs: KindParagraph},
	KindMathBlock:     {SplitAs: KindParagraph},
	KindEmphasisBlock: {SplitAs: KindParagraph},
}

// Kinds returns every known block kind.
func Kinds() []BlockKind {
	return []BlockKind{
		KindParagraph, KindHeading1, KindHeading2, KindHeading3, KindHeading4,
		KindTodo, KindBulletedList, KindNumberedList, KindToggleList,
		KindBlockquote, KindCodeBlock, KindMathBlock, KindEmphasisBlock,
	}
}

// Info returns the structural description of k and whether k is known.
func (k BlockKind) Info() (KindInfo, bool) {
	info, ok := kindTable[k]
	return info, ok
}

// Valid reports whether k is one of the known kinds.
func (k BlockKind) Valid() bool {
	_, ok := kindTable[k]
	return ok
}

// IsContainer reports whether blocks of kind k may hold child blocks.
func (k BlockKind) IsContainer() bool {
	return kindTable[k].Container
}

// Accepts reports whether a container of kind k may hold a child of kind child.
func (k BlockKind) Accepts(child BlockKind) bool {
	info, ok := kindTable[k]
	if !ok || !info.Container {
		return false
	}
	if info.Allowed == nil {
		return true
	}
	for _, a := range info.Allowed {
		if a == child {
			return true
		}
	}
	return false
}

// HeadingLevel returns 1-4 for heading kinds and 0 otherwise.
func (k BlockKind) HeadingLevel() int {
	switch k {
	case KindHeading1:
		return 1
	case KindHeading2:
		return 2
	case KindHeading3:
		return 3
	case KindHeading4:
		return 4
	}
	return 0
}

// HeadingKind maps a heading level to its kind, clamping to heading-one..heading-four.
func HeadingKind(level int) BlockKind {
	switch {
	case level <= 1:
		return KindHeading1
	case level == 2:
		return KindHeading2
	case level == 3:
		return KindHeading3
	default:
		return KindHeading4
	}
}

// Run is a span of inline text. Runs carry no formatting marks.
type Run struct {
	Text string `json:"text"`
}

// Block is one node of a page's block forest.
// A block holds either inline Runs or child Blocks, never both.
type Block struct {
	ID       string    `json:"id"`
	Kind     BlockKind `json:"type"`
	Runs     []Run     `json:"runs,omitempty"`
	Children []*Block  `json:"children,omitempty"`
	Checked  bool      `json:"checked,omitempty"` // todo blocks only
}

// NewBlockID returns a fresh block identity. IDs are never reused.
func NewBlockID() string {
	return uuid.New().String()
}

// NewBlock creates a text-bearing block of the given kind.
func NewBlock(kind BlockKind, text string) *Block {
	b := &Block{ID: NewBlockID(), Kind: kind}
	if text != "" {
		b.Runs = []Run{{Text: text}}
	}
	return b
}

// NewContainer creates a container block holding children.
func NewContainer(kind BlockKind, children ...*Block) *Block {
	return &Block{ID: NewBlockID(), Kind: kind, Children: children}
}

// IsLeaf reports whether b addresses text directly (it has no child blocks).
func (b *Block) IsLeaf() bool {
	return len(b.Children) == 0
}

// Text returns the concatenated text of b's runs.
func (b *Block) Text() string {
	switch len(b.Runs) {
	case 0:
		return ""
	case 1:
		return b.Runs[0].Text
	}
	var sb strings.Builder
	for _, r := range b.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// SetText replaces b's runs with a single run holding text.
func (b *Block) SetText(text string) {
	if text == "" {
		b.Runs = nil
		return
	}
	b.Runs = []Run{{Text: text}}
}

// Clone returns a deep copy of b that keeps every ID.
func (b *Block) Clone() *Block {
	c := &Block{ID: b.ID, Kind: b.Kind, Checked: b.Checked}
	if len(b.Runs) > 0 {
		c.Runs = append([]Run(nil), b.Runs...)
	}
	for _, child := range b.Children {
		c.Children = append(c.Children, child.Clone())
	}
	return c
}
