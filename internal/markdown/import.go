// Package markdown converts page block trees to and from Markdown.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"molink/internal/domain"
)

const (
	todoOpen     = "[ ] "
	todoDone     = "[x] "
	todoDoneAlt  = "[X] "
	emphasisMark = "!! "
	mathFence    = "$$"
)

// Import parses Markdown source into a block forest. The result always holds
// at least one block.
func Import(src []byte) []*domain.Block {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var blocks []*domain.Block
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		blocks = append(blocks, convert(n, src)...)
	}
	if len(blocks) == 0 {
		blocks = []*domain.Block{domain.NewBlock(domain.KindParagraph, "")}
	}
	return blocks
}

// Title returns the text of the first level-one heading, if any.
func Title(src []byte) string {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 {
			return lines(h, src)
		}
	}
	return ""
}

func convert(n ast.Node, src []byte) []*domain.Block {
	switch node := n.(type) {
	case *ast.Heading:
		return []*domain.Block{domain.NewBlock(domain.HeadingKind(node.Level), lines(node, src))}
	case *ast.Paragraph, *ast.TextBlock:
		return []*domain.Block{textBlock(lines(node, src))}
	case *ast.List:
		return listItems(node, src)
	case *ast.Blockquote:
		var parts []string
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			if t := blockText(c, src); t != "" {
				parts = append(parts, t)
			}
		}
		return []*domain.Block{domain.NewBlock(domain.KindBlockquote, strings.Join(parts, "\n"))}
	case *ast.FencedCodeBlock:
		kind := domain.KindCodeBlock
		if string(node.Language(src)) == "math" {
			kind = domain.KindMathBlock
		}
		return []*domain.Block{domain.NewBlock(kind, rawLines(node, src))}
	case *ast.CodeBlock:
		return []*domain.Block{domain.NewBlock(domain.KindCodeBlock, rawLines(node, src))}
	case *ast.HTMLBlock:
		return []*domain.Block{domain.NewBlock(domain.KindParagraph, rawLines(node, src))}
	}
	return nil
}

// textBlock turns paragraph text into a block, honouring the shortcut
// prefixes that have no Markdown syntax of their own.
func textBlock(s string) *domain.Block {
	switch {
	case strings.HasPrefix(s, todoOpen):
		return domain.NewBlock(domain.KindTodo, strings.TrimPrefix(s, todoOpen))
	case strings.HasPrefix(s, todoDone), strings.HasPrefix(s, todoDoneAlt):
		b := domain.NewBlock(domain.KindTodo, s[len(todoDone):])
		b.Checked = true
		return b
	case strings.HasPrefix(s, emphasisMark):
		return domain.NewBlock(domain.KindEmphasisBlock, strings.TrimPrefix(s, emphasisMark))
	case len(s) >= 2*len(mathFence) && strings.HasPrefix(s, mathFence) && strings.HasSuffix(s, mathFence):
		inner := strings.TrimSuffix(strings.TrimPrefix(s, mathFence), mathFence)
		return domain.NewBlock(domain.KindMathBlock, strings.Trim(inner, "\n"))
	}
	return domain.NewBlock(domain.KindParagraph, s)
}

func listKind(l *ast.List) domain.BlockKind {
	switch {
	case l.IsOrdered():
		return domain.KindNumberedList
	case l.Marker == '+':
		return domain.KindToggleList
	}
	return domain.KindBulletedList
}

// listItems converts each item to a text-bearing list block. An item with a
// nested list becomes a container whose first child holds the item's text.
func listItems(l *ast.List, src []byte) []*domain.Block {
	kind := listKind(l)
	var out []*domain.Block
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		var head *domain.Block
		var headText string
		var nested []*domain.Block
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			switch c.(type) {
			case *ast.List:
				nested = append(nested, convert(c, src)...)
			default:
				if head == nil {
					headText = blockText(c, src)
					head = itemBlock(kind, headText)
				} else {
					nested = append(nested, convert(c, src)...)
				}
			}
		}
		if head == nil {
			head = domain.NewBlock(kind, "")
		}
		if len(nested) == 0 {
			out = append(out, head)
			continue
		}
		if head.Kind == kind {
			head.Kind = domain.KindParagraph
		} else if !kind.Accepts(head.Kind) {
			head = domain.NewBlock(domain.KindParagraph, headText)
		}
		children := []*domain.Block{head}
		for _, b := range nested {
			if kind.Accepts(b.Kind) {
				children = append(children, b)
			} else {
				children = append(children, domain.NewBlock(domain.KindParagraph, b.Text()))
			}
		}
		out = append(out, domain.NewContainer(kind, children...))
	}
	return out
}

func itemBlock(kind domain.BlockKind, s string) *domain.Block {
	b := textBlock(s)
	if b.Kind == domain.KindParagraph {
		b.Kind = kind
	}
	return b
}

func blockText(n ast.Node, src []byte) string {
	switch n.(type) {
	case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
		return lines(n, src)
	case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
		return rawLines(n, src)
	}
	return ""
}

// lines joins a block node's source lines, dropping line terminators.
func lines(n ast.Node, src []byte) string {
	segs := n.Lines()
	parts := make([]string, 0, segs.Len())
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		parts = append(parts, strings.TrimRight(string(seg.Value(src)), "\r\n"))
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// rawLines keeps a code node's lines verbatim except for the final newline.
func rawLines(n ast.Node, src []byte) string {
	var sb strings.Builder
	segs := n.Lines()
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		sb.Write(seg.Value(src))
	}
	return strings.TrimRight(sb.String(), "\r\n")
}
