package markdown

import (
	"strconv"
	"strings"

	"molink/internal/domain"
)

// Export renders a block forest as Markdown. Import(Export(b)) reproduces the
// kinds, text and todo state of b; block IDs are not carried.
func Export(blocks []*domain.Block) string {
	var sb strings.Builder
	w := &writer{sb: &sb}
	w.top(blocks)
	out := sb.String()
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out
}

type writer struct {
	sb   *strings.Builder
	prev domain.BlockKind // kind of the previous top-level item, for list spacing
	num  int              // running number inside a numbered list
}

func isListItem(k domain.BlockKind) bool {
	switch k {
	case domain.KindBulletedList, domain.KindNumberedList, domain.KindToggleList, domain.KindTodo:
		return true
	}
	return false
}

func (w *writer) top(blocks []*domain.Block) {
	for _, b := range blocks {
		if w.sb.Len() > 0 {
			// Consecutive items of one list stay tight.
			if isListItem(b.Kind) && b.Kind == w.prev {
				w.sb.WriteString("\n")
			} else {
				w.sb.WriteString("\n\n")
			}
		}
		if b.Kind != domain.KindNumberedList || w.prev != domain.KindNumberedList {
			w.num = 0
		}
		w.block(b, "")
		w.prev = b.Kind
	}
}

func (w *writer) block(b *domain.Block, indent string) {
	if !b.IsLeaf() {
		w.container(b, indent)
		return
	}
	t := b.Text()
	switch b.Kind {
	case domain.KindHeading1, domain.KindHeading2, domain.KindHeading3, domain.KindHeading4:
		w.sb.WriteString(indent + strings.Repeat("#", b.Kind.HeadingLevel()) + " " + t)
	case domain.KindTodo:
		box := todoOpen
		if b.Checked {
			box = todoDone
		}
		w.item(indent, "- "+box, t)
	case domain.KindBulletedList:
		w.item(indent, "- ", t)
	case domain.KindToggleList:
		w.item(indent, "+ ", t)
	case domain.KindNumberedList:
		w.num++
		w.item(indent, strconv.Itoa(w.num)+". ", t)
	case domain.KindBlockquote:
		w.prefixed(indent, "> ", t)
	case domain.KindCodeBlock:
		w.fenced(indent, "```", "```", t)
	case domain.KindMathBlock:
		w.fenced(indent, mathFence, mathFence, t)
	case domain.KindEmphasisBlock:
		w.prefixed(indent, "", emphasisMark+t)
	default:
		w.prefixed(indent, "", t)
	}
}

// container writes a list container as one item whose nested blocks are
// indented under it. A leading paragraph or todo supplies the item text.
func (w *writer) container(b *domain.Block, indent string) {
	marker := "- "
	switch b.Kind {
	case domain.KindNumberedList:
		w.num++
		marker = strconv.Itoa(w.num) + ". "
	case domain.KindToggleList:
		marker = "+ "
	}
	children := b.Children
	head := ""
	if first := children[0]; first.IsLeaf() {
		switch first.Kind {
		case domain.KindParagraph:
			head = first.Text()
			children = children[1:]
		case domain.KindTodo:
			box := todoOpen
			if first.Checked {
				box = todoDone
			}
			head = box + first.Text()
			children = children[1:]
		}
	}
	w.item(indent, marker, head)

	nested := indent + strings.Repeat(" ", len(marker))
	saved := w.num
	w.num = 0
	for _, c := range children {
		w.sb.WriteString("\n")
		w.block(c, nested)
	}
	w.num = saved
}

// item writes a list line; continuation lines are indented under the marker.
func (w *writer) item(indent, marker, t string) {
	cont := indent + strings.Repeat(" ", len([]rune(marker)))
	for i, line := range strings.Split(t, "\n") {
		if i == 0 {
			w.sb.WriteString(strings.TrimRight(indent+marker+line, " ") + trailingSpace(marker, line))
			continue
		}
		w.sb.WriteString("\n" + cont + line)
	}
}

// trailingSpace keeps the space of an empty list marker ("- ") so the item is not lost.
func trailingSpace(marker, line string) string {
	if line == "" && strings.HasSuffix(marker, " ") {
		return " "
	}
	return ""
}

func (w *writer) prefixed(indent, prefix, t string) {
	for i, line := range strings.Split(t, "\n") {
		if i > 0 {
			w.sb.WriteString("\n")
		}
		w.sb.WriteString(indent + prefix + line)
	}
}

func (w *writer) fenced(indent, open, closing, t string) {
	w.sb.WriteString(indent + open + "\n")
	if t != "" {
		w.prefixed(indent, "", t)
		w.sb.WriteString("\n")
	}
	w.sb.WriteString(indent + closing)
}
