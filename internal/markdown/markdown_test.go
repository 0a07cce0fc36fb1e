package markdown

import (
	"fmt"
	"strings"
	"testing"

	"molink/internal/domain"
)

// shape renders blocks as "kind:text" lines, nesting children with indentation.
func shape(blocks []*domain.Block) string {
	var sb strings.Builder
	var walk func(bs []*domain.Block, depth int)
	walk = func(bs []*domain.Block, depth int) {
		for _, b := range bs {
			fmt.Fprintf(&sb, "%s%s:%q", strings.Repeat("  ", depth), b.Kind, b.Text())
			if b.Checked {
				sb.WriteString(" [x]")
			}
			sb.WriteString("\n")
			walk(b.Children, depth+1)
		}
	}
	walk(blocks, 0)
	return sb.String()
}

func TestImport(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "headings and paragraph",
			src:  "# Title\n\n## Sub\n\nBody text.\n",
			want: "heading-one:\"Title\"\nheading-two:\"Sub\"\nparagraph:\"Body text.\"\n",
		},
		{
			name: "list kinds",
			src:  "- a\n- b\n\n1. one\n2. two\n\n+ toggle\n",
			want: "bulleted-list:\"a\"\nbulleted-list:\"b\"\nnumbered-list:\"one\"\nnumbered-list:\"two\"\ntoggle-list:\"toggle\"\n",
		},
		{
			name: "todos",
			src:  "- [ ] open\n- [x] done\n",
			want: "todo:\"open\"\ntodo:\"done\" [x]\n",
		},
		{
			name: "blockquote",
			src:  "> quoted\n> text\n",
			want: "blockquote:\"quoted\\ntext\"\n",
		},
		{
			name: "fenced code",
			src:  "```go\nfmt.Println()\n```\n",
			want: "code-block:\"fmt.Println()\"\n",
		},
		{
			name: "math",
			src:  "$$\nx^2\n$$\n",
			want: "math-block:\"x^2\"\n",
		},
		{
			name: "emphasis",
			src:  "!! note this\n",
			want: "emphasis-block:\"note this\"\n",
		},
		{
			name: "nested list",
			src:  "- parent\n  - child\n",
			want: "bulleted-list:\"\"\n  paragraph:\"parent\"\n  bulleted-list:\"child\"\n",
		},
		{
			name: "nested list under emphasis item",
			src:  "- !! loud\n  - child\n",
			want: "bulleted-list:\"\"\n  paragraph:\"!! loud\"\n  bulleted-list:\"child\"\n",
		},
		{
			name: "empty source",
			src:  "",
			want: "paragraph:\"\"\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shape(Import([]byte(tt.src)))
			if got != tt.want {
				t.Errorf("Import(%q)\n got: %s\nwant: %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestImport_FreshIDs(t *testing.T) {
	blocks := Import([]byte("a\n\nb\n"))
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].ID == "" || blocks[0].ID == blocks[1].ID {
		t.Errorf("expected distinct non-empty ids, got %q and %q", blocks[0].ID, blocks[1].ID)
	}
}

func TestTitle(t *testing.T) {
	if got := Title([]byte("intro\n\n## Not this\n\n# Page Name\n")); got != "Page Name" {
		t.Errorf("expected %q, got %q", "Page Name", got)
	}
	if got := Title([]byte("no heading\n")); got != "" {
		t.Errorf("expected empty title, got %q", got)
	}
}

func TestExport(t *testing.T) {
	done := domain.NewBlock(domain.KindTodo, "t")
	done.Checked = true
	blocks := []*domain.Block{
		domain.NewBlock(domain.KindHeading1, "T"),
		domain.NewBlock(domain.KindParagraph, "p"),
		domain.NewBlock(domain.KindBulletedList, "a"),
		domain.NewBlock(domain.KindBulletedList, "b"),
		domain.NewBlock(domain.KindNumberedList, "x"),
		domain.NewBlock(domain.KindNumberedList, "y"),
		done,
	}
	want := "# T\n\np\n\n- a\n- b\n\n1. x\n2. y\n\n- [x] t\n"
	if got := Export(blocks); got != want {
		t.Errorf("Export mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestExport_NestedUnderNumberedItem(t *testing.T) {
	blocks := []*domain.Block{
		domain.NewContainer(domain.KindNumberedList,
			domain.NewBlock(domain.KindParagraph, "head"),
			domain.NewBlock(domain.KindBulletedList, "child"),
		),
	}
	want := "1. head\n   - child\n"
	if got := Export(blocks); got != want {
		t.Errorf("Export mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	todo := domain.NewBlock(domain.KindTodo, "ship it")
	todo.Checked = true
	blocks := []*domain.Block{
		domain.NewBlock(domain.KindHeading2, "Plan"),
		domain.NewBlock(domain.KindParagraph, "Some words."),
		domain.NewBlock(domain.KindBlockquote, "q"),
		domain.NewContainer(domain.KindNumberedList,
			domain.NewBlock(domain.KindParagraph, "head"),
			domain.NewBlock(domain.KindBulletedList, "child"),
		),
		domain.NewBlock(domain.KindToggleList, "tog"),
		todo,
		domain.NewBlock(domain.KindCodeBlock, "a := 1"),
		domain.NewBlock(domain.KindMathBlock, "e = mc^2"),
		domain.NewBlock(domain.KindEmphasisBlock, "careful"),
	}
	md := Export(blocks)
	got := shape(Import([]byte(md)))
	if want := shape(blocks); got != want {
		t.Errorf("round trip through\n%s\n got: %s\nwant: %s", md, got, want)
	}
}
