package editor

import (
	"sort"
	"unicode/utf8"

	"molink/internal/domain"
)

// DefaultNumberedContinuation is what a line break inserts inside a numbered list.
// It is a fixed literal, not a computed next index.
const DefaultNumberedContinuation = "\n2. "

// Rules are the shortcut tables an Engine matches against.
type Rules struct {
	// Inline maps a typed token to the glyph replacing it.
	Inline map[string]string
	// Block maps a prefix typed at the start of a block, followed by a space,
	// to the kind the block turns into.
	Block map[string]domain.BlockKind
	// NumberedContinuation is inserted on line break inside a numbered list.
	NumberedContinuation string
}

// DefaultRules returns the stock Markdown-style shortcuts.
func DefaultRules() Rules {
	return Rules{
		Inline: map[string]string{
			"--": "—",
			"->": "→",
			"-》": "→",
			"<-": "←",
			"《-": "←",
			">=": "≥",
			"》=": "≥",
			"<=": "≤",
			"《=": "≤",
			"!=": "≠",
		},
		Block: map[string]domain.BlockKind{
			"#":    domain.KindHeading1,
			"##":   domain.KindHeading2,
			"###":  domain.KindHeading3,
			"####": domain.KindHeading4,
			"[]":   domain.KindTodo,
			"【】":   domain.KindTodo,
			"*":    domain.KindBulletedList,
			"-":    domain.KindBulletedList,
			"+":    domain.KindToggleList,
			"1.":   domain.KindNumberedList,
			"|":    domain.KindBlockquote,
			">":    domain.KindBlockquote,
			"\"":   domain.KindBlockquote,
			"!!":   domain.KindEmphasisBlock,
			"```":  domain.KindCodeBlock,
			"$$":   domain.KindMathBlock,
		},
		NumberedContinuation: DefaultNumberedContinuation,
	}
}

type inlineRule struct {
	token string
	glyph string
	size  int // token length in characters
}

// Engine applies shortcut rules to keystrokes. It keeps no state between
// keystrokes; every decision reads the live tree.
type Engine struct {
	inline       []inlineRule // longest token first
	block        map[string]domain.BlockKind
	continuation string
}

// NewEngine builds an engine from rules. The tables are copied and never change afterwards.
func NewEngine(rules Rules) *Engine {
	e := &Engine{
		block:        make(map[string]domain.BlockKind, len(rules.Block)),
		continuation: rules.NumberedContinuation,
	}
	for token, glyph := range rules.Inline {
		if token == "" {
			continue
		}
		e.inline = append(e.inline, inlineRule{token: token, glyph: glyph, size: utf8.RuneCountInString(token)})
	}
	sort.Slice(e.inline, func(i, j int) bool {
		if e.inline[i].size != e.inline[j].size {
			return e.inline[i].size > e.inline[j].size
		}
		return e.inline[i].token < e.inline[j].token
	})
	for prefix, kind := range rules.Block {
		e.block[prefix] = kind
	}
	return e
}

// MatchInline returns the longest inline token lookback ends with.
func (e *Engine) MatchInline(lookback string) (token, glyph string, ok bool) {
	for _, r := range e.inline {
		if len(lookback) >= len(r.token) && lookback[len(lookback)-len(r.token):] == r.token {
			return r.token, r.glyph, true
		}
	}
	return "", "", false
}

// MatchBlock returns the kind for a lookback that equals a block prefix exactly.
func (e *Engine) MatchBlock(lookback string) (domain.BlockKind, bool) {
	kind, ok := e.block[lookback]
	return kind, ok
}

// HandleInsert runs the shortcut tables for text typed at a collapsed cursor.
// It reports whether a shortcut consumed the insertion; when it did not, the
// caller performs the literal insert.
func (e *Engine) HandleInsert(m *Model, cursor Point, text string) (Point, bool, error) {
	if text == "" {
		return cursor, false, nil
	}
	before, err := m.TextBeforeCursor(cursor)
	if err != nil {
		return cursor, false, err
	}

	if token, glyph, ok := e.MatchInline(before + text); ok {
		typed := []rune(text)
		// Characters of the token already in the block; the rest is being typed now.
		inBlock := utf8.RuneCountInString(token) - len(typed)
		literal := ""
		if inBlock < 0 {
			literal = string(typed[:-inBlock])
			inBlock = 0
		}
		r := Range{
			Anchor: Point{Path: cursor.Path, Offset: cursor.Offset - inBlock},
			Focus:  cursor,
		}
		next, err := m.ReplaceText(r, literal+glyph)
		return next, err == nil, err
	}

	if text != " " {
		return cursor, false, nil
	}
	kind, ok := e.MatchBlock(before)
	if !ok || m.CanSetKind(cursor.Path, kind) != nil {
		return cursor, false, nil
	}
	start := Point{Path: cursor.Path.Clone(), Offset: 0}
	if _, err := m.DeleteRange(Range{Anchor: start, Focus: cursor}); err != nil {
		return cursor, false, err
	}
	if err := m.SetBlockKind(cursor.Path, kind); err != nil {
		return start, true, err
	}
	return start, true, nil
}

// HandleBreak intercepts a line break. Inside a numbered list it inserts the
// continuation text instead of splitting the block.
func (e *Engine) HandleBreak(m *Model, cursor Point) (Point, bool, error) {
	b, err := m.leafAt(cursor.Path)
	if err != nil {
		return cursor, false, err
	}
	if b.Kind != domain.KindNumberedList {
		return cursor, false, nil
	}
	next, err := m.InsertText(cursor, e.continuation)
	return next, err == nil, err
}
