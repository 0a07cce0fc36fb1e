package domain

import (
	"strconv"
	"strings"
)

// Path addresses a block by the child indices walked from the document root.
type Path []int

// Equal reports whether p and o address the same position.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of p that shares no storage with it.
func (p Path) Clone() Path {
	return append(Path(nil), p...)
}

// Parent returns the path of p's parent. The parent of a top-level path is the empty root path.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1].Clone()
}

// Last returns the index of p among its siblings.
func (p Path) Last() int {
	if len(p) == 0 {
		return -1
	}
	return p[len(p)-1]
}

// Next returns the path of the sibling position right after p.
func (p Path) Next() Path {
	n := p.Clone()
	if len(n) > 0 {
		n[len(n)-1]++
	}
	return n
}

// Child returns the path of p's i-th child.
func (p Path) Child(i int) Path {
	return append(p.Clone(), i)
}

// IsAncestorOf reports whether p is a strict prefix of o.
func (p Path) IsAncestorOf(o Path) bool {
	if len(p) >= len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// Contains reports whether o is p or lies inside p's subtree.
func (p Path) Contains(o Path) bool {
	return p.Equal(o) || p.IsAncestorOf(o)
}

// IsSibling reports whether p and o share a parent.
func (p Path) IsSibling(o Path) bool {
	return len(p) > 0 && len(p) == len(o) && p.Parent().Equal(o.Parent())
}

// Compare orders paths in document order: ancestors come before descendants.
func (p Path) Compare(o Path) int {
	n := min(len(p), len(o))
	for i := 0; i < n; i++ {
		switch {
		case p[i] < o[i]:
			return -1
		case p[i] > o[i]:
			return 1
		}
	}
	switch {
	case len(p) < len(o):
		return -1
	case len(p) > len(o):
		return 1
	}
	return 0
}

// String renders p as "0.2.1".
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ".")
}

// ParsePath parses the "0.2.1" form produced by String.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Path{}, nil
	}
	parts := strings.Split(s, ".")
	p := make(Path, len(parts))
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil || v < 0 {
			return nil, &PathError{Input: s}
		}
		p[i] = v
	}
	return p, nil
}

// PathError reports a malformed path string.
type PathError struct {
	Input string
}

func (e *PathError) Error() string {
	return "invalid block path " + strconv.Quote(e.Input)
}
