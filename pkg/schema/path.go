package schema

import (
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/linkboard/pkg/errors"
)

// Segment is one step of a [Path]: a struct field name or an array index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Key returns a segment that selects a struct field.
func Key(name string) Segment { return Segment{Key: name} }

// Index returns a segment that selects an array element.
func Index(i int) Segment { return Segment{Index: i, IsIndex: true} }

func (s Segment) String() string {
	if s.IsIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Key
}

// Path addresses a position inside a value tree. The empty path is the root.
type Path []Segment

// Append returns a new path with segs added. The receiver is not modified.
func (p Path) Append(segs ...Segment) Path {
	out := make(Path, 0, len(p)+len(segs))
	out = append(out, p...)
	return append(out, segs...)
}

// Parent returns the path without its last segment.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return slices.Clone(p[:len(p)-1])
}

// String renders the path in the form accepted by [ParsePath],
// e.g. items[0].field1. The root path renders as "".
func (p Path) String() string {
	var b strings.Builder
	for i, seg := range p {
		if !seg.IsIndex && i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg.String())
	}
	return b.String()
}

// ParsePath reads a dotted path with bracketed indices:
//
//	label
//	items[0].field1
//	matrix[1][2]
//
// The empty string is the root path.
func ParsePath(s string) (Path, error) {
	var p Path
	i := 0
	expectKey := true
	for i < len(s) {
		switch c := s[i]; {
		case c == '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, errors.New(errors.ErrCodeInvalidPath, "unterminated index in %q", s)
			}
			n, err := strconv.Atoi(s[i+1 : i+end])
			if err != nil || n < 0 {
				return nil, errors.New(errors.ErrCodeInvalidPath, "invalid index %q in %q", s[i+1:i+end], s)
			}
			p = append(p, Index(n))
			i += end + 1
			expectKey = false
		case c == '.':
			if expectKey {
				return nil, errors.New(errors.ErrCodeInvalidPath, "empty field name in %q", s)
			}
			i++
			expectKey = true
			if i == len(s) {
				return nil, errors.New(errors.ErrCodeInvalidPath, "trailing '.' in %q", s)
			}
		default:
			if !expectKey {
				return nil, errors.New(errors.ErrCodeInvalidPath, "missing '.' before field at offset %d in %q", i, s)
			}
			end := strings.IndexAny(s[i:], ".[")
			if end < 0 {
				end = len(s) - i
			}
			p = append(p, Key(s[i:i+end]))
			i += end
			expectKey = false
		}
	}
	return p, nil
}

// MustParsePath is like [ParsePath] but panics on error. It is intended for
// paths written as literals in code and tests.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}
