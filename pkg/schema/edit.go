package schema

import (
	"slices"

	"github.com/matzehuels/linkboard/pkg/errors"
)

// SetPath returns a copy of v with the value at path replaced by leaf.
// The input tree is never modified.
//
// Struct members missing along the way are created from their schema
// defaults, so setting items[0].field1 on a node whose items array already
// has one element works even if that element has no fields set yet.
//
// SetPath fails with INVALID_PATH when path does not fit the schema shape
// and with INVALID_VALUE when leaf does not conform to the schema at path.
// An unset leaf is rejected; use [DeletePath] to unset a member.
func SetPath(s *Schema, v Value, path Path, leaf Value) (Value, error) {
	return update(s, v, path, nil, func(target *Schema, _ Value, at Path) (Value, error) {
		if err := validate(target, leaf, at); err != nil {
			return Value{}, err
		}
		return leaf, nil
	})
}

// DeletePath returns a copy of v with the struct member or array element
// at path removed. Deleting an absent struct member is a no-op.
func DeletePath(s *Schema, v Value, path Path) (Value, error) {
	if len(path) == 0 {
		return Value{}, errors.New(errors.ErrCodeInvalidPath, "cannot delete the root value")
	}
	last := path[len(path)-1]
	return update(s, v, path.Parent(), nil, func(parent *Schema, pv Value, at Path) (Value, error) {
		switch parent.Kind() {
		case KindStruct:
			if last.IsIndex {
				return Value{}, invalidPath(at, "struct cannot be indexed")
			}
			if _, ok := parent.Field(last.Key); !ok {
				return Value{}, invalidPath(at, "unknown field %q", last.Key)
			}
			return pv.with(last.Key, Value{}), nil
		case KindArray:
			if !last.IsIndex {
				return Value{}, invalidPath(at, "array needs an index, got field %q", last.Key)
			}
			if last.Index < 0 || last.Index >= len(pv.items) {
				return Value{}, invalidPath(at, "index %d out of range [0,%d)", last.Index, len(pv.items))
			}
			return Value{kind: KindArray, items: slices.Delete(slices.Clone(pv.items), last.Index, last.Index+1)}, nil
		}
		return Value{}, invalidPath(at, "cannot descend into %s", parent.Kind())
	})
}

// Append returns a copy of v with elem added to the end of the array at path.
func Append(s *Schema, v Value, path Path, elem Value) (Value, error) {
	return update(s, v, path, nil, func(target *Schema, av Value, at Path) (Value, error) {
		if target.Kind() != KindArray {
			return Value{}, invalidPath(at, "%s is not an array", target.Kind())
		}
		if err := validate(target.elem, elem, at.Append(Index(len(av.items)))); err != nil {
			return Value{}, err
		}
		items := make([]Value, 0, len(av.items)+1)
		items = append(items, av.items...)
		return Value{kind: KindArray, items: append(items, elem)}, nil
	})
}

// Move returns a copy of v with the array element at index from moved to
// index to, shifting the elements in between. This is the drag-to-reorder
// operation of the editing panel.
func Move(s *Schema, v Value, path Path, from, to int) (Value, error) {
	return update(s, v, path, nil, func(target *Schema, av Value, at Path) (Value, error) {
		if target.Kind() != KindArray {
			return Value{}, invalidPath(at, "%s is not an array", target.Kind())
		}
		n := len(av.items)
		if from < 0 || from >= n || to < 0 || to >= n {
			return Value{}, invalidPath(at, "move %d -> %d out of range [0,%d)", from, to, n)
		}
		items := slices.Clone(av.items)
		moved := items[from]
		items = slices.Delete(items, from, from+1)
		items = slices.Insert(items, to, moved)
		return Value{kind: KindArray, items: items}, nil
	})
}

// Lookup returns the value at path together with the schema that governs it.
// An absent struct member is returned as an unset Value without error.
func Lookup(s *Schema, v Value, path Path) (Value, *Schema, error) {
	cur, cs := v, s
	for i, seg := range path {
		at := path[:i]
		switch cs.Kind() {
		case KindStruct:
			if seg.IsIndex {
				return Value{}, nil, invalidPath(at, "struct cannot be indexed")
			}
			child, ok := cs.Field(seg.Key)
			if !ok {
				return Value{}, nil, invalidPath(at, "unknown field %q", seg.Key)
			}
			cur, _ = cur.Get(seg.Key)
			cs = child
		case KindArray:
			if !seg.IsIndex {
				return Value{}, nil, invalidPath(at, "array needs an index, got field %q", seg.Key)
			}
			if cur.kind != KindArray || seg.Index < 0 || seg.Index >= len(cur.items) {
				return Value{}, nil, invalidPath(at, "index %d out of range [0,%d)", seg.Index, cur.Len())
			}
			cur = cur.items[seg.Index]
			cs = cs.elem
		default:
			return Value{}, nil, invalidPath(at, "cannot descend into %s", cs.Kind())
		}
	}
	return cur, cs, nil
}

type editFunc func(target *Schema, current Value, at Path) (Value, error)

// update walks path from the root, applies fn at the target and rebuilds
// the spine of the tree on the way back up.
func update(s *Schema, v Value, path Path, at Path, fn editFunc) (Value, error) {
	if !v.IsSet() {
		v = Default(s)
	}
	if len(path) == 0 {
		return fn(s, v, at)
	}
	seg, rest := path[0], path[1:]
	switch s.Kind() {
	case KindStruct:
		if seg.IsIndex {
			return Value{}, invalidPath(at, "struct cannot be indexed")
		}
		child, ok := s.Field(seg.Key)
		if !ok {
			return Value{}, invalidPath(at, "unknown field %q", seg.Key)
		}
		cur, _ := v.Get(seg.Key)
		next, err := update(child, cur, rest, at.Append(seg), fn)
		if err != nil {
			return Value{}, err
		}
		return v.with(seg.Key, next), nil
	case KindArray:
		if !seg.IsIndex {
			return Value{}, invalidPath(at, "array needs an index, got field %q", seg.Key)
		}
		if seg.Index < 0 || seg.Index >= len(v.items) {
			return Value{}, invalidPath(at, "index %d out of range [0,%d)", seg.Index, len(v.items))
		}
		next, err := update(s.elem, v.items[seg.Index], rest, at.Append(seg), fn)
		if err != nil {
			return Value{}, err
		}
		return v.withItem(seg.Index, next), nil
	}
	return Value{}, invalidPath(at, "cannot descend into %s", s.Kind())
}

func invalidPath(at Path, format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidPath, "at %s: "+format, append([]any{display(at)}, args...)...)
}
