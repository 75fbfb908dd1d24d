package schema

import (
	"math"

	"github.com/matzehuels/linkboard/pkg/errors"
)

// Validate checks that v conforms to s everywhere and returns an
// INVALID_VALUE error naming the first offending path.
//
// An unset root is not conformant; unset struct members are. A nil schema
// is an INVALID_SCHEMA error.
func Validate(s *Schema, v Value) error {
	return validate(s, v, nil)
}

// Conforms reports whether v conforms to s.
func Conforms(s *Schema, v Value) bool {
	return Validate(s, v) == nil
}

func validate(s *Schema, v Value, at Path) error {
	if s == nil {
		return invalidSchema(at, "missing schema")
	}
	if v.kind != s.kind {
		return mismatch(at, s.Kind(), v.kind)
	}
	switch s.kind {
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return errors.New(errors.ErrCodeInvalidValue, "at %s: number must be finite", display(at))
		}
	case KindStruct:
		for _, name := range v.Keys() {
			child, ok := s.Field(name)
			if !ok {
				return errors.New(errors.ErrCodeInvalidValue, "at %s: unknown field %q", display(at), name)
			}
			if err := validate(child, v.fields[name], at.Append(Key(name))); err != nil {
				return err
			}
		}
	case KindArray:
		for i, item := range v.items {
			if err := validate(s.elem, item, at.Append(Index(i))); err != nil {
				return err
			}
		}
	}
	return nil
}

func mismatch(at Path, want, got Kind) error {
	if got == KindInvalid {
		return errors.New(errors.ErrCodeInvalidValue, "at %s: want %s, got unset value", display(at), want)
	}
	return errors.New(errors.ErrCodeInvalidValue, "at %s: want %s, got %s", display(at), want, got)
}

// display renders a path for error messages, naming the root explicitly.
func display(p Path) string {
	if len(p) == 0 {
		return "<root>"
	}
	return p.String()
}
