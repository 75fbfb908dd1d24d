package schema

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/matzehuels/linkboard/pkg/errors"
)

// Mode selects how [Unflatten] treats data the schema does not describe.
type Mode int

const (
	// Lenient drops unknown struct keys and mistyped values, reporting each
	// as a Diagnostic. The result is always conformant.
	Lenient Mode = iota
	// Strict rejects the input at the first unknown key or mistyped value.
	Strict
)

// String returns the mode name used in configuration files.
func (m Mode) String() string {
	if m == Strict {
		return "strict"
	}
	return "lenient"
}

// ParseMode converts "strict" or "lenient" to a Mode.
// The empty string selects Lenient.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "lenient":
		return Lenient, nil
	case "strict":
		return Strict, nil
	}
	return Lenient, errors.New(errors.ErrCodeInvalidInput, "unknown decode mode %q", s)
}

// Diagnostic records a piece of input dropped by a lenient [Unflatten].
type Diagnostic struct {
	Path   Path
	Reason string
}

func (d Diagnostic) String() string {
	return display(d.Path) + ": " + d.Reason
}

// Flatten converts a value tree to plain Go data: string, float64, bool,
// map[string]any and []any. Unset values flatten to nil and unset struct
// members are omitted. Arrays always flatten to a non-nil slice so an empty
// array survives a JSON round trip as [] rather than null.
func Flatten(v Value) any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBoolean:
		return v.b
	case KindStruct:
		m := make(map[string]any, len(v.fields))
		for k, f := range v.fields {
			m[k] = Flatten(f)
		}
		return m
	case KindArray:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = Flatten(item)
		}
		return out
	}
	return nil
}

// Unflatten rebuilds a value tree for s from plain data as produced by
// encoding/json (or by [Flatten]). Numbers may arrive as any Go numeric type
// or json.Number.
//
// In Strict mode the first mismatch is returned as an INVALID_VALUE error.
// In Lenient mode mismatched parts are dropped: unknown or mistyped struct
// members become unset, mistyped array elements are removed, and a mistyped
// root becomes the schema default. Each drop yields one Diagnostic.
func Unflatten(s *Schema, raw any, mode Mode) (Value, []Diagnostic, error) {
	u := unflattener{mode: mode}
	v, ok, err := u.value(s, raw, nil)
	if err != nil {
		return Value{}, nil, err
	}
	if !ok {
		v = Default(s)
	}
	return v, u.diags, nil
}

type unflattener struct {
	mode  Mode
	diags []Diagnostic
}

// value converts raw at path at. It returns ok=false when the input was
// dropped in lenient mode.
func (u *unflattener) value(s *Schema, raw any, at Path) (Value, bool, error) {
	switch s.Kind() {
	case KindString:
		if str, ok := raw.(string); ok {
			return Str(str), true, nil
		}
	case KindNumber:
		if f, ok := toFloat(raw); ok {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return u.drop(at, "number must be finite")
			}
			return Num(f), true, nil
		}
	case KindBoolean:
		if b, ok := raw.(bool); ok {
			return Bool(b), true, nil
		}
	case KindStruct:
		if m, ok := raw.(map[string]any); ok {
			return u.object(s, m, at)
		}
	case KindArray:
		if items, ok := raw.([]any); ok {
			return u.array(s, items, at)
		}
	}
	return u.drop(at, fmt.Sprintf("want %s, got %s", s.Kind(), describe(raw)))
}

func (u *unflattener) object(s *Schema, m map[string]any, at Path) (Value, bool, error) {
	fields := make(map[string]Value, len(m))
	for _, name := range slices.Sorted(maps.Keys(m)) {
		raw := m[name]
		if raw == nil {
			continue
		}
		child, ok := s.Field(name)
		if !ok {
			if _, _, err := u.drop(at.Append(Key(name)), "unknown field"); err != nil {
				return Value{}, false, err
			}
			continue
		}
		v, ok, err := u.value(child, raw, at.Append(Key(name)))
		if err != nil {
			return Value{}, false, err
		}
		if ok {
			fields[name] = v
		}
	}
	return Value{kind: KindStruct, fields: fields}, true, nil
}

func (u *unflattener) array(s *Schema, raw []any, at Path) (Value, bool, error) {
	items := make([]Value, 0, len(raw))
	for i, r := range raw {
		v, ok, err := u.value(s.elem, r, at.Append(Index(i)))
		if err != nil {
			return Value{}, false, err
		}
		if ok {
			items = append(items, v)
		}
	}
	return Value{kind: KindArray, items: items}, true, nil
}

func (u *unflattener) drop(at Path, reason string) (Value, bool, error) {
	if u.mode == Strict {
		return Value{}, false, errors.New(errors.ErrCodeInvalidValue, "at %s: %s", display(at), reason)
	}
	u.diags = append(u.diags, Diagnostic{Path: at, Reason: reason})
	return Value{}, false, nil
}

func toFloat(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func describe(raw any) string {
	switch raw.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	if _, ok := toFloat(raw); ok {
		return "number"
	}
	return fmt.Sprintf("%T", raw)
}
