package schema

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Value is one node of a value tree. The zero Value is "unset".
//
// Values are immutable: constructors copy their inputs and every update
// function in this package returns a new tree that shares untouched
// subtrees with the old one.
type Value struct {
	kind   Kind
	str    string
	num    float64
	b      bool
	fields map[string]Value
	items  []Value
}

// Str returns a string value.
func Str(s string) Value { return Value{kind: KindString, str: s} }

// Num returns a number value.
func Num(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBoolean, b: b} }

// Object returns a struct value holding a copy of fields. Unset entries
// are dropped.
func Object(fields map[string]Value) Value {
	m := make(map[string]Value, len(fields))
	for k, v := range fields {
		if v.IsSet() {
			m[k] = v
		}
	}
	return Value{kind: KindStruct, fields: m}
}

// List returns an array value holding a copy of items.
func List(items ...Value) Value {
	return Value{kind: KindArray, items: slices.Clone(items)}
}

// Kind returns the kind of value held, or KindInvalid when unset.
func (v Value) Kind() Kind { return v.kind }

// IsSet reports whether the value holds anything.
func (v Value) IsSet() bool { return v.kind != KindInvalid }

// AsString returns the string held by a string value.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsNumber returns the number held by a number value.
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

// AsBool returns the boolean held by a boolean value.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBoolean }

// Get returns a struct member. Absent members report false.
func (v Value) Get(name string) (Value, bool) {
	if v.kind != KindStruct {
		return Value{}, false
	}
	f, ok := v.fields[name]
	return f, ok
}

// Keys returns the set struct members in sorted order.
func (v Value) Keys() []string {
	if v.kind != KindStruct {
		return nil
	}
	return slices.Sorted(maps.Keys(v.fields))
}

// Len returns the number of array elements or set struct members.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindStruct:
		return len(v.fields)
	}
	return 0
}

// At returns the i-th array element. It panics if i is out of range,
// like indexing a slice.
func (v Value) At(i int) Value { return v.items[i] }

// Items returns a copy of the array elements in order.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	return slices.Clone(v.items)
}

// with returns a copy of the struct value with name set to child.
// An unset child removes the member.
func (v Value) with(name string, child Value) Value {
	m := make(map[string]Value, len(v.fields)+1)
	maps.Copy(m, v.fields)
	if child.IsSet() {
		m[name] = child
	} else {
		delete(m, name)
	}
	return Value{kind: KindStruct, fields: m}
}

// withItem returns a copy of the array value with element i replaced.
func (v Value) withItem(i int, child Value) Value {
	items := slices.Clone(v.items)
	items[i] = child
	return Value{kind: KindArray, items: items}
}

// Equal reports whether two value trees hold the same data.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindString:
		return a.str == b.str
	case KindNumber:
		return a.num == b.num
	case KindBoolean:
		return a.b == b.b
	case KindStruct:
		if len(a.fields) != len(b.fields) {
			return false
		}
		for k, av := range a.fields {
			bv, ok := b.fields[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	case KindArray:
		return slices.EqualFunc(a.items, b.items, Equal)
	}
	return true
}

// Default returns the initial value for a schema: structs start with every
// field unset, arrays start empty, and scalars start at their zero value.
func Default(s *Schema) Value {
	switch s.Kind() {
	case KindString:
		return Str("")
	case KindNumber:
		return Num(0)
	case KindBoolean:
		return Bool(false)
	case KindStruct:
		return Value{kind: KindStruct, fields: map[string]Value{}}
	case KindArray:
		return Value{kind: KindArray, items: []Value{}}
	}
	return Value{}
}

// String renders the value for logs and terminal output.
func (v Value) String() string {
	var b strings.Builder
	v.write(&b)
	return b.String()
}

func (v Value) write(b *strings.Builder) {
	switch v.kind {
	case KindString:
		b.WriteString(strconv.Quote(v.str))
	case KindNumber:
		b.WriteString(strconv.FormatFloat(v.num, 'g', -1, 64))
	case KindBoolean:
		b.WriteString(strconv.FormatBool(v.b))
	case KindStruct:
		b.WriteByte('{')
		for i, k := range v.Keys() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteString(": ")
			v.fields[k].write(b)
		}
		b.WriteByte('}')
	case KindArray:
		b.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				b.WriteString(", ")
			}
			item.write(b)
		}
		b.WriteByte(']')
	default:
		b.WriteString("<unset>")
	}
}
