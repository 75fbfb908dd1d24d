package schema

import (
	"fmt"
	"strings"

	"github.com/matzehuels/linkboard/pkg/errors"
)

// Kind is the closed set of shapes a schema node can describe.
type Kind int

const (
	// KindInvalid is the zero Kind. An unset [Value] reports it.
	KindInvalid Kind = iota
	KindString
	KindNumber
	KindBoolean
	KindStruct
	KindArray
)

var kindNames = map[Kind]string{
	KindString:  "string",
	KindNumber:  "number",
	KindBoolean: "boolean",
	KindStruct:  "struct",
	KindArray:   "array",
}

// String returns the lowercase kind name used in configuration files.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "invalid"
}

// IsScalar reports whether the kind holds a raw leaf value.
func (k Kind) IsScalar() bool {
	return k == KindString || k == KindNumber || k == KindBoolean
}

// ParseKind converts a kind name to a Kind. Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(s, name) {
			return k, nil
		}
	}
	return KindInvalid, errors.New(errors.ErrCodeInvalidSchema, "unknown kind %q", s)
}

// Field is a named child of a struct schema.
type Field struct {
	Name   string
	Schema *Schema
}

// Prop is shorthand for constructing a Field.
func Prop(name string, s *Schema) Field {
	return Field{Name: name, Schema: s}
}

// Schema describes the shape of a value. It is immutable once built; the
// accessors return copies so callers cannot alter a shared schema.
//
// Struct schemas keep their fields in declaration order, which is the order
// an editing panel presents them in.
type Schema struct {
	kind   Kind
	fields []Field
	elem   *Schema
}

// String returns a string schema.
func String() *Schema { return &Schema{kind: KindString} }

// Number returns a number schema.
func Number() *Schema { return &Schema{kind: KindNumber} }

// Boolean returns a boolean schema.
func Boolean() *Schema { return &Schema{kind: KindBoolean} }

// Struct returns a struct schema with the given fields in order.
// Use [Schema.Check] to verify the field list is well formed.
func Struct(fields ...Field) *Schema {
	return &Schema{kind: KindStruct, fields: append([]Field(nil), fields...)}
}

// Array returns an array schema whose elements all follow elem.
func Array(elem *Schema) *Schema {
	return &Schema{kind: KindArray, elem: elem}
}

// Kind returns the shape this schema describes.
func (s *Schema) Kind() Kind {
	if s == nil {
		return KindInvalid
	}
	return s.kind
}

// Fields returns the struct fields in declaration order, or nil for
// non-struct schemas.
func (s *Schema) Fields() []Field {
	if s == nil || s.kind != KindStruct {
		return nil
	}
	return append([]Field(nil), s.fields...)
}

// Field returns the child schema for a struct field.
func (s *Schema) Field(name string) (*Schema, bool) {
	if s == nil || s.kind != KindStruct {
		return nil, false
	}
	for _, f := range s.fields {
		if f.Name == name {
			return f.Schema, true
		}
	}
	return nil, false
}

// Elem returns the element schema of an array, or nil.
func (s *Schema) Elem() *Schema {
	if s == nil || s.kind != KindArray {
		return nil
	}
	return s.elem
}

// Check verifies the structural invariants recursively: struct schemas have
// at least one uniquely named field, array schemas have an element schema,
// and scalar schemas have neither.
func (s *Schema) Check() error {
	return s.check(nil)
}

func (s *Schema) check(at Path) error {
	if s == nil {
		return invalidSchema(at, "missing schema")
	}
	switch s.kind {
	case KindString, KindNumber, KindBoolean:
		if len(s.fields) > 0 || s.elem != nil {
			return invalidSchema(at, "scalar %s cannot have children", s.kind)
		}
	case KindStruct:
		if len(s.fields) == 0 {
			return invalidSchema(at, "struct must have at least one field")
		}
		seen := make(map[string]bool, len(s.fields))
		for _, f := range s.fields {
			if err := errors.ValidateFieldName(f.Name); err != nil {
				return invalidSchema(at, "%s", errors.UserMessage(err))
			}
			if seen[f.Name] {
				return invalidSchema(at, "duplicate field %q", f.Name)
			}
			seen[f.Name] = true
			if err := f.Schema.check(at.Append(Key(f.Name))); err != nil {
				return err
			}
		}
	case KindArray:
		if s.elem == nil {
			return invalidSchema(at, "array must have an element schema")
		}
		return s.elem.check(at.Append(Index(0)))
	default:
		return invalidSchema(at, "invalid kind")
	}
	return nil
}

func invalidSchema(at Path, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if len(at) > 0 {
		return errors.New(errors.ErrCodeInvalidSchema, "at %s: %s", at, msg)
	}
	return errors.New(errors.ErrCodeInvalidSchema, "%s", msg)
}

// String renders the schema in a compact, human-readable form such as
// {label: string, items: [{field1: string}]}.
func (s *Schema) String() string {
	var b strings.Builder
	s.write(&b)
	return b.String()
}

func (s *Schema) write(b *strings.Builder) {
	switch s.Kind() {
	case KindStruct:
		b.WriteByte('{')
		for i, f := range s.fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteString(": ")
			f.Schema.write(b)
		}
		b.WriteByte('}')
	case KindArray:
		b.WriteByte('[')
		s.elem.write(b)
		b.WriteByte(']')
	default:
		b.WriteString(s.Kind().String())
	}
}
