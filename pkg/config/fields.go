package config

import (
	"github.com/matzehuels/linkboard/pkg/errors"
	"github.com/matzehuels/linkboard/pkg/schema"
)

// NodeTypeSpec declares one node type.
type NodeTypeSpec struct {
	Name   string      `toml:"name" yaml:"name" json:"name" validate:"required"`
	Radius float64     `toml:"radius,omitempty" yaml:"radius,omitempty" json:"radius,omitempty" validate:"gte=0"`
	Fields []FieldSpec `toml:"fields" yaml:"fields" json:"fields" validate:"dive"`
}

// FieldSpec declares one property. A struct uses Fields; an array uses
// Fields for struct elements or Elem for scalar elements.
type FieldSpec struct {
	Name   string      `toml:"name" yaml:"name" json:"name" validate:"required"`
	Kind   string      `toml:"kind" yaml:"kind" json:"kind" validate:"required,oneof=string number boolean struct array"`
	Fields []FieldSpec `toml:"fields,omitempty" yaml:"fields,omitempty" json:"fields,omitempty" validate:"dive"`
	Elem   string      `toml:"elem,omitempty" yaml:"elem,omitempty" json:"elem,omitempty" validate:"omitempty,oneof=string number boolean"`
}

// StructSchema builds a struct schema from field specs.
func StructSchema(specs []FieldSpec) (*schema.Schema, error) {
	fields := make([]schema.Field, 0, len(specs))
	for _, spec := range specs {
		s, err := spec.Schema()
		if err != nil {
			return nil, err
		}
		fields = append(fields, schema.Prop(spec.Name, s))
	}
	s := schema.Struct(fields...)
	if err := s.Check(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid fields")
	}
	return s, nil
}

// Schema builds the schema this field describes.
func (f FieldSpec) Schema() (*schema.Schema, error) {
	kind, err := schema.ParseKind(f.Kind)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "field %q", f.Name)
	}
	switch kind {
	case schema.KindStruct:
		if f.Elem != "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "field %q: struct takes fields, not elem", f.Name)
		}
		return StructSchema(f.Fields)
	case schema.KindArray:
		switch {
		case len(f.Fields) > 0 && f.Elem != "":
			return nil, errors.New(errors.ErrCodeInvalidConfig, "field %q: array takes either fields or elem", f.Name)
		case len(f.Fields) > 0:
			elem, err := StructSchema(f.Fields)
			if err != nil {
				return nil, err
			}
			return schema.Array(elem), nil
		case f.Elem != "":
			ek, err := schema.ParseKind(f.Elem)
			if err != nil || !ek.IsScalar() {
				return nil, errors.New(errors.ErrCodeInvalidConfig, "field %q: elem must be a scalar kind, got %q", f.Name, f.Elem)
			}
			return schema.Array(scalar(ek)), nil
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "field %q: array needs fields or elem", f.Name)
	default:
		if len(f.Fields) > 0 || f.Elem != "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "field %q: %s takes no fields or elem", f.Name, kind)
		}
		return scalar(kind), nil
	}
}

func scalar(k schema.Kind) *schema.Schema {
	switch k {
	case schema.KindNumber:
		return schema.Number()
	case schema.KindBoolean:
		return schema.Boolean()
	}
	return schema.String()
}

// FieldsFromSchema is the inverse of [StructSchema]. Nested arrays, which
// field specs cannot express, are skipped.
func FieldsFromSchema(s *schema.Schema) []FieldSpec {
	if s == nil || s.Kind() != schema.KindStruct {
		return nil
	}
	var out []FieldSpec
	for _, f := range s.Fields() {
		spec := FieldSpec{Name: f.Name, Kind: f.Schema.Kind().String()}
		switch f.Schema.Kind() {
		case schema.KindStruct:
			spec.Fields = FieldsFromSchema(f.Schema)
		case schema.KindArray:
			elem := f.Schema.Elem()
			switch {
			case elem.Kind() == schema.KindStruct:
				spec.Fields = FieldsFromSchema(elem)
			case elem.Kind().IsScalar():
				spec.Elem = elem.Kind().String()
			default:
				continue
			}
		}
		out = append(out, spec)
	}
	return out
}
