package schema

import (
	"testing"

	"github.com/matzehuels/linkboard/pkg/errors"
)

func itemSchema() *Schema {
	return Struct(
		Prop("field1", String()),
		Prop("field2", Number()),
	)
}

func nodeSchema() *Schema {
	return Struct(
		Prop("label", String()),
		Prop("weight", Number()),
		Prop("enabled", Boolean()),
		Prop("items", Array(itemSchema())),
	)
}

func TestSchemaCheck(t *testing.T) {
	tests := []struct {
		name    string
		schema  *Schema
		wantErr bool
	}{
		{"String", String(), false},
		{"Struct", nodeSchema(), false},
		{"NestedArray", Array(Array(Number())), false},
		{"EmptyStruct", Struct(), true},
		{"DuplicateField", Struct(Prop("a", String()), Prop("a", Number())), true},
		{"EmptyFieldName", Struct(Prop("", String())), true},
		{"DottedFieldName", Struct(Prop("a.b", String())), true},
		{"NilFieldSchema", Struct(Prop("a", nil)), true},
		{"ArrayWithoutElem", Array(nil), true},
		{"NestedEmptyStruct", Struct(Prop("inner", Struct())), true},
		{"Nil", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Check()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Check() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidSchema) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidSchema)
			}
		})
	}
}

func TestSchemaAccessors(t *testing.T) {
	s := nodeSchema()

	fields := s.Fields()
	if len(fields) != 4 || fields[0].Name != "label" || fields[3].Name != "items" {
		t.Fatalf("Fields() = %v, want declaration order", fields)
	}
	fields[0] = Prop("mutated", Boolean())
	if s.Fields()[0].Name != "label" {
		t.Error("Fields() exposed internal slice")
	}

	items, ok := s.Field("items")
	if !ok || items.Kind() != KindArray {
		t.Fatalf("Field(items) = %v, %v", items, ok)
	}
	if items.Elem().Kind() != KindStruct {
		t.Errorf("Elem().Kind() = %v, want struct", items.Elem().Kind())
	}
	if _, ok := s.Field("missing"); ok {
		t.Error("Field(missing) reported ok")
	}
	if String().Elem() != nil || String().Fields() != nil {
		t.Error("scalar schema reported children")
	}
}

func TestSchemaString(t *testing.T) {
	got := Struct(Prop("label", String()), Prop("items", Array(Struct(Prop("field1", String()))))).String()
	want := "{label: string, items: [{field1: string}]}"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindString, KindNumber, KindBoolean, KindStruct, KindArray} {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if got, err := ParseKind("NUMBER"); err != nil || got != KindNumber {
		t.Errorf("ParseKind(NUMBER) = %v, %v", got, err)
	}
	if _, err := ParseKind("date"); !errors.Is(err, errors.ErrCodeInvalidSchema) {
		t.Errorf("ParseKind(date) error = %v, want INVALID_SCHEMA", err)
	}
}

func TestKindIsScalar(t *testing.T) {
	tests := map[Kind]bool{
		KindString:  true,
		KindNumber:  true,
		KindBoolean: true,
		KindStruct:  false,
		KindArray:   false,
		KindInvalid: false,
	}
	for k, want := range tests {
		if got := k.IsScalar(); got != want {
			t.Errorf("%v.IsScalar() = %v, want %v", k, got, want)
		}
	}
}
