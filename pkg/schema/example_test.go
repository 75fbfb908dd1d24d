package schema_test

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/linkboard/pkg/schema"
)

func ExampleSetPath() {
	item := schema.Struct(
		schema.Prop("field1", schema.String()),
		schema.Prop("field2", schema.Number()),
	)
	s := schema.Struct(schema.Prop("items", schema.Array(item)))

	v := schema.Default(s)
	v, _ = schema.Append(s, v, schema.MustParsePath("items"), schema.Default(item))
	next, _ := schema.SetPath(s, v, schema.MustParsePath("items[0].field1"), schema.Str("abc"))

	fmt.Println("before:", v)
	fmt.Println("after: ", next)
	// Output:
	// before: {items: [{}]}
	// after:  {items: [{field1: "abc"}]}
}

func ExampleSetPath_invalidPath() {
	s := schema.Struct(schema.Prop("label", schema.String()))
	_, err := schema.SetPath(s, schema.Default(s), schema.MustParsePath("label.first"), schema.Str("x"))
	fmt.Println(err)
	// Output:
	// INVALID_PATH: at label: cannot descend into string
}

func ExampleUnflatten() {
	s := schema.Struct(
		schema.Prop("label", schema.String()),
		schema.Prop("weight", schema.Number()),
	)

	var raw any
	_ = json.Unmarshal([]byte(`{"label": "db", "weight": "heavy", "color": "red"}`), &raw)

	v, diags, _ := schema.Unflatten(s, raw, schema.Lenient)
	fmt.Println(v)
	for _, d := range diags {
		fmt.Println(d)
	}
	// Output:
	// {label: "db"}
	// color: unknown field
	// weight: want number, got string
}
