// Package schema describes the shape of entity attributes and holds the
// values that follow that shape.
//
// # Overview
//
// Every node and link in a diagram carries two parallel trees:
//
//   - a [Schema]: a static, recursively nested description of the attributes
//     an entity type carries (string, number, boolean, struct, array)
//   - a [Value]: the actual data, one value node per schema node
//
// Schemas are defined once per entity type and never change. Values change
// through the persistent update functions in this package, which always
// return a new tree and never modify their input. Callers can therefore keep
// the previous tree around to diff or to roll back.
//
// # Building Schemas
//
//	item := schema.Struct(
//	    schema.Prop("field1", schema.String()),
//	    schema.Prop("field2", schema.Number()),
//	)
//	s := schema.Struct(
//	    schema.Prop("label", schema.String()),
//	    schema.Prop("items", schema.Array(item)),
//	)
//	if err := s.Check(); err != nil {
//	    // empty struct, duplicate field, missing element schema...
//	}
//
// # Editing Values
//
// Paths address a position inside a value tree by field name and array
// index. [ParsePath] reads the textual form used by the CLI:
//
//	v := schema.Default(s)                         // {} - all fields unset
//	v, _ = schema.Append(s, v, schema.MustParsePath("items"), schema.Default(item))
//	v, _ = schema.SetPath(s, v, schema.MustParsePath("items[0].field1"), schema.Str("abc"))
//
// [SetPath] fails with an INVALID_PATH error when a segment tries to descend
// into a scalar, names an unknown field, or indexes past the end of an array.
// A replacement that does not conform to the schema at its position fails
// with INVALID_VALUE.
//
// # Conformance
//
// [Validate] reports the first place where a value departs from its schema.
// Struct keys are optional (there is no "required" concept); every present
// key must exist in the schema. Numbers must be finite.
//
// # Plain Representation
//
// [Flatten] strips the tree down to plain Go values (string, float64, bool,
// map[string]any, []any) suitable for encoding/json. [Unflatten] rebuilds a
// tree from such data under an explicit [Mode]: [Strict] rejects anything the
// schema does not describe, [Lenient] drops it and reports a [Diagnostic].
package schema
