package graph

import (
	"fmt"
	"strings"

	"github.com/matzehuels/linkboard/pkg/errors"
	"github.com/matzehuels/linkboard/pkg/schema"
)

// DefaultNodeType is the type name used by the node tool when nothing else
// is configured.
const DefaultNodeType = "Node"

// Reserved document keys of a serialized node. Attribute fields of a node
// type may not use them.
const (
	KeyID          = "id"
	KeyX           = "x"
	KeyY           = "y"
	KeyChildrenIDs = "childrenIds"
	KeyLinkValues  = "linkValues"
)

// IsReservedKey reports whether name is one of the serialized node keys.
func IsReservedKey(name string) bool {
	switch name {
	case KeyID, KeyX, KeyY, KeyChildrenIDs, KeyLinkValues:
		return true
	}
	return false
}

// NodeType describes one kind of node a diagram may contain.
type NodeType struct {
	Name   string
	Radius float64
	Schema *schema.Schema
}

// Key returns the document key under which nodes of this type are stored.
func (t NodeType) Key() string { return TypeKey(t.Name) }

// New creates a node of this type with the default attribute tree.
func (t NodeType) New(id string, x, y float64) Node {
	r := t.Radius
	if r <= 0 {
		r = DefaultRadius
	}
	return NewNode(id, t.Name, x, y, r, t.Schema)
}

// TypeKey returns the pluralized lowercase form of a type name, e.g.
// "Node" -> "nodes".
func TypeKey(name string) string {
	return strings.ToLower(name) + "s"
}

// Catalog is the static set of node types plus the schema every link
// carries. It is built once at startup and shared read-only.
type Catalog struct {
	types      []NodeType
	LinkSchema *schema.Schema
}

// NewCatalog builds a catalog. Type names must be valid identifiers and
// must not collide once pluralized; every schema must pass [schema.Schema.Check].
func NewCatalog(linkSchema *schema.Schema, types ...NodeType) (*Catalog, error) {
	if len(types) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "catalog needs at least one node type")
	}
	keys := make(map[string]string, len(types))
	for _, t := range types {
		if err := errors.ValidateTypeName(t.Name); err != nil {
			return nil, err
		}
		if prev, dup := keys[t.Key()]; dup {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "node types %q and %q share document key %q", prev, t.Name, t.Key())
		}
		keys[t.Key()] = t.Name
		if t.Schema == nil {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "node type %q has no schema", t.Name)
		}
		if err := t.Schema.Check(); err != nil {
			return nil, fmt.Errorf("node type %q: %w", t.Name, err)
		}
		if t.Schema.Kind() != schema.KindStruct {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "node type %q: schema must be a struct, got %s", t.Name, t.Schema.Kind())
		}
		for _, f := range t.Schema.Fields() {
			if IsReservedKey(f.Name) {
				return nil, errors.New(errors.ErrCodeInvalidConfig, "node type %q: field %q is a reserved document key", t.Name, f.Name)
			}
		}
	}
	if linkSchema != nil {
		if err := linkSchema.Check(); err != nil {
			return nil, fmt.Errorf("link schema: %w", err)
		}
	}
	return &Catalog{types: append([]NodeType(nil), types...), LinkSchema: linkSchema}, nil
}

// Types returns the node types in declaration order.
func (c *Catalog) Types() []NodeType {
	return append([]NodeType(nil), c.types...)
}

// Type looks up a node type by name.
func (c *Catalog) Type(name string) (NodeType, bool) {
	for _, t := range c.types {
		if t.Name == name {
			return t, true
		}
	}
	return NodeType{}, false
}

// TypeForKey looks up a node type by its document key.
func (c *Catalog) TypeForKey(key string) (NodeType, bool) {
	for _, t := range c.types {
		if t.Key() == key {
			return t, true
		}
	}
	return NodeType{}, false
}

// Default returns the first declared node type.
func (c *Catalog) Default() NodeType { return c.types[0] }

// NewLink creates a link carrying the catalog's link schema.
func (c *Catalog) NewLink(source, target string) Link {
	return NewLink(source, target, c.LinkSchema)
}

// ItemSchema is the element schema of the default type's items array.
func ItemSchema() *schema.Schema {
	return schema.Struct(
		schema.Prop("field1", schema.String()),
		schema.Prop("field2", schema.Number()),
	)
}

// DefaultNodeSchema is the attribute schema of the default node type.
func DefaultNodeSchema() *schema.Schema {
	return schema.Struct(
		schema.Prop("label", schema.String()),
		schema.Prop("description", schema.String()),
		schema.Prop("weight", schema.Number()),
		schema.Prop("enabled", schema.Boolean()),
		schema.Prop("items", schema.Array(ItemSchema())),
	)
}

// DefaultLinkSchema is the attribute schema carried by every link in the
// default catalog.
func DefaultLinkSchema() *schema.Schema {
	return schema.Struct(schema.Prop("priority", schema.Number()))
}

// DefaultCatalog returns a catalog with the single "Node" type.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultLinkSchema(), NodeType{
		Name:   DefaultNodeType,
		Radius: DefaultRadius,
		Schema: DefaultNodeSchema(),
	})
	if err != nil {
		panic(err)
	}
	return c
}
