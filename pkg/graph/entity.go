package graph

import (
	"github.com/matzehuels/linkboard/pkg/schema"
)

// DefaultRadius is the radius given to nodes created by the node tool when
// the node type does not specify one.
const DefaultRadius = 20.0

// Node is a positioned vertex of the diagram.
//
// X and Y are the center in canvas coordinates. R is used for hit-testing
// and for trimming link endpoints to the node boundary; it is fixed at
// creation. Schema is shared by all nodes of the same Type and is never
// modified; Value holds this node's attributes.
type Node struct {
	ID     string
	Type   string
	X, Y   float64
	R      float64
	Schema *schema.Schema
	Value  schema.Value
}

// NewNode creates a node with the default value tree for s.
func NewNode(id, typ string, x, y, r float64, s *schema.Schema) Node {
	n := Node{ID: id, Type: typ, X: x, Y: y, R: r, Schema: s}
	if s != nil {
		n.Value = schema.Default(s)
	}
	return n
}

// Contains reports whether the point (px, py) lies inside the node circle.
func (n Node) Contains(px, py float64) bool {
	dx, dy := px-n.X, py-n.Y
	return dx*dx+dy*dy <= n.R*n.R
}

// Link is a directed edge from SourceID to TargetID.
type Link struct {
	SourceID string
	TargetID string
	Schema   *schema.Schema
	Value    schema.Value
}

// NewLink creates a link with the default value tree for s. A nil schema
// produces a link without attributes.
func NewLink(source, target string, s *schema.Schema) Link {
	l := Link{SourceID: source, TargetID: target, Schema: s}
	if s != nil {
		l.Value = schema.Default(s)
	}
	return l
}

// ID returns the derived identifier "<source>-<target>".
func (l Link) ID() string { return LinkID(l.SourceID, l.TargetID) }

// Touches reports whether id is either endpoint of the link.
func (l Link) Touches(id string) bool {
	return l.SourceID == id || l.TargetID == id
}

// Joins reports whether the link connects a and b in either direction.
func (l Link) Joins(a, b string) bool {
	return (l.SourceID == a && l.TargetID == b) || (l.SourceID == b && l.TargetID == a)
}

// LinkID builds the identifier of the link from source to target.
func LinkID(source, target string) string { return source + "-" + target }
