package graph

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/linkboard/pkg/errors"
	"github.com/matzehuels/linkboard/pkg/schema"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New(errors.ErrCodeInvalidInput, "node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists.
	ErrDuplicateNodeID = errors.New(errors.ErrCodeDuplicateID, "duplicate node ID")

	// ErrUnknownNode is returned when an operation names a node that is not
	// in the graph.
	ErrUnknownNode = errors.New(errors.ErrCodeNotFound, "unknown node")

	// ErrUnknownLink is returned when an operation names a link that is not
	// in the graph.
	ErrUnknownLink = errors.New(errors.ErrCodeNotFound, "unknown link")

	// ErrDuplicateLink is returned by [Graph.AddLink] when the two nodes are
	// already connected in either direction.
	ErrDuplicateLink = errors.New(errors.ErrCodeDuplicateLink, "a link between these nodes already exists")

	// ErrSelfLink is returned by [Graph.AddLink] when source and target are
	// the same node.
	ErrSelfLink = errors.New(errors.ErrCodeInvalidInput, "link source and target must differ")

	// ErrDanglingLink is returned by [Graph.Validate] when a link references
	// a node that does not exist.
	ErrDanglingLink = errors.New(errors.ErrCodeDanglingReference, "link references a missing node")
)

// NodeIDPrefix is the prefix of generated node IDs.
const NodeIDPrefix = "node-"

// LinkKey identifies a directed link by its endpoints.
type LinkKey struct {
	SourceID string
	TargetID string
}

// String returns the derived link ID.
func (k LinkKey) String() string { return LinkID(k.SourceID, k.TargetID) }

// Key returns the endpoints of l.
func (l Link) Key() LinkKey { return LinkKey{SourceID: l.SourceID, TargetID: l.TargetID} }

// Graph is the diagram: nodes in insertion order and the links between them.
// Insertion order is the drawing order (later nodes are on top) and the
// serialization order.
//
// The zero value is an empty graph ready to use.
type Graph struct {
	nodes []Node
	links []Link
	index map[string]int // node ID -> position in nodes
	next  int            // numeric suffix of the next generated ID
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{index: map[string]int{}, next: 1}
}

// Clone returns a snapshot of g. The snapshot shares storage with g but is
// unaffected by later mutations of either graph.
func (g *Graph) Clone() *Graph {
	c := *g
	return &c
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// LinkCount returns the number of links.
func (g *Graph) LinkCount() int { return len(g.links) }

// Nodes returns a copy of the nodes in insertion order.
func (g *Graph) Nodes() []Node { return slices.Clone(g.nodes) }

// Links returns a copy of the links in insertion order.
func (g *Graph) Links() []Link { return slices.Clone(g.links) }

// Node looks up a node by ID.
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i], true
}

// HasNode reports whether a node with the given ID exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Link looks up the directed link from source to target.
func (g *Graph) Link(source, target string) (Link, bool) {
	for _, l := range g.links {
		if l.SourceID == source && l.TargetID == target {
			return l, true
		}
	}
	return Link{}, false
}

// Connected reports whether a and b are joined by a link in either direction.
func (g *Graph) Connected(a, b string) bool {
	return slices.ContainsFunc(g.links, func(l Link) bool { return l.Joins(a, b) })
}

// IncidentLinks returns every link with id as source or target.
func (g *Graph) IncidentLinks(id string) []Link {
	var out []Link
	for _, l := range g.links {
		if l.Touches(id) {
			out = append(out, l)
		}
	}
	return out
}

// Targets returns the target IDs of every link leaving id, in link order.
func (g *Graph) Targets(id string) []string {
	var out []string
	for _, l := range g.links {
		if l.SourceID == id {
			out = append(out, l.TargetID)
		}
	}
	return out
}

// NextNodeID returns a fresh node ID and advances the counter.
func (g *Graph) NextNodeID() string {
	if g.next < 1 {
		g.next = 1
	}
	id := NodeIDPrefix + strconv.Itoa(g.next)
	g.next++
	return id
}

// ResetCounter rewinds the ID counter. Subsequent calls to [Graph.AddNode]
// move it past every generated-style ID they insert, so resetting before a
// bulk load reseeds the counter to one more than the largest suffix loaded.
func (g *Graph) ResetCounter() { g.next = 1 }

// AddNode appends a node. If the node has a schema but no value, the value
// starts at the schema default.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if g.HasNode(n.ID) {
		return fmt.Errorf("%w: %q", ErrDuplicateNodeID, n.ID)
	}
	if n.Schema != nil && !n.Value.IsSet() {
		n.Value = schema.Default(n.Schema)
	}

	index := maps.Clone(g.index)
	if index == nil {
		index = map[string]int{}
	}
	index[n.ID] = len(g.nodes)
	g.nodes = append(slices.Clip(g.nodes), n)
	g.index = index
	g.bump(n.ID)
	return nil
}

func (g *Graph) bump(id string) {
	suffix, ok := strings.CutPrefix(id, NodeIDPrefix)
	if !ok {
		return
	}
	n, err := strconv.Atoi(suffix)
	if err != nil || n < 0 {
		return
	}
	if n+1 > g.next {
		g.next = n + 1
	}
}

// RemoveNode removes a node together with every link that touches it.
// It reports whether the node existed.
func (g *Graph) RemoveNode(id string) bool {
	if !g.HasNode(id) {
		return false
	}
	g.RemoveEntities([]string{id}, nil)
	return true
}

// AddLink appends a link between two existing, distinct nodes that are not
// yet connected in either direction. On error the graph is unchanged.
func (g *Graph) AddLink(l Link) error {
	if l.SourceID == l.TargetID {
		return ErrSelfLink
	}
	if !g.HasNode(l.SourceID) {
		return fmt.Errorf("%w: %q", ErrUnknownNode, l.SourceID)
	}
	if !g.HasNode(l.TargetID) {
		return fmt.Errorf("%w: %q", ErrUnknownNode, l.TargetID)
	}
	if g.Connected(l.SourceID, l.TargetID) {
		return fmt.Errorf("%w: %s and %s", ErrDuplicateLink, l.SourceID, l.TargetID)
	}
	if l.Schema != nil && !l.Value.IsSet() {
		l.Value = schema.Default(l.Schema)
	}
	g.links = append(slices.Clip(g.links), l)
	return nil
}

// RemoveLink removes the link from source to target. The reverse link is
// not considered. It reports whether a link was removed.
func (g *Graph) RemoveLink(source, target string) bool {
	i := slices.IndexFunc(g.links, func(l Link) bool {
		return l.SourceID == source && l.TargetID == target
	})
	if i < 0 {
		return false
	}
	g.links = slices.Delete(slices.Clone(g.links), i, i+1)
	return true
}

// RemoveEntities removes the given nodes, their incident links, and the
// given links in a single replacement. It returns the number of nodes and
// links removed. Unknown IDs are ignored.
func (g *Graph) RemoveEntities(nodeIDs []string, links []LinkKey) (nodes, linksRemoved int) {
	drop := make(map[string]bool, len(nodeIDs))
	for _, id := range nodeIDs {
		drop[id] = true
	}
	dropLink := make(map[LinkKey]bool, len(links))
	for _, k := range links {
		dropLink[k] = true
	}

	keptNodes := make([]Node, 0, len(g.nodes))
	index := make(map[string]int, len(g.nodes))
	for _, n := range g.nodes {
		if drop[n.ID] {
			continue
		}
		index[n.ID] = len(keptNodes)
		keptNodes = append(keptNodes, n)
	}
	keptLinks := make([]Link, 0, len(g.links))
	for _, l := range g.links {
		if drop[l.SourceID] || drop[l.TargetID] || dropLink[l.Key()] {
			continue
		}
		keptLinks = append(keptLinks, l)
	}

	nodes = len(g.nodes) - len(keptNodes)
	linksRemoved = len(g.links) - len(keptLinks)
	g.nodes, g.links, g.index = keptNodes, keptLinks, index
	return nodes, linksRemoved
}

// MoveNodes translates the given nodes by (dx, dy). Unknown IDs are
// ignored. It returns the number of nodes moved.
func (g *Graph) MoveNodes(ids []string, dx, dy float64) int {
	if len(ids) == 0 || (dx == 0 && dy == 0) {
		return 0
	}
	nodes := slices.Clone(g.nodes)
	moved := 0
	for _, id := range ids {
		i, ok := g.index[id]
		if !ok {
			continue
		}
		nodes[i].X += dx
		nodes[i].Y += dy
		moved++
	}
	g.nodes = nodes
	return moved
}

// SetNodeValue replaces a node's attribute tree. The value must conform to
// the node's schema.
func (g *Graph) SetNodeValue(id string, v schema.Value) error {
	i, ok := g.index[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNode, id)
	}
	if err := checkValue(g.nodes[i].Schema, v); err != nil {
		return err
	}
	nodes := slices.Clone(g.nodes)
	nodes[i].Value = v
	g.nodes = nodes
	return nil
}

// SetLinkValue replaces a link's attribute tree. The value must conform to
// the link's schema.
func (g *Graph) SetLinkValue(source, target string, v schema.Value) error {
	i := slices.IndexFunc(g.links, func(l Link) bool {
		return l.SourceID == source && l.TargetID == target
	})
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownLink, LinkID(source, target))
	}
	if err := checkValue(g.links[i].Schema, v); err != nil {
		return err
	}
	links := slices.Clone(g.links)
	links[i].Value = v
	g.links = links
	return nil
}

func checkValue(s *schema.Schema, v schema.Value) error {
	if s == nil {
		if v.IsSet() {
			return errors.New(errors.ErrCodeInvalidValue, "entity has no schema")
		}
		return nil
	}
	return schema.Validate(s, v)
}

// Validate checks the graph invariants: unique node IDs, links between
// existing distinct nodes, at most one link per node pair, and conformant
// attribute trees.
func (g *Graph) Validate() error {
	seen := make(map[string]bool, len(g.nodes))
	for _, n := range g.nodes {
		if n.ID == "" {
			return ErrInvalidNodeID
		}
		if seen[n.ID] {
			return fmt.Errorf("%w: %q", ErrDuplicateNodeID, n.ID)
		}
		seen[n.ID] = true
		if err := checkValue(n.Schema, n.Value); err != nil {
			return fmt.Errorf("node %s: %w", n.ID, err)
		}
	}

	pairs := make(map[LinkKey]bool, len(g.links))
	for _, l := range g.links {
		if !seen[l.SourceID] || !seen[l.TargetID] {
			return fmt.Errorf("%w: %s", ErrDanglingLink, l.ID())
		}
		if l.SourceID == l.TargetID {
			return ErrSelfLink
		}
		a, b := l.SourceID, l.TargetID
		if b < a {
			a, b = b, a
		}
		pair := LinkKey{SourceID: a, TargetID: b}
		if pairs[pair] {
			return fmt.Errorf("%w: %s and %s", ErrDuplicateLink, a, b)
		}
		pairs[pair] = true
		if err := checkValue(l.Schema, l.Value); err != nil {
			return fmt.Errorf("link %s: %w", l.ID(), err)
		}
	}
	return nil
}
