// Package selection holds the set of diagram entities the user has chosen.
//
// A [Set] is an immutable value: every operation returns a new set. The
// canvas state machine receives the current set with each event and returns
// the next one; a [Store] keeps the current set for one session and lets
// other components, such as the property panel, observe it.
package selection

import (
	"slices"
	"strings"

	"github.com/matzehuels/linkboard/pkg/graph"
)

// RefKind tells a node reference from a link reference.
type RefKind int

const (
	RefNode RefKind = iota
	RefLink
)

// Ref names one node or link by ID. Refs never hold entity data, so a
// selection cannot keep a stale copy of a node alive.
type Ref struct {
	Kind   RefKind
	NodeID string
	Link   graph.LinkKey
}

// Node returns a reference to the node with the given ID.
func Node(id string) Ref { return Ref{Kind: RefNode, NodeID: id} }

// Link returns a reference to the link from source to target.
func Link(source, target string) Ref {
	return Ref{Kind: RefLink, Link: graph.LinkKey{SourceID: source, TargetID: target}}
}

// IsNode reports whether r references a node.
func (r Ref) IsNode() bool { return r.Kind == RefNode }

// IsLink reports whether r references a link.
func (r Ref) IsLink() bool { return r.Kind == RefLink }

func (r Ref) String() string {
	if r.IsLink() {
		return "link:" + r.Link.String()
	}
	return "node:" + r.NodeID
}

// Exists reports whether the referenced entity is in g.
func (r Ref) Exists(g *graph.Graph) bool {
	if r.IsLink() {
		_, ok := g.Link(r.Link.SourceID, r.Link.TargetID)
		return ok
	}
	return g.HasNode(r.NodeID)
}

// Set is an ordered set of references. The zero value is empty.
type Set struct {
	refs []Ref
}

// Of builds a set from refs, dropping duplicates.
func Of(refs ...Ref) Set {
	var s Set
	for _, r := range refs {
		if !s.Contains(r) {
			s.refs = append(s.refs, r)
		}
	}
	return s
}

// Nodes builds a set of node references.
func Nodes(ids ...string) Set {
	refs := make([]Ref, len(ids))
	for i, id := range ids {
		refs[i] = Node(id)
	}
	return Of(refs...)
}

// Len returns the number of references.
func (s Set) Len() int { return len(s.refs) }

// IsEmpty reports whether nothing is selected.
func (s Set) IsEmpty() bool { return len(s.refs) == 0 }

// Contains reports whether r is in the set.
func (s Set) Contains(r Ref) bool { return slices.Contains(s.refs, r) }

// Only reports whether the set is exactly {r}.
func (s Set) Only(r Ref) bool { return len(s.refs) == 1 && s.refs[0] == r }

// Refs returns the references in insertion order.
func (s Set) Refs() []Ref { return slices.Clone(s.refs) }

// NodeIDs returns the selected node IDs in insertion order.
func (s Set) NodeIDs() []string {
	var out []string
	for _, r := range s.refs {
		if r.IsNode() {
			out = append(out, r.NodeID)
		}
	}
	return out
}

// Links returns the selected links in insertion order.
func (s Set) Links() []graph.LinkKey {
	var out []graph.LinkKey
	for _, r := range s.refs {
		if r.IsLink() {
			out = append(out, r.Link)
		}
	}
	return out
}

// With returns the set with r added.
func (s Set) With(r Ref) Set {
	if s.Contains(r) {
		return s
	}
	refs := make([]Ref, 0, len(s.refs)+1)
	refs = append(refs, s.refs...)
	return Set{refs: append(refs, r)}
}

// Without returns the set with r removed.
func (s Set) Without(r Ref) Set {
	i := slices.Index(s.refs, r)
	if i < 0 {
		return s
	}
	return Set{refs: slices.Delete(slices.Clone(s.refs), i, i+1)}
}

// Toggle adds r if absent and removes it if present.
func (s Set) Toggle(r Ref) Set {
	if s.Contains(r) {
		return s.Without(r)
	}
	return s.With(r)
}

// Union returns the references of s followed by those of o not already in s.
func (s Set) Union(o Set) Set {
	out := s
	for _, r := range o.refs {
		out = out.With(r)
	}
	return out
}

// Equal reports whether both sets hold the same references, ignoring order.
func (s Set) Equal(o Set) bool {
	if len(s.refs) != len(o.refs) {
		return false
	}
	for _, r := range s.refs {
		if !o.Contains(r) {
			return false
		}
	}
	return true
}

// Filter drops every reference whose entity is not in g.
func (s Set) Filter(g *graph.Graph) Set {
	var kept []Ref
	for _, r := range s.refs {
		if r.Exists(g) {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(s.refs) {
		return s
	}
	return Set{refs: kept}
}

func (s Set) String() string {
	parts := make([]string, len(s.refs))
	for i, r := range s.refs {
		parts[i] = r.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
