// Package graph is the entity model of a node-link diagram.
//
// # Overview
//
// A [Graph] owns an ordered collection of [Node] values and a collection of
// directed [Link] values between them. Nodes carry a position, a radius and a
// typed attribute tree ([schema.Value]) governed by the [schema.Schema] of their
// type. Links may carry their own attribute tree, for example a priority.
//
// Entities never point back at the graph. Every cross-entity question, such
// as "which links touch this node", is answered by a Graph method:
//
//	g := graph.New()
//	a := graph.NewNode(g.NextNodeID(), "Node", 100, 100, graph.DefaultRadius, s)
//	b := graph.NewNode(g.NextNodeID(), "Node", 200, 100, graph.DefaultRadius, s)
//	_ = g.AddNode(a)
//	_ = g.AddNode(b)
//	_ = g.AddLink(graph.NewLink(a.ID, b.ID, nil))
//	g.IncidentLinks(a.ID) // [node-1-node-2]
//
// # Invariants
//
//   - Node IDs are unique. Generated IDs have the form node-<n> with n
//     strictly increasing over the lifetime of a Graph.
//   - At most one link exists between any unordered pair of nodes: once
//     A→B exists, both A→B and B→A are rejected with [ErrDuplicateLink].
//   - Links never reference a missing node. [Graph.RemoveNode] is the only
//     way to remove a node and always removes its incident links with it.
//
// # Snapshots
//
// Mutating methods never modify a slice that a previous [Graph.Clone] may
// still share; they build a replacement and swap it in. A clone therefore
// behaves as an immutable snapshot of the graph at the time it was taken,
// which is how the canvas state machine hands consistent states to the
// renderer while it builds the next one. A failed mutation leaves the graph
// exactly as it was.
//
// # Catalog
//
// A [Catalog] lists the node types a document may contain, each with a
// radius and attribute schema, plus the schema shared by all links.
// [DefaultCatalog] provides the single "Node" type used when no
// configuration is supplied.
//
// Graph is not safe for concurrent use. A session owns one graph at a time.
package graph
