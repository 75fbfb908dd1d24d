// Package canvas interprets pointer and keyboard input on the diagram canvas.
//
// # Overview
//
// A [Machine] turns a stream of [Event] values into graph mutations and
// selection changes. It owns only interaction state (active tool, pending
// link source, the gesture in progress and the viewport). The graph and the
// selection are passed in with every event and returned, possibly replaced,
// in a [Result]:
//
//	m := canvas.NewMachine(graph.DefaultCatalog())
//	m.Step(g, sel, canvas.SetTool{Tool: canvas.ToolNode})
//	res := m.Step(g, sel, canvas.PointerDown{Pos: canvas.Point{X: 100, Y: 100}})
//	g, sel = res.Graph, res.Selection
//
// The input graph is never modified. When an event changes the graph the
// result carries a new snapshot and GraphChanged is set.
//
// # Gestures
//
// At most one gesture is active at a time: a rubber-band box, a pan, or a
// press on a node or link. A press turns into a drag once the pointer moves
// more than [DragThreshold] canvas units, and into a click if it is released
// before that. Hosts that do their own hit-testing can send [NodeClick],
// [NodeDrag] and [LinkClick] directly instead.
//
//   - Select tool: clicks select, drags move the selection, a press on empty
//     canvas starts a rubber-band box.
//   - Node tool: a press on empty canvas creates a node of the configured
//     type at the pointer.
//   - Link tool: the first node clicked becomes the link source, the next
//     different node clicked becomes the target.
//
// A non-primary button starts a pan in any tool. Delete or Backspace removes
// the selection; Escape cancels the gesture and the pending link source.
//
// # Geometry
//
// Links are drawn between node boundaries, not centers: [EdgePoint] moves
// each endpoint from the node center toward the other node by the node
// radius. Coincident centers degenerate to the center.
package canvas
