package canvas

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/linkboard/pkg/graph"
	"github.com/matzehuels/linkboard/pkg/selection"
)

// Result is the outcome of one event.
type Result struct {
	// Graph is the graph after the event. It is the input graph itself
	// unless GraphChanged is set.
	Graph *graph.Graph
	// Selection is the selection after the event. It only names entities
	// present in Graph.
	Selection selection.Set

	GraphChanged     bool
	SelectionChanged bool

	// Segments holds the recomputed lines of every link touching a node
	// moved by this event.
	Segments []Segment
	// Created is the ID of a node created by this event.
	Created string
	// Rejected is set when the event asked for a mutation the graph
	// refused, such as a duplicate link. The graph is unchanged.
	Rejected error
}

// Option configures a [Machine].
type Option func(*Machine)

// WithLogger sets the logger that receives gesture and mutation events.
func WithLogger(l *log.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithNodeType selects the catalog type created by the node tool.
// Unknown names keep the catalog default.
func WithNodeType(name string) Option {
	return func(m *Machine) {
		if nt, ok := m.catalog.Type(name); ok {
			m.nodeType = nt
		}
	}
}

// WithViewport sets the initial viewport.
func WithViewport(v Viewport) Option {
	return func(m *Machine) { m.state.Viewport = v }
}

// WithTool sets the initial tool.
func WithTool(t Tool) Option {
	return func(m *Machine) { m.state.Tool = t }
}

// Machine is the canvas interaction state machine. It is not safe for
// concurrent use; a session serializes events into it.
type Machine struct {
	catalog  *graph.Catalog
	nodeType graph.NodeType
	state    State
	logger   *log.Logger
}

// NewMachine creates a machine with no active tool and the default viewport.
// A nil catalog selects [graph.DefaultCatalog].
func NewMachine(cat *graph.Catalog, opts ...Option) *Machine {
	if cat == nil {
		cat = graph.DefaultCatalog()
	}
	m := &Machine{
		catalog:  cat,
		nodeType: cat.Default(),
		state:    State{Viewport: DefaultViewport()},
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns a copy of the interaction state.
func (m *Machine) State() State {
	s := m.state
	if s.Box != nil {
		b := *s.Box
		s.Box = &b
	}
	if s.Pan != nil {
		p := *s.Pan
		s.Pan = &p
	}
	if s.Press != nil {
		p := *s.Press
		s.Press = &p
	}
	return s
}

// Tool returns the active tool.
func (m *Machine) Tool() Tool { return m.state.Tool }

// NodeType returns the type created by the node tool.
func (m *Machine) NodeType() graph.NodeType { return m.nodeType }

// step carries the working copies for one event.
type step struct {
	in   *graph.Graph
	g    *graph.Graph // nil until the first mutation
	sel  selection.Set
	res  Result
	orig selection.Set
}

func (s *step) graph() *graph.Graph {
	if s.g != nil {
		return s.g
	}
	return s.in
}

// mutable returns a private snapshot to mutate.
func (s *step) mutable() *graph.Graph {
	if s.g == nil {
		s.g = s.in.Clone()
	}
	return s.g
}

// Step applies one event. g and sel are not modified.
func (m *Machine) Step(g *graph.Graph, sel selection.Set, ev Event) Result {
	if g == nil {
		g = graph.New()
	}
	st := &step{in: g, sel: sel, orig: sel}

	switch e := ev.(type) {
	case PointerDown:
		m.pointerDown(st, e)
	case PointerMove:
		m.pointerMove(st, e)
	case PointerUp:
		m.pointerUp(st, e)
	case NodeClick:
		m.nodeClick(st, e.NodeID, e.Modifier)
	case NodeDrag:
		m.nodeDrag(st, e.NodeID, e.DX, e.DY)
	case LinkClick:
		m.linkClick(st, e.Link, e.Modifier)
	case KeyDown:
		m.keyDown(st, e.Key)
	case SetTool:
		m.setTool(e.Tool)
	}

	return m.finish(st)
}

func (m *Machine) finish(st *step) Result {
	res := st.res
	res.Graph = st.graph()
	res.GraphChanged = st.g != nil
	res.Selection = st.sel
	if res.GraphChanged {
		res.Selection = res.Selection.Filter(res.Graph)
		if m.state.LinkSource != "" && !res.Graph.HasNode(m.state.LinkSource) {
			m.state.LinkSource = ""
		}
	}
	res.SelectionChanged = !res.Selection.Equal(st.orig)
	return res
}

func (m *Machine) pointerDown(st *step, e PointerDown) {
	if m.state.Busy() {
		return
	}
	if e.Button != ButtonPrimary {
		m.state.Pan = &PanGesture{Last: e.Screen}
		m.logger.Debug("pan start", "x", e.Screen.X, "y", e.Screen.Y)
		return
	}

	g := st.graph()
	if n, ok := HitNode(g, e.Pos); ok {
		m.state.Press = &Press{NodeID: n.ID, Origin: e.Pos, Last: e.Pos, Modifier: e.Modifier}
		return
	}

	switch m.state.Tool {
	case ToolSelect:
		if l, ok := HitLink(g, e.Pos); ok {
			key := l.Key()
			m.state.Press = &Press{Link: &key, Origin: e.Pos, Last: e.Pos, Modifier: e.Modifier}
			return
		}
		m.state.Box = &SelectionBox{Origin: e.Pos, Current: e.Pos}
		m.logger.Debug("box start", "x", e.Pos.X, "y", e.Pos.Y)
	case ToolNode:
		m.createNode(st, e.Pos)
	}
}

func (m *Machine) pointerMove(st *step, e PointerMove) {
	switch {
	case m.state.Box != nil:
		m.state.Box.Current = e.Pos
	case m.state.Pan != nil:
		delta := e.Screen.Sub(m.state.Pan.Last)
		m.state.Viewport = m.state.Viewport.Pan(delta)
		m.state.Pan.Last = e.Screen
	case m.state.Press != nil:
		p := m.state.Press
		if !p.Dragging && e.Pos.Dist(p.Origin) <= DragThreshold {
			return
		}
		p.Dragging = true
		delta := e.Pos.Sub(p.Last)
		p.Last = e.Pos
		if p.NodeID != "" {
			m.nodeDrag(st, p.NodeID, delta.X, delta.Y)
		}
	}
}

func (m *Machine) pointerUp(st *step, e PointerUp) {
	switch {
	case m.state.Box != nil:
		r := m.state.Box.Rect()
		m.state.Box = nil
		hit := selection.Nodes(NodesIn(st.graph(), r)...)
		if e.Modifier {
			st.sel = st.sel.Union(hit)
		} else {
			st.sel = hit
		}
		m.logger.Debug("box select", "rect", r, "selected", hit.Len())
	case m.state.Pan != nil:
		m.state.Pan = nil
	case m.state.Press != nil:
		p := m.state.Press
		m.state.Press = nil
		if p.Dragging {
			return
		}
		if p.Link != nil {
			m.linkClick(st, *p.Link, p.Modifier)
			return
		}
		m.nodeClick(st, p.NodeID, p.Modifier)
	}
}

func (m *Machine) createNode(st *step, pos Point) {
	g := st.mutable()
	n := m.nodeType.New(g.NextNodeID(), pos.X, pos.Y)
	if err := g.AddNode(n); err != nil {
		st.res.Rejected = err
		return
	}
	st.res.Created = n.ID
	m.logger.Debug("node created", "id", n.ID, "type", n.Type, "x", n.X, "y", n.Y)
}

func (m *Machine) nodeClick(st *step, id string, modifier bool) {
	if !st.graph().HasNode(id) {
		return
	}
	switch m.state.Tool {
	case ToolSelect:
		st.sel = clickSelect(st.sel, selection.Node(id), modifier)
	case ToolLink:
		m.linkClickNode(st, id)
	}
}

func (m *Machine) linkClick(st *step, key graph.LinkKey, modifier bool) {
	if m.state.Tool != ToolSelect {
		return
	}
	if _, ok := st.graph().Link(key.SourceID, key.TargetID); !ok {
		return
	}
	st.sel = clickSelect(st.sel, selection.Link(key.SourceID, key.TargetID), modifier)
}

// clickSelect applies a click on ref: with the modifier held it toggles
// ref, otherwise it selects ref alone, or clears the selection if ref was
// already the only thing selected.
func clickSelect(sel selection.Set, ref selection.Ref, modifier bool) selection.Set {
	switch {
	case modifier:
		return sel.Toggle(ref)
	case sel.Only(ref):
		return selection.Set{}
	default:
		return selection.Of(ref)
	}
}

func (m *Machine) linkClickNode(st *step, id string) {
	src := m.state.LinkSource
	if src == "" || !st.graph().HasNode(src) {
		m.state.LinkSource = id
		m.logger.Debug("link source", "id", id)
		return
	}
	if src == id {
		return
	}
	m.state.LinkSource = ""

	next := st.graph().Clone()
	if err := next.AddLink(m.catalog.NewLink(src, id)); err != nil {
		st.res.Rejected = err
		m.logger.Debug("link rejected", "source", src, "target", id, "err", err)
		return
	}
	st.g = next
	m.logger.Debug("link created", "source", src, "target", id)
}

func (m *Machine) nodeDrag(st *step, id string, dx, dy float64) {
	if !st.graph().HasNode(id) {
		return
	}
	if m.state.Tool != ToolLink {
		m.state.LinkSource = ""
	}
	if m.state.Tool != ToolSelect {
		return
	}

	ref := selection.Node(id)
	if !st.sel.Contains(ref) {
		st.sel = selection.Of(ref)
	}
	if dx == 0 && dy == 0 {
		return
	}
	ids := st.sel.NodeIDs()
	g := st.mutable()
	g.MoveNodes(ids, dx, dy)
	st.res.Segments = Segments(g, ids)
}

func (m *Machine) keyDown(st *step, key string) {
	switch key {
	case KeyDelete, KeyBackspace:
		if st.sel.IsEmpty() {
			return
		}
		nodes, links := st.mutable().RemoveEntities(st.sel.NodeIDs(), st.sel.Links())
		st.sel = selection.Set{}
		m.state.Press = nil
		m.logger.Debug("deleted selection", "nodes", nodes, "links", links)
	case KeyEscape:
		m.Cancel()
	}
}

// Cancel abandons any gesture in progress and the pending link source.
func (m *Machine) Cancel() {
	m.state.Box = nil
	m.state.Pan = nil
	m.state.Press = nil
	m.state.LinkSource = ""
}

// Resize changes the viewport dimensions, keeping its origin.
func (m *Machine) Resize(width, height float64) {
	if width > 0 && height > 0 {
		m.state.Viewport.Width = width
		m.state.Viewport.Height = height
	}
}

func (m *Machine) setTool(t Tool) {
	m.state.Tool = Toggle(m.state.Tool, t)
	m.state.Box = nil
	m.state.Press = nil
	m.logger.Debug("tool", "active", m.state.Tool)
}
