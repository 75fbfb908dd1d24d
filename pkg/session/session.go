// Package session hosts one editing session: the live graph, the
// selection, the canvas state machine and the property-edit path.
//
// A Session serializes every input through a single mutex, so hosts (the
// TUI, the HTTP server) may call it from any goroutine. Graph snapshots
// handed out by [Session.View] are immutable; a mutation swaps in a new
// snapshot rather than changing the one a renderer holds.
//
// Property edits from a form panel are coalesced: [Session.ProposeValue]
// and [Session.EditPath] validate the new tree immediately and then wait
// for the coalescing window to settle before committing. Only the latest
// value per entity is committed. Any canvas event or explicit
// [Session.Flush] commits pending edits first, so edits are never applied
// out of order with the gestures around them.
//
// # Usage
//
//	s := session.New(session.Config{Catalog: cat, Logger: logger})
//	defer s.Close()
//
//	s.SetTool(ctx, canvas.ToolNode)
//	res := s.Dispatch(ctx, canvas.PointerDown{Pos: canvas.Point{X: 100, Y: 100}})
//
//	s.EditPath(ctx, selection.Node(res.Created), schema.MustParsePath("label"), schema.Str("a"))
//	s.Flush(ctx)
package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/linkboard/pkg/canvas"
	"github.com/matzehuels/linkboard/pkg/errors"
	"github.com/matzehuels/linkboard/pkg/graph"
	lbio "github.com/matzehuels/linkboard/pkg/io"
	"github.com/matzehuels/linkboard/pkg/observability"
	"github.com/matzehuels/linkboard/pkg/schema"
	"github.com/matzehuels/linkboard/pkg/selection"
)

// DefaultTTL is how long an idle session is kept by a [Registry].
const DefaultTTL = 24 * time.Hour

// Config configures a [Session].
type Config struct {
	// Catalog lists the node types and the link schema. Nil selects
	// [graph.DefaultCatalog].
	Catalog *graph.Catalog
	// NodeType is the type created by the node tool. Empty selects the
	// catalog default.
	NodeType string
	// CoalesceWindow delays property commits. Zero selects
	// [DefaultCoalesceWindow]; a negative window commits immediately.
	CoalesceWindow time.Duration
	// Viewport is the initial viewport. The zero value selects
	// [canvas.DefaultViewport].
	Viewport canvas.Viewport
	// DecodeMode is the policy for attribute mismatches on import.
	DecodeMode schema.Mode
	// TTL is the idle lifetime used by a [Registry]. Zero selects
	// [DefaultTTL].
	TTL    time.Duration
	Logger *log.Logger
}

func (c Config) withDefaults() Config {
	if c.Catalog == nil {
		c.Catalog = graph.DefaultCatalog()
	}
	if c.CoalesceWindow == 0 {
		c.CoalesceWindow = DefaultCoalesceWindow
	}
	if c.Viewport == (canvas.Viewport{}) {
		c.Viewport = canvas.DefaultViewport()
	}
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.Logger == nil {
		c.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return c
}

// View is a consistent snapshot of everything a renderer needs.
type View struct {
	Graph     *graph.Graph
	Selection selection.Set
	State     canvas.State
	// DrawerVisible reports whether the property panel is shown.
	DrawerVisible bool
	// Segments holds the trimmed line of every link.
	Segments []canvas.Segment
	// Pending counts entities with an uncommitted property edit.
	Pending int
	// Version increases with every graph change.
	Version uint64
}

// Session is one editing session.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.Mutex
	cfg        Config
	machine    *canvas.Machine
	graph      *graph.Graph
	sel        *selection.Store
	edits      *coalescer
	version    uint64
	lastActive time.Time
	closed     bool
	logger     *log.Logger
}

// New creates a session over an empty graph.
func New(cfg Config) *Session {
	return newWithID(uuid.NewString(), cfg)
}

func newWithID(id string, cfg Config) *Session {
	cfg = cfg.withDefaults()
	now := time.Now()
	s := &Session{
		ID:         id,
		CreatedAt:  now,
		cfg:        cfg,
		graph:      graph.New(),
		sel:        selection.NewStore(),
		lastActive: now,
		logger:     cfg.Logger.With("session", shortID(id)),
	}
	s.machine = canvas.NewMachine(cfg.Catalog,
		canvas.WithLogger(s.logger),
		canvas.WithNodeType(cfg.NodeType),
		canvas.WithViewport(cfg.Viewport),
	)
	s.edits = newCoalescer(cfg.CoalesceWindow, s.commitSettled)
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Catalog returns the session's node-type catalog.
func (s *Session) Catalog() *graph.Catalog { return s.cfg.Catalog }

// Selection returns the session's selection store. Subscribers are called
// while the session is locked and must not call back into the session.
func (s *Session) Selection() *selection.Store { return s.sel }

// LastActive returns the time of the most recent input.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// ExpiresAt returns when the session becomes idle-expired.
func (s *Session) ExpiresAt() time.Time {
	return s.LastActive().Add(s.cfg.TTL)
}

// IsExpired reports whether the session has been idle longer than its TTL.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt())
}

func (s *Session) touch() { s.lastActive = time.Now() }

// Dispatch feeds one canvas event through the state machine. Pending
// property edits are committed first.
func (s *Session) Dispatch(ctx context.Context, ev canvas.Event) canvas.Result {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.applyLocked(ctx, s.edits.take())

	res := s.machine.Step(s.graph, s.sel.Load(), ev)
	if res.GraphChanged {
		s.graph = res.Graph
		s.version++
	}
	if res.SelectionChanged {
		s.sel.Replace(res.Selection)
	}
	if res.Rejected != nil {
		s.logger.Debug("event rejected", "event", EventKind(ev), "err", res.Rejected)
	}
	observability.Editor().OnEvent(ctx, EventKind(ev), res.GraphChanged, time.Since(start))
	return res
}

// SetTool activates t, or deactivates it when it is already active.
func (s *Session) SetTool(ctx context.Context, t canvas.Tool) canvas.Tool {
	s.Dispatch(ctx, canvas.SetTool{Tool: t})
	return s.Tool()
}

// Tool returns the active tool.
func (s *Session) Tool() canvas.Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Tool()
}

// View returns a consistent snapshot for rendering. Pending property
// edits are not reflected until they commit.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.sel.Load()
	st := s.machine.State()
	var segs []canvas.Segment
	for _, l := range s.graph.Links() {
		if seg, ok := canvas.LinkSegment(s.graph, l); ok {
			segs = append(segs, seg)
		}
	}
	return View{
		Graph:         s.graph,
		Selection:     sel,
		State:         st,
		DrawerVisible: canvas.DrawerVisible(st.Tool, sel),
		Segments:      segs,
		Pending:       s.edits.len(),
		Version:       s.version,
	}
}

// Resize changes the viewport dimensions.
func (s *Session) Resize(width, height float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine.Resize(width, height)
}

// Graph returns the current graph snapshot.
func (s *Session) Graph() *graph.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph
}

// entity returns the schema and committed value of ref.
func (s *Session) entity(ref selection.Ref) (*schema.Schema, schema.Value, error) {
	switch {
	case ref.IsNode():
		n, ok := s.graph.Node(ref.NodeID)
		if !ok {
			return nil, schema.Value{}, errors.Wrap(errors.ErrCodeNotFound, graph.ErrUnknownNode, "node %q", ref.NodeID)
		}
		return n.Schema, n.Value, nil
	case ref.IsLink():
		l, ok := s.graph.Link(ref.Link.SourceID, ref.Link.TargetID)
		if !ok {
			return nil, schema.Value{}, errors.Wrap(errors.ErrCodeNotFound, graph.ErrUnknownLink, "link %s", ref.Link)
		}
		return l.Schema, l.Value, nil
	}
	return nil, schema.Value{}, errors.New(errors.ErrCodeInvalidInput, "invalid entity reference")
}

// Value returns the attribute tree of ref as the form panel should show
// it: the pending edit if one exists, else the committed value.
func (s *Session) Value(ref selection.Ref) (*schema.Schema, schema.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sch, v, err := s.entity(ref)
	if err != nil {
		return nil, schema.Value{}, err
	}
	if p, ok := s.edits.lookup(ref); ok {
		v = p
	}
	return sch, v, nil
}

// ProposeValue replaces the attribute tree of ref. The tree is validated
// now and committed when the coalescing window settles.
func (s *Session) ProposeValue(ctx context.Context, ref selection.Ref, v schema.Value) error {
	return s.Update(ctx, ref, func(sch *schema.Schema, _ schema.Value) (schema.Value, error) {
		return v, nil
	})
}

// EditPath sets the leaf at path in the attribute tree of ref and returns
// the new tree. Edits stack on top of any pending edit for the same entity.
func (s *Session) EditPath(ctx context.Context, ref selection.Ref, path schema.Path, leaf schema.Value) (schema.Value, error) {
	var out schema.Value
	err := s.Update(ctx, ref, func(sch *schema.Schema, cur schema.Value) (schema.Value, error) {
		v, err := schema.SetPath(sch, cur, path, leaf)
		out = v
		return v, err
	})
	return out, err
}

// AppendItem appends the default element to the array at path.
func (s *Session) AppendItem(ctx context.Context, ref selection.Ref, path schema.Path) (schema.Value, error) {
	var out schema.Value
	err := s.Update(ctx, ref, func(sch *schema.Schema, cur schema.Value) (schema.Value, error) {
		_, arr, err := schema.Lookup(sch, cur, path)
		if err != nil {
			return cur, err
		}
		if arr.Kind() != schema.KindArray {
			return cur, errors.New(errors.ErrCodeInvalidPath, "%s is not an array", path)
		}
		v, err := schema.Append(sch, cur, path, schema.Default(arr.Elem()))
		out = v
		return v, err
	})
	return out, err
}

// RemoveItem removes the element or struct key at path.
func (s *Session) RemoveItem(ctx context.Context, ref selection.Ref, path schema.Path) (schema.Value, error) {
	var out schema.Value
	err := s.Update(ctx, ref, func(sch *schema.Schema, cur schema.Value) (schema.Value, error) {
		v, err := schema.DeletePath(sch, cur, path)
		out = v
		return v, err
	})
	return out, err
}

// MoveItem moves an array element from one index to another.
func (s *Session) MoveItem(ctx context.Context, ref selection.Ref, path schema.Path, from, to int) (schema.Value, error) {
	var out schema.Value
	err := s.Update(ctx, ref, func(sch *schema.Schema, cur schema.Value) (schema.Value, error) {
		v, err := schema.Move(sch, cur, path, from, to)
		out = v
		return v, err
	})
	return out, err
}

// Update derives a new attribute tree for ref from its current one (the
// pending edit, if any) and submits it. The result must conform to the
// entity's schema; on error nothing is submitted.
func (s *Session) Update(ctx context.Context, ref selection.Ref, fn func(*schema.Schema, schema.Value) (schema.Value, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New(errors.ErrCodeSessionNotFound, "session %s is closed", s.ID)
	}
	s.touch()

	sch, cur, err := s.entity(ref)
	if err != nil {
		return err
	}
	if p, ok := s.edits.lookup(ref); ok {
		cur = p
	}
	next, err := fn(sch, cur)
	if err != nil {
		return err
	}
	if err := validateFor(sch, next); err != nil {
		return err
	}

	if s.cfg.CoalesceWindow < 0 {
		s.applyLocked(ctx, []edit{{ref: ref, value: next}})
		return nil
	}
	s.edits.submit(ref, next)
	return nil
}

func validateFor(sch *schema.Schema, v schema.Value) error {
	if sch == nil {
		if v.IsSet() {
			return errors.New(errors.ErrCodeInvalidValue, "entity has no attributes")
		}
		return nil
	}
	return schema.Validate(sch, v)
}

// Flush commits pending property edits now.
func (s *Session) Flush(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(ctx, s.edits.take())
}

// commitSettled is the coalescer's timer callback. The batch is taken
// under the session lock, so an edit or import racing the timer either
// sees the pending value or finds it already committed.
func (s *Session) commitSettled() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(context.Background(), s.edits.take())
}

// applyLocked commits edits to a new graph snapshot. Edits for entities
// deleted in the meantime are dropped.
func (s *Session) applyLocked(ctx context.Context, batch []edit) {
	if len(batch) == 0 {
		return
	}
	g := s.graph.Clone()
	applied := 0
	for _, e := range batch {
		var err error
		switch {
		case e.ref.IsNode():
			err = g.SetNodeValue(e.ref.NodeID, e.value)
		case e.ref.IsLink():
			err = g.SetLinkValue(e.ref.Link.SourceID, e.ref.Link.TargetID, e.value)
		}
		observability.Editor().OnCommit(ctx, e.ref.String(), err)
		if err != nil {
			s.logger.Debug("property edit dropped", "ref", e.ref, "err", err)
			continue
		}
		applied++
	}
	if applied > 0 {
		s.graph = g
		s.version++
		s.logger.Debug("property edits committed", "count", applied)
	}
}

// Import replaces the graph with a decoded document. On failure the
// session is unchanged. Pending edits are discarded on success.
func (s *Session) Import(ctx context.Context, data []byte) (lbio.Report, error) {
	g, report, err := lbio.ImportDocument(data, s.cfg.Catalog, lbio.Options{
		Mode:   s.cfg.DecodeMode,
		Logger: s.logger,
	})
	if err != nil {
		observability.Editor().OnImport(ctx, 0, 0, len(report.Diagnostics), err)
		return report, err
	}
	observability.Editor().OnImport(ctx, g.NodeCount(), g.LinkCount(), len(report.Diagnostics), nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.edits.take()
	s.graph = g
	s.version++
	s.sel.Sync(g)
	s.machine.Cancel()
	s.logger.Info("document imported", "nodes", g.NodeCount(), "links", g.LinkCount(), "diagnostics", len(report.Diagnostics))
	return report, nil
}

// Export commits pending edits and encodes the graph as a document.
func (s *Session) Export(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	s.applyLocked(ctx, s.edits.take())
	g := s.graph
	s.mu.Unlock()

	data, err := lbio.ExportDocument(g)
	if err != nil {
		return nil, fmt.Errorf("export session %s: %w", s.ID, err)
	}
	observability.Editor().OnExport(ctx, g.NodeCount(), g.LinkCount(), len(data))
	return data, nil
}

// Close commits pending edits and stops the coalescing timer. A closed
// session rejects further property edits.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.applyLocked(context.Background(), s.edits.stop())
	s.closed = true
}

// EventKind names an event for logs and metrics.
func EventKind(ev canvas.Event) string {
	switch e := ev.(type) {
	case canvas.PointerDown:
		return "pointer_down"
	case canvas.PointerMove:
		return "pointer_move"
	case canvas.PointerUp:
		return "pointer_up"
	case canvas.NodeClick:
		return "node_click"
	case canvas.NodeDrag:
		return "node_drag"
	case canvas.LinkClick:
		return "link_click"
	case canvas.KeyDown:
		return "key_down"
	case canvas.SetTool:
		return "set_tool:" + e.Tool.String()
	}
	return "unknown"
}
