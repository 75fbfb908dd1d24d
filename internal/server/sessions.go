package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/linkboard/pkg/buildinfo"
	"github.com/matzehuels/linkboard/pkg/cache"
	"github.com/matzehuels/linkboard/pkg/canvas"
	"github.com/matzehuels/linkboard/pkg/errors"
	"github.com/matzehuels/linkboard/pkg/pipeline"
	"github.com/matzehuels/linkboard/pkg/render/board"
	"github.com/matzehuels/linkboard/pkg/schema"
	"github.com/matzehuels/linkboard/pkg/selection"
	"github.com/matzehuels/linkboard/pkg/session"
)

type viewportResponse struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type sessionResponse struct {
	ID            string           `json:"id"`
	CreatedAt     time.Time        `json:"created_at"`
	ExpiresAt     time.Time        `json:"expires_at"`
	Tool          string           `json:"tool"`
	LinkSource    string           `json:"link_source,omitempty"`
	Selection     []string         `json:"selection"`
	DrawerVisible bool             `json:"drawer_visible"`
	Nodes         int              `json:"nodes"`
	Links         int              `json:"links"`
	Pending       int              `json:"pending"`
	Version       uint64           `json:"version"`
	Viewport      viewportResponse `json:"viewport"`
}

func newSessionResponse(s *session.Session) sessionResponse {
	v := s.View()
	sel := make([]string, 0, v.Selection.Len())
	for _, ref := range v.Selection.Refs() {
		sel = append(sel, ref.String())
	}
	vp := v.State.Viewport
	return sessionResponse{
		ID:            s.ID,
		CreatedAt:     s.CreatedAt,
		ExpiresAt:     s.ExpiresAt(),
		Tool:          v.State.Tool.String(),
		LinkSource:    v.State.LinkSource,
		Selection:     sel,
		DrawerVisible: v.DrawerVisible,
		Nodes:         v.Graph.NodeCount(),
		Links:         v.Graph.LinkCount(),
		Pending:       v.Pending,
		Version:       v.Version,
		Viewport:      viewportResponse{X: vp.X, Y: vp.Y, Width: vp.Width, Height: vp.Height},
	}
}

// session resolves the {id} URL parameter, writing an error response when
// it names no session.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess := s.registry.Create(r.Context())
	w.Header().Set("Location", "/sessions/"+sess.ID)
	respondJSON(w, http.StatusCreated, newSessionResponse(sess))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, newSessionResponse(sess))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Interaction
// =============================================================================

type eventsResponse struct {
	Results []eventResult   `json:"results"`
	Session sessionResponse `json:"session"`
}

// handleEvents dispatches a batch of events in order. The batch is
// converted up front, so a malformed event rejects the whole batch.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req eventsRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	events := make([]canvas.Event, len(req.Events))
	for i, e := range req.Events {
		ev, err := e.Event()
		if err != nil {
			s.respondError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "event %d", i))
			return
		}
		events[i] = ev
	}

	resp := eventsResponse{Results: make([]eventResult, len(events))}
	for i, ev := range events {
		resp.Results[i] = newEventResult(sess.Dispatch(r.Context(), ev))
	}
	resp.Session = newSessionResponse(sess)
	respondJSON(w, http.StatusOK, resp)
}

type toolRequest struct {
	Tool string `json:"tool" validate:"required"`
}

func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req toolRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	t, err := canvas.ParseTool(req.Tool)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	sess.SetTool(r.Context(), t)
	respondJSON(w, http.StatusOK, newSessionResponse(sess))
}

// =============================================================================
// Properties
// =============================================================================

// propertyRequest edits the attribute tree of one entity: a node, or the
// link from Source to Target.
type propertyRequest struct {
	Node   string          `json:"node,omitempty" validate:"required_without=Source,excluded_with=Source"`
	Source string          `json:"source,omitempty" validate:"required_with=Target"`
	Target string          `json:"target,omitempty" validate:"required_with=Source"`
	Op     string          `json:"op,omitempty" validate:"omitempty,oneof=set append remove move"`
	Path   string          `json:"path"`
	Value  json.RawMessage `json:"value,omitempty"`
	From   int             `json:"from,omitempty"`
	To     int             `json:"to,omitempty"`
}

func (p propertyRequest) ref() selection.Ref {
	if p.Node != "" {
		return selection.Node(p.Node)
	}
	return selection.Link(p.Source, p.Target)
}

type propertyResponse struct {
	Entity  string `json:"entity"`
	Value   any    `json:"value"`
	Pending bool   `json:"pending"`
}

func (s *Server) propertyResponse(sess *session.Session, ref selection.Ref, v schema.Value) propertyResponse {
	return propertyResponse{
		Entity:  ref.String(),
		Value:   schema.Flatten(v),
		Pending: sess.View().Pending > 0,
	}
}

// handleGetProperties returns the attribute tree of ?node=ID or
// ?source=A&target=B, including any pending edit.
func (s *Server) handleGetProperties(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	req := propertyRequest{Node: q.Get("node"), Source: q.Get("source"), Target: q.Get("target")}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "name a node or a link"))
		return
	}
	ref := req.ref()
	_, v, err := sess.Value(ref)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s.propertyResponse(sess, ref, v))
}

func (s *Server) handlePutProperties(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req propertyRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	path, err := schema.ParsePath(req.Path)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ref := req.ref()
	var v schema.Value
	switch req.Op {
	case "append":
		v, err = sess.AppendItem(r.Context(), ref, path)
	case "remove":
		v, err = sess.RemoveItem(r.Context(), ref, path)
	case "move":
		v, err = sess.MoveItem(r.Context(), ref, path, req.From, req.To)
	default:
		v, err = setProperty(r, sess, ref, path, req.Value)
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s.propertyResponse(sess, ref, v))
}

// setProperty decodes raw against the schema at path and stores it there.
func setProperty(r *http.Request, sess *session.Session, ref selection.Ref, path schema.Path, raw json.RawMessage) (schema.Value, error) {
	if len(raw) == 0 {
		return schema.Value{}, errors.New(errors.ErrCodeInvalidInput, "value is required")
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return schema.Value{}, errors.Wrap(errors.ErrCodeInvalidValue, err, "value must be JSON")
	}
	var out schema.Value
	err := sess.Update(r.Context(), ref, func(sch *schema.Schema, cur schema.Value) (schema.Value, error) {
		if sch == nil {
			return cur, errors.New(errors.ErrCodeInvalidPath, "%s has no attributes", ref)
		}
		_, target, err := schema.Lookup(sch, cur, path)
		if err != nil {
			return cur, err
		}
		leaf, _, err := schema.Unflatten(target, data, schema.Strict)
		if err != nil {
			return cur, err
		}
		out, err = schema.SetPath(sch, cur, path, leaf)
		return out, err
	})
	return out, err
}

// =============================================================================
// Documents
// =============================================================================

type diagnosticResponse struct {
	Code    errors.Code `json:"code"`
	NodeID  string      `json:"node_id,omitempty"`
	Path    string      `json:"path,omitempty"`
	Message string      `json:"message"`
}

type importResponse struct {
	Nodes       int                  `json:"nodes"`
	Links       int                  `json:"links"`
	Diagnostics []diagnosticResponse `json:"diagnostics"`
	IgnoredKeys []string             `json:"ignored_keys,omitempty"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	data, err := sess.Export(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="diagram.json"`)
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "read document"))
		return
	}
	report, err := sess.Import(r.Context(), data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	g := sess.Graph()
	resp := importResponse{
		Nodes:       g.NodeCount(),
		Links:       g.LinkCount(),
		Diagnostics: make([]diagnosticResponse, 0, len(report.Diagnostics)),
		IgnoredKeys: report.IgnoredKeys,
	}
	for _, d := range report.Diagnostics {
		resp.Diagnostics = append(resp.Diagnostics, diagnosticResponse{Code: d.Code, NodeID: d.NodeID, Path: d.Path, Message: d.Message})
	}
	respondJSON(w, http.StatusOK, resp)
}

// =============================================================================
// Rendering
// =============================================================================

// handleCanvas renders the editor view: selection highlight, pending link
// source and rubber band included, clipped to the viewport.
func (s *Server) handleCanvas(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	v := sess.View()
	svg := board.RenderSVG(v.Graph, board.WithState(v.State), board.WithSelection(v.Selection))
	w.Header().Set("Content-Type", pipeline.ContentType(pipeline.FormatSVG))
	_, _ = w.Write(svg)
}

// handleDiagram renders the committed graph through the render pipeline.
// Query parameters: engine (default graphviz), detailed, label_field,
// refresh.
func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	format := chi.URLParam(r, "format")
	q := r.URL.Query()
	opts := pipeline.Options{
		Formats:    []string{format},
		Engine:     pipeline.EngineGraphviz,
		Detailed:   q.Get("detailed") == "true",
		LabelField: q.Get("label_field"),
		Refresh:    q.Get("refresh") == "true",
	}
	if e := q.Get("engine"); e != "" {
		opts.Engine = e
	}

	runner := pipeline.NewRunner(s.cache, cache.NewScopedKeyer(nil, "session:"+sess.ID+":"), s.logger)
	result, err := runner.Render(r.Context(), sess.Graph(), opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", pipeline.ContentType(format))
	if result.Cached[format] {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	_, _ = w.Write(result.Artifacts[format])
}
