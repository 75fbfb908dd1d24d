package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/linkboard/pkg/cache"
	"github.com/matzehuels/linkboard/pkg/errors"
	"github.com/matzehuels/linkboard/pkg/observability"
	"github.com/matzehuels/linkboard/pkg/session"
)

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	reg := session.NewRegistry(session.Config{CoalesceWindow: -1})
	t.Cleanup(func() { reg.Close(context.Background()) })
	ts := httptest.NewServer(New(reg, opts...).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: status %d, want %d: %s", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, want, body)
	}
}

func createSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp := do(t, http.MethodPost, ts.URL+"/sessions", nil)
	expectStatus(t, resp, http.StatusCreated)
	return decodeBody[sessionResponse](t, resp).ID
}

// addNodes creates n nodes in a row with the node tool and leaves the
// select tool active.
func addNodes(t *testing.T, ts *httptest.Server, id string, n int) {
	t.Helper()
	events := []eventRequest{{Type: "set_tool", Tool: "node"}}
	for i := range n {
		x := float64(100 + 150*i)
		events = append(events,
			eventRequest{Type: "pointer_down", X: x, Y: 100},
			eventRequest{Type: "pointer_up", X: x, Y: 100},
		)
	}
	events = append(events, eventRequest{Type: "set_tool", Tool: "select"})
	resp := do(t, http.MethodPost, ts.URL+"/sessions/"+id+"/events", eventsRequest{Events: events})
	expectStatus(t, resp, http.StatusOK)
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)

	resp := do(t, http.MethodGet, ts.URL+"/sessions/"+id, nil)
	expectStatus(t, resp, http.StatusOK)
	got := decodeBody[sessionResponse](t, resp)
	if got.ID != id || got.Tool != "none" || got.Nodes != 0 {
		t.Errorf("session = %+v", got)
	}
	if got.Viewport.Width != 800 || got.Viewport.Height != 600 {
		t.Errorf("viewport = %+v, want 800x600", got.Viewport)
	}

	expectStatus(t, do(t, http.MethodDelete, ts.URL+"/sessions/"+id, nil), http.StatusNoContent)

	resp = do(t, http.MethodGet, ts.URL+"/sessions/"+id, nil)
	expectStatus(t, resp, http.StatusNotFound)
	if e := decodeBody[errorResponse](t, resp); e.Code != errors.ErrCodeSessionNotFound {
		t.Errorf("code = %s, want %s", e.Code, errors.ErrCodeSessionNotFound)
	}
}

func TestEvents(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)

	resp := do(t, http.MethodPost, ts.URL+"/sessions/"+id+"/events", eventsRequest{Events: []eventRequest{
		{Type: "set_tool", Tool: "node"},
		{Type: "pointer_down", X: 100, Y: 100},
		{Type: "pointer_up", X: 100, Y: 100},
		{Type: "pointer_down", X: 300, Y: 100},
		{Type: "set_tool", Tool: "link"},
		{Type: "node_click", NodeID: "node-1"},
		{Type: "node_click", NodeID: "node-2"},
		{Type: "node_click", NodeID: "node-1"},
		{Type: "node_click", NodeID: "node-2"},
	}})
	expectStatus(t, resp, http.StatusOK)
	got := decodeBody[eventsResponse](t, resp)

	if got.Results[1].Created != "node-1" || got.Results[3].Created != "node-2" {
		t.Errorf("created = %q, %q", got.Results[1].Created, got.Results[3].Created)
	}
	if !got.Results[6].GraphChanged {
		t.Error("second link click did not create a link")
	}
	if got.Results[8].Rejected == "" {
		t.Error("duplicate link was not rejected")
	}
	if got.Session.Nodes != 2 || got.Session.Links != 1 || got.Session.Tool != "link" {
		t.Errorf("session = %+v", got.Session)
	}
}

func TestEventsInvalid(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)

	tests := []struct {
		name string
		body any
	}{
		{"not json", "{"},
		{"empty batch", eventsRequest{}},
		{"unknown type", eventsRequest{Events: []eventRequest{{Type: "wiggle"}}}},
		{"missing node", eventsRequest{Events: []eventRequest{{Type: "node_click"}}}},
		{"unknown tool", eventsRequest{Events: []eventRequest{{Type: "set_tool", Tool: "lasso"}}}},
		{"bad button", eventsRequest{Events: []eventRequest{{Type: "pointer_down", Button: "fourth"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, ts.URL+"/sessions/"+id+"/events", tt.body)
			expectStatus(t, resp, http.StatusBadRequest)
			if e := decodeBody[errorResponse](t, resp); e.Code != errors.ErrCodeInvalidInput {
				t.Errorf("code = %s", e.Code)
			}
		})
	}
}

func TestEventsRejectWholeBatch(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)

	resp := do(t, http.MethodPost, ts.URL+"/sessions/"+id+"/events", eventsRequest{Events: []eventRequest{
		{Type: "set_tool", Tool: "node"},
		{Type: "key_down"},
	}})
	expectStatus(t, resp, http.StatusBadRequest)

	resp = do(t, http.MethodGet, ts.URL+"/sessions/"+id, nil)
	if got := decodeBody[sessionResponse](t, resp); got.Tool != "none" {
		t.Errorf("tool = %s, a rejected batch must not apply", got.Tool)
	}
}

func TestTool(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)

	for _, want := range []string{"link", "none", "node"} {
		tool := want
		if want == "none" {
			tool = "link"
		}
		resp := do(t, http.MethodPost, ts.URL+"/sessions/"+id+"/tool", toolRequest{Tool: tool})
		expectStatus(t, resp, http.StatusOK)
		if got := decodeBody[sessionResponse](t, resp).Tool; got != want {
			t.Errorf("tool = %s, want %s", got, want)
		}
	}
	expectStatus(t, do(t, http.MethodPost, ts.URL+"/sessions/"+id+"/tool", toolRequest{}), http.StatusBadRequest)
}

func TestProperties(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)
	addNodes(t, ts, id, 2)
	url := ts.URL + "/sessions/" + id + "/properties"

	steps := []struct {
		req  propertyRequest
		want string
	}{
		{propertyRequest{Node: "node-1", Path: "label", Value: json.RawMessage(`"api"`)}, `"label":"api"`},
		{propertyRequest{Node: "node-1", Op: "append", Path: "items"}, `"items":[{`},
		{propertyRequest{Node: "node-1", Path: "items[0]", Value: json.RawMessage(`{"field1": "x"}`)}, `"field1":"x"`},
		{propertyRequest{Node: "node-1", Op: "remove", Path: "items[0]"}, `"items":[]`},
		{propertyRequest{Node: "node-1", Path: "weight", Value: json.RawMessage(`2.5`)}, `"weight":2.5`},
	}
	for i, st := range steps {
		resp := do(t, http.MethodPut, url, st.req)
		expectStatus(t, resp, http.StatusOK)
		got := decodeBody[propertyResponse](t, resp)
		data, _ := json.Marshal(got.Value)
		if !strings.Contains(string(data), st.want) {
			t.Errorf("step %d: value %s missing %s", i, data, st.want)
		}
	}

	resp := do(t, http.MethodGet, url+"?node=node-1", nil)
	expectStatus(t, resp, http.StatusOK)
	got := decodeBody[propertyResponse](t, resp)
	if got.Entity != "node:node-1" {
		t.Errorf("entity = %s", got.Entity)
	}
	if m, _ := got.Value.(map[string]any); m["label"] != "api" {
		t.Errorf("value = %v", got.Value)
	}
}

func TestPropertiesErrors(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)
	addNodes(t, ts, id, 1)
	url := ts.URL + "/sessions/" + id + "/properties"

	tests := []struct {
		name   string
		req    propertyRequest
		status int
		code   errors.Code
	}{
		{"no entity", propertyRequest{Path: "label", Value: json.RawMessage(`"x"`)}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown node", propertyRequest{Node: "ghost", Path: "label", Value: json.RawMessage(`"x"`)}, http.StatusNotFound, errors.ErrCodeNotFound},
		{"wrong type", propertyRequest{Node: "node-1", Path: "weight", Value: json.RawMessage(`"heavy"`)}, http.StatusBadRequest, ""},
		{"unknown field", propertyRequest{Node: "node-1", Path: "colour", Value: json.RawMessage(`"red"`)}, http.StatusBadRequest, errors.ErrCodeInvalidPath},
		{"missing value", propertyRequest{Node: "node-1", Path: "label"}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad path", propertyRequest{Node: "node-1", Path: "items[x"}, http.StatusBadRequest, errors.ErrCodeInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPut, url, tt.req)
			expectStatus(t, resp, tt.status)
			if e := decodeBody[errorResponse](t, resp); tt.code != "" && e.Code != tt.code {
				t.Errorf("code = %s, want %s", e.Code, tt.code)
			}
		})
	}
}

func TestLinkProperties(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)
	addNodes(t, ts, id, 2)
	do(t, http.MethodPost, ts.URL+"/sessions/"+id+"/events", eventsRequest{Events: []eventRequest{
		{Type: "set_tool", Tool: "link"},
		{Type: "node_click", NodeID: "node-1"},
		{Type: "node_click", NodeID: "node-2"},
	}})

	resp := do(t, http.MethodPut, ts.URL+"/sessions/"+id+"/properties",
		propertyRequest{Source: "node-1", Target: "node-2", Path: "priority", Value: json.RawMessage(`3`)})
	expectStatus(t, resp, http.StatusOK)
	if got := decodeBody[propertyResponse](t, resp); got.Value.(map[string]any)["priority"] != 3.0 {
		t.Errorf("value = %v", got.Value)
	}
}

func TestDocument(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)
	url := ts.URL + "/sessions/" + id + "/document"

	doc := `{"nodes": [{"id": "a", "x": 10, "y": 20, "childrenIds": ["b", "ghost"], "label": "A"}, {"id": "b", "x": 200, "y": 20}], "notes": 1}`
	resp := do(t, http.MethodPut, url, doc)
	expectStatus(t, resp, http.StatusOK)
	imp := decodeBody[importResponse](t, resp)
	if imp.Nodes != 2 || imp.Links != 1 {
		t.Errorf("import = %+v", imp)
	}
	if len(imp.Diagnostics) != 1 || imp.Diagnostics[0].Code != errors.ErrCodeDanglingReference {
		t.Errorf("diagnostics = %+v", imp.Diagnostics)
	}
	if len(imp.IgnoredKeys) != 1 || imp.IgnoredKeys[0] != "notes" {
		t.Errorf("ignored keys = %v", imp.IgnoredKeys)
	}

	resp = do(t, http.MethodGet, url, nil)
	expectStatus(t, resp, http.StatusOK)
	exported := decodeBody[map[string][]map[string]any](t, resp)
	nodes := exported["nodes"]
	if len(nodes) != 2 || nodes[0]["label"] != "A" {
		t.Errorf("exported nodes = %v", nodes)
	}

	resp = do(t, http.MethodPut, url, `{"nodes": [`)
	expectStatus(t, resp, http.StatusBadRequest)
	resp = do(t, http.MethodGet, ts.URL+"/sessions/"+id, nil)
	if got := decodeBody[sessionResponse](t, resp); got.Nodes != 2 {
		t.Errorf("failed import changed the graph: %d nodes", got.Nodes)
	}
}

func TestCanvasSVG(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts)
	addNodes(t, ts, id, 2)

	resp := do(t, http.MethodGet, ts.URL+"/sessions/"+id+"/canvas.svg", nil)
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %s", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "<svg") || !strings.Contains(string(body), "node-2") {
		t.Errorf("unexpected SVG: %.300s", body)
	}
}

func TestDiagramCached(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ts := newTestServer(t, WithCache(fc))
	id := createSession(t, ts)
	addNodes(t, ts, id, 2)
	url := ts.URL + "/sessions/" + id + "/diagram.dot"

	for _, want := range []string{"miss", "hit"} {
		resp := do(t, http.MethodGet, url, nil)
		expectStatus(t, resp, http.StatusOK)
		if got := resp.Header.Get("X-Cache"); got != want {
			t.Errorf("X-Cache = %s, want %s", got, want)
		}
		body, _ := io.ReadAll(resp.Body)
		if !strings.Contains(string(body), `"node-1"`) {
			t.Errorf("DOT missing node: %s", body)
		}
	}

	resp := do(t, http.MethodGet, url+"?refresh=true", nil)
	if got := resp.Header.Get("X-Cache"); got != "miss" {
		t.Errorf("refresh: X-Cache = %s, want miss", got)
	}

	expectStatus(t, do(t, http.MethodGet, ts.URL+"/sessions/"+id+"/diagram.gif", nil), http.StatusBadRequest)
}

func TestVersion(t *testing.T) {
	ts := newTestServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/version", nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decodeBody[map[string]string](t, resp); got["version"] == "" {
		t.Errorf("version = %v", got)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeInvalidValue, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeDuplicateLink, "x"), http.StatusConflict},
		{errors.New(errors.ErrCodeSessionNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeUnsupported, "x"), http.StatusNotImplemented},
		{fmt.Errorf("wrapped: %w", errors.New(errors.ErrCodeNotFound, "x")), http.StatusNotFound},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

type recordingHooks struct {
	observability.NoopHTTPHooks
	mu     sync.Mutex
	routes []string
}

func (h *recordingHooks) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, fmt.Sprintf("%s %s %d", method, route, status))
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	ts := newTestServer(t)
	id := createSession(t, ts)
	do(t, http.MethodGet, ts.URL+"/sessions/"+id, nil)

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if len(hooks.routes) != 2 {
		t.Fatalf("routes = %v, want 2 entries", hooks.routes)
	}
	if got := hooks.routes[0]; !strings.HasPrefix(got, "POST /sessions") || !strings.HasSuffix(got, " 201") {
		t.Errorf("create recorded as %q", got)
	}
	if got := hooks.routes[1]; !strings.Contains(got, "/sessions/{id}") || strings.Contains(got, id) {
		t.Errorf("get recorded as %q, want the route pattern", got)
	}
}
