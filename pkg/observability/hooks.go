// Package observability lets hosts watch editing sessions without tying the
// libraries to a metrics or tracing backend.
//
// Three hook sets exist: [EditorHooks] (session lifecycle, canvas events,
// property commits, document import/export, renders), [CacheHooks] (render
// artifact cache) and [HTTPHooks] (the serve command's router). Each starts
// as a no-op. A host installs its own once at startup:
//
//	observability.SetEditorHooks(observability.NewLogHooks(logger))
//
// and the libraries report through the accessors:
//
//	observability.Editor().OnEvent(ctx, "pointer_down", res.GraphChanged, elapsed)
package observability

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// EditorHooks receives events from editing sessions.
type EditorHooks interface {
	OnSessionOpen(ctx context.Context, sessionID string)
	// OnSessionClose reports why a session ended: "deleted", "expired"
	// or "shutdown".
	OnSessionClose(ctx context.Context, sessionID string, reason string)

	// OnEvent records one interaction event fed through the state machine.
	OnEvent(ctx context.Context, kind string, graphChanged bool, duration time.Duration)
	// OnCommit records a coalesced property commit for one entity ref.
	OnCommit(ctx context.Context, ref string, err error)

	OnImport(ctx context.Context, nodes, links, diagnostics int, err error)
	OnExport(ctx context.Context, nodes, links, size int)

	// OnRender records one output format produced by the render pipeline.
	OnRender(ctx context.Context, format string, duration time.Duration, err error)
}

// CacheHooks receives events from the render cache. keyType is the
// artifact kind, e.g. "svg" or "dot".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from the HTTP host. route is the matched
// route pattern, not the raw path.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, route string)
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// NoopEditorHooks ignores every editor event.
type NoopEditorHooks struct{}

func (NoopEditorHooks) OnSessionOpen(context.Context, string)                  {}
func (NoopEditorHooks) OnSessionClose(context.Context, string, string)         {}
func (NoopEditorHooks) OnEvent(context.Context, string, bool, time.Duration)   {}
func (NoopEditorHooks) OnCommit(context.Context, string, error)                {}
func (NoopEditorHooks) OnImport(context.Context, int, int, int, error)         {}
func (NoopEditorHooks) OnExport(context.Context, int, int, int)                {}
func (NoopEditorHooks) OnRender(context.Context, string, time.Duration, error) {}

// NoopCacheHooks ignores every cache event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks ignores every HTTP event.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// LogHooks writes every event to a logger at debug level. It implements
// all three hook sets.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log through l, prefixed "hooks".
func NewLogHooks(l *log.Logger) *LogHooks {
	return &LogHooks{logger: l.WithPrefix("hooks")}
}

func (h *LogHooks) OnSessionOpen(_ context.Context, id string) {
	h.logger.Debug("session opened", "session", id)
}

func (h *LogHooks) OnSessionClose(_ context.Context, id, reason string) {
	h.logger.Debug("session closed", "session", id, "reason", reason)
}

func (h *LogHooks) OnEvent(_ context.Context, kind string, changed bool, d time.Duration) {
	h.logger.Debug("event", "kind", kind, "changed", changed, "took", d)
}

func (h *LogHooks) OnCommit(_ context.Context, ref string, err error) {
	if err != nil {
		h.logger.Debug("commit failed", "ref", ref, "err", err)
		return
	}
	h.logger.Debug("commit", "ref", ref)
}

func (h *LogHooks) OnImport(_ context.Context, nodes, links, diagnostics int, err error) {
	if err != nil {
		h.logger.Debug("import failed", "err", err)
		return
	}
	h.logger.Debug("import", "nodes", nodes, "links", links, "diagnostics", diagnostics)
}

func (h *LogHooks) OnExport(_ context.Context, nodes, links, size int) {
	h.logger.Debug("export", "nodes", nodes, "links", links, "bytes", size)
}

func (h *LogHooks) OnRender(_ context.Context, format string, d time.Duration, err error) {
	h.logger.Debug("render", "format", format, "took", d, "err", err)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, route string) {
	h.logger.Debug("request", "method", method, "route", route)
}

func (h *LogHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "route", route, "status", status, "took", d)
}

var (
	hooksMu     sync.RWMutex
	editorHooks EditorHooks = NoopEditorHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	httpHooks   HTTPHooks   = NoopHTTPHooks{}
)

// SetEditorHooks installs editor hooks. A nil argument is ignored.
func SetEditorHooks(h EditorHooks) { set(&editorHooks, h) }

// SetCacheHooks installs cache hooks. A nil argument is ignored.
func SetCacheHooks(h CacheHooks) { set(&cacheHooks, h) }

// SetHTTPHooks installs HTTP hooks. A nil argument is ignored.
func SetHTTPHooks(h HTTPHooks) { set(&httpHooks, h) }

// SetAll installs h as editor, cache and HTTP hooks at once.
func SetAll(h *LogHooks) {
	SetEditorHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func set[T comparable](dst *T, h T) {
	var zero T
	if h == zero {
		return
	}
	hooksMu.Lock()
	*dst = h
	hooksMu.Unlock()
}

func get[T any](src *T) T {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return *src
}

// Editor returns the installed editor hooks.
func Editor() EditorHooks { return get(&editorHooks) }

// Cache returns the installed cache hooks.
func Cache() CacheHooks { return get(&cacheHooks) }

// HTTP returns the installed HTTP hooks.
func HTTP() HTTPHooks { return get(&httpHooks) }

// Reset restores the no-op hooks. Tests call it in t.Cleanup.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	editorHooks = NoopEditorHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
