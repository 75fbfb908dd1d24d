package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	e := NoopEditorHooks{}
	e.OnSessionOpen(ctx, "s1")
	e.OnSessionClose(ctx, "s1", "expired")
	e.OnEvent(ctx, "pointer_down", true, time.Millisecond)
	e.OnCommit(ctx, "node:node-1", nil)
	e.OnImport(ctx, 3, 2, 1, errors.New("boom"))
	e.OnExport(ctx, 3, 2, 512)
	e.OnRender(ctx, "svg", time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "render")
	c.OnCacheMiss(ctx, "render")
	c.OnCacheSet(ctx, "render", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "/sessions/{id}")
	h.OnResponse(ctx, "GET", "/sessions/{id}", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Editor().(NoopEditorHooks); !ok {
		t.Error("Editor() should return NoopEditorHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customEditor := &testEditorHooks{}
	SetEditorHooks(customEditor)
	if Editor() != customEditor {
		t.Error("SetEditorHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Editor().(NoopEditorHooks); !ok {
		t.Error("Reset() should restore NoopEditorHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testEditorHooks{}
	SetEditorHooks(custom)
	SetEditorHooks(nil)

	if Editor() != custom {
		t.Error("SetEditorHooks(nil) should be ignored")
	}

	Reset()
}

type testEditorHooks struct{ NoopEditorHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }

func TestLogHooks(t *testing.T) {
	t.Cleanup(Reset)
	var buf bytes.Buffer
	SetAll(NewLogHooks(log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})))

	ctx := context.Background()
	Editor().OnSessionClose(ctx, "s1", "expired")
	Editor().OnCommit(ctx, "node:node-1", errors.New("bad path"))
	Cache().OnCacheHit(ctx, "svg")
	HTTP().OnResponse(ctx, "GET", "/sessions/{id}", 404, time.Millisecond)

	out := buf.String()
	for _, want := range []string{
		"session closed", "reason=expired",
		"commit failed", "bad path",
		"cache hit", "type=svg",
		"status=404",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestLogHooksQuietAtInfo(t *testing.T) {
	var buf bytes.Buffer
	h := NewLogHooks(log.NewWithOptions(&buf, log.Options{Level: log.InfoLevel}))
	h.OnEvent(context.Background(), "key_down", true, time.Millisecond)
	if buf.Len() != 0 {
		t.Errorf("debug hook output at info level: %q", buf.String())
	}
}
