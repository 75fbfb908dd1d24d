package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/linkboard/pkg/errors"
	lbio "github.com/matzehuels/linkboard/pkg/io"
	"github.com/matzehuels/linkboard/pkg/schema"
	"github.com/matzehuels/linkboard/pkg/selection"
)

// execute runs the CLI with args in an isolated config and cache home.
func execute(t *testing.T, args ...string) error {
	t.Helper()
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(home, "cache"))

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

const sampleDoc = `{
  "nodes": [
    {"id": "node-1", "x": 100, "y": 100, "childrenIds": ["node-2"], "label": "start"},
    {"id": "node-2", "x": 300, "y": 100}
  ]
}`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "board.json")
	if err := os.WriteFile(path, []byte(sampleDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := execute(t, "new", path); err != nil {
		t.Fatal(err)
	}
	g, _, err := lbio.ImportFile(path, nil, lbio.Options{})
	if err != nil || g.NodeCount() != 0 {
		t.Fatalf("ImportFile = %v nodes, %v", g, err)
	}

	err = execute(t, "new", path)
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("second new = %v, want INVALID_INPUT", err)
	}
	if err := execute(t, "new", "--force", path); err != nil {
		t.Errorf("new --force = %v", err)
	}
}

func TestSetCommand(t *testing.T) {
	path := writeSample(t)
	err := execute(t, "set", path, "node-1",
		"--append", "items",
		"label=Build pipeline", "weight=3", "enabled=true", "items[0].field1=lint")
	if err != nil {
		t.Fatal(err)
	}
	if err := execute(t, "set", path, "node-1->node-2", "priority=2"); err != nil {
		t.Fatal(err)
	}

	g, _, err := lbio.ImportFile(path, nil, lbio.Options{})
	if err != nil {
		t.Fatal(err)
	}
	n, _ := g.Node("node-1")
	got := schema.Flatten(n.Value).(map[string]any)
	if got["label"] != "Build pipeline" || got["weight"] != 3.0 || got["enabled"] != true {
		t.Errorf("node-1 = %v", got)
	}
	items := got["items"].([]any)
	if len(items) != 1 || items[0].(map[string]any)["field1"] != "lint" {
		t.Errorf("items = %v", items)
	}
	l, _ := g.Link("node-1", "node-2")
	if p, _ := l.Value.Get("priority"); p.Kind() != schema.KindNumber {
		t.Errorf("link priority = %v", schema.Flatten(l.Value))
	}

	if err := execute(t, "set", path, "node-1", "--delete", "items[0]"); err != nil {
		t.Fatal(err)
	}
	g, _, _ = lbio.ImportFile(path, nil, lbio.Options{})
	n, _ = g.Node("node-1")
	if v, _ := n.Value.Get("items"); v.Len() != 0 {
		t.Errorf("items after delete = %d", v.Len())
	}
}

func TestSetCommandErrors(t *testing.T) {
	path := writeSample(t)
	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"nothing to change", []string{"node-1"}, errors.ErrCodeInvalidInput},
		{"unknown node", []string{"ghost", "label=x"}, errors.ErrCodeNotFound},
		{"unknown field", []string{"node-1", "colour=red"}, errors.ErrCodeInvalidPath},
		{"not a number", []string{"node-1", "weight=heavy"}, errors.ErrCodeInvalidValue},
		{"bad assignment", []string{"node-1", "label"}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := execute(t, append([]string{"set", path}, tt.args...)...)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}

	data, _ := os.ReadFile(path)
	if string(data) != sampleDoc {
		t.Error("failed edits modified the document")
	}
}

func TestValidateCommand(t *testing.T) {
	if err := execute(t, "validate", writeSample(t)); err != nil {
		t.Errorf("valid document: %v", err)
	}

	dir := t.TempDir()
	dangling := filepath.Join(dir, "dangling.json")
	os.WriteFile(dangling, []byte(`{"nodes": [{"id": "a", "childrenIds": ["ghost"]}]}`), 0o644)
	if err := execute(t, "validate", dangling); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("dangling reference: %v", err)
	}

	mistyped := filepath.Join(dir, "mistyped.json")
	os.WriteFile(mistyped, []byte(`{"nodes": [{"id": "a", "weight": "heavy"}]}`), 0o644)
	if err := execute(t, "validate", "--strict", mistyped); !errors.Is(err, errors.ErrCodeInvalidValue) {
		t.Errorf("strict mistyped: %v", err)
	}

	broken := filepath.Join(dir, "broken.json")
	os.WriteFile(broken, []byte(`{"nodes": [`), 0o644)
	if err := execute(t, "validate", broken); !errors.Is(err, errors.ErrCodeMalformedDocument) {
		t.Errorf("broken JSON: %v", err)
	}
}

func TestRenderCommand(t *testing.T) {
	path := writeSample(t)
	out := filepath.Join(t.TempDir(), "out", "board")
	if err := execute(t, "render", path, "-f", "svg,dot", "-o", out); err != nil {
		t.Fatal(err)
	}
	svg, err := os.ReadFile(out + ".svg")
	if err != nil || !strings.Contains(string(svg), "<svg") {
		t.Errorf("svg: %v %.100s", err, svg)
	}
	dot, err := os.ReadFile(out + ".dot")
	if err != nil || !strings.Contains(string(dot), `"node-1" -> "node-2"`) {
		t.Errorf("dot: %v %s", err, dot)
	}

	if err := execute(t, "render", path, "-f", "gif"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("gif: %v", err)
	}
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		in      string
		want    selection.Ref
		wantErr bool
	}{
		{"node-1", selection.Node("node-1"), false},
		{"a->b", selection.Link("a", "b"), false},
		{" a -> b ", selection.Link("a", "b"), false},
		{"a->", selection.Ref{}, true},
		{"", selection.Ref{}, true},
	}
	for _, tt := range tests {
		got, err := parseRef(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseRef(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestParseLeaf(t *testing.T) {
	item := schema.Struct(schema.Prop("field1", schema.String()))
	tests := []struct {
		name    string
		schema  *schema.Schema
		raw     string
		want    any
		wantErr errors.Code
	}{
		{"string", schema.String(), "hello world", "hello world", ""},
		{"number", schema.Number(), "2.5", 2.5, ""},
		{"boolean", schema.Boolean(), "false", false, ""},
		{"struct", item, `{"field1": "x"}`, map[string]any{"field1": "x"}, ""},
		{"array", schema.Array(schema.Number()), `[1, 2]`, []any{1.0, 2.0}, ""},
		{"bad number", schema.Number(), "many", nil, errors.ErrCodeInvalidValue},
		{"bad boolean", schema.Boolean(), "yes please", nil, errors.ErrCodeInvalidValue},
		{"bad json", item, `{`, nil, errors.ErrCodeInvalidValue},
		{"unknown member", item, `{"field9": 1}`, nil, errors.ErrCodeInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := parseLeaf(tt.schema, tt.raw)
			if tt.wantErr != "" {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %s", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got := schema.Flatten(v); !equalJSON(got, tt.want) {
				t.Errorf("parseLeaf = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func equalJSON(a, b any) bool {
	switch a := a.(type) {
	case map[string]any:
		bm, ok := b.(map[string]any)
		if !ok || len(a) != len(bm) {
			return false
		}
		for k, v := range a {
			if !equalJSON(v, bm[k]) {
				return false
			}
		}
		return true
	case []any:
		bs, ok := b.([]any)
		if !ok || len(a) != len(bs) {
			return false
		}
		for i := range a {
			if !equalJSON(a[i], bs[i]) {
				return false
			}
		}
		return true
	}
	return a == b
}

func TestParseAssignment(t *testing.T) {
	path, raw, err := parseAssignment("items[0].field1=a=b")
	if err != nil {
		t.Fatal(err)
	}
	if path.String() != "items[0].field1" || raw != "a=b" {
		t.Errorf("parseAssignment = %s, %q", path, raw)
	}
	for _, bad := range []string{"label", "=x", "items[=x"} {
		if _, _, err := parseAssignment(bad); err == nil {
			t.Errorf("parseAssignment(%q) succeeded", bad)
		}
	}
}
