package cli

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// complete runs cobra's hidden completion command and returns the offered
// candidates without the trailing directive line.
func complete(t *testing.T, args ...string) []string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(home, "cache"))

	var out bytes.Buffer
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs(append([]string{"__complete"}, args...))
	root.SetOut(&out)
	root.SetErr(io.Discard)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		name, _, _ := strings.Cut(line, "\t")
		got = append(got, name)
	}
	return got
}

func TestCompletionScript(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))

	var out bytes.Buffer
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs([]string{"completion", "bash"})
	root.SetOut(&out)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "__start_linkboard") {
		t.Errorf("bash script missing linkboard entry point:\n%.200s", out.String())
	}
}

func TestCompleteFormats(t *testing.T) {
	tests := []struct {
		name    string
		partial string
		want    []string
	}{
		{"all", "", []string{"dot", "pdf", "png", "svg"}},
		{"prefix", "p", []string{"pdf", "png"}},
		{"after comma", "svg,p", []string{"svg,pdf", "svg,png"}},
		{"skips chosen", "svg,", []string{"svg,dot", "svg,pdf", "svg,png"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := complete(t, "render", "board.json", "--format", tt.partial)
			if !slices.Equal(got, tt.want) {
				t.Errorf("--format %q = %v, want %v", tt.partial, got, tt.want)
			}
		})
	}
}

func TestCompleteEngines(t *testing.T) {
	got := complete(t, "render", "board.json", "--engine", "")
	if want := []string{"graphviz", "native"}; !slices.Equal(got, want) {
		t.Errorf("--engine = %v, want %v", got, want)
	}
}

func TestCompleteSetEntities(t *testing.T) {
	path := writeSample(t)
	got := complete(t, "set", path, "")
	for _, want := range []string{"node-1", "node-2", "node-1->node-2"} {
		if !slices.Contains(got, want) {
			t.Errorf("entities = %v, missing %q", got, want)
		}
	}
}

func TestCompleteSetPaths(t *testing.T) {
	path := writeSample(t)

	got := complete(t, "set", path, "node-1", "")
	for _, want := range []string{"label=", "weight=", "items="} {
		if !slices.Contains(got, want) {
			t.Errorf("paths = %v, missing %q", got, want)
		}
	}

	got = complete(t, "set", path, "node-1", "--append", "")
	if !slices.Equal(got, []string{"items"}) {
		t.Errorf("--append paths = %v, want [items]", got)
	}

	if got := complete(t, "set", path, "node-1", "label="); len(got) != 0 {
		t.Errorf("value completion = %v, want none", got)
	}
	if got := complete(t, "set", path, "node-9", ""); len(got) != 0 {
		t.Errorf("unknown node completion = %v, want none", got)
	}
}
