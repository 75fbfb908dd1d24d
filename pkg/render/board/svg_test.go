package board

import (
	"encoding/xml"
	"io"
	"strings"
	"testing"

	"github.com/matzehuels/linkboard/pkg/canvas"
	"github.com/matzehuels/linkboard/pkg/graph"
	"github.com/matzehuels/linkboard/pkg/schema"
	"github.com/matzehuels/linkboard/pkg/selection"
)

func testGraph(t *testing.T) *graph.Graph {
	t.Helper()
	cat := graph.DefaultCatalog()
	g := graph.New()
	nt := cat.Default()
	for _, n := range []graph.Node{nt.New("node-1", 100, 100), nt.New("node-2", 200, 100)} {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.SetNodeValue("node-1", schema.Object(map[string]schema.Value{"label": schema.Str("A & B")})); err != nil {
		t.Fatal(err)
	}
	if err := g.AddLink(cat.NewLink("node-1", "node-2")); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestRenderSVGWellFormed(t *testing.T) {
	g := testGraph(t)
	svg := RenderSVG(g,
		WithSelection(selection.Nodes("node-2")),
		WithState(canvas.State{
			Viewport:   canvas.DefaultViewport(),
			LinkSource: "node-1",
			Box:        &canvas.SelectionBox{Origin: canvas.Point{X: 50, Y: 50}, Current: canvas.Point{X: 10, Y: 10}},
		}),
	)

	dec := xml.NewDecoder(strings.NewReader(string(svg)))
	for {
		_, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			t.Fatalf("invalid XML: %v\n%s", err, svg)
		}
	}

	out := string(svg)
	for _, want := range []string{
		`viewBox="0.0 0.0 800.0 600.0"`,
		`id="link-node-1-node-2"`,
		// Trimmed by both radii.
		`x1="120.00" y1="100.00" x2="180.00" y2="100.00"`,
		`A &amp; B`,
		`>node-2</text>`,
		`class="selection-box" x="10.00" y="10.00" width="40.00" height="40.00"`,
		`stroke-dasharray="4 3"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if !strings.Contains(out, `id="node-node-2" class="node" data-type="Node" cx="200.00" cy="100.00" r="20.00" fill="white" stroke="#2563eb"`) {
		t.Error("selected node not highlighted")
	}
}

func TestRenderSVGOrder(t *testing.T) {
	out := string(RenderSVG(testGraph(t)))
	link := strings.Index(out, "<line")
	node := strings.Index(out, "<circle")
	text := strings.Index(out, "<text")
	if link < 0 || node < link || text < node {
		t.Errorf("draw order wrong: line@%d circle@%d text@%d", link, node, text)
	}
}

func TestRenderSVGSelectedLink(t *testing.T) {
	out := string(RenderSVG(testGraph(t), WithSelection(selection.Of(selection.Link("node-1", "node-2")))))
	if !strings.Contains(out, `marker-end="url(#arrow-selected)"`) {
		t.Error("selected link not highlighted")
	}
}

func TestBounds(t *testing.T) {
	tests := []struct {
		name string
		g    func(t *testing.T) *graph.Graph
		want canvas.Viewport
	}{
		{"empty", func(*testing.T) *graph.Graph { return graph.New() }, canvas.DefaultViewport()},
		{"two nodes", testGraph, canvas.Viewport{X: 60, Y: 60, Width: 180, Height: 80}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Bounds(tt.g(t), 20); got != tt.want {
				t.Errorf("Bounds = %+v, want %+v", got, tt.want)
			}
		})
	}
	out := string(RenderSVG(testGraph(t), WithFit()))
	if !strings.Contains(out, `viewBox="60.0 60.0 180.0 80.0"`) {
		t.Error("WithFit did not frame the graph")
	}
}

func TestLabel(t *testing.T) {
	g := testGraph(t)
	n1, _ := g.Node("node-1")
	n2, _ := g.Node("node-2")
	if got := Label(n1, "label"); got != "A & B" {
		t.Errorf("Label(node-1) = %q", got)
	}
	if got := Label(n2, "label"); got != "node-2" {
		t.Errorf("Label(node-2) = %q, want ID fallback", got)
	}
	if got := Label(n1, ""); got != "node-1" {
		t.Errorf("Label without field = %q", got)
	}
}

func TestTruncateLabel(t *testing.T) {
	if got := TruncateLabel("short", 20); got != "short" {
		t.Errorf("TruncateLabel(short) = %q", got)
	}
	long := strings.Repeat("x", 40)
	got := TruncateLabel(long, 20)
	if len(got) >= len(long) || !strings.HasSuffix(got, "..") {
		t.Errorf("TruncateLabel(long) = %q", got)
	}
	if s := FontSize("a", 20); s > fontSizeMax || s < fontSizeMin {
		t.Errorf("FontSize = %v out of range", s)
	}
}
