package canvas

import (
	"math"
	"slices"
	"testing"

	"github.com/matzehuels/linkboard/pkg/graph"
)

func node(id string, x, y, r float64) graph.Node {
	return graph.NewNode(id, graph.DefaultNodeType, x, y, r, nil)
}

func near(a, b Point) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func TestEdgePoint(t *testing.T) {
	tests := []struct {
		name  string
		n     graph.Node
		other graph.Node
		want  Point
	}{
		{"Right", node("a", 0, 0, 20), node("b", 100, 0, 20), Point{20, 0}},
		{"Left", node("a", 100, 0, 10), node("b", 0, 0, 20), Point{90, 0}},
		{"Diagonal", node("a", 0, 0, 5), node("b", 30, 40, 20), Point{3, 4}},
		{"Coincident", node("a", 7, 7, 20), node("b", 7, 7, 20), Point{7, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EdgePoint(tt.n, tt.other); !near(got, tt.want) {
				t.Errorf("EdgePoint() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLinkSegment(t *testing.T) {
	g := graph.New()
	_ = g.AddNode(node("a", 0, 0, 20))
	_ = g.AddNode(node("b", 100, 0, 20))
	_ = g.AddLink(graph.NewLink("a", "b", nil))

	l, _ := g.Link("a", "b")
	s, ok := LinkSegment(g, l)
	if !ok {
		t.Fatal("LinkSegment() reported missing endpoint")
	}
	if !near(s.From, Point{20, 0}) || !near(s.To, Point{80, 0}) {
		t.Errorf("segment = %v -> %v", s.From, s.To)
	}

	if _, ok := LinkSegment(g, graph.NewLink("a", "ghost", nil)); ok {
		t.Error("LinkSegment() with missing target reported ok")
	}
}

func TestNormalizeRect(t *testing.T) {
	a, b := Point{10, 50}, Point{60, 20}
	want := Rect{X: 10, Y: 20, W: 50, H: 30}
	if got := NormalizeRect(a, b); got != want {
		t.Errorf("NormalizeRect(a, b) = %v, want %v", got, want)
	}
	if got := NormalizeRect(b, a); got != want {
		t.Errorf("NormalizeRect(b, a) = %v, want %v", got, want)
	}
	if !want.Contains(Point{10, 20}) || !want.Contains(Point{60, 50}) {
		t.Error("Contains() excludes the edges")
	}
	if want.Contains(Point{60.01, 50}) {
		t.Error("Contains() includes a point outside")
	}
}

func TestHitNodeTopmost(t *testing.T) {
	g := graph.New()
	_ = g.AddNode(node("below", 0, 0, 20))
	_ = g.AddNode(node("above", 10, 0, 20))

	if n, ok := HitNode(g, Point{5, 0}); !ok || n.ID != "above" {
		t.Errorf("HitNode(overlap) = %v, %v, want above", n.ID, ok)
	}
	if n, ok := HitNode(g, Point{-15, 0}); !ok || n.ID != "below" {
		t.Errorf("HitNode(left) = %v, %v, want below", n.ID, ok)
	}
	if _, ok := HitNode(g, Point{100, 100}); ok {
		t.Error("HitNode(empty) reported a node")
	}
}

func TestHitLink(t *testing.T) {
	g := graph.New()
	_ = g.AddNode(node("a", 0, 0, 20))
	_ = g.AddNode(node("b", 100, 0, 20))
	_ = g.AddLink(graph.NewLink("a", "b", nil))

	if l, ok := HitLink(g, Point{50, 3}); !ok || l.ID() != "a-b" {
		t.Errorf("HitLink(on line) = %v, %v", l.ID(), ok)
	}
	if _, ok := HitLink(g, Point{50, 10}); ok {
		t.Error("HitLink(far) reported a link")
	}
	if _, ok := HitLink(g, Point{10, 0}); ok {
		t.Error("HitLink inside the node boundary reported a link")
	}
}

func TestNodesIn(t *testing.T) {
	g := graph.New()
	_ = g.AddNode(node("a", 10, 10, 20))
	_ = g.AddNode(node("b", 50, 50, 20))
	_ = g.AddNode(node("c", 90, 90, 20))

	got := NodesIn(g, Rect{X: 0, Y: 0, W: 50, H: 50})
	if !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("NodesIn() = %v, want [a b]", got)
	}
}

func TestViewportPan(t *testing.T) {
	v := DefaultViewport().Pan(Point{X: 30, Y: -10})
	if v.X != -30 || v.Y != 10 || v.Width != 800 || v.Height != 600 {
		t.Errorf("Pan() = %+v", v)
	}
}

func TestParseTool(t *testing.T) {
	for _, tool := range []Tool{ToolNone, ToolSelect, ToolNode, ToolLink} {
		got, err := ParseTool(tool.String())
		if err != nil || got != tool {
			t.Errorf("ParseTool(%q) = %v, %v", tool, got, err)
		}
	}
	if _, err := ParseTool("lasso"); err == nil {
		t.Error("ParseTool(lasso) succeeded")
	}
	if Toggle(ToolLink, ToolLink) != ToolNone || Toggle(ToolSelect, ToolLink) != ToolLink {
		t.Error("Toggle() mismatch")
	}
}
