package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/linkboard/pkg/graph"
	"github.com/matzehuels/linkboard/pkg/schema"
)

func sampleGraph(t *testing.T) *graph.Graph {
	t.Helper()
	cat := graph.DefaultCatalog()
	g := graph.New()
	nt := cat.Default()
	for _, n := range []graph.Node{nt.New("node-1", 100, 50), nt.New("node-2", 250, 120)} {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	v := schema.Object(map[string]schema.Value{
		"label":  schema.Str("Start"),
		"weight": schema.Num(2),
		"items":  schema.List(schema.Object(nil)),
	})
	if err := g.SetNodeValue("node-1", v); err != nil {
		t.Fatal(err)
	}
	l := cat.NewLink("node-1", "node-2")
	if err := g.AddLink(l); err != nil {
		t.Fatal(err)
	}
	if err := g.SetLinkValue("node-1", "node-2", schema.Object(map[string]schema.Value{"priority": schema.Num(3)})); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sampleGraph(t), Options{})
	for _, want := range []string{
		`"node-1" [label="Start", pos="100,-50!", width=0.5555555555555556];`,
		`"node-2" [label="node-2", pos="250,-120!"`,
		`"node-1" -> "node-2";`,
		`inputscale=72;`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(sampleGraph(t), Options{Detailed: true})
	for _, want := range []string{
		`label="Start\nitems: 1 items\nlabel: Start\nweight: 2"`,
		`"node-1" -> "node-2" [label="priority: 3"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
}

func TestToDOTLabelField(t *testing.T) {
	dot := ToDOT(sampleGraph(t), Options{LabelField: "description"})
	if !strings.Contains(dot, `"node-1" [label="node-1"`) {
		t.Errorf("unset label field should fall back to the ID\n%s", dot)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(sampleGraph(t), Options{}))
	if err != nil {
		t.Fatal(err)
	}
	out := string(svg)
	if !strings.HasPrefix(strings.TrimSpace(out[strings.Index(out, "<svg"):]), `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `) {
		t.Errorf("viewBox not normalized: %.200s", out)
	}
	if !strings.Contains(out, "Start") {
		t.Error("label missing from SVG")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 10.00 20.00" xmlns="x"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10.00 20.00" width="10" height="20"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox = %s, want %s", got, want)
	}
	if got := normalizeViewBox([]byte("<svg/>")); string(got) != "<svg/>" {
		t.Error("input without viewBox changed")
	}
}
