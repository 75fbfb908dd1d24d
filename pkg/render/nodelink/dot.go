package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/linkboard/pkg/graph"
	"github.com/matzehuels/linkboard/pkg/schema"
)

// pointsPerInch converts canvas units (treated as points) to Graphviz inches.
const pointsPerInch = 72.0

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed lists every scalar attribute in node and link labels.
	// When false, nodes show LabelField (or their ID) and links are bare.
	Detailed bool
	// LabelField names the node attribute used as the label.
	// Empty selects "label".
	LabelField string
}

// ToDOT converts a graph to Graphviz DOT. Node positions are pinned to
// their canvas coordinates (y grows downward on the canvas, upward in
// Graphviz, so it is negated); render with the neato engine to keep them.
func ToDOT(g *graph.Graph, opts Options) string {
	field := opts.LabelField
	if field == "" {
		field = "label"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  splines=false;\n")
	buf.WriteString("  node [shape=circle, fixedsize=true, style=filled, fillcolor=white, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [arrowsize=0.7];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		attrs := []string{
			fmt.Sprintf("label=%q", nodeLabel(n, field, opts.Detailed)),
			fmt.Sprintf("pos=\"%s,%s!\"", num(n.X), num(-n.Y)),
			fmt.Sprintf("width=%s", num(2*n.R/pointsPerInch)),
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, l := range g.Links() {
		if opts.Detailed {
			if label := attrLines(l.Value); label != "" {
				fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", l.SourceID, l.TargetID, label)
				continue
			}
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", l.SourceID, l.TargetID)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func nodeLabel(n graph.Node, field string, detailed bool) string {
	label := n.ID
	if v, ok := n.Value.Get(field); ok {
		if s, ok := v.AsString(); ok && s != "" {
			label = s
		}
	}
	if !detailed {
		return label
	}
	if attrs := attrLines(n.Value); attrs != "" {
		return label + "\n" + attrs
	}
	return label
}

// attrLines renders the top-level attributes of a struct value, one per
// line in key order. Arrays show their length; nested structs are skipped.
func attrLines(v schema.Value) string {
	flat, ok := schema.Flatten(v).(map[string]any)
	if !ok || len(flat) == 0 {
		return ""
	}
	var parts []string
	for _, k := range slices.Sorted(maps.Keys(flat)) {
		switch x := flat[k].(type) {
		case []any:
			parts = append(parts, fmt.Sprintf("%s: %d items", k, len(x)))
		case map[string]any:
		default:
			parts = append(parts, fmt.Sprintf("%s: %v", k, x))
		}
	}
	return strings.Join(parts, "\n")
}

// RenderSVG renders a DOT graph to SVG using Graphviz's neato engine.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz's neato engine.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
