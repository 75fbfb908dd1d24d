package board

import (
	"bytes"
	"fmt"
	"math"

	"github.com/matzehuels/linkboard/pkg/canvas"
	"github.com/matzehuels/linkboard/pkg/graph"
	"github.com/matzehuels/linkboard/pkg/selection"
)

// DefaultLabelField is the attribute shown as a node's label.
const DefaultLabelField = "label"

// fitMargin pads the bounding box computed by [WithFit].
const fitMargin = 20.0

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	style      Style
	sel        selection.Set
	viewport   canvas.Viewport
	fit        bool
	box        *canvas.SelectionBox
	source     string
	labelField string
}

func WithStyle(s Style) SVGOption               { return func(r *svgRenderer) { r.style = s } }
func WithSelection(sel selection.Set) SVGOption { return func(r *svgRenderer) { r.sel = sel } }
func WithViewport(v canvas.Viewport) SVGOption  { return func(r *svgRenderer) { r.viewport = v } }
func WithLabelField(name string) SVGOption      { return func(r *svgRenderer) { r.labelField = name } }

// WithFit sizes the image to the graph's bounding box instead of the
// viewport.
func WithFit() SVGOption { return func(r *svgRenderer) { r.fit = true } }

// WithState draws the interaction state: viewport, rubber band and link
// source.
func WithState(st canvas.State) SVGOption {
	return func(r *svgRenderer) {
		r.viewport = st.Viewport
		r.box = st.Box
		r.source = st.LinkSource
	}
}

// RenderSVG draws the board. Links are drawn first so nodes cover their
// ends; nodes are drawn in insertion order, matching hit-testing.
func RenderSVG(g *graph.Graph, opts ...SVGOption) []byte {
	r := svgRenderer{
		style:      Simple{},
		viewport:   canvas.DefaultViewport(),
		labelField: DefaultLabelField,
	}
	for _, opt := range opts {
		opt(&r)
	}
	if g == nil {
		g = graph.New()
	}

	vb := r.viewport
	if r.fit {
		vb = Bounds(g, fitMargin)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		vb.X, vb.Y, vb.Width, vb.Height, vb.Width, vb.Height)
	r.style.RenderDefs(&buf)

	for _, l := range g.Links() {
		seg, ok := canvas.LinkSegment(g, l)
		if !ok {
			continue
		}
		r.style.RenderLink(&buf, Link{
			ID: l.ID(),
			X1: seg.From.X, Y1: seg.From.Y,
			X2: seg.To.X, Y2: seg.To.Y,
			Selected: r.sel.Contains(selection.Link(l.SourceID, l.TargetID)),
		})
	}

	nodes := buildNodes(g, &r)
	for _, n := range nodes {
		r.style.RenderNode(&buf, n)
	}
	for _, n := range nodes {
		r.style.RenderText(&buf, n)
	}

	if r.box != nil {
		r.style.RenderBox(&buf, r.box.Rect())
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func buildNodes(g *graph.Graph, r *svgRenderer) []Node {
	nodes := make([]Node, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		nodes = append(nodes, Node{
			ID:       n.ID,
			Type:     n.Type,
			Label:    Label(n, r.labelField),
			CX:       n.X,
			CY:       n.Y,
			R:        n.R,
			Selected: r.sel.Contains(selection.Node(n.ID)),
			Source:   n.ID == r.source,
		})
	}
	return nodes
}

// Bounds returns the smallest viewport holding every node circle, padded
// by margin. An empty graph yields the default viewport.
func Bounds(g *graph.Graph, margin float64) canvas.Viewport {
	if g.NodeCount() == 0 {
		return canvas.DefaultViewport()
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range g.Nodes() {
		minX = min(minX, n.X-n.R)
		minY = min(minY, n.Y-n.R)
		maxX = max(maxX, n.X+n.R)
		maxY = max(maxY, n.Y+n.R)
	}
	return canvas.Viewport{
		X:      minX - margin,
		Y:      minY - margin,
		Width:  maxX - minX + 2*margin,
		Height: maxY - minY + 2*margin,
	}
}
