package board

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/linkboard/pkg/canvas"
)

// Style defines the visual appearance of the board.
// Implementations control how nodes, links, labels and the rubber band are drawn.
type Style interface {
	// RenderDefs writes SVG <defs> content (markers, filters).
	RenderDefs(buf *bytes.Buffer)
	// RenderLink writes the SVG for a single link line.
	RenderLink(buf *bytes.Buffer, l Link)
	// RenderNode writes the SVG for a node shape.
	RenderNode(buf *bytes.Buffer, n Node)
	// RenderText writes the SVG for a node's label.
	RenderText(buf *bytes.Buffer, n Node)
	// RenderBox writes the SVG for an active rubber-band rectangle.
	RenderBox(buf *bytes.Buffer, r canvas.Rect)
}

// Node contains all data needed to render a single node.
type Node struct {
	ID       string  // Node identifier
	Type     string  // Node type name
	Label    string  // Display text
	CX, CY   float64 // Center
	R        float64 // Radius
	Selected bool
	Source   bool // Pending source of the link tool
}

// Link contains positioning data for a link, already trimmed to the node
// boundaries.
type Link struct {
	ID             string
	X1, Y1, X2, Y2 float64
	Selected       bool
}

// Simple is the default flat style.
type Simple struct{}

const (
	colorInk      = "#333333"
	colorLink     = "#555555"
	colorSelected = "#2563eb"
	colorSource   = "#f59e0b"
)

func (Simple) RenderDefs(buf *bytes.Buffer) {
	buf.WriteString("  <defs>\n")
	for _, m := range []struct{ id, color string }{
		{"arrow", colorLink},
		{"arrow-selected", colorSelected},
	} {
		fmt.Fprintf(buf, `    <marker id="%s" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="8" markerHeight="8" orient="auto-start-reverse">`+
			`<path d="M 0 0 L 10 5 L 0 10 z" fill="%s"/></marker>`+"\n", m.id, m.color)
	}
	buf.WriteString("  </defs>\n")
}

func (Simple) RenderLink(buf *bytes.Buffer, l Link) {
	color, marker, width := colorLink, "arrow", 2.0
	if l.Selected {
		color, marker, width = colorSelected, "arrow-selected", 3.0
	}
	fmt.Fprintf(buf, `  <line id="link-%s" class="link" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%.1f" marker-end="url(#%s)"/>`+"\n",
		EscapeXML(l.ID), l.X1, l.Y1, l.X2, l.Y2, color, width, marker)
}

func (Simple) RenderNode(buf *bytes.Buffer, n Node) {
	stroke, width, dash := colorInk, 2.0, ""
	switch {
	case n.Selected:
		stroke, width = colorSelected, 3.0
	case n.Source:
		stroke, dash = colorSource, ` stroke-dasharray="4 3"`
	}
	fmt.Fprintf(buf, `  <circle id="node-%s" class="node" data-type="%s" cx="%.2f" cy="%.2f" r="%.2f" fill="white" stroke="%s" stroke-width="%.1f"%s/>`+"\n",
		EscapeXML(n.ID), EscapeXML(n.Type), n.CX, n.CY, n.R, stroke, width, dash)
}

func (Simple) RenderText(buf *bytes.Buffer, n Node) {
	label := TruncateLabel(n.Label, n.R)
	fmt.Fprintf(buf, `  <text class="node-label" x="%.2f" y="%.2f" font-family="sans-serif" font-size="%.1f" text-anchor="middle" dominant-baseline="central" fill="%s">%s</text>`+"\n",
		n.CX, n.CY, FontSize(label, n.R), colorInk, EscapeXML(label))
}

func (Simple) RenderBox(buf *bytes.Buffer, r canvas.Rect) {
	fmt.Fprintf(buf, `  <rect class="selection-box" x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" fill-opacity="0.1" stroke="%s" stroke-dasharray="4 2"/>`+"\n",
		r.X, r.Y, r.W, r.H, colorSelected, colorSelected)
}
