package canvas

import (
	"math"

	"github.com/matzehuels/linkboard/pkg/graph"
)

// Point is a position in canvas or screen coordinates.
type Point struct {
	X, Y float64
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// Center returns the center of n.
func Center(n graph.Node) Point { return Point{X: n.X, Y: n.Y} }

// Rect is an axis-aligned rectangle with its origin at the minimum corner.
type Rect struct {
	X, Y, W, H float64
}

// NormalizeRect returns the rectangle spanned by two opposite corners,
// whichever order they are given in.
func NormalizeRect(a, b Point) Rect {
	return Rect{
		X: math.Min(a.X, b.X),
		Y: math.Min(a.Y, b.Y),
		W: math.Abs(a.X - b.X),
		H: math.Abs(a.Y - b.Y),
	}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Viewport is the visible region of the canvas.
type Viewport struct {
	X, Y, Width, Height float64
}

// Default viewport size.
const (
	DefaultViewportWidth  = 800
	DefaultViewportHeight = 600
)

// DefaultViewport returns an 800x600 viewport at the origin.
func DefaultViewport() Viewport {
	return Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
}

// Pan shifts the viewport so that content follows a pointer that moved by
// delta screen units.
func (v Viewport) Pan(delta Point) Viewport {
	v.X -= delta.X
	v.Y -= delta.Y
	return v
}

// EdgePoint returns where a link from n toward other meets n's boundary:
// n's center moved toward other's center by n's radius. If both centers
// coincide the result is n's center.
func EdgePoint(n, other graph.Node) Point {
	dx, dy := other.X-n.X, other.Y-n.Y
	dist := math.Sqrt(dx*dx + dy*dy)
	if dist == 0 {
		return Point{X: n.X, Y: n.Y}
	}
	return Point{X: n.X + dx*n.R/dist, Y: n.Y + dy*n.R/dist}
}

// Segment is the drawn line of one link.
type Segment struct {
	Link     graph.LinkKey
	From, To Point
}

// LinkSegment computes the trimmed line for l. It reports false if either
// endpoint is missing from g.
func LinkSegment(g *graph.Graph, l graph.Link) (Segment, bool) {
	src, ok := g.Node(l.SourceID)
	if !ok {
		return Segment{}, false
	}
	tgt, ok := g.Node(l.TargetID)
	if !ok {
		return Segment{}, false
	}
	return Segment{Link: l.Key(), From: EdgePoint(src, tgt), To: EdgePoint(tgt, src)}, true
}

// Segments computes the lines of every link touching one of ids, each
// link once.
func Segments(g *graph.Graph, ids []string) []Segment {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []Segment
	for _, l := range g.Links() {
		if !want[l.SourceID] && !want[l.TargetID] {
			continue
		}
		if s, ok := LinkSegment(g, l); ok {
			out = append(out, s)
		}
	}
	return out
}

// HitNode returns the topmost node containing p. Later nodes are drawn on
// top of earlier ones.
func HitNode(g *graph.Graph, p Point) (graph.Node, bool) {
	nodes := g.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		if nodes[i].Contains(p.X, p.Y) {
			return nodes[i], true
		}
	}
	return graph.Node{}, false
}

// LinkHitTolerance is how far from a drawn link a press still hits it.
const LinkHitTolerance = 4.0

// HitLink returns the topmost link whose drawn segment passes within
// LinkHitTolerance of p.
func HitLink(g *graph.Graph, p Point) (graph.Link, bool) {
	links := g.Links()
	for i := len(links) - 1; i >= 0; i-- {
		s, ok := LinkSegment(g, links[i])
		if ok && distToSegment(p, s.From, s.To) <= LinkHitTolerance {
			return links[i], true
		}
	}
	return graph.Link{}, false
}

func distToSegment(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Dist(Point{X: a.X + t*dx, Y: a.Y + t*dy})
}

// NodesIn returns the IDs of nodes whose center lies inside r, in graph order.
func NodesIn(g *graph.Graph, r Rect) []string {
	var out []string
	for _, n := range g.Nodes() {
		if r.Contains(Center(n)) {
			out = append(out, n.ID)
		}
	}
	return out
}
