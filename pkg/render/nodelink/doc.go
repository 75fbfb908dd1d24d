// Package nodelink renders graphs as node-link diagrams through Graphviz.
//
// # Overview
//
// Unlike the native board renderer, this package hands layout to Graphviz.
// Node positions are pinned to the canvas coordinates, so the diagram keeps
// the arrangement drawn in the editor while Graphviz takes care of edge
// clipping, arrowheads and text metrics.
//
// # Usage
//
// Convert a graph to DOT format, then render to SVG or PNG:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: false})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot)
//
// # Options
//
// The [Options] struct controls diagram generation:
//
//   - Detailed: node and link labels list their scalar attributes
//   - LabelField: the node attribute used as the title
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process
// rendering with the neato engine.
package nodelink
