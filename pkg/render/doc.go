// Package render turns a Linkboard graph into images.
//
// # Overview
//
// Two renderers are provided:
//
//   - [board]: the native canvas view, drawn directly as SVG. It shows what
//     the interactive editor shows: trimmed link lines with arrowheads,
//     the selection, the pending link source and the rubber band.
//   - [nodelink]: a Graphviz rendering with node positions pinned to the
//     canvas coordinates, producing SVG or PNG in-process.
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg). They are used for native
// board output; Graphviz produces PNG on its own.
//
//	svg := board.RenderSVG(g, board.WithFit())
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
//
// [board]: github.com/matzehuels/linkboard/pkg/render/board
// [nodelink]: github.com/matzehuels/linkboard/pkg/render/nodelink
package render
