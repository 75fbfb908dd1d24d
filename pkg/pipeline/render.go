package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/linkboard/pkg/graph"
	"github.com/matzehuels/linkboard/pkg/observability"
	"github.com/matzehuels/linkboard/pkg/render"
	"github.com/matzehuels/linkboard/pkg/render/board"
	"github.com/matzehuels/linkboard/pkg/render/nodelink"
)

// RenderFormat renders one artifact without caching.
func RenderFormat(ctx context.Context, g *graph.Graph, format string, opts Options) ([]byte, error) {
	start := time.Now()
	data, err := renderFormat(ctx, g, format, opts)
	observability.Editor().OnRender(ctx, format, time.Since(start), err)
	return data, err
}

func renderFormat(ctx context.Context, g *graph.Graph, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatDOT:
		return []byte(toDOT(g, opts)), nil
	case FormatSVG:
		return renderSVG(ctx, g, opts)
	case FormatPNG:
		if opts.Engine == EngineGraphviz {
			return nodelink.RenderPNG(ctx, toDOT(g, opts))
		}
		svg, err := renderSVG(ctx, g, opts)
		if err != nil {
			return nil, err
		}
		return render.ToPNG(ctx, svg, opts.Scale)
	case FormatPDF:
		svg, err := renderSVG(ctx, g, opts)
		if err != nil {
			return nil, err
		}
		return render.ToPDF(ctx, svg)
	}
	return nil, unsupported(format, opts.Engine)
}

func renderSVG(ctx context.Context, g *graph.Graph, opts Options) ([]byte, error) {
	switch opts.Engine {
	case EngineGraphviz:
		return nodelink.RenderSVG(ctx, toDOT(g, opts))
	case EngineNative:
		return board.RenderSVG(g, board.WithFit(), board.WithLabelField(opts.LabelField)), nil
	}
	return nil, unsupported(FormatSVG, opts.Engine)
}

func toDOT(g *graph.Graph, opts Options) string {
	return nodelink.ToDOT(g, nodelink.Options{Detailed: opts.Detailed, LabelField: opts.LabelField})
}
