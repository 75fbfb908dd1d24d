package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/linkboard/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output     string
	formats    string
	engine     string
	detailed   bool
	labelField string
	scale      float64
	noCache    bool
	refresh    bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{
		engine: pipeline.DefaultEngine,
		scale:  pipeline.DefaultScale,
	}

	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Render a diagram to SVG, PNG, PDF or DOT",
		Long: `Render a diagram document.

The native engine draws the diagram the way the editor shows it. The
graphviz engine lays it out with neato, keeping node positions. PNG and PDF
output from the native engine needs rsvg-convert (librsvg).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), png, pdf, dot (comma-separated)")
	cmd.Flags().StringVarP(&opts.engine, "engine", "e", opts.engine, "render engine: native, graphviz")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "list attributes in graphviz labels")
	cmd.Flags().StringVar(&opts.labelField, "label-field", pipeline.DefaultLabelField, "node attribute shown as the label")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale for the native engine")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when cached")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	popts := pipeline.Options{
		Formats:    pipeline.ParseFormats(opts.formats),
		Engine:     opts.engine,
		Detailed:   opts.detailed,
		LabelField: opts.labelField,
		Scale:      opts.scale,
		Refresh:    opts.refresh,
	}
	if err := popts.Validate(); err != nil {
		return err
	}

	s, report, err := c.openDocument(ctx, input)
	if err != nil {
		return err
	}
	defer s.Close()
	printReport(report)
	g := s.Graph()
	logger.Debugf("Loaded %s: %d nodes, %d links", input, g.NodeCount(), g.LinkCount())

	runner := pipeline.NewRunner(newCache(opts.noCache), nil, logger)
	result, err := runner.Render(ctx, g, popts)
	if err != nil {
		return err
	}

	paths := outputPaths(opts.output, input, popts.Formats)
	for _, format := range popts.Formats {
		if err := writeOutput(paths[format], result.Artifacts[format]); err != nil {
			return err
		}
	}

	prog.done(fmt.Sprintf("Rendered %s", input))
	cached := result.AllCached()
	printStats(result.Stats.NodeCount, result.Stats.LinkCount, &cached)
	for _, format := range popts.Formats {
		printFile(paths[format])
	}
	return nil
}

// outputPaths maps each format to its file. A single format with an
// explicit output uses it verbatim; otherwise files are named
// <base>.<format>, where base is the output without a known extension or
// the input without its extension.
func outputPaths(output, input string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if output != "" && len(formats) == 1 {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}

func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// writeOutput writes data to path, or to stdout when path is "-".
func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}
