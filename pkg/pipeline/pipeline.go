// Package pipeline turns a diagram into output artifacts.
//
// This package centralizes the export path used by the CLI and the HTTP
// server: pick the requested formats and engine, render each artifact, and
// cache the bytes under a key derived from the document content and the
// options, so an unchanged diagram is never laid out twice.
//
// # Engines
//
//   - native: the board renderer, the same picture the editor shows.
//   - graphviz: a neato layout with pinned node positions.
//
// PNG and PDF for the native engine, and PDF for Graphviz, go through
// rsvg-convert (see [render.ToPNG]). DOT output does not depend on the
// engine.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Render(ctx, g, pipeline.Options{
//	    Formats: []string{"svg", "png"},
//	    Engine:  pipeline.EngineGraphviz,
//	})
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/linkboard/pkg/cache"
	"github.com/matzehuels/linkboard/pkg/errors"
)

// Format constants for output formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatPDF = "pdf"
	FormatDOT = "dot"
)

// Engine constants.
const (
	EngineNative   = "native"
	EngineGraphviz = "graphviz"
)

// Defaults shared by the CLI and the server.
const (
	DefaultEngine     = EngineNative
	DefaultLabelField = "label"
	DefaultScale      = 2.0
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG: true,
	FormatPNG: true,
	FormatPDF: true,
	FormatDOT: true,
}

// ValidEngines is the set of supported engines.
var ValidEngines = map[string]bool{
	EngineNative:   true,
	EngineGraphviz: true,
}

// ContentType returns the MIME type of a format.
func ContentType(format string) string {
	switch format {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	case FormatDOT:
		return "text/vnd.graphviz"
	}
	return "application/octet-stream"
}

// =============================================================================
// Options
// =============================================================================

// Options configures one render run.
type Options struct {
	Formats    []string `json:"formats,omitempty"`
	Engine     string   `json:"engine,omitempty"`
	Detailed   bool     `json:"detailed,omitempty"`
	LabelField string   `json:"label_field,omitempty"`
	// Scale is the PNG resolution multiplier for rsvg-convert.
	Scale float64 `json:"scale,omitempty"`
	// Refresh skips the cache lookup. The result is still stored.
	Refresh bool `json:"refresh,omitempty"`
}

// Result contains the outputs of a render run.
type Result struct {
	// DocHash is the SHA-256 of the exported document.
	DocHash string
	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte
	Stats     Stats
	// Cached lists the formats served from the cache.
	Cached map[string]bool
}

// AllCached reports whether no artifact had to be rendered.
func (r *Result) AllCached() bool {
	for f := range r.Artifacts {
		if !r.Cached[f] {
			return false
		}
	}
	return len(r.Artifacts) > 0
}

// Stats contains render statistics.
type Stats struct {
	NodeCount  int
	LinkCount  int
	RenderTime time.Duration
}

// ParseFormats splits a comma-separated list. Empty selects svg.
func ParseFormats(s string) []string {
	if s == "" {
		return []string{FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: svg, png, pdf, dot)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateEngine checks that an engine is valid.
func ValidateEngine(engine string) error {
	if !ValidEngines[engine] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid engine: %q (must be one of: native, graphviz)", engine)
	}
	return nil
}

// SetDefaults fills in unset options.
func (o *Options) SetDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Engine == "" {
		o.Engine = DefaultEngine
	}
	if o.LabelField == "" {
		o.LabelField = DefaultLabelField
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
}

// Validate sets defaults and checks formats and engine.
func (o *Options) Validate() error {
	o.SetDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return ValidateEngine(o.Engine)
}

// ArtifactKeyOpts returns the cache key options for one format. Options
// that cannot change the bytes of that format are left out so equivalent
// requests share an entry.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Format:     format,
		Engine:     o.Engine,
		Detailed:   o.Detailed,
		LabelField: o.LabelField,
	}
	if format == FormatDOT {
		k.Engine = ""
	}
	if format == FormatPNG && o.Engine == EngineNative {
		k.Scale = o.Scale
	}
	return k
}

func unsupported(format, engine string) error {
	return errors.New(errors.ErrCodeUnsupported, "format %s is not supported by the %s engine", format, engine)
}
