package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/linkboard/pkg/cache"
	"github.com/matzehuels/linkboard/pkg/graph"
	lbio "github.com/matzehuels/linkboard/pkg/io"
)

// artifactKeyType labels artifact cache events for the cache hooks.
const artifactKeyType = "artifact"

// Runner renders diagrams with caching. It holds no per-run state, so one
// Runner may serve concurrent requests.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching and a nil
// keyer selects [cache.DefaultKeyer].
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Render produces every requested format for g.
func (r *Runner) Render(ctx context.Context, g *graph.Graph, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	doc, err := lbio.ExportDocument(g)
	if err != nil {
		return nil, fmt.Errorf("hash document: %w", err)
	}
	result := &Result{
		DocHash:   cache.Hash(doc),
		Artifacts: make(map[string][]byte, len(opts.Formats)),
		Cached:    make(map[string]bool, len(opts.Formats)),
		Stats:     Stats{NodeCount: g.NodeCount(), LinkCount: g.LinkCount()},
	}

	start := time.Now()
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(result.DocHash, opts.ArtifactKeyOpts(format))
		if opts.Refresh {
			_ = r.Cache.Delete(ctx, key)
		}
		data, hit, err := cache.Fetch(ctx, r.Cache, key, artifactKeyType, cache.DefaultTTL, func() ([]byte, error) {
			return RenderFormat(ctx, g, format, opts)
		})
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		result.Artifacts[format] = data
		result.Cached[format] = hit
		r.Logger.Debug("artifact ready", "format", format, "engine", opts.Engine, "bytes", len(data), "cached", hit)
	}
	result.Stats.RenderTime = time.Since(start)

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"engine", opts.Engine,
		"duration", result.Stats.RenderTime)
	return result, nil
}
