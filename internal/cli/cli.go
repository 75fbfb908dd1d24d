// Package cli implements the linkboard command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/linkboard/pkg/buildinfo"
	"github.com/matzehuels/linkboard/pkg/cache"
	"github.com/matzehuels/linkboard/pkg/config"
	"github.com/matzehuels/linkboard/pkg/errors"
	"github.com/matzehuels/linkboard/pkg/graph"
	lbio "github.com/matzehuels/linkboard/pkg/io"
	"github.com/matzehuels/linkboard/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

const appName = "linkboard"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is bound to the persistent --config flag.
	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Linkboard edits node-link diagrams with typed node attributes",
		Long:         `Linkboard is an editor for node-link diagrams. Nodes carry attribute trees described by a per-type schema; diagrams are stored as plain JSON documents and can be edited interactively in the terminal, through an HTTP API, or one attribute at a time from scripts.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default: "+appName+" config dir)")

	root.AddCommand(c.newCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.setCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())
	c.registerCompletions(root)

	return root
}

// =============================================================================
// Shared Helpers
// =============================================================================

// loadConfig loads the configuration once per process.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Source != "" {
		c.Logger.Debug("loaded config", "path", cfg.Source)
	}
	c.cfg = cfg
	return cfg, nil
}

// sessionConfig returns the editing settings for a local session.
func (c *CLI) sessionConfig() (session.Config, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return session.Config{}, err
	}
	return cfg.Session(c.Logger)
}

// openDocument reads path into a new session with immediate commits.
func (c *CLI) openDocument(ctx context.Context, path string) (*session.Session, lbio.Report, error) {
	scfg, err := c.sessionConfig()
	if err != nil {
		return nil, lbio.Report{}, err
	}
	scfg.CoalesceWindow = -1
	return loadSession(ctx, path, scfg)
}

func loadSession(ctx context.Context, path string, scfg session.Config) (*session.Session, lbio.Report, error) {
	if err := errors.ValidateDocumentPath(path); err != nil {
		return nil, lbio.Report{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, lbio.Report{}, fmt.Errorf("open %s: %w", path, err)
	}
	s := session.New(scfg)
	report, err := s.Import(ctx, data)
	if err != nil {
		s.Close()
		return nil, report, err
	}
	return s, report, nil
}

// catalog returns the configured node-type catalog.
func (c *CLI) catalog() (*graph.Catalog, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return cfg.Catalog()
}

func newCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	dir, err := cache.DefaultDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return fc
}
