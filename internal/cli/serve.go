package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/linkboard/internal/server"
	"github.com/matzehuels/linkboard/pkg/observability"
	"github.com/matzehuels/linkboard/pkg/session"
)

// shutdownTimeout bounds how long in-flight requests may take to finish.
const shutdownTimeout = 10 * time.Second

type serveOpts struct {
	addr     string
	stateDir string
	noCache  bool
}

// serveCommand creates the HTTP server command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve editing sessions over HTTP",
		Long: `Serve editing sessions over HTTP.

Each session holds one diagram. Clients send canvas events, edit attributes
and fetch SVG renderings. Idle sessions are evicted after the configured TTL;
with a state directory they are saved there and restored on the next request.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&opts.stateDir, "state-dir", "", "directory for evicted session snapshots")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the diagram cache")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	logger := loggerFromContext(ctx)
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	scfg, err := cfg.Session(logger)
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if opts.addr != "" {
		addr = opts.addr
	}
	stateDir := cfg.Server.StateDir
	if opts.stateDir != "" {
		stateDir = opts.stateDir
	}

	var regOpts []session.RegistryOption
	if stateDir != "" {
		store, err := session.NewFileStore(stateDir)
		if err != nil {
			return err
		}
		regOpts = append(regOpts, session.WithStore(store))
		logger.Info("persisting sessions", "dir", store.Path())
	}
	observability.SetAll(observability.NewLogHooks(logger))
	defer observability.Reset()
	reg := session.NewRegistry(scfg, regOpts...)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	interval := cfg.Server.CleanupInterval.Duration
	if interval <= 0 {
		interval = time.Minute
	}
	go reg.Run(ctx, interval)

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(reg, server.WithCache(newCache(opts.noCache)), server.WithLogger(logger)).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		reg.Close(context.Background())
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	err = srv.Shutdown(shutdownCtx)
	reg.Close(shutdownCtx)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
