package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/countryscope/internal/output"
	"github.com/Aman-CERP/countryscope/internal/server"
)

func newServeCmd(g *globals) *cobra.Command {
	var (
		addr  string
		pprof bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve country lookups over HTTP",
		Long: `Start an HTTP server backed by the same lookup cache as the TUI.

Endpoints:
  GET /api/countries/search?name=<text>  JSON array of matching countries
  GET /api/cache/stats                   cache and upstream counters
  DELETE /api/cache                      drop every cached answer
  GET /healthz                           liveness probe and upstream circuit state
  GET /metrics                           Prometheus metrics

Failed lookups return an empty array with status 200.`,
		Example: `  countryscope serve
  countryscope serve --addr 127.0.0.1:9000 --pprof`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.setup(cmd, true)
			if err != nil {
				return err
			}
			defer g.teardown()

			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			metrics := server.NewMetrics()
			client := newClient(cfg)
			fetcher := newFetcher(cfg, client, metrics)
			metrics.TrackCache(fetcher.Stats)

			opts := []server.Option{
				server.WithUpstreamState(func() string { return client.BreakerState().String() }),
			}
			if pprof {
				opts = append(opts, server.WithProfiler())
			}
			srv := server.New(fetcher, metrics, slog.Default(), opts...)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			output.New(cmd.OutOrStdout()).Statusf("→", "starting server on %s (upstream %s)", cfg.Server.Addr, cfg.API.BaseURL)
			return srv.ListenAndServe(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8000", "Listen address")
	cmd.Flags().BoolVar(&pprof, "pprof", false, "Expose /debug/pprof")

	return cmd
}
