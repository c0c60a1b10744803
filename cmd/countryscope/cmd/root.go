// Package cmd provides the CLI commands for countryscope.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/countryscope/internal/config"
	scerrors "github.com/Aman-CERP/countryscope/internal/errors"
	"github.com/Aman-CERP/countryscope/internal/logging"
	"github.com/Aman-CERP/countryscope/internal/lookup"
	"github.com/Aman-CERP/countryscope/internal/restcountries"
	"github.com/Aman-CERP/countryscope/internal/search"
	"github.com/Aman-CERP/countryscope/internal/ui"
	"github.com/Aman-CERP/countryscope/pkg/version"
)

// globals holds persistent flag values and the per-run state built from them.
type globals struct {
	configPath string
	debug      bool
	noColor    bool
	apiURL     string
	timeout    time.Duration

	cfg        *config.Config
	logCleanup func()
}

// NewRootCmd creates the root command for the countryscope CLI.
func NewRootCmd() *cobra.Command {
	g := &globals{}
	var (
		query    string
		debounce time.Duration
		foldCase bool
	)

	cmd := &cobra.Command{
		Use:   "countryscope",
		Short: "Search countries as you type",
		Long: `countryscope looks up countries by name in the REST Countries API and
shows flag, capital, currency, language and population in a live table.

Run it with no arguments in a terminal to open the interactive search.
Answers are cached for the session, so repeating a query is instant.`,
		Example: `  # Interactive search
  countryscope

  # Start with a query already typed
  countryscope -q "united"

  # One-shot lookup for scripts
  countryscope search france --format json`,
		Version:       version.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.setup(cmd, false)
			if err != nil {
				return err
			}
			defer g.teardown()

			if cmd.Flags().Changed("debounce") {
				cfg.Search.Debounce = debounce
			}
			if cmd.Flags().Changed("fold-case") {
				cfg.Cache.FoldCase = foldCase
			}
			return runInteractive(cmd, cfg, g.noColor || cfg.UI.NoColor, query)
		},
	}

	cmd.SetVersionTemplate("countryscope version {{.Version}}\n")

	cmd.Flags().StringVarP(&query, "query", "q", "", "Initial search text")
	cmd.Flags().DurationVar(&debounce, "debounce", 300*time.Millisecond, "Quiet period before a typed query is searched")
	cmd.Flags().BoolVar(&foldCase, "fold-case", false, "Share cache entries between queries that differ only in case")

	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file (default: user config)")
	cmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "Enable debug logging to ~/.countryscope/logs/")
	cmd.PersistentFlags().BoolVar(&g.noColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().StringVar(&g.apiURL, "api-url", "", "REST Countries base URL")
	cmd.PersistentFlags().DurationVar(&g.timeout, "timeout", 0, "Per-request upstream timeout")

	cmd.PersistentPreRunE = func(*cobra.Command, []string) error {
		// Nothing reaches the terminal until a command opts in.
		logging.Discard()
		return nil
	}

	cmd.AddCommand(newSearchCmd(g))
	cmd.AddCommand(newServeCmd(g))
	cmd.AddCommand(newConfigCmd(g))
	cmd.AddCommand(newLogsCmd(g))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command and prints any error in CLI form.
func Execute() error {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		_, _ = fmt.Fprint(root.ErrOrStderr(), scerrors.FormatForCLI(err))
	}
	return err
}

// setup loads configuration, applies persistent flag overrides and starts
// file logging. stderr mirrors logs to the terminal; it must stay false
// for commands that draw a TUI. Callers defer teardown on success.
func (g *globals) setup(cmd *cobra.Command, stderr bool) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.API.BaseURL = g.apiURL
	}
	if flags.Changed("timeout") {
		cfg.API.Timeout = g.timeout
	}
	if g.debug {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cleanup, err := logging.Install(logging.Config{
		Level:         cfg.Log.Level,
		FilePath:      logging.DefaultLogPath(),
		MaxSizeMB:     cfg.Log.MaxSizeMB,
		MaxFiles:      cfg.Log.MaxFiles,
		WriteToStderr: stderr,
	})
	if err != nil {
		return nil, scerrors.New(scerrors.ErrCodeFilePermission, "cannot open log file", err).
			WithSuggestion("check permissions on " + logging.DefaultLogDir())
	}

	g.cfg = cfg
	g.logCleanup = cleanup
	slog.Debug("command_started",
		slog.String("command", cmd.CommandPath()),
		slog.String("version", version.Version),
		slog.String("api", cfg.API.BaseURL))
	return cfg, nil
}

func (g *globals) teardown() {
	if g.logCleanup != nil {
		g.logCleanup()
		g.logCleanup = nil
	}
}

// newClient builds the upstream REST Countries client from cfg.
func newClient(cfg *config.Config) *restcountries.Client {
	return restcountries.NewClient(restcountries.Config{
		BaseURL:      cfg.API.BaseURL,
		Timeout:      cfg.API.Timeout,
		MaxFailures:  cfg.API.MaxFailures,
		ResetTimeout: cfg.API.ResetTimeout,
		UserAgent:    version.UserAgent(),
	})
}

// newFetcher wires the lookup cache in front of client.
func newFetcher(cfg *config.Config, client *restcountries.Client, observer lookup.Observer) *lookup.Fetcher {
	return lookup.New(client, lookup.Options{
		CacheSize: cfg.Cache.Size,
		CacheTTL:  cfg.Cache.TTL,
		FoldCase:  cfg.Cache.FoldCase,
		Observer:  observer,
	})
}

// runInteractive opens the TUI, or prints a hint when there is no terminal.
func runInteractive(cmd *cobra.Command, cfg *config.Config, noColor bool, query string) error {
	uiCfg := ui.NewConfig(cmd.OutOrStdout(),
		ui.WithNoColor(noColor),
		ui.WithInput(cmd.InOrStdin()),
		ui.WithInitialQuery(query),
	)
	if !uiCfg.Interactive() {
		_, err := fmt.Fprintln(cmd.OutOrStdout(),
			"countryscope needs a terminal for interactive search.\nFor scripts and pipes use: countryscope search <name> [--format json]")
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := newFetcher(cfg, newClient(cfg), nil)
	ctrl := search.NewController(fetcher, cfg.Search.Debounce)
	defer ctrl.Stop()

	slog.Info("interactive_search_started", slog.Duration("debounce", cfg.Search.Debounce))
	err := ui.RunSearch(ctx, ctrl, uiCfg)

	stats := fetcher.Stats()
	slog.Info("interactive_search_finished",
		slog.Int64("hits", stats.Hits),
		slog.Int64("fetches", stats.Fetches),
		slog.Int64("no_match", stats.NoMatch),
		slog.Int64("failures", stats.Failures),
		slog.Int("entries", stats.Entries))
	return err
}
