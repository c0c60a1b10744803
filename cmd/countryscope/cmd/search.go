package cmd

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/countryscope/internal/country"
	scerrors "github.com/Aman-CERP/countryscope/internal/errors"
	"github.com/Aman-CERP/countryscope/internal/output"
	"github.com/Aman-CERP/countryscope/internal/ui"
)

// Output formats for the search command.
const (
	formatText = "text"
	formatJSON = "json"
)

func newSearchCmd(g *globals) *cobra.Command {
	var (
		format   string
		noHeader bool
		stats    bool
	)

	cmd := &cobra.Command{
		Use:   "search <name...>",
		Short: "Look up countries by name once and print them",
		Long: `Look up countries whose name contains the given text and print the
results. Multiple arguments are joined with spaces.

A failed or empty lookup prints no rows; with --format json it prints [].`,
		Example: `  countryscope search france
  countryscope search united states --format json
  countryscope search peru --no-header | cut -f2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatText && format != formatJSON {
				return scerrors.ValidationError("unknown format "+format, nil).
					WithSuggestion("use --format text or --format json")
			}

			cfg, err := g.setup(cmd, false)
			if err != nil {
				return err
			}
			defer g.teardown()

			name := strings.TrimSpace(strings.Join(args, " "))
			fetcher := newFetcher(cfg, newClient(cfg), nil)
			results := fetcher.CountryDetails(cmd.Context(), name)

			if err := printResults(cmd, results, format, noHeader, g.noColor); err != nil {
				return err
			}

			if stats {
				s := fetcher.Stats()
				w := output.New(cmd.ErrOrStderr())
				w.KeyValues(
					"query", name,
					"results", strconv.Itoa(len(results)),
					"fetches", strconv.FormatInt(s.Fetches, 10),
					"no match", strconv.FormatInt(s.NoMatch, 10),
					"failures", strconv.FormatInt(s.Failures, 10),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text or json")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "Omit the header line in text output")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print lookup statistics to stderr")

	return cmd
}

func printResults(cmd *cobra.Command, results country.ResultSet, format string, noHeader, noColor bool) error {
	if format == formatJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		output.New(cmd.ErrOrStderr()).WithColor(!noColor && ui.IsTTY(cmd.ErrOrStderr())).
			Warning("no countries found")
		return nil
	}

	r := ui.NewPlainRenderer(ui.NewConfig(cmd.OutOrStdout()))
	if noHeader {
		r = r.WithoutHeader()
	}
	return r.Render(results)
}
