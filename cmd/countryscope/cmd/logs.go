package cmd

import (
	"os"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/spf13/cobra"

	scerrors "github.com/Aman-CERP/countryscope/internal/errors"
	"github.com/Aman-CERP/countryscope/internal/logging"
	"github.com/Aman-CERP/countryscope/internal/ui"
)

func newLogsCmd(g *globals) *cobra.Command {
	var (
		lines   int
		level   string
		pattern string
		follow  bool
		file    string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent log records",
		Long: `Print the tail of ~/.countryscope/logs/countryscope.log in a readable form.

Lookup failures are logged at warn level with their error code, so
"countryscope logs --level warn" lists why searches came back empty.`,
		Example: `  countryscope logs -n 100
  countryscope logs --level warn --grep ERR_30
  countryscope logs -f`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := logging.FindLogFile(file)
			if err != nil {
				return scerrors.New(scerrors.ErrCodeFileNotFound, err.Error(), nil)
			}

			cfg := logging.ViewerConfig{
				Level:   level,
				NoColor: g.noColor || ui.DetectNoColor() || !ui.IsTTY(cmd.OutOrStdout()),
			}
			if pattern != "" {
				re, err := regexp.Compile(pattern)
				if err != nil {
					return scerrors.ValidationError("invalid --grep pattern", err)
				}
				cfg.Pattern = re
			}

			viewer := logging.NewViewer(cfg, cmd.OutOrStdout())
			entries, err := viewer.Tail(path, lines)
			if err != nil {
				return err
			}
			viewer.Print(entries)

			if !follow {
				return nil
			}
			return followLog(cmd, viewer, path)
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to read")
	cmd.Flags().StringVarP(&level, "level", "l", "", "Minimum level: debug, info, warn, error")
	cmd.Flags().StringVarP(&pattern, "grep", "g", "", "Only records matching this regular expression")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new records")
	cmd.Flags().StringVar(&file, "file", "", "Read this log file instead of the default")

	return cmd
}

func followLog(cmd *cobra.Command, viewer *logging.Viewer, path string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	entries := make(chan logging.Entry, 16)
	errCh := make(chan error, 1)
	go func() {
		errCh <- viewer.Follow(ctx, path, entries)
	}()

	for {
		select {
		case e := <-entries:
			viewer.Print([]logging.Entry{e})
		case err := <-errCh:
			return err
		}
	}
}
