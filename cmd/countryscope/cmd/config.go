package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/countryscope/configs"
	"github.com/Aman-CERP/countryscope/internal/config"
	scerrors "github.com/Aman-CERP/countryscope/internal/errors"
	"github.com/Aman-CERP/countryscope/internal/output"
)

func newConfigCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage user configuration",
		Long: `Manage the user configuration file.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/countryscope/config.yaml)
  3. Environment variables (COUNTRYSCOPE_*)
  4. Command-line flags`,
		Example: `  # Create user config from template
  countryscope config init

  # Show effective configuration
  countryscope config show

  # Print user config file path
  countryscope config path`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd(g))
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create user configuration file",
		Long: `Write the documented configuration template to the user config path.

With --force an existing file is backed up next to it (the newest three
backups are kept) and then replaced.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	out := output.New(cmd.OutOrStdout())
	path := config.GetUserConfigPath()

	if config.UserConfigExists() {
		if !force {
			return scerrors.New(scerrors.ErrCodeInvalidInput, "config already exists at "+path, nil).
				WithSuggestion("use --force to overwrite (a backup is kept)")
		}
		backup, err := config.BackupUserConfig()
		if err != nil {
			return err
		}
		out.Statusf("→", "backed up existing config to %s", backup)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return scerrors.New(scerrors.ErrCodeConfigPermission, "cannot create config directory", err)
	}
	if err := os.WriteFile(path, []byte(configs.UserConfigTemplate), 0o644); err != nil {
		return scerrors.New(scerrors.ErrCodeConfigPermission, "cannot write config", err)
	}

	out.Successf("created %s", path)
	return nil
}

func newConfigShowCmd(g *globals) *cobra.Command {
	var (
		jsonOutput bool
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long: `Show the configuration after applying defaults, the user config file and COUNTRYSCOPE_* variables.

With --output the effective configuration is written to a YAML file instead,
which pins the current environment overrides into a config file.`,
		Example: `  countryscope config show
  COUNTRYSCOPE_DEBOUNCE=150ms countryscope config show -o ./countryscope.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(g.configPath)
			if err != nil {
				return err
			}

			if outPath != "" {
				if err := cfg.WriteYAML(outPath); err != nil {
					return scerrors.New(scerrors.ErrCodeConfigPermission, "cannot write "+outPath, err)
				}
				output.New(cmd.OutOrStdout()).Successf("wrote %s", outPath)
				return nil
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Write the effective config as YAML to this file")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print user config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}
}
