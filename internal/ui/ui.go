// Package ui renders country search results: an interactive bubbletea
// search screen for terminals and a tab-aligned plain renderer for pipes
// and CI.
package ui

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Config configures the UI.
type Config struct {
	Output     io.Writer
	Input      io.Reader
	ForcePlain bool
	NoColor    bool
	// InitialQuery pre-fills the search box.
	InitialQuery string
}

// ConfigOption is a function that modifies Config.
type ConfigOption func(*Config)

// WithForcePlain forces plain text output.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) {
		c.ForcePlain = force
	}
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) {
		c.NoColor = noColor
	}
}

// WithInput sets the keyboard source for the TUI.
func WithInput(r io.Reader) ConfigOption {
	return func(c *Config) {
		c.Input = r
	}
}

// WithInitialQuery pre-fills the search box.
func WithInitialQuery(q string) ConfigOption {
	return func(c *Config) {
		c.InitialQuery = q
	}
}

// NewConfig creates a new Config with the given output and options.
// NO_COLOR in the environment disables color regardless of options.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{
		Output: output,
		Input:  os.Stdin,
	}

	for _, opt := range opts {
		opt(&cfg)
	}
	if DetectNoColor() {
		cfg.NoColor = true
	}

	return cfg
}

// Interactive reports whether cfg can host the TUI: a real terminal,
// outside CI, and not forced plain.
func (c Config) Interactive() bool {
	return !c.ForcePlain && IsTTY(c.Output) && !DetectCI()
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}

	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"}
	for _, v := range ciVars {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
