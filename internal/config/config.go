// Package config loads countryscope settings from defaults, the user config
// file and COUNTRYSCOPE_* environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	scerrors "github.com/Aman-CERP/countryscope/internal/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "COUNTRYSCOPE_"

// Config represents the complete countryscope configuration.
type Config struct {
	Version int          `yaml:"version" json:"version"`
	API     APIConfig    `yaml:"api" json:"api"`
	Cache   CacheConfig  `yaml:"cache" json:"cache"`
	Search  SearchConfig `yaml:"search" json:"search"`
	Server  ServerConfig `yaml:"server" json:"server"`
	Log     LogConfig    `yaml:"log" json:"log"`
	UI      UIConfig     `yaml:"ui" json:"ui"`
}

// APIConfig configures the upstream REST Countries client.
type APIConfig struct {
	// BaseURL is the API root; /name/{query} is appended.
	BaseURL string `yaml:"base_url" json:"base_url"`
	// Timeout bounds a single upstream request.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// MaxFailures trips the circuit breaker after this many consecutive failures.
	MaxFailures int `yaml:"max_failures" json:"max_failures"`
	// ResetTimeout is how long the breaker stays open before probing again.
	ResetTimeout time.Duration `yaml:"reset_timeout" json:"reset_timeout"`
}

// CacheConfig configures the lookup cache.
type CacheConfig struct {
	// Size is the maximum number of distinct queries kept.
	Size int `yaml:"size" json:"size"`
	// TTL expires entries; 0 keeps them for the life of the process.
	TTL time.Duration `yaml:"ttl" json:"ttl"`
	// FoldCase makes "France" and "france" share one entry.
	FoldCase bool `yaml:"fold_case" json:"fold_case"`
}

// SearchConfig configures the interactive search box.
type SearchConfig struct {
	// Debounce is the quiet period before a query is looked up.
	Debounce time.Duration `yaml:"debounce" json:"debounce"`
}

// ServerConfig configures `countryscope serve`.
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// LogConfig configures file logging.
type LogConfig struct {
	Level     string `yaml:"level" json:"level"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// UIConfig configures terminal rendering.
type UIConfig struct {
	NoColor bool `yaml:"no_color" json:"no_color"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		API: APIConfig{
			BaseURL:      "https://restcountries.com/v3.1",
			Timeout:      10 * time.Second,
			MaxFailures:  5,
			ResetTimeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			Size:     256,
			TTL:      0, // session-long, like the browser app it replaces
			FoldCase: false,
		},
		Search: SearchConfig{
			Debounce: 300 * time.Millisecond,
		},
		Server: ServerConfig{
			Addr: ":8000",
		},
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/countryscope/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/countryscope/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "countryscope", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "countryscope", "config.yaml")
	}
	return filepath.Join(home, ".config", "countryscope", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load builds the effective configuration. Precedence, lowest first:
//  1. Hardcoded defaults
//  2. The YAML file at path (the user config when path is empty)
//  3. Environment variables (COUNTRYSCOPE_*)
//
// A missing user config is fine; a missing explicit path is an error.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	explicit := path != ""
	if !explicit {
		path = GetUserConfigPath()
	}

	if fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	} else if explicit {
		return nil, scerrors.New(scerrors.ErrCodeConfigNotFound, "config file not found: "+path, nil)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadYAML decodes path over the current values; keys absent from the
// file keep whatever c already holds.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return scerrors.New(scerrors.ErrCodeConfigPermission, "cannot read config file "+path, err)
		}
		return scerrors.New(scerrors.ErrCodeFileNotFound, "failed to read config file "+path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return scerrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err).
			WithSuggestion("run 'countryscope config init --force' to regenerate it")
	}
	return nil
}

// applyEnvOverrides applies COUNTRYSCOPE_* environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvPrefix + "API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if err := envDuration("TIMEOUT", &c.API.Timeout); err != nil {
		return err
	}
	if err := envDuration("DEBOUNCE", &c.Search.Debounce); err != nil {
		return err
	}
	if err := envDuration("CACHE_TTL", &c.Cache.TTL); err != nil {
		return err
	}
	if v := os.Getenv(EnvPrefix + "CACHE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return envError("CACHE_SIZE", v, err)
		}
		c.Cache.Size = n
	}
	if v := os.Getenv(EnvPrefix + "CACHE_FOLD_CASE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return envError("CACHE_FOLD_CASE", v, err)
		}
		c.Cache.FoldCase = b
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvPrefix + "SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	return nil
}

func envDuration(name string, dst *time.Duration) error {
	v := os.Getenv(EnvPrefix + name)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return envError(name, v, err)
	}
	*dst = d
	return nil
}

func envError(name, value string, err error) error {
	return scerrors.ConfigError(fmt.Sprintf("invalid %s%s=%q", EnvPrefix, name, value), err)
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return scerrors.ConfigError(fmt.Sprintf("api.base_url must be an absolute http(s) URL, got %q", c.API.BaseURL), err).
			WithSuggestion("use https://restcountries.com/v3.1")
	}
	if c.API.Timeout <= 0 {
		return scerrors.ConfigError(fmt.Sprintf("api.timeout must be positive, got %s", c.API.Timeout), nil)
	}
	if c.API.MaxFailures <= 0 {
		return scerrors.ConfigError(fmt.Sprintf("api.max_failures must be positive, got %d", c.API.MaxFailures), nil)
	}
	if c.API.ResetTimeout <= 0 {
		return scerrors.ConfigError(fmt.Sprintf("api.reset_timeout must be positive, got %s", c.API.ResetTimeout), nil)
	}
	if c.Cache.Size <= 0 {
		return scerrors.ConfigError(fmt.Sprintf("cache.size must be positive, got %d", c.Cache.Size), nil)
	}
	if c.Cache.TTL < 0 {
		return scerrors.ConfigError(fmt.Sprintf("cache.ttl must not be negative, got %s", c.Cache.TTL), nil)
	}
	if c.Search.Debounce <= 0 {
		return scerrors.ConfigError(fmt.Sprintf("search.debounce must be positive, got %s", c.Search.Debounce), nil)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return scerrors.ConfigError(fmt.Sprintf("log.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Log.Level), nil)
	}
	if c.Log.MaxSizeMB <= 0 || c.Log.MaxFiles <= 0 {
		return scerrors.ConfigError("log.max_size_mb and log.max_files must be positive", nil)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
