// Package configs embeds the documented example configuration that
// `countryscope config init` writes to the user config path.
//
// Configuration hierarchy (see internal/config Load):
//  1. Hardcoded defaults (internal/config NewConfig)
//  2. User config (~/.config/countryscope/config.yaml)
//  3. Environment variables (COUNTRYSCOPE_*)
//  4. Command-line flags
package configs

import _ "embed"

// UserConfigTemplate is the commented template for the user configuration.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string
