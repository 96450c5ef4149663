// Package config loads and validates the cleanvid TOML configuration file,
// providing per-job defaults for values the command line does not override.
package config
