// Package config loads, normalizes, and validates the TOML configuration
// used by the dubbing pipeline.
package config
