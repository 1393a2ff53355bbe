// Package config handles configuration loading and management for mig.
//
// It provides functionality for:
//   - Loading configuration from .mig.config.json, .migrc or .mig.yaml files
//   - Validating config files against an embedded JSON Schema
//   - Default configuration values
//   - Merging configuration layers
package config
