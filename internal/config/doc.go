// Package config loads, validates, and normalizes the Memora TOML
// configuration. Values resolved here are file-level defaults; a subset of
// keys can be overridden at runtime through the system_configs table (see
// the store package).
package config
