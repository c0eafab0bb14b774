package testsupport

import (
	"path/filepath"
	"testing"

	"memora/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StorageDir = filepath.Join(base, "storage")
	cfg.Paths.TempDir = filepath.Join(base, "temp")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithOllamaURL overrides the local backend URL on the test config.
func WithOllamaURL(url string) ConfigOption {
	return func(c *config.Config) {
		c.Ollama.URL = url
	}
}

// WithFallbackKey sets the remote fallback credential on the test config.
func WithFallbackKey(key string) ConfigOption {
	return func(c *config.Config) {
		c.Fallback.APIKey = key
	}
}
