package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"memora/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := (&cfg).Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing config file")
	}
	if resolved != path {
		t.Fatalf("resolved path %q, want %q", resolved, path)
	}
	if cfg.Ollama.Model != "gemma2:2b" {
		t.Fatalf("unexpected default ollama model %q", cfg.Ollama.Model)
	}
	if !cfg.Workflow.AutoDelete {
		t.Fatal("auto_delete should default to true")
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[paths]
storage_dir = "` + filepath.Join(dir, "storage") + `"
temp_dir = "` + filepath.Join(dir, "temp") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[whisper]
device = "CUDA"
compute_type = "Float16"

[ollama]
url = "http://localhost:11434/"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Whisper.Device != "cuda" {
		t.Fatalf("device not lowercased: %q", cfg.Whisper.Device)
	}
	if cfg.Whisper.ComputeType != "float16" {
		t.Fatalf("compute type not lowercased: %q", cfg.Whisper.ComputeType)
	}
	if strings.HasSuffix(cfg.Ollama.URL, "/") {
		t.Fatalf("ollama url should have trailing slash trimmed: %q", cfg.Ollama.URL)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"bad device", func(c *config.Config) { c.Whisper.Device = "tpu" }},
		{"bad compute", func(c *config.Config) { c.Whisper.ComputeType = "bf16" }},
		{"empty ollama url", func(c *config.Config) { c.Ollama.URL = "" }},
		{"zero timeout", func(c *config.Config) { c.Ollama.TimeoutSeconds = 0 }},
		{"zero jobs", func(c *config.Config) { c.Workflow.MaxParallelJobs = 0 }},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "logfmt" }},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "trace" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := (&cfg).Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load of sample failed: %v", err)
	}
	if !exists {
		t.Fatal("sample config should exist")
	}
	if cfg.Whisper.Model != "base" {
		t.Fatalf("unexpected sample whisper model %q", cfg.Whisper.Model)
	}
}
