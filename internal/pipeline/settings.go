package pipeline

import (
	"context"
	"strconv"
	"strings"

	"memora/internal/config"
	"memora/internal/engine"
)

// Settings are the runtime knobs resolved from the system_configs table with
// the file configuration supplying defaults. They are re-read per job so a
// settings change takes effect without a restart.
type Settings struct {
	Engine      engine.Config
	OllamaURL   string
	OllamaModel string
	APIKey      string
	AutoDelete  bool
}

// Keys recognized in the system_configs table.
const (
	KeyWhisperModel   = "whisper_model"
	KeyWhisperDevice  = "whisper_device"
	KeyWhisperCompute = "whisper_compute"
	KeyOllamaURL      = "ollama_url"
	KeyOllamaModel    = "ollama_model"
	KeyAPIKey         = "api_key"
	KeyAutoDelete     = "auto_delete"
)

// SettingsReader is the subset of the store the resolver needs.
type SettingsReader interface {
	GetConfig(ctx context.Context, key string) (string, bool, error)
}

// ResolveSettings overlays stored system settings onto the file config
// defaults. A missing key keeps the default; a read error surfaces.
func ResolveSettings(ctx context.Context, reader SettingsReader, cfg *config.Config) (Settings, error) {
	settings := Settings{
		Engine: engine.Config{
			ModelSize:   cfg.Whisper.Model,
			Device:      cfg.Whisper.Device,
			ComputeType: cfg.Whisper.ComputeType,
		},
		OllamaURL:   cfg.Ollama.URL,
		OllamaModel: cfg.Ollama.Model,
		APIKey:      cfg.Fallback.APIKey,
		AutoDelete:  cfg.Workflow.AutoDelete,
	}
	if reader == nil {
		return settings, nil
	}

	assign := func(key string, target *string) error {
		value, ok, err := reader.GetConfig(ctx, key)
		if err != nil {
			return err
		}
		if ok && strings.TrimSpace(value) != "" {
			*target = strings.TrimSpace(value)
		}
		return nil
	}

	for key, target := range map[string]*string{
		KeyWhisperModel:   &settings.Engine.ModelSize,
		KeyWhisperDevice:  &settings.Engine.Device,
		KeyWhisperCompute: &settings.Engine.ComputeType,
		KeyOllamaURL:      &settings.OllamaURL,
		KeyOllamaModel:    &settings.OllamaModel,
		KeyAPIKey:         &settings.APIKey,
	} {
		if err := assign(key, target); err != nil {
			return Settings{}, err
		}
	}

	if value, ok, err := reader.GetConfig(ctx, KeyAutoDelete); err != nil {
		return Settings{}, err
	} else if ok {
		if parsed, parseErr := strconv.ParseBool(strings.TrimSpace(value)); parseErr == nil {
			settings.AutoDelete = parsed
		}
	}

	return settings, nil
}
