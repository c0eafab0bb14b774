package config

import (
	"errors"
	"fmt"
)

var validWhisperDevices = map[string]struct{}{
	"cpu":  {},
	"cuda": {},
	"auto": {},
}

var validWhisperComputeTypes = map[string]struct{}{
	"int8":         {},
	"int8_float16": {},
	"float16":      {},
	"float32":      {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateWhisper(); err != nil {
		return err
	}
	if err := c.validateOllama(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.StorageDir == "" {
		return errors.New("paths.storage_dir must be set")
	}
	if c.Paths.TempDir == "" {
		return errors.New("paths.temp_dir must be set")
	}
	return nil
}

func (c *Config) validateWhisper() error {
	if c.Whisper.Model == "" {
		return errors.New("whisper.model must be set")
	}
	if _, ok := validWhisperDevices[c.Whisper.Device]; !ok {
		return fmt.Errorf("whisper.device must be one of cpu, cuda, auto (got %q)", c.Whisper.Device)
	}
	if _, ok := validWhisperComputeTypes[c.Whisper.ComputeType]; !ok {
		return fmt.Errorf("whisper.compute_type must be one of int8, int8_float16, float16, float32 (got %q)", c.Whisper.ComputeType)
	}
	return nil
}

func (c *Config) validateOllama() error {
	if c.Ollama.URL == "" {
		return errors.New("ollama.url must be set")
	}
	if c.Ollama.Model == "" {
		return errors.New("ollama.model must be set")
	}
	if c.Ollama.TimeoutSeconds <= 0 {
		return errors.New("ollama.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.MaxParallelJobs < 1 {
		return errors.New("workflow.max_parallel_jobs must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}
