package whisper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"memora/internal/engine"
	"memora/internal/services"
)

// DefaultBinary is the faster-whisper CLI executable name.
const DefaultBinary = "whisper-ctranslate2"

// BeamSize is the fixed search-beam width used for reproducible decoding.
const BeamSize = "5"

// CommandRunner executes an external command. Overridable for tests.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Options configures the engine factory.
type Options struct {
	// Binary is the CLI executable. Defaults to DefaultBinary.
	Binary string
	// WorkDir receives per-transcription scratch directories.
	WorkDir string
	// Runner overrides subprocess execution (for testing).
	Runner CommandRunner
}

var knownModelSizes = map[string]struct{}{
	"tiny": {}, "base": {}, "small": {}, "medium": {},
	"large-v2": {}, "large-v3": {}, "large-v3-turbo": {},
}

// Factory returns an engine.Factory that builds CLI-backed engines.
// Construction verifies the tool and the requested device up front so load
// problems surface at cache time rather than mid-transcription; an
// accelerated device without a visible CUDA runtime fails construction.
func Factory(opts Options) engine.Factory {
	binary := opts.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	runner := opts.Runner
	return func(ctx context.Context, cfg engine.Config) (engine.Engine, error) {
		if _, ok := knownModelSizes[cfg.ModelSize]; !ok {
			return nil, fmt.Errorf("unknown model size %q", cfg.ModelSize)
		}
		// A fake runner stands in for the whole toolchain in tests.
		if runner == nil {
			if _, err := exec.LookPath(binary); err != nil {
				return nil, fmt.Errorf("locate %s: %w", binary, err)
			}
			if cfg.Device == "cuda" {
				if _, err := exec.LookPath("nvidia-smi"); err != nil {
					return nil, fmt.Errorf("cuda device unavailable: %w", err)
				}
			}
		}
		eng := &Engine{cfg: cfg, binary: binary, workDir: opts.WorkDir, runner: runner}
		if eng.runner == nil {
			eng.runner = runCommand
		}
		return eng, nil
	}
}

// Engine drives the whisper CLI for a fixed configuration.
type Engine struct {
	cfg     engine.Config
	binary  string
	workDir string
	runner  CommandRunner
}

// Config reports the configuration the engine was built from.
func (e *Engine) Config() engine.Config { return e.cfg }

// Transcribe runs the CLI over the audio file and returns a lazy segment
// stream decoded from its JSON output. The stream owns a scratch directory
// that is removed on Close.
func (e *Engine) Transcribe(ctx context.Context, audioPath string) (engine.SegmentReader, error) {
	if audioPath == "" {
		return nil, services.Wrap(services.ErrTranscription, "whisper", "transcribe", "audio path required", nil)
	}

	scratch, err := os.MkdirTemp(e.workDir, "stt-")
	if err != nil {
		return nil, services.Wrap(services.ErrTranscription, "whisper", "scratch dir", "", err)
	}

	args := e.buildArgs(audioPath, scratch)
	if err := e.runner(ctx, e.binary, args...); err != nil {
		_ = os.RemoveAll(scratch)
		return nil, services.Wrap(services.ErrTranscription, "whisper", "transcribe", audioPath, err)
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonPath := filepath.Join(scratch, base+".json")
	reader, err := openSegmentFile(jsonPath, scratch)
	if err != nil {
		_ = os.RemoveAll(scratch)
		return nil, services.Wrap(services.ErrTranscription, "whisper", "read output", jsonPath, err)
	}
	return reader, nil
}

func (e *Engine) buildArgs(audioPath, outputDir string) []string {
	return []string{
		audioPath,
		"--model", e.cfg.ModelSize,
		"--device", e.cfg.Device,
		"--compute_type", e.cfg.ComputeType,
		"--beam_size", BeamSize,
		"--temperature", "0",
		"--output_format", "json",
		"--output_dir", outputDir,
		"--verbose", "False",
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
