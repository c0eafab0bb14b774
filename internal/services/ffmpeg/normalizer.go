package ffmpeg

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"memora/internal/logging"
	"memora/internal/services"
)

// OptimizedSuffix is appended to the base name of every normalized file.
const OptimizedSuffix = "_optimized.mp3"

// DefaultBinary is the ffmpeg executable name.
const DefaultBinary = "ffmpeg"

// CommandRunner executes an external command. Overridable for tests.
type CommandRunner func(ctx context.Context, name string, args ...string) error

var supportedExtensions = map[string]struct{}{
	".mp3": {},
	".wav": {},
	".m4a": {},
}

// Normalizer converts arbitrary uploaded audio into the canonical format.
type Normalizer struct {
	binary       string
	probeBinary  string
	deleteSource bool
	runner       CommandRunner
	logger       *slog.Logger
}

// Option customizes the normalizer.
type Option func(*Normalizer)

// WithCommandRunner sets a custom command runner (for testing).
func WithCommandRunner(runner CommandRunner) Option {
	return func(n *Normalizer) {
		if runner != nil {
			n.runner = runner
		}
	}
}

// WithDeleteSource controls whether the source file is removed after a
// successful encode. Enabled by default.
func WithDeleteSource(enabled bool) Option {
	return func(n *Normalizer) {
		n.deleteSource = enabled
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// New constructs a normalizer around the given ffmpeg and ffprobe binaries.
func New(binary, probeBinary string, opts ...Option) *Normalizer {
	if binary == "" {
		binary = DefaultBinary
	}
	if probeBinary == "" {
		probeBinary = "ffprobe"
	}
	n := &Normalizer{
		binary:       binary,
		probeBinary:  probeBinary,
		deleteSource: true,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.runner == nil {
		n.runner = runCommand
	}
	return n
}

// OutputPath returns the canonical normalized path for an input file. A base
// name that already carries the optimized marker keeps a single marker.
func OutputPath(inputPath, outputDir string) string {
	base := filepath.Base(inputPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	marker := strings.TrimSuffix(OptimizedSuffix, filepath.Ext(OptimizedSuffix))
	name = strings.TrimSuffix(name, marker)
	return filepath.Join(outputDir, name+OptimizedSuffix)
}

// Normalize converts inputPath into the canonical format under outputDir and
// returns the output path. On success the source file is deleted (unless
// disabled); on any failure the source file is preserved.
func (n *Normalizer) Normalize(ctx context.Context, inputPath, outputDir string) (string, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return "", services.Wrap(services.ErrInputNotFound, "normalizer", "stat", inputPath, err)
	}
	if info.IsDir() {
		return "", services.Wrap(services.ErrInputNotFound, "normalizer", "stat", inputPath+" is a directory", nil)
	}

	// Re-running on our own output is a no-op success: the file is already
	// in the canonical format and must never be deleted or re-encoded. The
	// marker alone is not enough; a matching file outside outputDir still
	// gets encoded into place.
	if strings.HasSuffix(filepath.Base(inputPath), OptimizedSuffix) &&
		filepath.Clean(filepath.Dir(inputPath)) == filepath.Clean(outputDir) {
		return inputPath, nil
	}

	ext := strings.ToLower(filepath.Ext(inputPath))
	if _, ok := supportedExtensions[ext]; !ok {
		return "", services.Wrap(services.ErrEncode, "normalizer", "inspect", fmt.Sprintf("unsupported container %q", ext), nil)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrEncode, "normalizer", "ensure output dir", outputDir, err)
	}

	outputPath := OutputPath(inputPath, outputDir)
	partialPath := filepath.Join(outputDir, "."+filepath.Base(outputPath)+".partial")

	args := encodeArgs(inputPath, partialPath)
	if err := n.runner(ctx, n.binary, args...); err != nil {
		_ = os.Remove(partialPath)
		return "", services.Wrap(services.ErrEncode, "normalizer", "encode", inputPath, err)
	}

	encoded, err := os.Stat(partialPath)
	if err != nil || encoded.Size() == 0 {
		_ = os.Remove(partialPath)
		return "", services.Wrap(services.ErrEncode, "normalizer", "encode", "ffmpeg produced no output for "+inputPath, err)
	}

	// Rename before removing the source so an abort between the two steps
	// leaves both copies rather than neither.
	if err := os.Rename(partialPath, outputPath); err != nil {
		_ = os.Remove(partialPath)
		return "", services.Wrap(services.ErrEncode, "normalizer", "finalize", outputPath, err)
	}

	if n.deleteSource {
		if err := os.Remove(inputPath); err != nil {
			n.logger.Warn("failed to remove source after encode",
				logging.String("source", inputPath),
				logging.Error(err),
			)
		}
	}

	n.logger.Info("audio normalized",
		logging.String("source", inputPath),
		logging.String("output", outputPath),
		logging.Int64("output_bytes", encoded.Size()),
	)
	return outputPath, nil
}

// Duration probes the playback length of an audio file in seconds. Probing is
// best-effort: callers should treat 0 as unknown.
func (n *Normalizer) Duration(ctx context.Context, path string) float64 {
	out, err := probeOutput(ctx, n.probeBinary, path)
	if err != nil {
		n.logger.Debug("duration probe failed", logging.String("path", path), logging.Error(err))
		return 0
	}
	var seconds float64
	if _, err := fmt.Sscanf(strings.TrimSpace(out), "%f", &seconds); err != nil || seconds < 0 {
		return 0
	}
	return seconds
}

func encodeArgs(source, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-af", "loudnorm,highpass=f=200",
		"-b:a", "64k",
		"-f", "mp3",
		dest,
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func probeOutput(ctx context.Context, binary, path string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, //nolint:gosec
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s: %w", binary, err)
	}
	return string(output), nil
}
