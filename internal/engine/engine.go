package engine

import (
	"context"
	"io"
)

// Config identifies a speech-to-text engine instance. Two configs are equal
// when all fields match; equality determines cache hits.
type Config struct {
	ModelSize   string
	Device      string
	ComputeType string
}

// DefaultConfig returns the safe fallback configuration: the smallest model
// on the CPU with the most memory-conservative precision.
func DefaultConfig() Config {
	return Config{
		ModelSize:   "tiny",
		Device:      "cpu",
		ComputeType: "int8",
	}
}

// Segment is a contiguous span of transcribed speech.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// SegmentReader yields transcription segments in order. It is forward-only
// and finite: Next returns io.EOF after the last segment. Close releases any
// underlying resources and is safe to call more than once.
type SegmentReader interface {
	Next() (Segment, error)
	Close() error
}

// Engine is a loaded speech-to-text instance.
type Engine interface {
	// Config reports the configuration the engine was built from.
	Config() Config
	// Transcribe decodes the audio file and returns a segment stream.
	Transcribe(ctx context.Context, audioPath string) (SegmentReader, error)
}

// Factory constructs an engine from a configuration. Construction may fail,
// for example when the requested device is unavailable.
type Factory func(ctx context.Context, cfg Config) (Engine, error)

// SliceReader adapts an in-memory segment slice to the SegmentReader
// contract. Useful for tests and for engines that buffer output.
type SliceReader struct {
	segments []Segment
	pos      int
}

// NewSliceReader returns a reader over the provided segments.
func NewSliceReader(segments []Segment) *SliceReader {
	return &SliceReader{segments: segments}
}

func (r *SliceReader) Next() (Segment, error) {
	if r.pos >= len(r.segments) {
		return Segment{}, io.EOF
	}
	seg := r.segments[r.pos]
	r.pos++
	return seg, nil
}

func (r *SliceReader) Close() error {
	r.pos = len(r.segments)
	return nil
}
