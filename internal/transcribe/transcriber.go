// Package transcribe drives a loaded speech-to-text engine over a normalized
// audio file and materializes the segment stream into a full transcript.
package transcribe

import (
	"context"
	"errors"
	"io"
	"strings"

	"memora/internal/engine"
	"memora/internal/services"
)

// Result is a fully materialized transcription.
type Result struct {
	FullText string
	Segments []engine.Segment
}

// Run consumes the engine's segment stream in order. Segment text fragments
// are concatenated with single spaces to form FullText. Any stream error
// discards the partial segments; persistence decisions belong to the caller.
func Run(ctx context.Context, eng engine.Engine, audioPath string) (Result, error) {
	var result Result

	if eng == nil {
		return result, services.Wrap(services.ErrTranscription, "transcriber", "run", "engine required", nil)
	}

	reader, err := eng.Transcribe(ctx, audioPath)
	if err != nil {
		if errors.Is(err, services.ErrTranscription) {
			return result, err
		}
		return result, services.Wrap(services.ErrTranscription, "transcriber", "invoke engine", audioPath, err)
	}
	defer reader.Close()

	var parts []string
	var segments []engine.Segment
	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		seg, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, services.Wrap(services.ErrTranscription, "transcriber", "read segments", audioPath, err)
		}
		seg.Text = strings.TrimSpace(seg.Text)
		if seg.End < seg.Start {
			seg.End = seg.Start
		}
		if len(segments) > 0 && seg.Start < segments[len(segments)-1].Start {
			return Result{}, services.Wrap(services.ErrTranscription, "transcriber", "read segments", "segments out of order", nil)
		}
		segments = append(segments, seg)
		if seg.Text != "" {
			parts = append(parts, seg.Text)
		}
	}

	result.Segments = segments
	result.FullText = strings.Join(parts, " ")
	return result, nil
}
