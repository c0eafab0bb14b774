package transcribe_test

import (
	"context"
	"errors"
	"testing"

	"memora/internal/engine"
	"memora/internal/services"
	"memora/internal/transcribe"
)

type scriptedEngine struct {
	cfg      engine.Config
	segments []engine.Segment
	err      error
}

func (s *scriptedEngine) Config() engine.Config { return s.cfg }

func (s *scriptedEngine) Transcribe(ctx context.Context, audioPath string) (engine.SegmentReader, error) {
	if s.err != nil {
		return nil, s.err
	}
	return engine.NewSliceReader(s.segments), nil
}

func TestRunJoinsTextWithSingleSpaces(t *testing.T) {
	eng := &scriptedEngine{segments: []engine.Segment{
		{Start: 0, End: 1.5, Text: "  hello "},
		{Start: 1.5, End: 2.5, Text: "world"},
		{Start: 2.5, End: 2.5, Text: ""},
		{Start: 3, End: 4, Text: "again"},
	}}

	result, err := transcribe.Run(context.Background(), eng, "audio.mp3")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.FullText != "hello world again" {
		t.Fatalf("unexpected full text %q", result.FullText)
	}
	if len(result.Segments) != 4 {
		t.Fatalf("expected all segments materialized, got %d", len(result.Segments))
	}
}

func TestRunEnforcesSegmentInvariants(t *testing.T) {
	eng := &scriptedEngine{segments: []engine.Segment{
		{Start: 2.0, End: 1.0, Text: "clamped"},
		{Start: 3.0, End: 4.0, Text: "next"},
	}}

	result, err := transcribe.Run(context.Background(), eng, "audio.mp3")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for i, seg := range result.Segments {
		if seg.End < seg.Start {
			t.Fatalf("segment %d violates end >= start: %+v", i, seg)
		}
	}
	for i := 1; i < len(result.Segments); i++ {
		if result.Segments[i].Start < result.Segments[i-1].Start {
			t.Fatalf("segment %d out of order", i)
		}
	}
}

func TestRunRejectsOutOfOrderStream(t *testing.T) {
	eng := &scriptedEngine{segments: []engine.Segment{
		{Start: 5, End: 6, Text: "later"},
		{Start: 1, End: 2, Text: "earlier"},
	}}

	_, err := transcribe.Run(context.Background(), eng, "audio.mp3")
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected ErrTranscription for out-of-order stream, got %v", err)
	}
}

func TestRunSurfacesEngineFailure(t *testing.T) {
	eng := &scriptedEngine{err: errors.New("decoder crashed")}

	result, err := transcribe.Run(context.Background(), eng, "audio.mp3")
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected ErrTranscription, got %v", err)
	}
	if result.FullText != "" || len(result.Segments) != 0 {
		t.Fatalf("partial results must be discarded on failure: %+v", result)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := &scriptedEngine{segments: []engine.Segment{{Start: 0, End: 1, Text: "x"}}}
	if _, err := transcribe.Run(ctx, eng, "audio.mp3"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
