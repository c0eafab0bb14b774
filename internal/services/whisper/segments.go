package whisper

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"memora/internal/engine"
)

// segmentReader lazily decodes segments out of a whisper JSON output file.
// The file layout is {"text": ..., "segments": [...], ...}; the reader walks
// top-level keys with a token decoder and streams the segments array without
// materializing it.
type segmentReader struct {
	file    *os.File
	scratch string
	dec     *json.Decoder
	inArray bool
	done    bool
}

func openSegmentFile(jsonPath, scratchDir string) (engine.SegmentReader, error) {
	file, err := os.Open(jsonPath)
	if err != nil {
		return nil, err
	}
	r := &segmentReader{file: file, scratch: scratchDir, dec: json.NewDecoder(file)}
	if err := r.seekSegments(); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

// seekSegments positions the decoder just inside the "segments" array.
func (r *segmentReader) seekSegments() error {
	tok, err := r.dec.Token()
	if err != nil {
		return fmt.Errorf("decode output: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decode output: expected object, got %v", tok)
	}

	for r.dec.More() {
		keyTok, err := r.dec.Token()
		if err != nil {
			return fmt.Errorf("decode output key: %w", err)
		}
		key, _ := keyTok.(string)
		if key != "segments" {
			var skipped json.RawMessage
			if err := r.dec.Decode(&skipped); err != nil {
				return fmt.Errorf("skip %q value: %w", key, err)
			}
			continue
		}
		tok, err := r.dec.Token()
		if err != nil {
			return fmt.Errorf("decode segments open: %w", err)
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			return fmt.Errorf("decode segments: expected array, got %v", tok)
		}
		r.inArray = true
		return nil
	}
	// No segments key at all: treat as an empty stream.
	r.done = true
	return nil
}

func (r *segmentReader) Next() (engine.Segment, error) {
	if r.done || !r.inArray {
		return engine.Segment{}, io.EOF
	}
	if !r.dec.More() {
		r.done = true
		return engine.Segment{}, io.EOF
	}
	var seg engine.Segment
	if err := r.dec.Decode(&seg); err != nil {
		r.done = true
		return engine.Segment{}, fmt.Errorf("decode segment: %w", err)
	}
	return seg, nil
}

func (r *segmentReader) Close() error {
	r.done = true
	var err error
	if r.file != nil {
		err = r.file.Close()
		r.file = nil
	}
	if r.scratch != "" {
		_ = os.RemoveAll(r.scratch)
		r.scratch = ""
	}
	return err
}
