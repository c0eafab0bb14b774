package ollama

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
)

// maxLineBytes bounds a single stream fragment. Deltas are tiny; a huge line
// indicates a broken peer rather than a legitimate response.
const maxLineBytes = 1 << 20

// DecodeStream consumes a newline-delimited JSON stream of generate
// fragments, accumulating the text deltas in arrival order. fn, when
// non-nil, observes each delta as it arrives. A line that fails to decode is
// skipped rather than treated as fatal; the skipped count is returned. The
// stream ends at EOF or at a fragment with done=true.
func DecodeStream(ctx context.Context, r io.Reader, fn func(delta string)) (string, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var builder strings.Builder
	skipped := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return builder.String(), skipped, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var fragment generateResponse
		if err := json.Unmarshal([]byte(line), &fragment); err != nil {
			skipped++
			continue
		}
		if fragment.Response != "" {
			builder.WriteString(fragment.Response)
			if fn != nil {
				fn(fragment.Response)
			}
		}
		if fragment.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return builder.String(), skipped, err
	}
	return builder.String(), skipped, nil
}
