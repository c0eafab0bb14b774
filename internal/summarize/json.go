package summarize

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type structuredPayload struct {
	Summary string `json:"summary"`
	Tags    string `json:"tags"`
	Title   string `json:"title"`
}

// decodePayload decodes a structured backend response, tolerating the common
// formatting quirks of small generation models (code fences, prose around
// the object).
func decodePayload(content string) (structuredPayload, error) {
	var payload structuredPayload
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return payload, errors.New("empty payload")
	}

	directErr := json.Unmarshal([]byte(trimmed), &payload)
	if directErr == nil {
		return payload, nil
	}

	sanitized := sanitizeJSONPayload(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return payload, fmt.Errorf("decode payload: %w", directErr)
	}
	if err := json.Unmarshal([]byte(sanitized), &payload); err != nil {
		return payload, fmt.Errorf("decode sanitized payload: %w", err)
	}
	return payload, nil
}

func sanitizeJSONPayload(content string) string {
	trimmed := strings.TrimSpace(stripCodeFence(content))
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '{' {
		return trimmed
	}
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := trimmed[3:]
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
