package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInputNotFound marks failures caused by a missing or unreadable input file.
	ErrInputNotFound = errors.New("input not found")
	// ErrEncode marks audio tool failures (ffmpeg exit errors, empty output).
	ErrEncode = errors.New("encode error")
	// ErrEngineUnavailable marks failed engine construction after the safe
	// default fallback was also attempted.
	ErrEngineUnavailable = errors.New("engine unavailable")
	// ErrTranscription marks speech-to-text invocation failures.
	ErrTranscription = errors.New("transcription error")
	// ErrBackendUnreachable marks network, timeout, and non-success HTTP
	// responses from generation backends.
	ErrBackendUnreachable = errors.New("backend unreachable")
	// ErrMalformedResponse marks undecodable backend payloads.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrPersistence marks database write failures.
	ErrPersistence = errors.New("persistence error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		if err != nil {
			return fmt.Errorf("%s: %w", detail, err)
		}
		return errors.New(detail)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns the short classification name for an error, or "unknown" when
// the error carries no taxonomy marker.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInputNotFound):
		return "input_not_found"
	case errors.Is(err, ErrEncode):
		return "encode"
	case errors.Is(err, ErrEngineUnavailable):
		return "engine_unavailable"
	case errors.Is(err, ErrTranscription):
		return "transcription"
	case errors.Is(err, ErrBackendUnreachable):
		return "backend_unreachable"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	default:
		return "unknown"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
