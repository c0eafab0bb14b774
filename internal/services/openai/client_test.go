package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"memora/internal/services"
	"memora/internal/services/openai"
)

func newClient(url, key string) *openai.Client {
	return openai.NewClient(openai.Config{APIKey: key, BaseURL: url, Model: "gpt-4o-mini"})
}

func TestCompleteReturnsMessageContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		messages, _ := req["messages"].([]any)
		if len(messages) != 2 {
			t.Errorf("expected system+user messages, got %d", len(messages))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "refined text"}},
			},
		})
	}))
	defer server.Close()

	content, err := newClient(server.URL, "secret").Complete(context.Background(), "sys", "user", false)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if content != "refined text" {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestCompleteRequiresAPIKey(t *testing.T) {
	_, err := newClient("http://localhost:1", "").Complete(context.Background(), "sys", "user", false)
	if !errors.Is(err, services.ErrBackendUnreachable) {
		t.Fatalf("expected ErrBackendUnreachable, got %v", err)
	}
}

func TestCompleteNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newClient(server.URL, "secret").Complete(context.Background(), "sys", "user", false)
	if !errors.Is(err, services.ErrBackendUnreachable) {
		t.Fatalf("expected ErrBackendUnreachable, got %v", err)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	_, err := newClient(server.URL, "secret").Complete(context.Background(), "sys", "user", false)
	if !errors.Is(err, services.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestCompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "invalid model"},
		})
	}))
	defer server.Close()

	_, err := newClient(server.URL, "secret").Complete(context.Background(), "sys", "user", false)
	if !errors.Is(err, services.ErrBackendUnreachable) {
		t.Fatalf("expected ErrBackendUnreachable, got %v", err)
	}
}
