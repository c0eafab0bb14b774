package ollama_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"memora/internal/services"
	"memora/internal/services/ollama"
)

func newClient(url string) *ollama.Client {
	return ollama.NewClient(ollama.Config{BaseURL: url, Model: "gemma2:2b", Timeout: 5 * time.Second})
}

func TestGenerateSingleShot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["stream"] != false {
			t.Errorf("expected stream=false, got %v", req["stream"])
		}
		if req["format"] != "json" {
			t.Errorf("expected format=json, got %v", req["format"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"response": `{"summary":"ok"}`, "done": true})
	}))
	defer server.Close()

	text, err := newClient(server.URL).Generate(context.Background(), "summarize this", true)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != `{"summary":"ok"}` {
		t.Fatalf("unexpected response %q", text)
	}
}

func TestGenerateStreamAccumulates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = w.Write([]byte(`{"response": "a", "done": false}` + "\n"))
		_, _ = w.Write([]byte(`{"response": "b", "done": true}` + "\n"))
	}))
	defer server.Close()

	text, err := newClient(server.URL).GenerateStream(context.Background(), "refine", nil)
	if err != nil {
		t.Fatalf("GenerateStream failed: %v", err)
	}
	if text != "ab" {
		t.Fatalf("unexpected accumulated text %q", text)
	}
}

func TestGenerateNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newClient(server.URL).Generate(context.Background(), "hello", false)
	if !errors.Is(err, services.ErrBackendUnreachable) {
		t.Fatalf("expected ErrBackendUnreachable, got %v", err)
	}
}

func TestGenerateConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := newClient(server.URL).Generate(context.Background(), "hello", false)
	if !errors.Is(err, services.ErrBackendUnreachable) {
		t.Fatalf("expected ErrBackendUnreachable, got %v", err)
	}
}

func TestGenerateMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	_, err := newClient(server.URL).Generate(context.Background(), "hello", false)
	if !errors.Is(err, services.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"models": []any{}})
	}))
	defer server.Close()

	if err := newClient(server.URL).Health(context.Background()); err != nil {
		t.Fatalf("Health failed: %v", err)
	}
}
