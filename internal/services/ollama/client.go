package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"memora/internal/services"
)

const defaultTimeout = 120 * time.Second

// Config captures the runtime settings required to talk to the backend.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client wraps the /api/generate endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a backend client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &Client{
		cfg: Config{
			BaseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:   strings.TrimSpace(cfg.Model),
			Timeout: timeout,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate issues a single-shot request and returns the full response text.
// jsonFormat forces the backend into JSON output mode.
func (c *Client) Generate(ctx context.Context, prompt string, jsonFormat bool) (string, error) {
	body, err := c.post(ctx, generateRequest{
		Model:  c.cfg.Model,
		Prompt: prompt,
		Stream: false,
		Format: formatField(jsonFormat),
	})
	if err != nil {
		return "", err
	}
	defer body.Close()

	payload, err := io.ReadAll(body)
	if err != nil {
		return "", services.Wrap(services.ErrBackendUnreachable, "ollama", "read response", "", err)
	}
	var decoded generateResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", services.Wrap(services.ErrMalformedResponse, "ollama", "decode response", summarize(payload), err)
	}
	return decoded.Response, nil
}

// GenerateStream issues a streaming request, invoking fn for every text delta
// in arrival order, and returns the accumulated text. Malformed stream
// fragments are skipped. fn may be nil.
func (c *Client) GenerateStream(ctx context.Context, prompt string, fn func(delta string)) (string, error) {
	body, err := c.post(ctx, generateRequest{
		Model:  c.cfg.Model,
		Prompt: prompt,
		Stream: true,
	})
	if err != nil {
		return "", err
	}
	defer body.Close()

	text, _, err := DecodeStream(ctx, body, fn)
	if err != nil {
		return "", services.Wrap(services.ErrBackendUnreachable, "ollama", "read stream", "", err)
	}
	return text, nil
}

// Health verifies the backend is reachable by listing installed models.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/api/tags", nil)
	if err != nil {
		return services.Wrap(services.ErrBackendUnreachable, "ollama", "new request", "", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrBackendUnreachable, "ollama", "health", c.cfg.BaseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrBackendUnreachable, "ollama", "health", fmt.Sprintf("http %d", resp.StatusCode), nil)
	}
	return nil
}

func (c *Client) post(ctx context.Context, payload generateRequest) (io.ReadCloser, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, services.Wrap(services.ErrBackendUnreachable, "ollama", "encode request", "", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/generate", bytes.NewReader(encoded))
	if err != nil {
		return nil, services.Wrap(services.ErrBackendUnreachable, "ollama", "new request", "", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrBackendUnreachable, "ollama", "generate", c.cfg.BaseURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, services.Wrap(
			services.ErrBackendUnreachable,
			"ollama", "generate",
			fmt.Sprintf("http %d: %s", resp.StatusCode, summarize(body)),
			nil,
		)
	}
	return resp.Body, nil
}

func formatField(jsonFormat bool) string {
	if jsonFormat {
		return "json"
	}
	return ""
}

func summarize(payload []byte) string {
	clean := strings.Join(strings.Fields(string(payload)), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
