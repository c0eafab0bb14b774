package summarize

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"memora/internal/logging"
	"memora/internal/services"
	"memora/internal/services/ollama"
	"memora/internal/services/openai"
)

// Source identifies which backend produced a result.
type Source string

const (
	// SourceLocal is the primary local generation backend.
	SourceLocal Source = "local"
	// SourceFallback is the remote chat-completion backend.
	SourceFallback Source = "fallback"
	// SourceNone means no backend produced the result (guard or sentinel).
	SourceNone Source = "none"
)

// Sentinel summaries for results produced without a backend.
const (
	TooShortSummary    = "content too short"
	NoEngineSummary    = "no engine available"
	FormatErrorSummary = "format error"
)

// minTextLength is the guard threshold below which no backend is consulted.
const minTextLength = 10

// Result is the outcome of a summarization request. Empty fields mean the
// backend did not produce that part; Source reports where it came from.
type Result struct {
	Summary string
	Tags    string
	Title   string
	Refined string
	Source  Source
}

// Sentinel reports whether the result was produced without any backend.
func (r Result) Sentinel() bool { return r.Source == SourceNone }

// Service runs the ordered backend chain.
type Service struct {
	local  *ollama.Client
	remote *openai.Client
	logger *slog.Logger

	// onDelta observes streamed text deltas in arrival order, when set.
	onDelta func(string)
}

// Option customizes the service.
type Option func(*Service)

// WithDeltaObserver registers a callback for streamed text deltas.
func WithDeltaObserver(fn func(string)) Option {
	return func(s *Service) {
		s.onDelta = fn
	}
}

// New constructs the summarizer. remote may be an unconfigured client; it is
// only consulted when a credential is present.
func New(local *ollama.Client, remote *openai.Client, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		local:  local,
		remote: remote,
		logger: logging.NewComponentLogger(logger, "summarizer"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Summarize runs the fallback chain for the given text and mode. The only
// error it returns is context cancellation; every backend failure resolves
// into a result, degraded or sentinel.
func (s *Service) Summarize(ctx context.Context, text string, mode Mode) (Result, error) {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < minTextLength {
		return Result{Summary: TooShortSummary, Source: SourceNone}, nil
	}

	attempts := s.chain(mode, trimmed)
	for _, att := range attempts {
		result, err := att.run(ctx)
		if err == nil {
			result.Source = att.source
			return result, nil
		}
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Result{}, err
		}
		s.logger.Warn("backend attempt failed",
			logging.String("backend", string(att.source)),
			logging.String("error_kind", services.Kind(err)),
			logging.Error(err),
		)
	}

	return Result{Summary: NoEngineSummary, Source: SourceNone}, nil
}

type attempt struct {
	source Source
	run    func(context.Context) (Result, error)
}

// chain builds the ordered attempt list: local first, remote only when a
// credential is configured.
func (s *Service) chain(mode Mode, text string) []attempt {
	attempts := make([]attempt, 0, 2)
	if s.local != nil {
		attempts = append(attempts, attempt{source: SourceLocal, run: func(ctx context.Context) (Result, error) {
			return s.runLocal(ctx, mode, text)
		}})
	}
	if s.remote.Configured() {
		attempts = append(attempts, attempt{source: SourceFallback, run: func(ctx context.Context) (Result, error) {
			return s.runRemote(ctx, mode, text)
		}})
	}
	return attempts
}

func (s *Service) runLocal(ctx context.Context, mode Mode, text string) (Result, error) {
	prompt := buildPrompt(mode, text)
	if mode.structured() {
		raw, err := s.local.Generate(ctx, prompt, true)
		if err != nil {
			return Result{}, err
		}
		return s.interpretStructured(raw), nil
	}

	refined, err := s.local.GenerateStream(ctx, prompt, s.onDelta)
	if err != nil {
		return Result{}, err
	}
	return Result{Refined: strings.TrimSpace(refined)}, nil
}

func (s *Service) runRemote(ctx context.Context, mode Mode, text string) (Result, error) {
	user := truncateRunes(text, promptTextLimit)
	raw, err := s.remote.Complete(ctx, systemInstruction(mode), user, mode.structured())
	if err != nil {
		return Result{}, err
	}
	if !mode.structured() {
		return Result{Refined: strings.TrimSpace(raw)}, nil
	}
	return s.interpretStructured(raw), nil
}

// interpretStructured parses a JSON payload; an undecodable payload degrades
// to a format-error result carrying the raw text rather than failing the
// chain.
func (s *Service) interpretStructured(raw string) Result {
	payload, err := decodePayload(raw)
	if err != nil {
		s.logger.Warn("structured response unparseable", logging.Error(err))
		return Result{Summary: FormatErrorSummary, Refined: strings.TrimSpace(raw)}
	}
	return Result{
		Summary: strings.TrimSpace(payload.Summary),
		Tags:    normalizeTags(payload.Tags),
		Title:   strings.TrimSpace(payload.Title),
	}
}
