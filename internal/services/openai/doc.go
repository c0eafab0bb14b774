// Package openai is a minimal chat-completion client for the remote fallback
// backend. It speaks the OpenAI-compatible wire format; the summarizer's
// ordered fallback chain is the retry policy, so this client makes exactly
// one attempt per call.
package openai
