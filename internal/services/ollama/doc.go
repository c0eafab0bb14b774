// Package ollama is a client for the local generation backend protocol:
// POST {base}/api/generate with single-shot JSON responses or
// newline-delimited streaming fragments carrying incremental text deltas.
package ollama
