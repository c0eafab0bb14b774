// Package engine defines the speech-to-text engine contract and the shared
// cache that keeps at most one loaded engine instance per configuration.
// Loading an engine is expensive, so the cache serializes construction and
// degrades once to a safe default configuration when a load fails.
package engine
