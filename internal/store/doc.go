// Package store persists recordings and their versioned transcripts in
// SQLite. Transcript versions are append-only: a new version never mutates an
// older row, and at most one version per recording carries the final flag.
package store
