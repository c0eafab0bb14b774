// Package pipeline sequences the processing stages for one audio recording:
// optimize, transcribe, summarize, archive. Stage failures are terminal for
// the job but never roll back artifacts produced by earlier stages, so a
// retry can pick up from what already exists.
package pipeline
