// Package services defines the shared error taxonomy used by the audio
// pipeline. Stage implementations tag failures with one of the exported
// sentinel errors so the orchestrator and CLI can classify them without
// string matching.
package services
