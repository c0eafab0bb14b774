// Package logging constructs the process-wide slog logger and carries
// job/stage attributes through context so every pipeline component logs with
// consistent fields.
package logging
