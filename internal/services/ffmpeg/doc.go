// Package ffmpeg normalizes uploaded audio into the canonical storage format:
// mono, 16 kHz, loudness-normalized, high-pass filtered, 64 kbps MP3. The
// encode writes to a partial file and renames into place before the source is
// removed, so an aborted job never loses the only copy of a recording.
package ffmpeg
