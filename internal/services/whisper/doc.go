// Package whisper implements the speech-to-text engine contract on top of
// the whisper-ctranslate2 command line tool (the faster-whisper CLI).
// Transcription runs the tool with deterministic decoding settings and
// lazily streams segments out of its JSON output file.
package whisper
