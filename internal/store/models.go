package store

import (
	"time"

	"memora/internal/engine"
)

// Segment is the persisted form of a timed transcript fragment.
type Segment = engine.Segment

// SourceUpload is the ingestion source tag for locally processed files.
const SourceUpload = "upload"

// Recording is one ingested audio file after normalization.
type Recording struct {
	ID        int64
	Filename  string
	FilePath  string
	FileSize  int64
	Duration  *float64
	Source    string
	CreatedAt time.Time
	Processed bool
}

// RecordingMeta carries the fields the caller supplies when creating a
// recording row.
type RecordingMeta struct {
	Filename string
	FilePath string
	FileSize int64
	Duration *float64
	Source   string
}

// TranscriptContent carries the fields the caller supplies when appending a
// transcript version. Version, final flag, and timestamps are assigned by the
// store.
type TranscriptContent struct {
	FullText string
	Summary  string
	Tags     string
	Title    string
	Segments []Segment
}

// Transcript is one stored transcript version.
type Transcript struct {
	ID          int64
	RecordingID int64
	Version     int
	FullText    string
	Summary     string
	Tags        string
	Title       string
	Segments    []Segment
	IsFinal     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
