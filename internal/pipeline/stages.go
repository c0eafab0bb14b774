package pipeline

// Status tracks where a job is in its lifecycle.
type Status string

const (
	StatusIngested    Status = "ingested"
	StatusOptimized   Status = "optimized"
	StatusTranscribed Status = "transcribed"
	StatusSummarized  Status = "summarized"
	StatusArchived    Status = "archived"
	StatusFailed      Status = "failed"
)

// Stage names the unit of work that owns a transition.
type Stage string

const (
	StageOptimize   Stage = "optimize"
	StageTranscribe Stage = "transcribe"
	StageSummarize  Stage = "summarize"
	StageArchive    Stage = "archive"
)

// Outcome reports the result of one pipeline job.
type Outcome struct {
	JobID        string
	InputPath    string
	Status       Status
	FailedStage  Stage
	ErrorKind    string
	RecordingID  int64
	TranscriptID int64
	Version      int
	OutputPath   string
	Summary      string
	Title        string
	SegmentCount int
}

// Failed reports whether the job ended in a failure state.
func (o *Outcome) Failed() bool {
	return o != nil && o.Status == StatusFailed
}
