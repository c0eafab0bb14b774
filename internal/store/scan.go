package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecording(scanner rowScanner) (*Recording, error) {
	var (
		rec       Recording
		duration  sql.NullFloat64
		created   string
		processed int
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.Filename,
		&rec.FilePath,
		&rec.FileSize,
		&duration,
		&rec.Source,
		&created,
		&processed,
	); err != nil {
		return nil, err
	}
	if duration.Valid {
		value := duration.Float64
		rec.Duration = &value
	}
	rec.CreatedAt = parseTimestamp(created)
	rec.Processed = processed != 0
	return &rec, nil
}

func scanTranscript(scanner rowScanner) (*Transcript, error) {
	var (
		transcript Transcript
		summary    sql.NullString
		tags       sql.NullString
		title      sql.NullString
		segments   string
		isFinal    int
		created    string
		updated    string
	)
	if err := scanner.Scan(
		&transcript.ID,
		&transcript.RecordingID,
		&transcript.Version,
		&transcript.FullText,
		&summary,
		&tags,
		&title,
		&segments,
		&isFinal,
		&created,
		&updated,
	); err != nil {
		return nil, err
	}
	transcript.Summary = summary.String
	transcript.Tags = tags.String
	transcript.Title = title.String
	transcript.IsFinal = isFinal != 0
	transcript.CreatedAt = parseTimestamp(created)
	transcript.UpdatedAt = parseTimestamp(updated)
	if segments != "" && segments != "[]" {
		if err := json.Unmarshal([]byte(segments), &transcript.Segments); err != nil {
			return nil, fmt.Errorf("decode segments: %w", err)
		}
	}
	return &transcript, nil
}

// parseTimestamp tolerates both RFC3339Nano and plain RFC3339 rows; a zero
// time means the stored value was unreadable.
func parseTimestamp(value string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
