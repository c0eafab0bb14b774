package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"memora/internal/config"
	"memora/internal/services"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store manages recording and transcript persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the library database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "open", dbPath, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, services.Wrap(services.ErrPersistence, "store", "apply pragma", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, services.Wrap(services.ErrPersistence, "store", "init schema", "", err)
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// CreateRecording inserts a recording row for a normalized audio file.
func (s *Store) CreateRecording(ctx context.Context, meta RecordingMeta) (*Recording, error) {
	source := meta.Source
	if source == "" {
		source = SourceUpload
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO recordings (filename, file_path, file_size, duration, source, created_at, processed)
         VALUES (?, ?, ?, ?, ?, ?, 0)`,
		meta.Filename,
		meta.FilePath,
		meta.FileSize,
		meta.Duration,
		source,
		timestamp,
	)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "insert recording", meta.Filename, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "last insert id", "", err)
	}

	return s.GetRecording(ctx, id)
}

const recordingColumns = "id, filename, file_path, file_size, duration, source, created_at, processed"

// GetRecording fetches a recording by identifier.
func (s *Store) GetRecording(ctx context.Context, id int64) (*Recording, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordingColumns+" FROM recordings WHERE id = ?", id)
	rec, err := scanRecording(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("recording %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "get recording", "", err)
	}
	return rec, nil
}

// ListRecordings returns all recordings, newest first.
func (s *Store) ListRecordings(ctx context.Context) ([]*Recording, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+recordingColumns+" FROM recordings ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "list recordings", "", err)
	}
	defer rows.Close()

	var recordings []*Recording
	for rows.Next() {
		rec, scanErr := scanRecording(rows)
		if scanErr != nil {
			return nil, services.Wrap(services.ErrPersistence, "store", "scan recording", "", scanErr)
		}
		recordings = append(recordings, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "list recordings", "", err)
	}
	return recordings, nil
}

// MarkProcessed flips the processed flag on a recording.
func (s *Store) MarkProcessed(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "UPDATE recordings SET processed = 1 WHERE id = ?", id)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "store", "mark processed", "", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return services.Wrap(services.ErrPersistence, "store", "mark processed", "", err)
	}
	if affected == 0 {
		return fmt.Errorf("recording %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteRecording removes a recording row. Transcripts cascade; removing the
// audio file itself is the caller's job.
func (s *Store) DeleteRecording(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM recordings WHERE id = ?", id)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "store", "delete recording", "", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return services.Wrap(services.ErrPersistence, "store", "delete recording", "", err)
	}
	if affected == 0 {
		return fmt.Errorf("recording %d: %w", id, ErrNotFound)
	}
	return nil
}

// AppendTranscript stores a new transcript version for a recording. The
// version number is assigned inside the transaction; when makeFinal is set
// the prior final version's flag is cleared in the same transaction.
func (s *Store) AppendTranscript(ctx context.Context, recordingID int64, content TranscriptContent, makeFinal bool) (*Transcript, error) {
	segmentsJSON, err := encodeSegments(content.Segments)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "encode segments", "", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "begin tx", "", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM recordings WHERE id = ?", recordingID).Scan(&exists); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "check recording", "", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("recording %d: %w", recordingID, ErrNotFound)
	}

	var version int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) + 1 FROM transcripts WHERE recording_id = ?",
		recordingID).Scan(&version); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "next version", "", err)
	}

	if makeFinal {
		if _, err := tx.ExecContext(ctx,
			"UPDATE transcripts SET is_final = 0, updated_at = ? WHERE recording_id = ? AND is_final = 1",
			time.Now().UTC().Format(time.RFC3339Nano), recordingID); err != nil {
			return nil, services.Wrap(services.ErrPersistence, "store", "retire final", "", err)
		}
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO transcripts (recording_id, version, full_text, summary, tags, title, segments_json, is_final, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		recordingID,
		version,
		content.FullText,
		nullableString(content.Summary),
		nullableString(content.Tags),
		nullableString(content.Title),
		segmentsJSON,
		boolToInt(makeFinal),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "insert transcript", "", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "last insert id", "", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "commit transcript", "", err)
	}

	return s.getTranscript(ctx, id)
}

const transcriptColumns = "id, recording_id, version, full_text, summary, tags, title, segments_json, is_final, created_at, updated_at"

func (s *Store) getTranscript(ctx context.Context, id int64) (*Transcript, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+transcriptColumns+" FROM transcripts WHERE id = ?", id)
	transcript, err := scanTranscript(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transcript %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "get transcript", "", err)
	}
	return transcript, nil
}

// ListTranscripts returns all versions for a recording in ascending version
// order.
func (s *Store) ListTranscripts(ctx context.Context, recordingID int64) ([]*Transcript, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+transcriptColumns+" FROM transcripts WHERE recording_id = ? ORDER BY version ASC",
		recordingID)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "list transcripts", "", err)
	}
	defer rows.Close()

	var transcripts []*Transcript
	for rows.Next() {
		transcript, scanErr := scanTranscript(rows)
		if scanErr != nil {
			return nil, services.Wrap(services.ErrPersistence, "store", "scan transcript", "", scanErr)
		}
		transcripts = append(transcripts, transcript)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "list transcripts", "", err)
	}
	return transcripts, nil
}

// FinalTranscript returns the transcript version currently flagged final for
// a recording.
func (s *Store) FinalTranscript(ctx context.Context, recordingID int64) (*Transcript, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+transcriptColumns+" FROM transcripts WHERE recording_id = ? AND is_final = 1",
		recordingID)
	transcript, err := scanTranscript(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("final transcript for recording %d: %w", recordingID, ErrNotFound)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "final transcript", "", err)
	}
	return transcript, nil
}

// GetConfig reads a system setting. The second return reports whether the
// key exists.
func (s *Store) GetConfig(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM system_configs WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, services.Wrap(services.ErrPersistence, "store", "get config", key, err)
	}
	return value, true, nil
}

// SetConfig upserts a system setting.
func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO system_configs (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "store", "set config", key, err)
	}
	return nil
}

// ListConfigs returns all system settings sorted by key.
func (s *Store) ListConfigs(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM system_configs ORDER BY key")
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "list configs", "", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, services.Wrap(services.ErrPersistence, "store", "scan config", "", err)
		}
		settings[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "list configs", "", err)
	}
	return settings, nil
}

func encodeSegments(segments []Segment) (string, error) {
	if len(segments) == 0 {
		return "[]", nil
	}
	encoded, err := json.Marshal(segments)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
