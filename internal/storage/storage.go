package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps SQLite-backed persistence for tabulation runs.
type Store struct {
	DB *sql.DB // Export for direct database access
}

// New opens (or creates) the database at path and ensures schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{DB: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
            id TEXT PRIMARY KEY,
            run_type TEXT NOT NULL,
            status TEXT NOT NULL,
            input_path TEXT,
            output_path TEXT,
            options_json TEXT,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            started_at TIMESTAMP,
            completed_at TIMESTAMP,
            error_message TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS run_results (
            run_id TEXT,
            meta_json TEXT,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS volume_results (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            run_id TEXT,
            volume_id TEXT NOT NULL,
            observations INTEGER,
            succeeded INTEGER,
            failed INTEGER,
            tables_json TEXT,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS observation_failures (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            run_id TEXT,
            volume_id TEXT NOT NULL,
            observation TEXT NOT NULL,
            severity TEXT NOT NULL,
            message TEXT,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS idx_volume_results_volume ON volume_results(volume_id);`,
		`CREATE INDEX IF NOT EXISTS idx_observation_failures_run ON observation_failures(run_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.DB.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying DB.
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// RunRecord captures persisted run info.
type RunRecord struct {
	ID          string
	RunType     string
	Status      string
	InputPath   string
	OutputPath  string
	OptionsJSON string
	Error       string
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// VolumeResult summarizes one volume processed by a run.
type VolumeResult struct {
	RunID        string
	VolumeID     string
	Observations int
	Succeeded    int
	Failed       int
	Tables       []string
}

// ObservationFailure records an observation skipped by a run.
type ObservationFailure struct {
	RunID       string
	VolumeID    string
	Observation string
	Severity    string
	Message     string
}

// RecordRunQueued inserts a pending run.
func (s *Store) RecordRunQueued(rec RunRecord) error {
	if s == nil {
		return nil
	}
	_, err := s.DB.Exec(`INSERT OR REPLACE INTO runs (id, run_type, status, input_path, output_path, options_json) VALUES (?, ?, ?, ?, ?, ?);`,
		rec.ID, rec.RunType, rec.Status, rec.InputPath, rec.OutputPath, rec.OptionsJSON)
	return err
}

// RecordRunStart marks a run as running.
func (s *Store) RecordRunStart(id string) error {
	if s == nil {
		return nil
	}
	_, err := s.DB.Exec(`UPDATE runs SET status='running', started_at=CURRENT_TIMESTAMP WHERE id=?;`, id)
	return err
}

// RecordRunResult finalizes a run with status and meta.
func (s *Store) RecordRunResult(id string, status string, meta map[string]any, errMsg string) error {
	if s == nil {
		return nil
	}
	metaJSON, _ := json.Marshal(meta)
	_, err := s.DB.Exec(`UPDATE runs SET status=?, completed_at=CURRENT_TIMESTAMP, error_message=? WHERE id=?;`, status, errMsg, id)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(`INSERT INTO run_results (run_id, meta_json) VALUES (?, ?);`, id, string(metaJSON))
	return err
}

// RecentRuns returns the latest runs up to limit.
func (s *Store) RecentRuns(limit int) ([]RunRecord, error) {
	if s == nil {
		return nil, errors.New("store not initialized")
	}
	rows, err := s.DB.Query(`SELECT id, run_type, status, input_path, output_path, options_json, created_at, started_at, completed_at, error_message FROM runs ORDER BY created_at DESC LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []RunRecord
	for rows.Next() {
		var rec RunRecord
		var created time.Time
		var started, completed sql.NullTime
		var errorMsg sql.NullString
		if err := rows.Scan(&rec.ID, &rec.RunType, &rec.Status, &rec.InputPath, &rec.OutputPath, &rec.OptionsJSON, &created, &started, &completed, &errorMsg); err != nil {
			return nil, err
		}
		rec.CreatedAt = created
		if started.Valid {
			rec.StartedAt = &started.Time
		}
		if completed.Valid {
			rec.CompletedAt = &completed.Time
		}
		if errorMsg.Valid {
			rec.Error = errorMsg.String
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// RunMeta fetches the last meta blob for a run.
func (s *Store) RunMeta(id string) (map[string]any, error) {
	if s == nil {
		return nil, errors.New("store not initialized")
	}
	var metaJSON string
	err := s.DB.QueryRow(`SELECT meta_json FROM run_results WHERE run_id=? ORDER BY created_at DESC LIMIT 1;`, id).Scan(&metaJSON)
	if err != nil {
		return nil, err
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return nil, fmt.Errorf("unmarshal meta: %w", err)
	}
	return meta, nil
}

// RecordVolume persists the outcome of one volume.
func (s *Store) RecordVolume(rec VolumeResult) error {
	if s == nil {
		return nil
	}
	tablesJSON, _ := json.Marshal(rec.Tables)
	_, err := s.DB.Exec(`INSERT INTO volume_results (run_id, volume_id, observations, succeeded, failed, tables_json) VALUES (?, ?, ?, ?, ?, ?);`,
		rec.RunID, rec.VolumeID, rec.Observations, rec.Succeeded, rec.Failed, string(tablesJSON))
	return err
}

// VolumeResults returns the volumes recorded for a run in processing order.
func (s *Store) VolumeResults(runID string) ([]VolumeResult, error) {
	if s == nil {
		return nil, errors.New("store not initialized")
	}
	rows, err := s.DB.Query(`SELECT run_id, volume_id, observations, succeeded, failed, tables_json FROM volume_results WHERE run_id=? ORDER BY id;`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VolumeResult
	for rows.Next() {
		var rec VolumeResult
		var tablesJSON string
		if err := rows.Scan(&rec.RunID, &rec.VolumeID, &rec.Observations, &rec.Succeeded, &rec.Failed, &tablesJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tablesJSON), &rec.Tables); err != nil {
			return nil, fmt.Errorf("unmarshal tables: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecordObservationFailure persists a skipped observation.
func (s *Store) RecordObservationFailure(rec ObservationFailure) error {
	if s == nil {
		return nil
	}
	_, err := s.DB.Exec(`INSERT INTO observation_failures (run_id, volume_id, observation, severity, message) VALUES (?, ?, ?, ?, ?);`,
		rec.RunID, rec.VolumeID, rec.Observation, rec.Severity, rec.Message)
	return err
}

// ObservationFailures lists the observations a run skipped.
func (s *Store) ObservationFailures(runID string) ([]ObservationFailure, error) {
	if s == nil {
		return nil, errors.New("store not initialized")
	}
	rows, err := s.DB.Query(`SELECT run_id, volume_id, observation, severity, message FROM observation_failures WHERE run_id=? ORDER BY id;`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ObservationFailure
	for rows.Next() {
		var rec ObservationFailure
		var msg sql.NullString
		if err := rows.Scan(&rec.RunID, &rec.VolumeID, &rec.Observation, &rec.Severity, &msg); err != nil {
			return nil, err
		}
		rec.Message = msg.String
		out = append(out, rec)
	}
	return out, rows.Err()
}
