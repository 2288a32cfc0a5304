package history

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store keeps one row per applied analyze outcome. The submitted text itself
// is never stored, only its digest and length.
type Store struct {
	conn *sql.DB
}

type Run struct {
	ID            int64
	Token         string
	TextSHA       string
	TextLen       int
	Source        string
	Outcome       string
	StatusCode    int
	ExecutionTime *float64
	ResultCount   int
	TopDocument   string
	TopScore      float64
	StartedAt     time.Time
	FinishedAt    time.Time
}

func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.init(); err != nil {
		conn.Close() //nolint:errcheck
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) init() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY,
			token TEXT UNIQUE NOT NULL,
			text_sha TEXT NOT NULL,
			text_len INTEGER,
			source TEXT,
			outcome TEXT NOT NULL,
			status_code INTEGER,
			execution_time REAL,
			result_count INTEGER,
			top_document TEXT,
			top_score REAL,
			started_at INTEGER,
			finished_at INTEGER
		);

		CREATE INDEX IF NOT EXISTS idx_runs_finished_at ON runs(finished_at);
	`)
	return err
}

// HashText is the digest stored in place of the submitted text.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func (s *Store) Record(run Run) (int64, error) {
	var execTime sql.NullFloat64
	if run.ExecutionTime != nil {
		execTime = sql.NullFloat64{Float64: *run.ExecutionTime, Valid: true}
	}

	result, err := s.conn.Exec(`
		INSERT INTO runs (
			token, text_sha, text_len, source, outcome, status_code,
			execution_time, result_count, top_document, top_score,
			started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.Token, run.TextSHA, run.TextLen, run.Source, run.Outcome, run.StatusCode,
		execTime, run.ResultCount, run.TopDocument, run.TopScore,
		run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(limit int) ([]Run, error) {
	rows, err := s.conn.Query(`
		SELECT
			id, token, text_sha, text_len, source, outcome, status_code,
			execution_time, result_count, top_document, top_score,
			started_at, finished_at
		FROM runs
		ORDER BY finished_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run
	for rows.Next() {
		var (
			run                 Run
			execTime            sql.NullFloat64
			startedMs, finished int64
		)
		err := rows.Scan(
			&run.ID,
			&run.Token,
			&run.TextSHA,
			&run.TextLen,
			&run.Source,
			&run.Outcome,
			&run.StatusCode,
			&execTime,
			&run.ResultCount,
			&run.TopDocument,
			&run.TopScore,
			&startedMs,
			&finished,
		)
		if err != nil {
			return nil, err
		}
		if execTime.Valid {
			v := execTime.Float64
			run.ExecutionTime = &v
		}
		run.StartedAt = time.UnixMilli(startedMs)
		run.FinishedAt = time.UnixMilli(finished)
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func (s *Store) Count() (int, error) {
	var count int
	err := s.conn.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count)
	return count, err
}
