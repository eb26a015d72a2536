package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"post-analyzer/internal/models"

	_ "modernc.org/sqlite"
)

// RunRecord is one pipeline run as kept in the history database.
type RunRecord struct {
	RunID     string                `json:"run_id"`
	SessionID string                `json:"analysis_id"`
	PostURL   string                `json:"post_url"`
	Status    models.PipelineStatus `json:"status"`
	Message   string                `json:"message"`
	Posts     int                   `json:"posts"`
	Analyses  int                   `json:"analyses"`
	StartedAt time.Time             `json:"started_at"`
	Duration  time.Duration         `json:"duration"`
}

// RunHistory persists run outcomes in SQLite.
type RunHistory struct {
	db *sql.DB
}

func NewRunHistory(dbPath string) (*RunHistory, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open run history: %w", err)
	}
	// SQLite allows one writer; serialize through a single connection.
	db.SetMaxOpenConns(1)

	h := &RunHistory{db: db}
	if err := h.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate run history: %w", err)
	}
	return h, nil
}

func (h *RunHistory) Close() error {
	return h.db.Close()
}

func (h *RunHistory) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		session_id TEXT,
		post_url TEXT NOT NULL,
		status TEXT NOT NULL,
		message TEXT,
		posts INTEGER NOT NULL DEFAULT 0,
		analyses INTEGER NOT NULL DEFAULT 0,
		started_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := h.db.Exec(schema)
	return err
}

// Record inserts a run.
func (h *RunHistory) Record(ctx context.Context, rec RunRecord) error {
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, session_id, post_url, status, message, posts, analyses, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.SessionID, rec.PostURL, string(rec.Status), rec.Message,
		rec.Posts, rec.Analyses, rec.StartedAt.UTC(), rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", rec.RunID, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (h *RunHistory) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT run_id, session_id, post_url, status, message, posts, analyses, started_at, duration_ms
		FROM runs ORDER BY started_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var (
			rec        RunRecord
			sessionID  sql.NullString
			message    sql.NullString
			status     string
			durationMs int64
		)
		if err := rows.Scan(&rec.RunID, &sessionID, &rec.PostURL, &status, &message,
			&rec.Posts, &rec.Analyses, &rec.StartedAt, &durationMs); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.SessionID = sessionID.String
		rec.Message = message.String
		rec.Status = models.PipelineStatus(status)
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		records = append(records, rec)
	}
	return records, rows.Err()
}
