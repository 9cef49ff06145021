package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

var _ Ledger = (*SQLiteLedger)(nil)

type SQLiteLedger struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteLedger creates or opens a SQLite ledger.
func NewSQLiteLedger(path string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	l := &SQLiteLedger{db: db, now: time.Now}
	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return l, nil
}

func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

func (l *SQLiteLedger) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			stage TEXT NOT NULL,
			state TEXT NOT NULL DEFAULT 'RUNNING',
			started_at INTEGER NOT NULL,
			finished_at INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS classifications (
			run_id TEXT NOT NULL,
			path TEXT NOT NULL,
			category TEXT NOT NULL,
			PRIMARY KEY (run_id, path)
		);`,
		`CREATE TABLE IF NOT EXISTS builds (
			run_id TEXT NOT NULL,
			iteration INTEGER NOT NULL,
			success INTEGER NOT NULL,
			output TEXT,
			PRIMARY KEY (run_id, iteration)
		);`,
		`CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			iteration INTEGER NOT NULL,
			unit TEXT NOT NULL,
			outcome TEXT NOT NULL,
			detail TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_run ON attempts(run_id);`,
	}

	for _, q := range queries {
		if _, err := l.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// --- RunStore Implementation ---

func (l *SQLiteLedger) BeginRun(ctx context.Context, stage string) (string, error) {
	id := uuid.NewString()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, stage, started_at) VALUES (?, ?, ?)`,
		id, stage, l.now().UnixMilli())
	if err != nil {
		return "", err
	}
	return id, nil
}

func (l *SQLiteLedger) FinishRun(ctx context.Context, runID, state string) error {
	res, err := l.db.ExecContext(ctx,
		`UPDATE runs SET state = ?, finished_at = ? WHERE id = ?`,
		state, l.now().UnixMilli(), runID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

func (l *SQLiteLedger) SaveClassifications(ctx context.Context, runID string, mapping map[string]string) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO classifications (run_id, path, category) VALUES (?, ?, ?)
		ON CONFLICT(run_id, path) DO UPDATE SET category=excluded.category
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for path, category := range mapping {
		if _, err := stmt.ExecContext(ctx, runID, path, category); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (l *SQLiteLedger) GetRun(ctx context.Context, runID string) (*Run, error) {
	var (
		r        Run
		started  int64
		finished sql.NullInt64
	)
	err := l.db.QueryRowContext(ctx, `
		SELECT id, stage, state, started_at, finished_at,
			(SELECT COUNT(*) FROM builds WHERE run_id = runs.id)
		FROM runs WHERE id = ?
	`, runID).Scan(&r.ID, &r.Stage, &r.State, &started, &finished, &r.Builds)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, err
	}
	r.StartedAt = time.UnixMilli(started)
	if finished.Valid {
		t := time.UnixMilli(finished.Int64)
		r.FinishedAt = &t
	}
	return &r, nil
}

// Classifications returns the stored mapping of a run.
func (l *SQLiteLedger) Classifications(ctx context.Context, runID string) (map[string]string, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT path, category FROM classifications WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var path, category string
		if err := rows.Scan(&path, &category); err != nil {
			return nil, err
		}
		out[path] = category
	}
	return out, rows.Err()
}

// --- AttemptStore Implementation ---

func (l *SQLiteLedger) RecordBuild(ctx context.Context, runID string, iteration int, success bool, output string) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO builds (run_id, iteration, success, output) VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, iteration) DO UPDATE SET success=excluded.success, output=excluded.output
	`, runID, iteration, success, output)
	return err
}

func (l *SQLiteLedger) RecordAttempt(ctx context.Context, runID string, iteration int, unit, outcome, detail string) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO attempts (run_id, iteration, unit, outcome, detail) VALUES (?, ?, ?, ?, ?)`,
		runID, iteration, unit, outcome, detail)
	return err
}

func (l *SQLiteLedger) Attempts(ctx context.Context, runID string) ([]Attempt, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT iteration, unit, outcome, COALESCE(detail, '') FROM attempts WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(&a.Iteration, &a.Unit, &a.Outcome, &a.Detail); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// RunRecorder binds the ledger to one run so it can be handed to the repair
// loop.
type RunRecorder struct {
	ledger *SQLiteLedger
	runID  string
}

func (l *SQLiteLedger) Recorder(runID string) *RunRecorder {
	return &RunRecorder{ledger: l, runID: runID}
}

func (r *RunRecorder) RecordBuild(ctx context.Context, iteration int, success bool, output string) error {
	return r.ledger.RecordBuild(ctx, r.runID, iteration, success, output)
}

func (r *RunRecorder) RecordAttempt(ctx context.Context, iteration int, unit, outcome, detail string) error {
	return r.ledger.RecordAttempt(ctx, r.runID, iteration, unit, outcome, detail)
}
