package storage

import (
	"context"
	"time"
)

// Ledger records what each pipeline run did.
type Ledger interface {
	RunStore
	AttemptStore
	Close() error
}

// RunStore tracks pipeline runs and their classification output.
type RunStore interface {
	// BeginRun opens a run for stage and returns its ID.
	BeginRun(ctx context.Context, stage string) (string, error)

	// FinishRun stores the terminal state of a run.
	FinishRun(ctx context.Context, runID, state string) error

	// SaveClassifications stores the unit → category mapping of a run.
	SaveClassifications(ctx context.Context, runID string, mapping map[string]string) error

	// Classifications returns the mapping stored for a run.
	Classifications(ctx context.Context, runID string) (map[string]string, error)

	// GetRun retrieves a run by ID.
	GetRun(ctx context.Context, runID string) (*Run, error)
}

// AttemptStore tracks builds and rewrite attempts inside a run.
type AttemptStore interface {
	RecordBuild(ctx context.Context, runID string, iteration int, success bool, output string) error
	RecordAttempt(ctx context.Context, runID string, iteration int, unit, outcome, detail string) error
	Attempts(ctx context.Context, runID string) ([]Attempt, error)
}

type Run struct {
	ID         string
	Stage      string
	State      string
	StartedAt  time.Time
	FinishedAt *time.Time
	Builds     int
}

type Attempt struct {
	Iteration int
	Unit      string
	Outcome   string
	Detail    string
}
