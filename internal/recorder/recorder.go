package recorder

import (
	"time"

	"TokenSim/internal/model"
)

// RunSummary describes one completed or failed run.
type RunSummary struct {
	RunID      string
	Seed       int64
	Mode       string
	Timesteps  int    // completed timesteps
	Status     string // "ok" or "failed"
	FinalPrice float64
	Volatility float64
	StartedAt  time.Time
	FinishedAt time.Time
}

// Failure records the fatal error that stopped a run.
type Failure struct {
	RunID    string
	Timestep int
	Kind     string // invariant kind, or "other"
	Message  string
}

// Recorder persists run history for analysis.
type Recorder interface {
	RecordRun(run *RunSummary) error
	RecordSnapshot(snap *model.Snapshot) error
	RecordFailure(f *Failure) error
	Close() error
}
