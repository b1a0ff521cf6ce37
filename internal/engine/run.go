package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"TokenSim/internal/invariant"
	"TokenSim/internal/model"
	"TokenSim/internal/recorder"
)

// Observer receives run progress, typically for metrics.
type Observer interface {
	ObserveTimestep(snap *model.Snapshot)
	ObserveRun(runID, status string)
}

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Result is the outcome of one run.
type Result struct {
	RunID  string
	Seed   int64
	Final  model.Snapshot
	Prices []float64 // end-of-timestep prices, index 0 is timestep 1
	Err    error
}

// Status reports StatusOK or StatusFailed.
func (r Result) Status() string {
	if r.Err != nil {
		return StatusFailed
	}
	return StatusOK
}

// Runner executes runs of a Setup and reports them outward.
type Runner struct {
	Setup    *Setup
	Recorder recorder.Recorder
	Observer Observer
}

// NewRunner creates a Runner. A nil recorder records nothing.
func NewRunner(setup *Setup, rec recorder.Recorder, obs Observer) *Runner {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Runner{Setup: setup, Recorder: rec, Observer: obs}
}

// Run executes one run to completion or to its first fatal error. The
// context is checked between timesteps.
func (r *Runner) Run(ctx context.Context, runID string, seed int64) Result {
	res := Result{RunID: runID, Seed: seed}
	started := time.Now()
	log.Printf("[INFO] run %s starting (seed %d, %d timesteps)", runID, seed, r.Setup.Timesteps)

	snap, err := r.execute(ctx, runID, seed, &res)
	res.Final = snap
	res.Err = err

	summary := &recorder.RunSummary{
		RunID:      runID,
		Seed:       seed,
		Mode:       string(r.Setup.Mode),
		Timesteps:  snap.Timestep,
		Status:     res.Status(),
		FinalPrice: snap.Pool.Price,
		Volatility: snap.Pool.Volatility,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if err != nil {
		log.Printf("[ERROR] run %s failed at timestep %d: %v", runID, snap.Timestep+1, err)
		if rerr := r.Recorder.RecordFailure(&recorder.Failure{
			RunID:    runID,
			Timestep: snap.Timestep + 1,
			Kind:     failureKind(err),
			Message:  err.Error(),
		}); rerr != nil {
			log.Printf("[ERROR] record failure of run %s: %v", runID, rerr)
		}
	} else {
		log.Printf("[INFO] run %s finished: price=%.6f volatility=%.2f%%", runID, snap.Pool.Price, snap.Pool.Volatility)
	}
	if rerr := r.Recorder.RecordRun(summary); rerr != nil {
		log.Printf("[ERROR] record run %s: %v", runID, rerr)
	}
	if r.Observer != nil {
		r.Observer.ObserveRun(runID, res.Status())
	}
	return res
}

// execute returns the last good snapshot together with the error that
// stopped the run, if any.
func (r *Runner) execute(ctx context.Context, runID string, seed int64, res *Result) (model.Snapshot, error) {
	sim, err := NewSimulation(r.Setup, runID, seed)
	if err != nil {
		return model.Snapshot{RunID: runID}, err
	}
	snap, err := sim.Genesis()
	if err != nil {
		return model.Snapshot{RunID: runID}, fmt.Errorf("genesis: %w", err)
	}

	for t := 1; t <= r.Setup.Timesteps; t++ {
		if err := ctx.Err(); err != nil {
			return snap, err
		}
		sig, err := sim.Collect(snap)
		if err != nil {
			return snap, fmt.Errorf("collect signals: %w", err)
		}
		next, err := sim.Step(snap, sig)
		if err != nil {
			return snap, fmt.Errorf("timestep %d: %w", t, err)
		}
		snap = next
		res.Prices = append(res.Prices, snap.Pool.Price)

		if err := r.Recorder.RecordSnapshot(&snap); err != nil {
			log.Printf("[ERROR] record run %s timestep %d: %v", runID, t, err)
		}
		if r.Observer != nil {
			r.Observer.ObserveTimestep(&snap)
		}
		log.Printf("[INFO] run %s timestep %d: price=%.6f tokens=%.2f usdc=%.2f volatility=%.2f%% circulating=%.2f",
			runID, t, snap.Pool.Price, snap.Pool.Tokens, snap.Pool.USDC, snap.Pool.Volatility, snap.Agents.TotalBalance())
	}
	return snap, nil
}

func failureKind(err error) string {
	var ie *invariant.Error
	if errors.As(err, &ie) {
		return ie.Kind.String()
	}
	return "other"
}

// Batch executes runs isolated runs on at most workers goroutines. Run i uses
// seed Setup.Seed+i. A failed run never cancels its siblings; results are
// index-aligned with run number.
func (r *Runner) Batch(ctx context.Context, runs, workers int) []Result {
	if workers <= 0 {
		workers = 1
	}
	results := make([]Result, runs)

	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < runs; i++ {
		runID := uuid.NewString()
		seed := r.Setup.Seed + int64(i)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{RunID: runID, Seed: seed, Err: err}
				return nil
			}
			results[i] = r.Run(ctx, runID, seed)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
