package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"TokenSim/internal/engine"

	"github.com/robfig/cron/v3"
)

// Scheduler re-executes the configured batch on a cron schedule.
type Scheduler struct {
	Cron    *cron.Cron
	Runner  *engine.Runner
	Runs    int
	Workers int
	Ctx     context.Context
	// OnBatch, if set, receives the results of every batch.
	OnBatch func([]engine.Result)

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, runner *engine.Runner, runs, workers int) *Scheduler {
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds()),
		Runner:  runner,
		Runs:    runs,
		Workers: workers,
		Ctx:     ctx,
	}
}

// Register adds the batch task under the given cron spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.batchTask); err != nil {
		return fmt.Errorf("register batch task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running batch to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the batch immediately (for RUN_ON_START). It returns nil
// when another batch is still running.
func (s *Scheduler) RunNow() []engine.Result {
	return s.runBatch()
}

func (s *Scheduler) batchTask() {
	s.runBatch()
}

func (s *Scheduler) runBatch() []engine.Result {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Println("[WARN] previous batch still running, skipping")
		return nil
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if err := s.Ctx.Err(); err != nil {
		log.Printf("[WARN] batch skipped: %v", err)
		return nil
	}

	log.Printf("[INFO] running batch of %d runs on %d workers", s.Runs, s.Workers)
	results := s.Runner.Batch(s.Ctx, s.Runs, s.Workers)

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	log.Printf("[INFO] batch finished: %d ok, %d failed", len(results)-failed, failed)

	if s.OnBatch != nil {
		s.OnBatch(results)
	}
	return results
}
