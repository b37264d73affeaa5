package tasks

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/farewatch/internal/shared"
)

// Job is a named unit of periodic work.
type Job struct {
	Name       string                          // Job name for logging
	Interval   time.Duration                   // Time between runs
	Jitter     time.Duration                   // Random delay added to each run, 0 to disable
	Timeout    time.Duration                   // Per-run timeout, 0 to disable
	RunOnStart bool                            // Run immediately when the scheduler starts
	Fn         func(ctx context.Context) error // The work itself

	running atomic.Bool
}

// Scheduler runs registered jobs on their intervals until stopped.
//
// Each tick skips the run when the previous one is still going, so a slow
// sweep never stacks up behind itself. Stop waits for in-flight runs to
// finish, bounded by the caller's context.
type Scheduler struct {
	jobs   []*Job
	logger *log.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
	wg      sync.WaitGroup
}

// NewScheduler creates an empty scheduler.
func NewScheduler(logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Scheduler{logger: logger}
}

// Add registers a job. Must be called before Start.
func (s *Scheduler) Add(job *Job) error {
	if job.Name == "" {
		return fmt.Errorf("%w: job name required", shared.ErrInvalidArgument)
	}
	if job.Interval <= 0 {
		return fmt.Errorf("%w: job %q needs a positive interval", shared.ErrInvalidArgument, job.Name)
	}
	if job.Fn == nil {
		return fmt.Errorf("%w: job %q needs a function", shared.ErrInvalidArgument, job.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	s.jobs = append(s.jobs, job)
	return nil
}

// Start launches one goroutine per job. Returns an error when already started.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("scheduler already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.started = true

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.runJob(runCtx, job)
	}

	s.logger.Info("scheduler started", "jobs", len(s.jobs))
	return nil
}

// Stop cancels all jobs and waits for in-flight runs to finish.
// Returns the context's error when the wait is cut short.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.cancel()
	s.started = false
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: scheduler shutdown", shared.ErrTimeout)
	}
}

// runJob loops a single job on its interval until the context is cancelled.
func (s *Scheduler) runJob(ctx context.Context, job *Job) {
	defer s.wg.Done()

	logger := shared.WithLogger(s.logger, "job", job.Name)

	if job.RunOnStart {
		s.execute(ctx, job, logger)
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if job.Jitter > 0 {
				delay := time.Duration(rand.Int63n(int64(job.Jitter)))
				select {
				case <-ctx.Done():
					return
				case <-time.After(delay):
				}
			}
			s.execute(ctx, job, logger)
		}
	}
}

// execute runs the job once, skipping when the previous run hasn't finished.
func (s *Scheduler) execute(ctx context.Context, job *Job, logger *log.Logger) {
	if !job.running.CompareAndSwap(false, true) {
		logger.Warn("previous run still in progress, skipping")
		return
	}
	defer job.running.Store(false)

	runCtx := ctx
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	start := time.Now()
	if err := job.Fn(runCtx); err != nil {
		logger.Error("job failed", "duration", time.Since(start), "error", err)
		return
	}
	logger.Debug("job finished", "duration", time.Since(start))
}
