package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var ErrUnknownJob = errors.New("unknown job")

type scheduled struct {
	def Definition
	fn  Func
	sem chan struct{}
}

// Scheduler hosts cron-triggered jobs. Every execution is recorded in the run
// store, retried according to the job's RetryPolicy and bounded by its
// Concurrency and Timeout.
type Scheduler struct {
	cron   *cron.Cron
	store  RunStore
	logger *zap.Logger

	mu   sync.RWMutex
	jobs map[string]*scheduled
	base context.Context
	wg   sync.WaitGroup

	sleep func(ctx context.Context, d time.Duration) error
}

func NewScheduler(loc *time.Location, store RunStore, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		store:  store,
		logger: logger,
		jobs:   make(map[string]*scheduled),
		base:   context.Background(),
		sleep:  sleepCtx,
	}
}

// Register adds a job. Cron-triggered jobs start firing once Start is called;
// every job can also be started manually with Trigger.
func (s *Scheduler) Register(def Definition, fn Func) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if def.Concurrency < 1 {
		def.Concurrency = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[def.Name]; exists {
		return fmt.Errorf("job %s already registered", def.Name)
	}
	job := &scheduled{def: def, fn: fn, sem: make(chan struct{}, def.Concurrency)}

	if def.Trigger.Cron != "" {
		_, err := s.cron.AddFunc(def.Trigger.Cron, func() {
			if _, err := s.execute(s.context(), job, NewRun(def.Name)); err != nil {
				s.logger.Error("Scheduled job failed", zap.String("job", def.Name), zap.Error(err))
			}
		})
		if err != nil {
			return fmt.Errorf("job %s: invalid cron %q: %w", def.Name, def.Trigger.Cron, err)
		}
	}
	s.jobs[def.Name] = job
	return nil
}

func (s *Scheduler) context() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base
}

// Definitions returns the registered job definitions sorted by name.
func (s *Scheduler) Definitions() []Definition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	defs := make([]Definition, 0, len(s.jobs))
	for _, j := range s.jobs {
		defs = append(defs, j.def)
	}
	sort.Slice(defs, func(i, k int) bool { return defs[i].Name < defs[k].Name })
	return defs
}

// Trigger starts a run of name in the background and returns it immediately.
func (s *Scheduler) Trigger(name string) (*Run, error) {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	run := NewRun(name)
	_ = s.store.SaveRun(context.Background(), run)
	snapshot := *run

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.execute(s.context(), job, run); err != nil {
			s.logger.Error("Triggered job failed", zap.String("job", name), zap.String("run_id", run.ID), zap.Error(err))
		}
	}()
	return &snapshot, nil
}

// RunNow executes name synchronously, retries included.
func (s *Scheduler) RunNow(ctx context.Context, name string) (*Run, error) {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.execute(ctx, job, NewRun(name))
}

func (s *Scheduler) execute(ctx context.Context, job *scheduled, run *Run) (*Run, error) {
	select {
	case job.sem <- struct{}{}:
		defer func() { <-job.sem }()
	case <-ctx.Done():
		return run, ctx.Err()
	}

	log := s.logger.With(zap.String("job", job.def.Name), zap.String("run_id", run.ID))
	for {
		run.Attempt++
		started := time.Now()
		run.Status = RunStatusRunning
		run.StartedAt = &started
		run.CompletedAt = nil
		_ = s.store.SaveRun(ctx, run)

		result, err := s.attempt(ctx, job, run)

		completed := time.Now()
		run.CompletedAt = &completed
		if err == nil {
			run.Status = RunStatusCompleted
			run.Error = ""
			run.Result = result
			_ = s.store.SaveRun(ctx, run)
			log.Info("Job completed", zap.Int("attempt", run.Attempt), zap.Duration("took", completed.Sub(started)), zap.Any("result", result))
			return run, nil
		}

		run.Error = err.Error()
		if !job.def.Retry.ShouldRetry(run.Attempt, err) {
			run.Status = RunStatusFailed
			_ = s.store.SaveRun(ctx, run)
			return run, fmt.Errorf("job %s run %s: %w", job.def.Name, run.ID, err)
		}

		run.Status = RunStatusRetrying
		_ = s.store.SaveRun(ctx, run)
		delay := job.def.Retry.Backoff(run.Attempt)
		log.Warn("Job attempt failed, retrying", zap.Int("attempt", run.Attempt), zap.Duration("backoff", delay), zap.Error(err))
		if err := s.sleep(ctx, delay); err != nil {
			run.Status = RunStatusFailed
			_ = s.store.SaveRun(ctx, run)
			return run, err
		}
	}
}

func (s *Scheduler) attempt(ctx context.Context, job *scheduled, run *Run) (result any, err error) {
	if job.def.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.def.Timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job.fn(ctx)
}

// Start begins firing cron triggers. Runs inherit ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.base = ctx
	s.mu.Unlock()
	s.cron.Start()
	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.Definitions())))
}

// Stop stops the cron triggers and waits for running jobs.
func (s *Scheduler) Stop(ctx context.Context) error {
	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
