package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"finelytics/internal/jobs"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errQueueClosed = errors.New("queue is closed")

// QueueConfig configures a Queue. Definition carries the retry policy,
// throttle and timeout applied to every work item.
type QueueConfig struct {
	Workers    int
	BufferSize int
	Definition jobs.Definition
}

// Queue is an in-memory implementation of jobs.Publisher backed by a buffered
// channel and a fixed pool of workers. Throttled or failed items are put back
// on the channel after their delay so that they never hold a worker while
// waiting.
type Queue struct {
	cfg      QueueConfig
	jobChan  chan *jobs.RecurringTransactionJob
	closeCh  chan struct{}
	wg       sync.WaitGroup
	pending  sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
	store    jobs.RunStore
	throttle *jobs.KeyedThrottle
	logger   *zap.Logger

	after func(d time.Duration, f func())
}

// NewQueue creates a new in-memory queue. store may be nil.
func NewQueue(cfg QueueConfig, store jobs.RunStore, logger *zap.Logger) *Queue {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.BufferSize < 1 {
		cfg.BufferSize = 100
	}
	if cfg.Definition.Retry.MaxAttempts < 1 {
		cfg.Definition.Retry.MaxAttempts = 1
	}

	q := &Queue{
		cfg:     cfg,
		jobChan: make(chan *jobs.RecurringTransactionJob, cfg.BufferSize),
		closeCh: make(chan struct{}),
		store:   store,
		logger:  logger.With(zap.String("job", cfg.Definition.Name)),
		after: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
	if cfg.Definition.Throttle != nil {
		q.throttle = jobs.NewKeyedThrottle(*cfg.Definition.Throttle)
	}
	return q
}

// PublishRecurring enqueues a recurring transaction work item.
func (q *Queue) PublishRecurring(ctx context.Context, job *jobs.RecurringTransactionJob) error {
	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = jobs.RunStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	q.record(ctx, job, nil, nil)

	q.pending.Add(1)
	if err := q.enqueue(ctx, job); err != nil {
		q.pending.Done()
		return err
	}
	return nil
}

// enqueue blocks while the buffer is full. The lock only guards the closed
// flag; holding it across the send would keep Stop from closing closeCh.
func (q *Queue) enqueue(ctx context.Context, job *jobs.RecurringTransactionJob) error {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()
	if closed {
		return errQueueClosed
	}

	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeCh:
		return errQueueClosed
	}
}

// requeue puts job back on the queue once delay has elapsed.
func (q *Queue) requeue(job *jobs.RecurringTransactionJob, delay time.Duration) {
	q.after(delay, func() {
		if err := q.enqueue(context.Background(), job); err != nil {
			q.pending.Done()
			q.logger.Warn("Dropped work item",
				zap.String("job_id", job.JobID),
				zap.String("transaction_id", job.TransactionID.String()),
				zap.Error(err),
			)
		}
	})
}

// Start launches the workers. Each of them calls handler for one item at a
// time until ctx is done or the queue is stopped.
func (q *Queue) Start(ctx context.Context, handler jobs.RecurringHandler) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return errQueueClosed
	}

	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}
	q.logger.Info("Queue started", zap.Int("workers", q.cfg.Workers))
	return nil
}

func (q *Queue) worker(ctx context.Context, handler jobs.RecurringHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeCh:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}
			q.processJob(ctx, job, handler)
		}
	}
}

func (q *Queue) processJob(ctx context.Context, job *jobs.RecurringTransactionJob, handler jobs.RecurringHandler) {
	if q.throttle != nil && !job.Reserved() {
		delay := q.throttle.Reserve(job.ThrottleKey())
		job.Reserve()
		if delay > 0 {
			q.logger.Debug("Work item throttled",
				zap.String("job_id", job.JobID),
				zap.String("user_id", job.UserID.String()),
				zap.Duration("delay", delay),
			)
			q.requeue(job, delay)
			return
		}
	}

	job.Attempt++
	job.Status = jobs.RunStatusRunning
	started := time.Now()
	q.record(ctx, job, &started, nil)

	err := q.handle(ctx, job, handler)

	completed := time.Now()
	if err == nil {
		job.Status = jobs.RunStatusCompleted
		job.Error = ""
		q.record(ctx, job, &started, &completed)
		q.pending.Done()
		return
	}

	job.Error = err.Error()
	log := q.logger.With(
		zap.String("job_id", job.JobID),
		zap.String("transaction_id", job.TransactionID.String()),
		zap.Int("attempt", job.Attempt),
		zap.Error(err),
	)
	if q.cfg.Definition.Retry.ShouldRetry(job.Attempt, err) {
		job.Status = jobs.RunStatusRetrying
		q.record(ctx, job, &started, &completed)
		delay := q.cfg.Definition.Retry.Backoff(job.Attempt)
		log.Warn("Work item failed, retrying", zap.Duration("backoff", delay))
		q.requeue(job, delay)
		return
	}

	job.Status = jobs.RunStatusFailed
	q.record(ctx, job, &started, &completed)
	q.pending.Done()
	log.Error("Work item failed")
}

func (q *Queue) handle(ctx context.Context, job *jobs.RecurringTransactionJob, handler jobs.RecurringHandler) (err error) {
	if q.cfg.Definition.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.cfg.Definition.Timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler(ctx, job)
}

func (q *Queue) record(ctx context.Context, job *jobs.RecurringTransactionJob, started, completed *time.Time) {
	if q.store == nil {
		return
	}
	_ = q.store.SaveRun(ctx, &jobs.Run{
		ID:          job.JobID,
		Job:         q.cfg.Definition.Name,
		Status:      job.Status,
		Attempt:     job.Attempt,
		CreatedAt:   job.CreatedAt,
		StartedAt:   started,
		CompletedAt: completed,
		Error:       job.Error,
		Result:      map[string]string{"transaction_id": job.TransactionID.String(), "user_id": job.UserID.String()},
	})
}

// Stop stops the workers and waits for in-flight items to complete. Items
// still waiting for a throttle slot or a retry are dropped.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeCh)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain waits until every published item has completed, failed for good or
// been dropped. Items must not be published while Drain is waiting.
func (q *Queue) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		q.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the queue without a deadline.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var _ jobs.Publisher = (*Queue)(nil)
