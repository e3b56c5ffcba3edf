package jobs

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Names of the jobs hosted by the service.
const (
	JobBudgetAlerts        = "check-budget-alerts"
	JobRecurringScan       = "trigger-recurring-transactions"
	JobRecurringProcessing = "process-recurring-transaction"
	JobMonthlyReports      = "generate-monthly-reports"
)

// EventRecurringTransactionDue is the event a scanner emits per due template.
const EventRecurringTransactionDue = "transaction.recurring.process"

// Trigger tells the runtime when a job runs: on a cron schedule or once per
// received event.
type Trigger struct {
	Cron  string `json:"cron,omitempty"`
	Event string `json:"event,omitempty"`
}

// Throttle bounds how many executions sharing a key may start per period.
type Throttle struct {
	Limit  int           `json:"limit"`
	Period time.Duration `json:"period"`
}

// RetryPolicy bounds the attempts of a failing execution. Attempt n (n >= 1)
// is followed by a delay of BaseDelay * 2^n.
type RetryPolicy struct {
	MaxAttempts int           `json:"max_attempts"`
	BaseDelay   time.Duration `json:"base_delay"`
}

// Backoff returns the delay before the attempt following attempt.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt)))
}

// ShouldRetry reports whether a failure of attempt may be retried.
func (p RetryPolicy) ShouldRetry(attempt int, err error) bool {
	if err == nil || attempt >= p.MaxAttempts {
		return false
	}
	var nr *nonRetriable
	return !errors.As(err, &nr)
}

// Definition describes a job independently of the runtime that hosts it.
type Definition struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Trigger     Trigger       `json:"trigger"`
	Concurrency int           `json:"concurrency"`
	Throttle    *Throttle     `json:"throttle,omitempty"`
	Retry       RetryPolicy   `json:"retry"`
	Timeout     time.Duration `json:"timeout"`
}

func (d Definition) Validate() error {
	if d.Name == "" {
		return errors.New("job name is required")
	}
	if (d.Trigger.Cron == "") == (d.Trigger.Event == "") {
		return fmt.Errorf("job %s: exactly one of cron or event trigger is required", d.Name)
	}
	if d.Retry.MaxAttempts < 1 {
		return fmt.Errorf("job %s: at least one attempt is required", d.Name)
	}
	if d.Throttle != nil && (d.Throttle.Limit < 1 || d.Throttle.Period <= 0) {
		return fmt.Errorf("job %s: invalid throttle", d.Name)
	}
	return nil
}

// Func is the body of a scheduled job. The returned value is recorded on the
// run for observability.
type Func func(ctx context.Context) (any, error)

// RunStatus represents the current status of a run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusRetrying  RunStatus = "retrying"
)

// Run records one execution of a job, including its retries.
type Run struct {
	ID          string     `json:"id"`
	Job         string     `json:"job"`
	Status      RunStatus  `json:"status"`
	Attempt     int        `json:"attempt"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	Result      any        `json:"result,omitempty"`
}

func NewRun(job string) *Run {
	return &Run{
		ID:        uuid.New().String(),
		Job:       job,
		Status:    RunStatusPending,
		CreatedAt: time.Now(),
	}
}

// RecurringTransactionJob is the work item produced per due recurring
// template and consumed by the recurring transaction processor.
type RecurringTransactionJob struct {
	JobID         string    `json:"job_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	UserID        uuid.UUID `json:"user_id"`
	Status        RunStatus `json:"status"`
	Attempt       int       `json:"attempt"`
	CreatedAt     time.Time `json:"created_at"`
	Error         string    `json:"error,omitempty"`

	// reserved is set once the throttle granted the job a slot.
	reserved bool
}

// ThrottleKey groups work items for rate limiting.
func (j *RecurringTransactionJob) ThrottleKey() string { return j.UserID.String() }

// Reserve marks the job as holding a throttle slot.
func (j *RecurringTransactionJob) Reserve() { j.reserved = true }

// Reserved reports whether the job already holds a throttle slot.
func (j *RecurringTransactionJob) Reserved() bool { return j.reserved }

// Publisher enqueues work items.
type Publisher interface {
	PublishRecurring(ctx context.Context, job *RecurringTransactionJob) error
}

// RecurringHandler processes a single work item. A returned error fails the
// attempt; the hosting queue decides about retries.
type RecurringHandler func(ctx context.Context, job *RecurringTransactionJob) error

// RunStore keeps the history of job runs.
type RunStore interface {
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error)
}

// RunFilter defines filtering criteria for listing runs.
type RunFilter struct {
	Job    string
	Status RunStatus
	Limit  int
}

type nonRetriable struct{ err error }

func (e *nonRetriable) Error() string { return e.err.Error() }
func (e *nonRetriable) Unwrap() error { return e.err }

// NonRetriable wraps err so that no retry policy retries it.
func NonRetriable(err error) error {
	if err == nil {
		return nil
	}
	return &nonRetriable{err: err}
}
