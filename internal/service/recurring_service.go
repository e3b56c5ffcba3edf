package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finelytics/internal/jobs"
	"finelytics/internal/models"
	"finelytics/internal/recurrence"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DueTransactionFinder lists recurring templates with an occurrence to
// generate.
type DueTransactionFinder interface {
	FindDueRecurring(ctx context.Context, now time.Time) ([]*models.Transaction, error)
}

// RecurringScanner emits one work item per due recurring template. It never
// mutates the ledger.
type RecurringScanner struct {
	store     DueTransactionFinder
	publisher jobs.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewRecurringScanner(store DueTransactionFinder, publisher jobs.Publisher, logger *zap.Logger) *RecurringScanner {
	return &RecurringScanner{
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Scan publishes the due templates and returns how many were triggered. A
// failed publish is logged and does not stop the others.
func (s *RecurringScanner) Scan(ctx context.Context) (int, error) {
	due, err := s.store.FindDueRecurring(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("find due recurring transactions: %w", err)
	}

	triggered := 0
	for _, tx := range due {
		if err := ctx.Err(); err != nil {
			return triggered, err
		}
		job := &jobs.RecurringTransactionJob{TransactionID: tx.ID, UserID: tx.UserID}
		if err := s.publisher.PublishRecurring(ctx, job); err != nil {
			s.logger.Error("Failed to publish recurring transaction",
				zap.String("transaction_id", tx.ID.String()),
				zap.String("user_id", tx.UserID.String()),
				zap.Error(err),
			)
			continue
		}
		triggered++
	}

	s.logger.Info("Recurring transactions triggered", zap.Int("due", len(due)), zap.Int("triggered", triggered))
	return triggered, nil
}

// RecurrenceStore is the ledger surface used by RecurringProcessor.
type RecurrenceStore interface {
	GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Transaction, error)
	ApplyRecurrence(ctx context.Context, app *models.RecurrenceApplication) error
}

type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeSkipped   Outcome = "skipped"
)

type ProcessResult struct {
	Outcome       Outcome
	TransactionID uuid.UUID
	OccurrenceID  uuid.UUID
	NextDate      time.Time
	Reason        string
}

// RecurringProcessor applies one occurrence of a due recurring template.
// Stale and duplicate work items are skipped, so delivering an item twice
// charges the account once.
type RecurringProcessor struct {
	store  RecurrenceStore
	logger *zap.Logger
	now    func() time.Time
}

func NewRecurringProcessor(store RecurrenceStore, logger *zap.Logger) *RecurringProcessor {
	return &RecurringProcessor{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

func skipped(id uuid.UUID, reason string) *ProcessResult {
	return &ProcessResult{Outcome: OutcomeSkipped, TransactionID: id, Reason: reason}
}

// Process handles job. Errors carry the job id and are never retried here.
func (p *RecurringProcessor) Process(ctx context.Context, job *jobs.RecurringTransactionJob) (*ProcessResult, error) {
	log := p.logger.With(
		zap.String("job_id", job.JobID),
		zap.String("transaction_id", job.TransactionID.String()),
		zap.String("user_id", job.UserID.String()),
	)
	now := p.now()

	tmpl, err := p.store.GetByIDForUser(ctx, job.TransactionID, job.UserID)
	if errors.Is(err, models.ErrNotFound) {
		log.Info("Recurring transaction not found, skipping")
		return skipped(job.TransactionID, "not found"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("job %s: load transaction %s: %w", job.JobID, job.TransactionID, err)
	}
	if !tmpl.IsDue(now) {
		log.Debug("Recurring transaction not due, skipping")
		return skipped(tmpl.ID, "not due"), nil
	}

	next, ok := recurrence.NextDate(tmpl.RecurrenceAnchor(), tmpl.RecurringInterval)
	if !ok {
		return nil, jobs.NonRetriable(fmt.Errorf("job %s: transaction %s: %w", job.JobID, tmpl.ID, models.ErrInvalidInterval))
	}

	occurrence := tmpl.Occurrence(now)
	app := &models.RecurrenceApplication{
		TemplateID:       tmpl.ID,
		UserID:           tmpl.UserID,
		ExpectedNextDate: tmpl.NextRecurringDate,
		Occurrence:       occurrence,
		Delta:            occurrence.SignedAmount(),
		ProcessedAt:      now,
		NextDate:         next,
	}

	err = p.store.ApplyRecurrence(ctx, app)
	switch {
	case errors.Is(err, models.ErrNotDue):
		log.Info("Recurring transaction advanced concurrently, skipping")
		return skipped(tmpl.ID, "already processed"), nil
	case errors.Is(err, models.ErrTransactionNotFound):
		return skipped(tmpl.ID, "not found"), nil
	case errors.Is(err, models.ErrAccountNotFound):
		return nil, jobs.NonRetriable(fmt.Errorf("job %s: apply recurrence %s: %w", job.JobID, tmpl.ID, err))
	case err != nil:
		return nil, fmt.Errorf("job %s: apply recurrence %s: %w", job.JobID, tmpl.ID, err)
	}

	log.Info("Recurring transaction processed",
		zap.String("occurrence_id", occurrence.ID.String()),
		zap.String("delta", app.Delta.String()),
		zap.Time("next_recurring_date", next),
	)
	return &ProcessResult{
		Outcome:       OutcomeProcessed,
		TransactionID: tmpl.ID,
		OccurrenceID:  occurrence.ID,
		NextDate:      next,
	}, nil
}

// Handle adapts Process to a queue handler.
func (p *RecurringProcessor) Handle(ctx context.Context, job *jobs.RecurringTransactionJob) error {
	_, err := p.Process(ctx, job)
	return err
}
