package service

import (
	"context"
	"sync"
	"time"

	"finelytics/internal/jobs"
	"finelytics/internal/models"
	"finelytics/internal/notification"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memoryLedger applies recurrences under one mutex, which stands in for the
// row locks of the real store.
type memoryLedger struct {
	mu          sync.Mutex
	templates   map[uuid.UUID]*models.Transaction
	occurrences []*models.Transaction
	balances    map[uuid.UUID]decimal.Decimal
	applyCalls  int
	applyErr    error
	// balanceErr fails the balance step; like a rolled back transaction,
	// nothing of the unit is kept.
	balanceErr error
}

func newMemoryLedger(accountID uuid.UUID, balance decimal.Decimal, templates ...*models.Transaction) *memoryLedger {
	l := &memoryLedger{
		templates: map[uuid.UUID]*models.Transaction{},
		balances:  map[uuid.UUID]decimal.Decimal{accountID: balance},
	}
	for _, t := range templates {
		l.templates[t.ID] = t
	}
	return l
}

func (l *memoryLedger) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.templates[id]
	if !ok || t.UserID != userID {
		return nil, models.ErrTransactionNotFound
	}
	cp := *t
	return &cp, nil
}

func (l *memoryLedger) ApplyRecurrence(ctx context.Context, app *models.RecurrenceApplication) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.applyCalls++
	if l.applyErr != nil {
		return l.applyErr
	}

	t, ok := l.templates[app.TemplateID]
	if !ok {
		return models.ErrTransactionNotFound
	}
	if !t.IsDue(app.ProcessedAt) || !sameDate(t.NextRecurringDate, app.ExpectedNextDate) {
		return models.ErrNotDue
	}
	balance, ok := l.balances[t.AccountID]
	if !ok {
		return models.ErrAccountNotFound
	}
	if l.balanceErr != nil {
		return l.balanceErr
	}

	l.occurrences = append(l.occurrences, app.Occurrence)
	l.balances[t.AccountID] = balance.Add(app.Delta)
	processed, next := app.ProcessedAt, app.NextDate
	t.LastProcessedDate = &processed
	t.NextRecurringDate = &next
	return nil
}

func (l *memoryLedger) balance(accountID uuid.UUID) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[accountID]
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

type fakePublisher struct {
	mu        sync.Mutex
	published []*jobs.RecurringTransactionJob
	publishFn func(job *jobs.RecurringTransactionJob) error
}

func (p *fakePublisher) PublishRecurring(ctx context.Context, job *jobs.RecurringTransactionJob) error {
	if p.publishFn != nil {
		if err := p.publishFn(job); err != nil {
			return err
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, job)
	return nil
}

type fakeSender struct {
	mu     sync.Mutex
	sent   []notification.Message
	sendFn func(msg notification.Message) error
}

func (s *fakeSender) Send(ctx context.Context, msg notification.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendFn != nil {
		if err := s.sendFn(msg); err != nil {
			return err
		}
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *fakeSender) messages() []notification.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notification.Message(nil), s.sent...)
}

type fakeBudgetStore struct {
	mu             sync.Mutex
	candidates     []*models.BudgetAlertCandidate
	findErr        error
	markedSent     map[uuid.UUID]time.Time
	upsertFn       func(b *models.Budget) (*models.Budget, error)
	getByUserFn    func(userID uuid.UUID) (*models.Budget, error)
	updateAlertErr error
}

func (s *fakeBudgetStore) FindBudgetsWithDefaultAccounts(ctx context.Context) ([]*models.BudgetAlertCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	out := make([]*models.BudgetAlertCandidate, 0, len(s.candidates))
	for _, c := range s.candidates {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (s *fakeBudgetStore) UpdateBudgetAlertSent(ctx context.Context, budgetID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateAlertErr != nil {
		return s.updateAlertErr
	}
	if s.markedSent == nil {
		s.markedSent = map[uuid.UUID]time.Time{}
	}
	s.markedSent[budgetID] = at
	for _, c := range s.candidates {
		if c.Budget.ID == budgetID {
			sent := at
			c.Budget.LastAlertSent = &sent
		}
	}
	return nil
}

func (s *fakeBudgetStore) Upsert(ctx context.Context, b *models.Budget) (*models.Budget, error) {
	return s.upsertFn(b)
}

func (s *fakeBudgetStore) GetByUser(ctx context.Context, userID uuid.UUID) (*models.Budget, error) {
	return s.getByUserFn(userID)
}

type fakeExpenses struct {
	mu      sync.Mutex
	calls   int
	periods []models.DateRange
	sumFn   func(userID, accountID uuid.UUID) (decimal.Decimal, error)
}

func (e *fakeExpenses) SumExpenses(ctx context.Context, userID, accountID uuid.UUID, period models.DateRange) (decimal.Decimal, error) {
	e.mu.Lock()
	e.calls++
	e.periods = append(e.periods, period)
	e.mu.Unlock()
	return e.sumFn(userID, accountID)
}

type fakeReportStore struct {
	users   []*models.User
	statsFn func(userID uuid.UUID, period models.DateRange) (*models.MonthlyStats, error)
}

func (s *fakeReportStore) FindUsers(ctx context.Context) ([]*models.User, error) {
	return s.users, nil
}

func (s *fakeReportStore) MonthlyStats(ctx context.Context, userID uuid.UUID, period models.DateRange) (*models.MonthlyStats, error) {
	return s.statsFn(userID, period)
}

type fakeInsights struct {
	generateFn func(stats *models.MonthlyStats, month string) ([]string, error)
}

func (f *fakeInsights) GenerateInsights(ctx context.Context, stats *models.MonthlyStats, month string) ([]string, error) {
	return f.generateFn(stats, month)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
