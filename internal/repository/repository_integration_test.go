package repository

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"finelytics/internal/models"
	"finelytics/internal/recurrence"
	"finelytics/pkg/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Integration tests run against a disposable database named by
// FINELYTICS_TEST_DATABASE_URL and are skipped without it.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("FINELYTICS_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("FINELYTICS_TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := postgres.ApplyMigrations(ctx, pool, zap.NewNop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

type fixture struct {
	users        *UserRepository
	accounts     *AccountRepository
	transactions *TransactionRepository
	budgets      *BudgetRepository
	user         *models.User
	account      *models.Account
}

func newFixture(t *testing.T, balance string) *fixture {
	t.Helper()
	pool := testPool(t)
	logger := zap.NewNop()
	f := &fixture{
		users:        NewUserRepository(pool, logger),
		accounts:     NewAccountRepository(pool, logger),
		transactions: NewTransactionRepository(pool, logger),
		budgets:      NewBudgetRepository(pool, logger),
	}

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	externalID := "it-" + uuid.NewString()
	user, err := f.users.Ensure(ctx, &models.User{
		ID:         uuid.New(),
		ExternalID: externalID,
		Email:      externalID + "@example.com",
		Name:       "Integration",
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("Ensure user: %v", err)
	}
	f.user = user

	f.account = &models.Account{
		ID:        uuid.New(),
		UserID:    user.ID,
		Name:      "Main",
		Type:      models.AccountTypeCurrent,
		Balance:   decimal.RequireFromString(balance),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.accounts.Create(ctx, f.account); err != nil {
		t.Fatalf("Create account: %v", err)
	}
	return f
}

func (f *fixture) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	a, err := f.accounts.GetByIDForUser(context.Background(), f.account.ID, f.user.ID)
	if err != nil {
		t.Fatalf("GetByIDForUser: %v", err)
	}
	return a.Balance
}

func (f *fixture) transaction(txType models.TransactionType, amount string, date time.Time) *models.Transaction {
	return &models.Transaction{
		ID:        uuid.New(),
		UserID:    f.user.ID,
		AccountID: f.account.ID,
		Type:      txType,
		Amount:    decimal.RequireFromString(amount),
		Category:  "groceries",
		Date:      date,
		Status:    models.TransactionStatusCompleted,
		CreatedAt: date,
		UpdatedAt: date,
	}
}

func TestIntegration_CreateWithBalance(t *testing.T) {
	f := newFixture(t, "1000.00")
	ctx := context.Background()

	if err := f.transactions.CreateWithBalance(ctx, f.transaction(models.TransactionTypeExpense, "200.00", time.Now())); err != nil {
		t.Fatalf("CreateWithBalance: %v", err)
	}
	if got := f.balance(t); !got.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("balance = %s, want 800", got)
	}

	txs, err := f.transactions.ListByAccount(ctx, f.account.ID, f.user.ID, 10, 0)
	if err != nil || len(txs) != 1 {
		t.Fatalf("ListByAccount = %d, %v", len(txs), err)
	}
}

func TestIntegration_CreateWithBalanceIsAtomic(t *testing.T) {
	f := newFixture(t, "9999999999999999.00")
	ctx := context.Background()

	err := f.transactions.CreateWithBalance(ctx, f.transaction(models.TransactionTypeIncome, "10.00", time.Now()))
	if err == nil {
		t.Fatal("expected numeric overflow")
	}

	if got := f.balance(t); !got.Equal(decimal.RequireFromString("9999999999999999.00")) {
		t.Fatalf("balance = %s, want unchanged", got)
	}
	txs, err := f.transactions.ListByAccount(ctx, f.account.ID, f.user.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListByAccount: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("transaction persisted despite failed balance update")
	}
}

func TestIntegration_CreateWithBalanceUnknownAccount(t *testing.T) {
	f := newFixture(t, "10")
	tx := f.transaction(models.TransactionTypeExpense, "1", time.Now())
	tx.AccountID = uuid.New()

	err := f.transactions.CreateWithBalance(context.Background(), tx)
	if !errors.Is(err, models.ErrAccountNotFound) {
		t.Fatalf("err = %v, want ErrAccountNotFound", err)
	}
}

func TestIntegration_ApplyRecurrenceOnce(t *testing.T) {
	f := newFixture(t, "1000.00")
	ctx := context.Background()

	start := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	tmpl := f.transaction(models.TransactionTypeExpense, "50.00", start)
	tmpl.IsRecurring = true
	tmpl.RecurringInterval = recurrence.Monthly
	next, _ := recurrence.NextDate(start, recurrence.Monthly)
	tmpl.NextRecurringDate = &next
	if err := f.transactions.CreateWithBalance(ctx, tmpl); err != nil {
		t.Fatalf("create template: %v", err)
	}

	due, err := f.transactions.FindDueRecurring(ctx, time.Now())
	if err != nil {
		t.Fatalf("FindDueRecurring: %v", err)
	}
	found := false
	for _, d := range due {
		found = found || d.ID == tmpl.ID
	}
	if !found {
		t.Fatal("never processed template should be due")
	}

	processedAt := time.Now().UTC().Truncate(time.Microsecond)
	following, _ := recurrence.NextDate(next, recurrence.Monthly)
	apply := func() error {
		occ := tmpl.Occurrence(processedAt)
		return f.transactions.ApplyRecurrence(ctx, &models.RecurrenceApplication{
			TemplateID:       tmpl.ID,
			UserID:           f.user.ID,
			ExpectedNextDate: &next,
			Occurrence:       occ,
			Delta:            occ.SignedAmount(),
			ProcessedAt:      processedAt,
			NextDate:         following,
		})
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := apply()
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				applied++
			case errors.Is(err, models.ErrNotDue), errors.Is(err, ErrSerialization):
			default:
				t.Errorf("ApplyRecurrence: %v", err)
			}
		}()
	}
	wg.Wait()

	if applied != 1 {
		t.Fatalf("applied %d times, want 1", applied)
	}
	// 1000 - 50 (template) - 50 (one occurrence)
	if got := f.balance(t); !got.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("balance = %s, want 900", got)
	}

	stored, err := f.transactions.GetByIDForUser(ctx, tmpl.ID, f.user.ID)
	if err != nil {
		t.Fatalf("GetByIDForUser: %v", err)
	}
	if stored.LastProcessedDate == nil || !stored.NextRecurringDate.Equal(following) {
		t.Fatalf("template not advanced: %+v", stored)
	}
}

func TestIntegration_ApplyRecurrenceIsAtomic(t *testing.T) {
	// The template itself brings the balance to the NUMERIC(18,2) maximum,
	// so the occurrence's balance update overflows.
	f := newFixture(t, "9999999999999989.99")
	ctx := context.Background()

	start := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	tmpl := f.transaction(models.TransactionTypeIncome, "10.00", start)
	tmpl.IsRecurring = true
	tmpl.RecurringInterval = recurrence.Monthly
	next, _ := recurrence.NextDate(start, recurrence.Monthly)
	tmpl.NextRecurringDate = &next
	if err := f.transactions.CreateWithBalance(ctx, tmpl); err != nil {
		t.Fatalf("create template: %v", err)
	}
	before := f.balance(t)

	processedAt := time.Now().UTC().Truncate(time.Microsecond)
	following, _ := recurrence.NextDate(next, recurrence.Monthly)
	occ := tmpl.Occurrence(processedAt)
	err := f.transactions.ApplyRecurrence(ctx, &models.RecurrenceApplication{
		TemplateID:       tmpl.ID,
		UserID:           f.user.ID,
		ExpectedNextDate: &next,
		Occurrence:       occ,
		Delta:            occ.SignedAmount(),
		ProcessedAt:      processedAt,
		NextDate:         following,
	})
	if err == nil {
		t.Fatal("expected numeric overflow")
	}

	if got := f.balance(t); !got.Equal(before) {
		t.Errorf("balance = %s, want unchanged %s", got, before)
	}
	txs, err := f.transactions.ListByAccount(ctx, f.account.ID, f.user.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListByAccount: %v", err)
	}
	if len(txs) != 1 || txs[0].ID != tmpl.ID {
		t.Errorf("transactions = %d, want only the template", len(txs))
	}
	stored, err := f.transactions.GetByIDForUser(ctx, tmpl.ID, f.user.ID)
	if err != nil {
		t.Fatalf("GetByIDForUser: %v", err)
	}
	if stored.LastProcessedDate != nil {
		t.Errorf("last_processed_date = %v, want unset", stored.LastProcessedDate)
	}
	if stored.NextRecurringDate == nil || !stored.NextRecurringDate.Equal(next) {
		t.Errorf("next_recurring_date = %v, want %s", stored.NextRecurringDate, next)
	}
}

func TestIntegration_BudgetAlertCandidates(t *testing.T) {
	f := newFixture(t, "0")
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	budget, err := f.budgets.Upsert(ctx, &models.Budget{
		ID: uuid.New(), UserID: f.user.ID, Amount: decimal.NewFromInt(1000), CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := f.budgets.UpdateBudgetAlertSent(ctx, budget.ID, now); err != nil {
		t.Fatalf("UpdateBudgetAlertSent: %v", err)
	}

	candidates, err := f.budgets.FindBudgetsWithDefaultAccounts(ctx)
	if err != nil {
		t.Fatalf("FindBudgetsWithDefaultAccounts: %v", err)
	}
	for _, c := range candidates {
		if c.Budget.ID != budget.ID {
			continue
		}
		if c.Account.ID != f.account.ID {
			t.Fatalf("candidate account = %s, want default %s", c.Account.ID, f.account.ID)
		}
		if c.Budget.LastAlertSent == nil || !c.Budget.LastAlertSent.Equal(now) {
			t.Fatalf("last alert = %v", c.Budget.LastAlertSent)
		}
		return
	}
	t.Fatal("budget with a default account not listed")
}
