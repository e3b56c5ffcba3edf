package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"finelytics/internal/api/handlers"
	"finelytics/internal/dto"
	"finelytics/internal/jobs"
	"finelytics/internal/jobs/inmemory"
	"finelytics/internal/models"
	"finelytics/internal/service"
	"finelytics/pkg/auth"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// memStore keeps users, accounts, transactions and budgets in memory.
type memStore struct {
	mu           sync.Mutex
	users        map[string]*models.User
	accounts     map[uuid.UUID]*models.Account
	transactions []*models.Transaction
	budgets      map[uuid.UUID]*models.Budget
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]*models.User{},
		accounts: map[uuid.UUID]*models.Account{},
		budgets:  map[uuid.UUID]*models.Budget{},
	}
}

func (m *memStore) Ensure(_ context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[user.ExternalID]; ok {
		return u, nil
	}
	m.users[user.ExternalID] = user
	return user, nil
}

func (m *memStore) Create(_ context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	hasAccounts := false
	for _, a := range m.accounts {
		if a.UserID == account.UserID {
			hasAccounts = true
			if account.IsDefault {
				a.IsDefault = false
			}
		}
	}
	if !hasAccounts {
		account.IsDefault = true
	}
	cp := *account
	m.accounts[account.ID] = &cp
	return nil
}

func (m *memStore) SetDefault(_ context.Context, accountID, userID uuid.UUID) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	target, ok := m.accounts[accountID]
	if !ok || target.UserID != userID {
		return nil, models.ErrAccountNotFound
	}
	for _, a := range m.accounts {
		if a.UserID == userID {
			a.IsDefault = a.ID == accountID
		}
	}
	cp := *target
	return &cp, nil
}

func (m *memStore) GetByIDForUser(_ context.Context, id, userID uuid.UUID) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || a.UserID != userID {
		return nil, models.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Account
	for _, a := range m.accounts {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) ListByAccount(_ context.Context, accountID, userID uuid.UUID, limit, offset int) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Transaction
	for i := len(m.transactions) - 1; i >= 0; i-- {
		tx := m.transactions[i]
		if tx.AccountID == accountID && tx.UserID == userID {
			out = append(out, tx)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) CreateWithBalance(_ context.Context, tx *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[tx.AccountID]
	if !ok || a.UserID != tx.UserID {
		return models.ErrAccountNotFound
	}
	a.Balance = a.Balance.Add(tx.SignedAmount())
	m.transactions = append(m.transactions, tx)
	return nil
}

func (m *memStore) Upsert(_ context.Context, budget *models.Budget) (*models.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.budgets[budget.UserID]; ok {
		b.Amount = budget.Amount
		b.UpdatedAt = budget.UpdatedAt
		return b, nil
	}
	m.budgets[budget.UserID] = budget
	return budget, nil
}

func (m *memStore) GetByUser(_ context.Context, userID uuid.UUID) (*models.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[userID]
	if !ok {
		return nil, models.ErrBudgetNotFound
	}
	return b, nil
}

func (m *memStore) SumExpenses(_ context.Context, userID, accountID uuid.UUID, period models.DateRange) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, tx := range m.transactions {
		if tx.UserID == userID && tx.AccountID == accountID && tx.Type == models.TransactionTypeExpense &&
			!tx.Date.Before(period.From) && tx.Date.Before(period.To) {
			total = total.Add(tx.Amount)
		}
	}
	return total, nil
}

type testServer struct {
	t       *testing.T
	handler func(*http.Request) (*http.Response, error)
	jwt     *auth.JWTManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	store := newMemStore()
	jwtManager := auth.NewJWTManager("test-secret", "finelytics-test")

	runs := inmemory.NewStore(100)
	scheduler := jobs.NewScheduler(time.UTC, runs, logger)
	err := scheduler.Register(jobs.Definition{
		Name:    jobs.JobBudgetAlerts,
		Trigger: jobs.Trigger{Cron: "0 */6 * * *"},
		Retry:   jobs.RetryPolicy{MaxAttempts: 1},
	}, func(context.Context) (any, error) { return "ok", nil })
	if err != nil {
		t.Fatalf("register job: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = scheduler.Stop(ctx)
	})

	app := SetupRouter(Handlers{
		Accounts:     handlers.NewAccountHandler(service.NewAccountService(store, store, logger), logger),
		Transactions: handlers.NewTransactionHandler(service.NewTransactionService(store, logger), logger),
		Budget:       handlers.NewBudgetHandler(service.NewBudgetService(store, store, time.UTC, logger), logger),
		Jobs:         handlers.NewJobHandler(scheduler, runs, logger),
	}, jwtManager, service.NewUserService(store, logger), logger)

	return &testServer{
		t:       t,
		handler: func(r *http.Request) (*http.Response, error) { return app.Test(r, -1) },
		jwt:     jwtManager,
	}
}

func (s *testServer) token(subject, role string) string {
	s.t.Helper()
	token, err := s.jwt.GenerateToken(subject, subject+"@example.com", "Test User", role, time.Hour)
	if err != nil {
		s.t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

func (s *testServer) do(method, path, token string, body any, out any) int {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.handler(req)
	if err != nil {
		s.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			s.t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	var body map[string]string
	if code := srv.do(http.MethodGet, "/health", "", nil, &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)
	if code := srv.do(http.MethodGet, "/api/v1/accounts", "", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d", code)
	}
	if code := srv.do(http.MethodGet, "/api/v1/accounts", "garbage", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("bad token: status = %d", code)
	}
}

func TestExpenseUpdatesBalance(t *testing.T) {
	srv := newTestServer(t)
	token := srv.token("user-1", "")

	var account dto.AccountResponse
	code := srv.do(http.MethodPost, "/api/v1/accounts", token, map[string]any{
		"name": "Main", "type": "CURRENT", "balance": "1000.00",
	}, &account)
	if code != http.StatusCreated {
		t.Fatalf("create account: status = %d", code)
	}
	if !account.IsDefault {
		t.Fatal("first account should be the default")
	}

	var tx dto.TransactionResponse
	code = srv.do(http.MethodPost, "/api/v1/transactions", token, map[string]any{
		"account_id": account.ID, "type": "EXPENSE", "amount": "200.00", "category": "groceries",
	}, &tx)
	if code != http.StatusCreated {
		t.Fatalf("create transaction: status = %d", code)
	}
	if tx.Status != string(models.TransactionStatusCompleted) {
		t.Fatalf("status = %q", tx.Status)
	}

	var detail dto.AccountDetailResponse
	if code := srv.do(http.MethodGet, "/api/v1/accounts/"+account.ID, token, nil, &detail); code != http.StatusOK {
		t.Fatalf("get account: status = %d", code)
	}
	if !detail.Balance.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("balance = %s, want 800", detail.Balance)
	}
	if len(detail.Transactions) != 1 {
		t.Fatalf("transactions = %d, want 1", len(detail.Transactions))
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	srv := newTestServer(t)
	token := srv.token("user-1", "")

	var account dto.AccountResponse
	srv.do(http.MethodPost, "/api/v1/accounts", token, map[string]any{"name": "Main", "balance": "10"}, &account)

	cases := map[string]map[string]any{
		"negative amount":  {"account_id": account.ID, "type": "EXPENSE", "amount": "-5", "category": "food"},
		"unknown type":     {"account_id": account.ID, "type": "TRANSFER", "amount": "5", "category": "food"},
		"missing interval": {"account_id": account.ID, "type": "EXPENSE", "amount": "5", "category": "rent", "is_recurring": true},
		"bad account id":   {"account_id": "nope", "type": "EXPENSE", "amount": "5", "category": "food"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			var errResp dto.ErrorResponse
			if code := srv.do(http.MethodPost, "/api/v1/transactions", token, body, &errResp); code != http.StatusBadRequest {
				t.Fatalf("status = %d (%s)", code, errResp.Error)
			}
		})
	}

	var errResp dto.ErrorResponse
	code := srv.do(http.MethodPost, "/api/v1/transactions", token, map[string]any{
		"account_id": uuid.NewString(), "type": "EXPENSE", "amount": "5", "category": "food",
	}, &errResp)
	if code != http.StatusNotFound {
		t.Fatalf("unknown account: status = %d", code)
	}
}

func TestAccountsAreScopedToUser(t *testing.T) {
	srv := newTestServer(t)

	var account dto.AccountResponse
	srv.do(http.MethodPost, "/api/v1/accounts", srv.token("owner", ""), map[string]any{"name": "Main"}, &account)

	other := srv.token("intruder", "")
	if code := srv.do(http.MethodGet, "/api/v1/accounts/"+account.ID, other, nil, nil); code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", code)
	}
	var list []dto.AccountResponse
	srv.do(http.MethodGet, "/api/v1/accounts", other, nil, &list)
	if len(list) != 0 {
		t.Fatalf("intruder sees %d accounts", len(list))
	}
}

func TestBudgetStatus(t *testing.T) {
	srv := newTestServer(t)
	token := srv.token("user-1", "")

	var account dto.AccountResponse
	srv.do(http.MethodPost, "/api/v1/accounts", token, map[string]any{"name": "Main", "balance": "5000"}, &account)
	srv.do(http.MethodPost, "/api/v1/transactions", token, map[string]any{
		"account_id": account.ID, "type": "EXPENSE", "amount": "850", "category": "rent",
	}, nil)

	if code := srv.do(http.MethodPut, "/api/v1/budget", token, map[string]any{"amount": "1000"}, nil); code != http.StatusOK {
		t.Fatalf("update budget: status = %d", code)
	}

	var status dto.BudgetStatusResponse
	if code := srv.do(http.MethodGet, "/api/v1/budget?accountId="+account.ID, token, nil, &status); code != http.StatusOK {
		t.Fatalf("get budget: status = %d", code)
	}
	if status.Budget == nil || !status.Budget.Amount.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("budget = %+v", status.Budget)
	}
	if !status.CurrentExpenses.Equal(decimal.NewFromInt(850)) {
		t.Fatalf("expenses = %s", status.CurrentExpenses)
	}
	if !status.PercentageUsed.Equal(decimal.NewFromInt(85)) {
		t.Fatalf("percentage = %s", status.PercentageUsed)
	}

	if code := srv.do(http.MethodGet, "/api/v1/budget", token, nil, nil); code != http.StatusBadRequest {
		t.Fatalf("missing accountId: status = %d", code)
	}
}

func TestJobsRequireAdmin(t *testing.T) {
	srv := newTestServer(t)
	if code := srv.do(http.MethodGet, "/api/v1/jobs", srv.token("user-1", ""), nil, nil); code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", code)
	}
}

func TestJobsListAndTrigger(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.token("admin-1", auth.RoleAdmin)

	var list dto.JobsResponse
	if code := srv.do(http.MethodGet, "/api/v1/jobs", admin, nil, &list); code != http.StatusOK {
		t.Fatalf("list: status = %d", code)
	}
	if len(list.Jobs) != 1 || list.Jobs[0].Name != jobs.JobBudgetAlerts {
		t.Fatalf("jobs = %+v", list.Jobs)
	}

	var run jobs.Run
	if code := srv.do(http.MethodPost, "/api/v1/jobs/"+jobs.JobBudgetAlerts+"/run", admin, nil, &run); code != http.StatusAccepted {
		t.Fatalf("trigger: status = %d", code)
	}
	if run.Job != jobs.JobBudgetAlerts || run.ID == "" {
		t.Fatalf("run = %+v", run)
	}

	if code := srv.do(http.MethodPost, "/api/v1/jobs/nope/run", admin, nil, nil); code != http.StatusNotFound {
		t.Fatalf("unknown job: status = %d", code)
	}
}
