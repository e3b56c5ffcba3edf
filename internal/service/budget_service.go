package service

import (
	"context"
	"errors"
	"time"

	"finelytics/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type BudgetStore interface {
	Upsert(ctx context.Context, budget *models.Budget) (*models.Budget, error)
	GetByUser(ctx context.Context, userID uuid.UUID) (*models.Budget, error)
}

type BudgetStatus struct {
	Budget          *models.Budget
	CurrentExpenses decimal.Decimal
	PercentageUsed  decimal.Decimal
}

type BudgetService struct {
	budgets  BudgetStore
	expenses ExpenseSummer
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

func NewBudgetService(budgets BudgetStore, expenses ExpenseSummer, loc *time.Location, logger *zap.Logger) *BudgetService {
	return &BudgetService{
		budgets:  budgets,
		expenses: expenses,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}
}

// UpdateBudget sets the user's monthly budget.
func (s *BudgetService) UpdateBudget(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*models.Budget, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil, models.ErrInvalidAmount
	}
	now := s.now()
	budget, err := s.budgets.Upsert(ctx, &models.Budget{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    amount,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Budget updated", zap.String("user_id", userID.String()), zap.String("amount", budget.Amount.String()))
	return budget, nil
}

// GetBudgetStatus returns the budget, which may be nil, and this month's
// expenses of accountID.
func (s *BudgetService) GetBudgetStatus(ctx context.Context, userID, accountID uuid.UUID) (*BudgetStatus, error) {
	budget, err := s.budgets.GetByUser(ctx, userID)
	if err != nil && !errors.Is(err, models.ErrBudgetNotFound) {
		return nil, err
	}

	spent, err := s.expenses.SumExpenses(ctx, userID, accountID, models.MonthOf(s.now(), s.loc))
	if err != nil {
		return nil, err
	}

	status := &BudgetStatus{Budget: budget, CurrentExpenses: spent, PercentageUsed: decimal.Zero}
	if budget != nil {
		status.PercentageUsed = PercentageUsed(spent, budget.Amount).Round(1)
	}
	return status, nil
}
