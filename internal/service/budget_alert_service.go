package service

import (
	"context"
	"fmt"
	"time"

	"finelytics/internal/models"
	"finelytics/internal/notification"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BudgetAlertThreshold is the share of the budget, in percent, at which an
// alert is sent.
var BudgetAlertThreshold = decimal.NewFromInt(80)

var hundred = decimal.NewFromInt(100)

type BudgetAlertStore interface {
	FindBudgetsWithDefaultAccounts(ctx context.Context) ([]*models.BudgetAlertCandidate, error)
	UpdateBudgetAlertSent(ctx context.Context, budgetID uuid.UUID, at time.Time) error
}

type ExpenseSummer interface {
	SumExpenses(ctx context.Context, userID, accountID uuid.UUID, period models.DateRange) (decimal.Decimal, error)
}

type BudgetAlertSummary struct {
	Checked      int `json:"checked"`
	Alerted      int `json:"alerted"`
	SendFailures int `json:"send_failures"`
	Failed       int `json:"failed"`
}

// BudgetAlertService alerts users whose default account spent at least
// BudgetAlertThreshold percent of their monthly budget. A user gets at most
// one alert per calendar month, and an alert counts as sent even when
// delivery failed.
type BudgetAlertService struct {
	budgets  BudgetAlertStore
	expenses ExpenseSummer
	sender   notification.Sender
	loc      *time.Location
	currency string
	logger   *zap.Logger
	now      func() time.Time
}

func NewBudgetAlertService(budgets BudgetAlertStore, expenses ExpenseSummer, sender notification.Sender, loc *time.Location, currency string, logger *zap.Logger) *BudgetAlertService {
	return &BudgetAlertService{
		budgets:  budgets,
		expenses: expenses,
		sender:   sender,
		loc:      loc,
		currency: currency,
		logger:   logger,
		now:      time.Now,
	}
}

// PercentageUsed returns spent as a percentage of budget.
func PercentageUsed(spent, budget decimal.Decimal) decimal.Decimal {
	if !budget.IsPositive() {
		return decimal.Zero
	}
	return spent.Div(budget).Mul(hundred)
}

// CheckBudgets evaluates every budget once. Failures of single budgets are
// logged and counted.
func (s *BudgetAlertService) CheckBudgets(ctx context.Context) (*BudgetAlertSummary, error) {
	candidates, err := s.budgets.FindBudgetsWithDefaultAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("find budgets: %w", err)
	}

	now := s.now()
	summary := &BudgetAlertSummary{}
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Checked++

		alerted, sendErr, err := s.checkBudget(ctx, c, now)
		if err != nil {
			summary.Failed++
			s.logger.Error("Budget check failed",
				zap.String("budget_id", c.Budget.ID.String()),
				zap.String("user_id", c.Budget.UserID.String()),
				zap.Error(err),
			)
			continue
		}
		if alerted {
			summary.Alerted++
		}
		if sendErr != nil {
			summary.SendFailures++
		}
	}

	s.logger.Info("Budget alerts checked",
		zap.Int("checked", summary.Checked),
		zap.Int("alerted", summary.Alerted),
		zap.Int("send_failures", summary.SendFailures),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

func (s *BudgetAlertService) checkBudget(ctx context.Context, c *models.BudgetAlertCandidate, now time.Time) (alerted bool, sendErr error, err error) {
	if c.Budget.AlertedInMonthOf(now, s.loc) {
		return false, nil, nil
	}

	period := models.DateRange{From: models.MonthOf(now, s.loc).From, To: now}
	spent, err := s.expenses.SumExpenses(ctx, c.Budget.UserID, c.Account.ID, period)
	if err != nil {
		return false, nil, fmt.Errorf("sum expenses: %w", err)
	}

	used := PercentageUsed(spent, c.Budget.Amount)
	if used.LessThan(BudgetAlertThreshold) {
		return false, nil, nil
	}

	log := s.logger.With(
		zap.String("budget_id", c.Budget.ID.String()),
		zap.String("user_id", c.User.ID.String()),
		zap.String("percentage_used", used.StringFixed(1)),
	)

	msg, sendErr := notification.BudgetAlertMessage(c.User.Email, notification.BudgetAlert{
		UserName:      c.User.Name,
		AccountName:   c.Account.Name,
		Percentage:    used,
		BudgetAmount:  c.Budget.Amount,
		TotalExpenses: spent,
		Currency:      s.currency,
	})
	if sendErr == nil {
		sendErr = s.sender.Send(ctx, msg)
	}
	if sendErr != nil {
		log.Warn("Budget alert not delivered", zap.Error(sendErr))
	}

	if err := s.budgets.UpdateBudgetAlertSent(ctx, c.Budget.ID, now); err != nil {
		return false, sendErr, fmt.Errorf("mark alert sent: %w", err)
	}
	log.Info("Budget alert sent")
	return true, sendErr, nil
}
