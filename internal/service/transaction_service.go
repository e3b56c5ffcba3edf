package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"finelytics/internal/dto"
	"finelytics/internal/models"
	"finelytics/internal/recurrence"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TransactionStore interface {
	CreateWithBalance(ctx context.Context, tx *models.Transaction) error
}

type TransactionService struct {
	transactions TransactionStore
	logger       *zap.Logger
	now          func() time.Time
}

func NewTransactionService(transactions TransactionStore, logger *zap.Logger) *TransactionService {
	return &TransactionService{
		transactions: transactions,
		logger:       logger,
		now:          time.Now,
	}
}

// CreateTransaction records a transaction and applies it to the account
// balance in one unit. Recurring transactions get their first
// next_recurring_date from the transaction date.
func (s *TransactionService) CreateTransaction(ctx context.Context, userID uuid.UUID, req *dto.CreateTransactionRequest) (*models.Transaction, error) {
	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid account id", models.ErrValidation)
	}
	txType := models.TransactionType(strings.ToUpper(strings.TrimSpace(req.Type)))
	if !txType.Valid() {
		return nil, models.ErrInvalidType
	}
	amount := req.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, models.ErrInvalidAmount
	}
	category := cleanText(req.Category)
	if category == "" {
		return nil, fmt.Errorf("%w: category is required", models.ErrValidation)
	}

	now := s.now()
	date := now
	if req.Date != nil && !req.Date.IsZero() {
		date = *req.Date
	}

	tx := &models.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		AccountID:   accountID,
		Type:        txType,
		Amount:      amount,
		Description: cleanText(req.Description),
		Category:    category,
		Date:        date,
		IsRecurring: req.IsRecurring,
		Status:      models.TransactionStatusCompleted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if req.IsRecurring {
		interval, err := recurrence.ParseInterval(req.RecurringInterval)
		if err != nil {
			return nil, models.ErrInvalidInterval
		}
		next, ok := recurrence.NextDate(date, interval)
		if !ok {
			return nil, models.ErrInvalidInterval
		}
		tx.RecurringInterval = interval
		tx.NextRecurringDate = &next
	}

	if err := s.transactions.CreateWithBalance(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Info("Transaction created",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("account_id", accountID.String()),
		zap.String("type", string(tx.Type)),
		zap.Bool("recurring", tx.IsRecurring),
	)
	return tx, nil
}
