package service

import (
	"context"
	"strings"
	"time"

	"finelytics/internal/dto"
	"finelytics/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	SetDefault(ctx context.Context, accountID, userID uuid.UUID) (*models.Account, error)
	GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Account, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Account, error)
}

type AccountTransactionLister interface {
	ListByAccount(ctx context.Context, accountID, userID uuid.UUID, limit, offset int) ([]*models.Transaction, error)
}

type AccountService struct {
	accounts     AccountStore
	transactions AccountTransactionLister
	logger       *zap.Logger
}

func NewAccountService(accounts AccountStore, transactions AccountTransactionLister, logger *zap.Logger) *AccountService {
	return &AccountService{
		accounts:     accounts,
		transactions: transactions,
		logger:       logger,
	}
}

// CreateAccount opens an account. The first account of a user is always the
// default one.
func (s *AccountService) CreateAccount(ctx context.Context, userID uuid.UUID, req *dto.CreateAccountRequest) (*models.Account, error) {
	name := cleanText(req.Name)
	if name == "" {
		return nil, models.ErrInvalidName
	}
	accountType := models.AccountType(strings.ToUpper(strings.TrimSpace(req.Type)))
	if accountType == "" {
		accountType = models.AccountTypeCurrent
	}
	if !accountType.Valid() {
		return nil, models.ErrInvalidType
	}

	now := time.Now()
	account := &models.Account{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Type:      accountType,
		Balance:   req.Balance.Round(2),
		IsDefault: req.IsDefault,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("Account created",
		zap.String("account_id", account.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Bool("default", account.IsDefault),
	)
	return account, nil
}

func (s *AccountService) ListAccounts(ctx context.Context, userID uuid.UUID) ([]*models.Account, error) {
	return s.accounts.ListByUser(ctx, userID)
}

func (s *AccountService) SetDefaultAccount(ctx context.Context, userID, accountID uuid.UUID) (*models.Account, error) {
	return s.accounts.SetDefault(ctx, accountID, userID)
}

// GetAccountWithTransactions returns the account and a page of its
// transactions, newest first.
func (s *AccountService) GetAccountWithTransactions(ctx context.Context, userID, accountID uuid.UUID, limit, offset int) (*models.Account, []*models.Transaction, error) {
	account, err := s.accounts.GetByIDForUser(ctx, accountID, userID)
	if err != nil {
		return nil, nil, err
	}
	txs, err := s.transactions.ListByAccount(ctx, accountID, userID, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	return account, txs, nil
}
