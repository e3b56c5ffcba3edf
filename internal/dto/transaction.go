package dto

import (
	"time"

	"finelytics/internal/models"

	"github.com/shopspring/decimal"
)

type CreateTransactionRequest struct {
	AccountID         string          `json:"account_id"`
	Type              string          `json:"type" example:"EXPENSE"`
	Amount            decimal.Decimal `json:"amount" swaggertype:"string" example:"200.00"`
	Description       string          `json:"description"`
	Category          string          `json:"category" example:"groceries"`
	Date              *time.Time      `json:"date,omitempty"`
	IsRecurring       bool            `json:"is_recurring"`
	RecurringInterval string          `json:"recurring_interval,omitempty" example:"MONTHLY"`
}

type TransactionResponse struct {
	ID                string          `json:"id"`
	AccountID         string          `json:"account_id"`
	Type              string          `json:"type"`
	Amount            decimal.Decimal `json:"amount" swaggertype:"string"`
	Description       string          `json:"description"`
	Category          string          `json:"category"`
	Date              string          `json:"date"`
	IsRecurring       bool            `json:"is_recurring"`
	RecurringInterval string          `json:"recurring_interval,omitempty"`
	NextRecurringDate string          `json:"next_recurring_date,omitempty"`
	LastProcessedDate string          `json:"last_processed_date,omitempty"`
	Status            string          `json:"status"`
	CreatedAt         string          `json:"created_at"`
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func NewTransactionResponse(tx *models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                tx.ID.String(),
		AccountID:         tx.AccountID.String(),
		Type:              string(tx.Type),
		Amount:            tx.Amount,
		Description:       tx.Description,
		Category:          tx.Category,
		Date:              formatTime(&tx.Date),
		IsRecurring:       tx.IsRecurring,
		RecurringInterval: tx.RecurringInterval.String(),
		NextRecurringDate: formatTime(tx.NextRecurringDate),
		LastProcessedDate: formatTime(tx.LastProcessedDate),
		Status:            string(tx.Status),
		CreatedAt:         formatTime(&tx.CreatedAt),
	}
}

func NewTransactionResponses(txs []*models.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, NewTransactionResponse(tx))
	}
	return out
}
