package dto

import (
	"finelytics/internal/models"

	"github.com/shopspring/decimal"
)

type UpdateBudgetRequest struct {
	Amount decimal.Decimal `json:"amount" swaggertype:"string" example:"1000.00"`
}

type BudgetResponse struct {
	ID            string          `json:"id"`
	Amount        decimal.Decimal `json:"amount" swaggertype:"string"`
	LastAlertSent string          `json:"last_alert_sent,omitempty"`
	UpdatedAt     string          `json:"updated_at"`
}

type BudgetStatusResponse struct {
	Budget          *BudgetResponse `json:"budget"`
	CurrentExpenses decimal.Decimal `json:"current_expenses" swaggertype:"string"`
	PercentageUsed  decimal.Decimal `json:"percentage_used" swaggertype:"string"`
}

func NewBudgetResponse(b *models.Budget) *BudgetResponse {
	if b == nil {
		return nil
	}
	return &BudgetResponse{
		ID:            b.ID.String(),
		Amount:        b.Amount,
		LastAlertSent: formatTime(b.LastAlertSent),
		UpdatedAt:     formatTime(&b.UpdatedAt),
	}
}
