package dto

import (
	"finelytics/internal/models"

	"github.com/shopspring/decimal"
)

type CreateAccountRequest struct {
	Name      string          `json:"name"`
	Type      string          `json:"type" example:"CURRENT"`
	Balance   decimal.Decimal `json:"balance" swaggertype:"string" example:"1000.00"`
	IsDefault bool            `json:"is_default"`
}

type AccountResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Balance   decimal.Decimal `json:"balance" swaggertype:"string"`
	IsDefault bool            `json:"is_default"`
	CreatedAt string          `json:"created_at"`
}

type AccountDetailResponse struct {
	AccountResponse
	Transactions []TransactionResponse `json:"transactions"`
}

func NewAccountResponse(a *models.Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID.String(),
		Name:      a.Name,
		Type:      string(a.Type),
		Balance:   a.Balance,
		IsDefault: a.IsDefault,
		CreatedAt: formatTime(&a.CreatedAt),
	}
}
