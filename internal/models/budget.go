package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Budget struct {
	ID            uuid.UUID       `db:"id"`
	UserID        uuid.UUID       `db:"user_id"`
	Amount        decimal.Decimal `db:"amount"`
	LastAlertSent *time.Time      `db:"last_alert_sent"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// AlertedInMonthOf reports whether an alert was already sent during the
// calendar month of now, evaluated in loc.
func (b *Budget) AlertedInMonthOf(now time.Time, loc *time.Location) bool {
	if b.LastAlertSent == nil {
		return false
	}
	sent := b.LastAlertSent.In(loc)
	now = now.In(loc)
	return sent.Year() == now.Year() && sent.Month() == now.Month()
}

// BudgetAlertCandidate is a budget joined with its owner and the owner's
// default account.
type BudgetAlertCandidate struct {
	Budget  Budget
	Account Account
	User    User
}
