package models

import (
	"time"

	"finelytics/internal/recurrence"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// RecurringSuffix marks descriptions of occurrences generated from a
// recurring template.
const RecurringSuffix = " (Recurring)"

type Transaction struct {
	ID                uuid.UUID           `db:"id"`
	UserID            uuid.UUID           `db:"user_id"`
	AccountID         uuid.UUID           `db:"account_id"`
	Type              TransactionType     `db:"type"`
	Amount            decimal.Decimal     `db:"amount"`
	Description       string              `db:"description"`
	Category          string              `db:"category"`
	Date              time.Time           `db:"date"`
	IsRecurring       bool                `db:"is_recurring"`
	RecurringInterval recurrence.Interval `db:"recurring_interval"`
	NextRecurringDate *time.Time          `db:"next_recurring_date"`
	LastProcessedDate *time.Time          `db:"last_processed_date"`
	Status            TransactionStatus   `db:"status"`
	CreatedAt         time.Time           `db:"created_at"`
	UpdatedAt         time.Time           `db:"updated_at"`
}

// SignedAmount is the balance delta the transaction applies to its account.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// IsDue reports whether a recurring template has an occurrence to generate at
// now. A template that was never processed is always due.
func (t *Transaction) IsDue(now time.Time) bool {
	if !t.IsRecurring || t.Status != TransactionStatusCompleted {
		return false
	}
	if t.LastProcessedDate == nil || t.NextRecurringDate == nil {
		return true
	}
	return !t.NextRecurringDate.After(now)
}

// RecurrenceAnchor is the date the following occurrence is computed from.
func (t *Transaction) RecurrenceAnchor() time.Time {
	if t.NextRecurringDate != nil {
		return *t.NextRecurringDate
	}
	return t.Date
}

// Occurrence returns the non-recurring copy of a template dated at.
func (t *Transaction) Occurrence(at time.Time) *Transaction {
	return &Transaction{
		ID:          uuid.New(),
		UserID:      t.UserID,
		AccountID:   t.AccountID,
		Type:        t.Type,
		Amount:      t.Amount,
		Description: t.Description + RecurringSuffix,
		Category:    t.Category,
		Date:        at,
		Status:      TransactionStatusCompleted,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

// RecurrenceApplication is the all-or-nothing mutation generated for one due
// recurring template.
type RecurrenceApplication struct {
	TemplateID uuid.UUID
	UserID     uuid.UUID
	// ExpectedNextDate is the template's next_recurring_date as read before
	// the mutation; the store rejects the application when it has moved.
	ExpectedNextDate *time.Time
	Occurrence       *Transaction
	Delta            decimal.Decimal
	ProcessedAt      time.Time
	NextDate         time.Time
}
