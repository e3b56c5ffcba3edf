package models

import (
	"testing"
	"time"

	"finelytics/internal/recurrence"

	"github.com/shopspring/decimal"
)

func TestTransaction_SignedAmount(t *testing.T) {
	expense := &Transaction{Type: TransactionTypeExpense, Amount: decimal.NewFromInt(200)}
	if got := expense.SignedAmount(); !got.Equal(decimal.NewFromInt(-200)) {
		t.Errorf("expense SignedAmount() = %s, want -200", got)
	}
	income := &Transaction{Type: TransactionTypeIncome, Amount: decimal.RequireFromString("12.50")}
	if got := income.SignedAmount(); !got.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("income SignedAmount() = %s, want 12.5", got)
	}
}

func TestTransaction_IsDue(t *testing.T) {
	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 1, 0)

	tests := []struct {
		name string
		tx   Transaction
		want bool
	}{
		{"never processed", Transaction{IsRecurring: true, Status: TransactionStatusCompleted, NextRecurringDate: &future}, true},
		{"next date passed", Transaction{IsRecurring: true, Status: TransactionStatusCompleted, LastProcessedDate: &past, NextRecurringDate: &past}, true},
		{"next date is now", Transaction{IsRecurring: true, Status: TransactionStatusCompleted, LastProcessedDate: &past, NextRecurringDate: &now}, true},
		{"next date in future", Transaction{IsRecurring: true, Status: TransactionStatusCompleted, LastProcessedDate: &past, NextRecurringDate: &future}, false},
		{"recurrence cancelled", Transaction{IsRecurring: false, Status: TransactionStatusCompleted}, false},
		{"pending template", Transaction{IsRecurring: true, Status: TransactionStatusPending}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tx.IsDue(now); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransaction_Occurrence(t *testing.T) {
	next := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tmpl := &Transaction{
		Type:              TransactionTypeExpense,
		Amount:            decimal.NewFromInt(50),
		Description:       "Gym",
		Category:          "healthcare",
		IsRecurring:       true,
		RecurringInterval: recurrence.Monthly,
		NextRecurringDate: &next,
		Status:            TransactionStatusCompleted,
	}
	at := next.AddDate(0, 0, 1)
	occ := tmpl.Occurrence(at)
	if occ.IsRecurring || occ.NextRecurringDate != nil || occ.RecurringInterval != "" {
		t.Error("occurrence must not be recurring")
	}
	if occ.Description != "Gym (Recurring)" {
		t.Errorf("Description = %q", occ.Description)
	}
	if !occ.Date.Equal(at) || !occ.Amount.Equal(tmpl.Amount) || occ.Type != tmpl.Type {
		t.Errorf("occurrence does not copy the template: %+v", occ)
	}
}

func TestBudget_AlertedInMonthOf(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	sameMonth := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)
	lastYear := time.Date(2023, 3, 20, 0, 0, 0, 0, time.UTC)

	if (&Budget{}).AlertedInMonthOf(now, time.UTC) {
		t.Error("budget without alert reported as alerted")
	}
	if !(&Budget{LastAlertSent: &sameMonth}).AlertedInMonthOf(now, time.UTC) {
		t.Error("alert in same month not detected")
	}
	if (&Budget{LastAlertSent: &lastMonth}).AlertedInMonthOf(now, time.UTC) {
		t.Error("alert in previous month reported as current")
	}
	if (&Budget{LastAlertSent: &lastYear}).AlertedInMonthOf(now, time.UTC) {
		t.Error("alert in same month of previous year reported as current")
	}
}

func TestPreviousMonthOf(t *testing.T) {
	r := PreviousMonthOf(time.Date(2024, 1, 1, 0, 5, 0, 0, time.UTC), time.UTC)
	if !r.From.Equal(time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)) || !r.To.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("PreviousMonthOf = %v..%v", r.From, r.To)
	}
}

func TestMonthlyStats_TopCategories(t *testing.T) {
	s := MonthlyStats{ByCategory: map[string]decimal.Decimal{
		"food":      decimal.NewFromInt(100),
		"housing":   decimal.NewFromInt(900),
		"transport": decimal.NewFromInt(100),
	}}
	got := s.TopCategories()
	want := []string{"housing", "food", "transport"}
	for i, c := range got {
		if c.Category != want[i] {
			t.Fatalf("TopCategories()[%d] = %s, want %s", i, c.Category, want[i])
		}
	}
}
