package notification

import (
	"strings"
	"testing"

	"finelytics/internal/models"

	"github.com/shopspring/decimal"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     string
	}{
		{"1000", "USD", "$1,000.00"},
		{"12.5", "USD", "$12.50"},
		{"-50", "USD", "-$50.00"},
		{"7.25", "XYZ", "7.25 XYZ"},
	}
	for _, tt := range tests {
		if got := FormatAmount(decimal.RequireFromString(tt.amount), tt.currency); got != tt.want {
			t.Errorf("FormatAmount(%s, %s) = %q, want %q", tt.amount, tt.currency, got, tt.want)
		}
	}
}

func TestBudgetAlertMessage(t *testing.T) {
	msg, err := BudgetAlertMessage("ana@example.com", BudgetAlert{
		UserName:      "Ana",
		AccountName:   "Main",
		Percentage:    decimal.NewFromInt(85),
		BudgetAmount:  decimal.NewFromInt(1000),
		TotalExpenses: decimal.NewFromInt(850),
		Currency:      "USD",
	})
	if err != nil {
		t.Fatalf("BudgetAlertMessage() error = %v", err)
	}
	if msg.To != "ana@example.com" || msg.Subject != "Budget Alert for Main" {
		t.Errorf("unexpected envelope: %+v", msg)
	}
	for _, want := range []string{"85.0%", "$1,000.00", "$850.00", "$150.00", "Hello Ana,"} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("text body missing %q:\n%s", want, msg.Text)
		}
	}
	if !strings.Contains(msg.HTML, "<h1") || !strings.Contains(msg.HTML, "<table>") {
		t.Errorf("html body not rendered:\n%s", msg.HTML)
	}
}

func TestMonthlyReportMessage(t *testing.T) {
	stats := &models.MonthlyStats{
		TotalIncome:   decimal.NewFromInt(3000),
		TotalExpenses: decimal.NewFromInt(1200),
		ByCategory: map[string]decimal.Decimal{
			"rent":      decimal.NewFromInt(1000),
			"groceries": decimal.NewFromInt(200),
		},
		TransactionCount: 7,
	}
	msg, err := MonthlyReportMessage("ana@example.com", MonthlyReport{
		Month:    "January 2024",
		Stats:    stats,
		Insights: []string{"Rent dominates your spending."},
		Currency: "USD",
	})
	if err != nil {
		t.Fatalf("MonthlyReportMessage() error = %v", err)
	}
	if msg.Subject != "Your Monthly Financial Report - January 2024" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if strings.Index(msg.Text, "rent") > strings.Index(msg.Text, "groceries") {
		t.Error("categories should be ordered by amount")
	}
	for _, want := range []string{"$3,000.00", "$1,800.00", "Rent dominates your spending.", "Hello,"} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("text body missing %q:\n%s", want, msg.Text)
		}
	}
	if !strings.Contains(msg.HTML, "<li>Rent dominates your spending.</li>") {
		t.Errorf("insights not rendered as a list:\n%s", msg.HTML)
	}
}
