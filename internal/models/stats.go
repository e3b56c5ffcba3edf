package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DateRange is a half-open [From, To) interval.
type DateRange struct {
	From time.Time
	To   time.Time
}

// MonthOf returns the calendar month containing t in loc.
func MonthOf(t time.Time, loc *time.Location) DateRange {
	t = t.In(loc)
	from := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	return DateRange{From: from, To: from.AddDate(0, 1, 0)}
}

// PreviousMonthOf returns the calendar month before the one containing t.
func PreviousMonthOf(t time.Time, loc *time.Location) DateRange {
	current := MonthOf(t, loc)
	return DateRange{From: current.From.AddDate(0, -1, 0), To: current.From}
}

type CategoryAmount struct {
	Category string
	Amount   decimal.Decimal
}

type MonthlyStats struct {
	TotalIncome      decimal.Decimal
	TotalExpenses    decimal.Decimal
	ByCategory       map[string]decimal.Decimal
	TransactionCount int
}

// Net is income minus expenses.
func (s *MonthlyStats) Net() decimal.Decimal {
	return s.TotalIncome.Sub(s.TotalExpenses)
}

// TopCategories returns expense categories sorted by descending amount, ties
// broken by name.
func (s *MonthlyStats) TopCategories() []CategoryAmount {
	out := make([]CategoryAmount, 0, len(s.ByCategory))
	for c, a := range s.ByCategory {
		out = append(out, CategoryAmount{Category: c, Amount: a})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].Category < out[j].Category
	})
	return out
}
