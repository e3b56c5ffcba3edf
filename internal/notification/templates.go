package notification

import (
	"bytes"
	"fmt"

	"finelytics/internal/models"

	"github.com/Rhymond/go-money"
	md "github.com/nao1215/markdown"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var htmlRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

// BudgetAlert is the data of a budget threshold notification.
type BudgetAlert struct {
	UserName      string
	AccountName   string
	Percentage    decimal.Decimal
	BudgetAmount  decimal.Decimal
	TotalExpenses decimal.Decimal
	Currency      string
}

// MonthlyReport is the data of a monthly summary notification.
type MonthlyReport struct {
	UserName string
	Month    string
	Stats    *models.MonthlyStats
	Insights []string
	Currency string
}

// FormatAmount renders amount in currency, e.g. "$1,234.50". Unknown
// currencies fall back to the plain number followed by the code.
func FormatAmount(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2) + " " + currency
	}
	factor := decimal.New(1, int32(cur.Fraction))
	return money.New(amount.Mul(factor).Round(0).IntPart(), currency).Display()
}

func greeting(name string) string {
	if name == "" {
		return "Hello,"
	}
	return fmt.Sprintf("Hello %s,", name)
}

// BudgetAlertMessage renders the alert sent when a budget crosses its
// threshold.
func BudgetAlertMessage(to string, a BudgetAlert) (Message, error) {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Budget Alert")
	doc.PlainText(greeting(a.UserName))
	doc.PlainText(fmt.Sprintf("You've used %s%% of your monthly budget for %s.", a.Percentage.StringFixed(1), a.AccountName))
	doc.Table(md.TableSet{
		Header: []string{"Budget", "Spent", "Remaining"},
		Rows: [][]string{{
			FormatAmount(a.BudgetAmount, a.Currency),
			FormatAmount(a.TotalExpenses, a.Currency),
			FormatAmount(a.BudgetAmount.Sub(a.TotalExpenses), a.Currency),
		}},
	})

	return render(to, fmt.Sprintf("Budget Alert for %s", a.AccountName), doc.String())
}

// MonthlyReportMessage renders the monthly financial summary.
func MonthlyReportMessage(to string, r MonthlyReport) (Message, error) {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Your Monthly Financial Report")
	doc.PlainText(greeting(r.UserName))
	doc.PlainText(fmt.Sprintf("Here's your financial summary for %s.", r.Month))
	doc.Table(md.TableSet{
		Header: []string{"Total Income", "Total Expenses", "Net"},
		Rows: [][]string{{
			FormatAmount(r.Stats.TotalIncome, r.Currency),
			FormatAmount(r.Stats.TotalExpenses, r.Currency),
			FormatAmount(r.Stats.Net(), r.Currency),
		}},
	})

	if top := r.Stats.TopCategories(); len(top) > 0 {
		rows := make([][]string, 0, len(top))
		for _, c := range top {
			rows = append(rows, []string{c.Category, FormatAmount(c.Amount, r.Currency)})
		}
		doc.H2("Expenses by Category")
		doc.Table(md.TableSet{Header: []string{"Category", "Amount"}, Rows: rows})
	}

	if len(r.Insights) > 0 {
		doc.H2("Finelytics Insights")
		doc.BulletList(r.Insights...)
	}

	return render(to, fmt.Sprintf("Your Monthly Financial Report - %s", r.Month), doc.String())
}

func render(to, subject, markdown string) (Message, error) {
	var html bytes.Buffer
	if err := htmlRenderer.Convert([]byte(markdown), &html); err != nil {
		return Message{}, fmt.Errorf("render %q: %w", subject, err)
	}
	return Message{
		To:      to,
		Subject: subject,
		HTML:    html.String(),
		Text:    markdown,
	}, nil
}
