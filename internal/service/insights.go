package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"finelytics/internal/models"
	"finelytics/internal/notification"
)

// InsightGenerator produces short natural-language observations about a
// month of activity.
type InsightGenerator interface {
	GenerateInsights(ctx context.Context, stats *models.MonthlyStats, month string) ([]string, error)
}

// FallbackInsights are sent when no generator is available or it failed.
var FallbackInsights = []string{
	"Your highest expense category this month might need attention.",
	"Consider setting up a budget for better financial management.",
	"Track your recurring expenses to identify potential savings.",
}

var errNoInsights = errors.New("model returned no insights")

// StaticInsights always returns FallbackInsights.
type StaticInsights struct{}

func (StaticInsights) GenerateInsights(ctx context.Context, stats *models.MonthlyStats, month string) ([]string, error) {
	return append([]string(nil), FallbackInsights...), nil
}

const insightsSystemInstruction = `You are a personal finance analyst. You read monthly income and expense
statistics and reply with short, concrete, friendly observations that help the
user spend better. Never invent numbers that are not in the data.`

func buildInsightsPrompt(stats *models.MonthlyStats, month, currency string) string {
	var categories strings.Builder
	for _, c := range stats.TopCategories() {
		fmt.Fprintf(&categories, "- %s: %s\n", c.Category, notification.FormatAmount(c.Amount, currency))
	}
	if categories.Len() == 0 {
		categories.WriteString("- none\n")
	}

	return fmt.Sprintf(`Analyze this financial data for %s and provide 3 concise, actionable insights.
Focus on spending patterns and practical advice. Keep it friendly and conversational.

Financial Data:
- Total Income: %s
- Total Expenses: %s
- Net Income: %s
- Transactions: %d
Expense Categories:
%s
Return ONLY a raw JSON array of strings, for example:
["insight 1", "insight 2", "insight 3"]
Do NOT wrap the response in code fences.`,
		month,
		notification.FormatAmount(stats.TotalIncome, currency),
		notification.FormatAmount(stats.TotalExpenses, currency),
		notification.FormatAmount(stats.Net(), currency),
		stats.TransactionCount,
		categories.String(),
	)
}

// parseInsights extracts the JSON array of strings from a model reply,
// tolerating markdown fences and chatter around it.
func parseInsights(raw string) ([]string, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("invalid response format: %q", raw)
	}

	var parsed []string
	if err := json.Unmarshal([]byte(s[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	insights := make([]string, 0, len(parsed))
	for _, insight := range parsed {
		if insight = cleanText(insight); insight != "" {
			insights = append(insights, insight)
		}
	}
	if len(insights) == 0 {
		return nil, errNoInsights
	}
	return insights, nil
}
