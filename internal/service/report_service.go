package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"finelytics/internal/models"
	"finelytics/internal/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type ReportStore interface {
	FindUsers(ctx context.Context) ([]*models.User, error)
	MonthlyStats(ctx context.Context, userID uuid.UUID, period models.DateRange) (*models.MonthlyStats, error)
}

type ReportSummary struct {
	Month   string `json:"month"`
	Users   int    `json:"users"`
	Sent    int    `json:"sent"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}

type ReportConfig struct {
	Location       *time.Location
	Currency       string
	Concurrency    int
	InsightTimeout time.Duration
}

// ReportService sends every user a summary of the previous calendar month.
type ReportService struct {
	store    ReportStore
	insights InsightGenerator
	sender   notification.Sender
	cfg      ReportConfig
	logger   *zap.Logger
	now      func() time.Time
}

func NewReportService(store ReportStore, insights InsightGenerator, sender notification.Sender, cfg ReportConfig, logger *zap.Logger) *ReportService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if insights == nil {
		insights = StaticInsights{}
	}
	return &ReportService{
		store:    store,
		insights: insights,
		sender:   sender,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// GenerateMonthlyReports processes all users concurrently. One user's failure
// never stops the others.
func (s *ReportService) GenerateMonthlyReports(ctx context.Context) (*ReportSummary, error) {
	users, err := s.store.FindUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}

	period := models.PreviousMonthOf(s.now(), s.cfg.Location)
	month := period.From.Format("January 2006")

	var sent, skipped, failed atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Concurrency)
	for _, user := range users {
		g.Go(func() error {
			ok, err := s.reportForUser(ctx, user, period, month)
			switch {
			case err != nil:
				failed.Add(1)
				s.logger.Error("Monthly report failed",
					zap.String("user_id", user.ID.String()),
					zap.String("month", month),
					zap.Error(err),
				)
			case ok:
				sent.Add(1)
			default:
				skipped.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	summary := &ReportSummary{
		Month:   month,
		Users:   len(users),
		Sent:    int(sent.Load()),
		Skipped: int(skipped.Load()),
		Failed:  int(failed.Load()),
	}
	s.logger.Info("Monthly reports generated",
		zap.String("month", month),
		zap.Int("users", summary.Users),
		zap.Int("sent", summary.Sent),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return summary, ctx.Err()
}

func (s *ReportService) reportForUser(ctx context.Context, user *models.User, period models.DateRange, month string) (sent bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("report panicked: %v", r)
		}
	}()

	stats, err := s.store.MonthlyStats(ctx, user.ID, period)
	if err != nil {
		return false, fmt.Errorf("monthly stats: %w", err)
	}
	if stats.TransactionCount == 0 {
		return false, nil
	}

	msg, err := notification.MonthlyReportMessage(user.Email, notification.MonthlyReport{
		UserName: user.Name,
		Month:    month,
		Stats:    stats,
		Insights: s.generateInsights(ctx, user, stats, month),
		Currency: s.cfg.Currency,
	})
	if err != nil {
		return false, err
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return false, fmt.Errorf("send report: %w", err)
	}
	return true, nil
}

// generateInsights never fails, it falls back to FallbackInsights.
func (s *ReportService) generateInsights(ctx context.Context, user *models.User, stats *models.MonthlyStats, month string) []string {
	if s.cfg.InsightTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.InsightTimeout)
		defer cancel()
	}

	insights, err := s.insights.GenerateInsights(ctx, stats, month)
	if err != nil || len(insights) == 0 {
		s.logger.Warn("Insight generation failed, using fallback",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return append([]string(nil), FallbackInsights...)
	}
	return insights
}
