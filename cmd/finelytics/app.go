package main

import (
	"context"
	"fmt"

	"finelytics/internal/jobs"
	"finelytics/internal/jobs/inmemory"
	"finelytics/internal/notification"
	"finelytics/internal/repository"
	"finelytics/internal/service"
	"finelytics/pkg/config"
	"finelytics/pkg/logger"
	"finelytics/pkg/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const runHistorySize = 1000

// app holds everything the subcommands share: the database pool, the
// repositories and the job runtime with its three scheduled jobs.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *pgxpool.Pool

	users        *repository.UserRepository
	accounts     *repository.AccountRepository
	transactions *repository.TransactionRepository
	budgets      *repository.BudgetRepository

	runs      *inmemory.Store
	queue     *inmemory.Queue
	scheduler *jobs.Scheduler
	processor *service.RecurringProcessor

	closers []func() error
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	appLogger, err := logger.New(cfg.Logger.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, appLogger, nil
}

func newApp(ctx context.Context, cfg *config.Config, appLogger *zap.Logger) (*app, error) {
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:          cfg,
		logger:       appLogger,
		db:           db,
		users:        repository.NewUserRepository(db, appLogger),
		accounts:     repository.NewAccountRepository(db, appLogger),
		transactions: repository.NewTransactionRepository(db, appLogger),
		budgets:      repository.NewBudgetRepository(db, appLogger),
		runs:         inmemory.NewStore(runHistorySize),
	}
	if err := a.setupJobs(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) setupJobs(ctx context.Context) error {
	sc := a.cfg.Scheduler
	loc := sc.Location()
	retry := jobs.RetryPolicy{MaxAttempts: sc.MaxAttempts, BaseDelay: sc.RetryBaseDelay}

	a.queue = inmemory.NewQueue(inmemory.QueueConfig{
		Workers:    sc.Workers,
		BufferSize: sc.QueueSize,
		Definition: jobs.Definition{
			Name:        jobs.JobRecurringProcessing,
			Description: "Applies one due recurring transaction",
			Trigger:     jobs.Trigger{Event: jobs.EventRecurringTransactionDue},
			Concurrency: sc.Workers,
			Throttle:    &jobs.Throttle{Limit: sc.ThrottleLimit, Period: sc.ThrottlePeriod},
			Retry:       retry,
			Timeout:     sc.JobTimeout,
		},
	}, a.runs, a.logger)
	a.processor = service.NewRecurringProcessor(a.transactions, a.logger)

	sender := notification.NewResendSender(&a.cfg.Email, a.logger)
	insights := a.newInsights(ctx)

	scanner := service.NewRecurringScanner(a.transactions, a.queue, a.logger)
	alerts := service.NewBudgetAlertService(a.budgets, a.transactions, sender, loc, a.cfg.Email.Currency, a.logger)
	reports := service.NewReportService(reportStore{a.users, a.transactions}, insights, sender, service.ReportConfig{
		Location:       loc,
		Currency:       a.cfg.Email.Currency,
		Concurrency:    sc.ReportConcurrency,
		InsightTimeout: a.cfg.Insights.Timeout,
	}, a.logger)

	a.scheduler = jobs.NewScheduler(loc, a.runs, a.logger)
	defs := []struct {
		def jobs.Definition
		fn  jobs.Func
	}{
		{
			def: jobs.Definition{
				Name:        jobs.JobRecurringScan,
				Description: "Publishes a work item per due recurring transaction",
				Trigger:     jobs.Trigger{Cron: sc.RecurringScanCron},
				Retry:       retry,
				Timeout:     sc.JobTimeout,
			},
			fn: func(ctx context.Context) (any, error) {
				n, err := scanner.Scan(ctx)
				return map[string]int{"published": n}, err
			},
		},
		{
			def: jobs.Definition{
				Name:        jobs.JobBudgetAlerts,
				Description: "Emails users whose monthly expenses reached the alert threshold",
				Trigger:     jobs.Trigger{Cron: sc.BudgetAlertCron},
				Retry:       retry,
				Timeout:     sc.JobTimeout,
			},
			fn: func(ctx context.Context) (any, error) { return alerts.CheckBudgets(ctx) },
		},
		{
			def: jobs.Definition{
				Name:        jobs.JobMonthlyReports,
				Description: "Emails every user the report of the previous month",
				Trigger:     jobs.Trigger{Cron: sc.MonthlyReportCron},
				Retry:       retry,
				Timeout:     sc.JobTimeout,
			},
			fn: func(ctx context.Context) (any, error) { return reports.GenerateMonthlyReports(ctx) },
		},
	}
	for _, d := range defs {
		if err := a.scheduler.Register(d.def, d.fn); err != nil {
			return err
		}
	}
	return nil
}

// newInsights picks the configured insight provider. Missing credentials or a
// client that cannot be created degrade to static insights.
func (a *app) newInsights(ctx context.Context) service.InsightGenerator {
	currency := a.cfg.Email.Currency
	switch a.cfg.Insights.Provider {
	case config.InsightProviderGigaChat:
		if a.cfg.GigaChat.APIKey == "" {
			a.logger.Warn("GIGACHAT_API_KEY is not set, using static insights")
			return nil
		}
		gc, err := service.NewGigaChatInsights(ctx, &a.cfg.GigaChat, currency, a.logger)
		if err != nil {
			a.logger.Error("Failed to initialize GigaChat, using static insights", zap.Error(err))
			return nil
		}
		a.closers = append(a.closers, gc.Close)
		return gc
	case config.InsightProviderGemini:
		if a.cfg.Gemini.APIKey == "" {
			a.logger.Warn("GEMINI_API_KEY is not set, using static insights")
			return nil
		}
		gm, err := service.NewGeminiInsights(ctx, &a.cfg.Gemini, currency, a.logger)
		if err != nil {
			a.logger.Error("Failed to initialize Gemini, using static insights", zap.Error(err))
			return nil
		}
		return gm
	}
	return nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Failed to close resource", zap.Error(err))
		}
	}
	a.db.Close()
}

// reportStore joins the two repositories the report service reads from.
type reportStore struct {
	*repository.UserRepository
	*repository.TransactionRepository
}
