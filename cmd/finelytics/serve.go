package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finelytics/internal/api"
	"finelytics/internal/api/handlers"
	"finelytics/internal/service"
	"finelytics/pkg/auth"
	"finelytics/pkg/postgres"

	"github.com/google/subcommands"
	"go.uber.org/zap"
)

type serveCmd struct {
	migrate         bool
	shutdownTimeout time.Duration
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the HTTP API together with the job scheduler" }
func (*serveCmd) Usage() string {
	return `finelytics serve [-migrate] [-shutdown-timeout <duration>]

  Starts the API, the cron scheduler and the recurring transaction workers.
  Stops gracefully on SIGINT or SIGTERM.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.migrate, "migrate", true, "apply pending database migrations before starting")
	f.DurationVar(&c.shutdownTimeout, "shutdown-timeout", 30*time.Second, "how long to wait for running jobs on shutdown")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, appLogger, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer appLogger.Sync()

	if cfg.JWT.SecretKey == "" {
		appLogger.Error("JWT_SECRET_KEY is required to serve the API")
		return subcommands.ExitFailure
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLogger.Info("Starting Finelytics service")
	a, err := newApp(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize application", zap.Error(err))
		return subcommands.ExitFailure
	}
	defer a.Close()

	if c.migrate {
		if _, err := postgres.ApplyMigrations(ctx, a.db, appLogger); err != nil {
			appLogger.Error("Failed to apply migrations", zap.Error(err))
			return subcommands.ExitFailure
		}
	}

	if err := a.queue.Start(ctx, a.processor.Handle); err != nil {
		appLogger.Error("Failed to start queue", zap.Error(err))
		return subcommands.ExitFailure
	}
	a.scheduler.Start(ctx)

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Issuer)
	users := service.NewUserService(a.users, appLogger)
	router := api.SetupRouter(api.Handlers{
		Accounts:     handlers.NewAccountHandler(service.NewAccountService(a.accounts, a.transactions, appLogger), appLogger),
		Transactions: handlers.NewTransactionHandler(service.NewTransactionService(a.transactions, appLogger), appLogger),
		Budget:       handlers.NewBudgetHandler(service.NewBudgetService(a.budgets, a.transactions, cfg.Scheduler.Location(), appLogger), appLogger),
		Jobs:         handlers.NewJobHandler(a.scheduler, a.runs, appLogger),
	}, jwtManager, users, appLogger)

	serverErr := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		serverErr <- router.Listen(addr)
	}()

	exit := subcommands.ExitSuccess
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		appLogger.Error("Server failed", zap.Error(err))
		exit = subcommands.ExitFailure
	}

	appLogger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.shutdownTimeout)
	defer cancel()

	if err := router.ShutdownWithContext(shutdownCtx); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
	if err := a.scheduler.Stop(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Scheduler shutdown error", zap.Error(err))
	}
	if err := a.queue.Stop(shutdownCtx); err != nil {
		appLogger.Error("Queue shutdown error", zap.Error(err))
	}
	return exit
}
