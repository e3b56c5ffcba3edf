package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"finelytics/pkg/postgres"

	"github.com/google/subcommands"
	"go.uber.org/zap"
)

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply pending database migrations" }
func (*migrateCmd) Usage() string {
	return `finelytics migrate

  Applies the embedded SQL migrations that are not recorded in
  schema_migrations yet, each in its own transaction.
`
}

func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, appLogger, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer appLogger.Sync()

	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to database", zap.Error(err))
		return subcommands.ExitFailure
	}
	defer db.Close()

	applied, err := postgres.ApplyMigrations(ctx, db, appLogger)
	if err != nil {
		appLogger.Error("Migration failed", zap.Error(err))
		return subcommands.ExitFailure
	}
	fmt.Printf("applied %d migration(s)\n", applied)
	return subcommands.ExitSuccess
}
