package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"finelytics/internal/jobs"

	"github.com/google/subcommands"
	"go.uber.org/zap"
)

type runCmd struct {
	drainTimeout time.Duration
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "run one scheduled job now and exit" }
func (*runCmd) Usage() string {
	return `finelytics run [-drain <duration>] <job>

  Runs a scheduled job synchronously, retries included, and prints the run.
  For ` + jobs.JobRecurringScan + ` the published work items are processed
  before the command exits.

  Jobs: ` + jobs.JobRecurringScan + `, ` + jobs.JobBudgetAlerts + `, ` + jobs.JobMonthlyReports + `
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.DurationVar(&c.drainTimeout, "drain", 5*time.Minute, "how long to wait for published work items")
}

func (c *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	name := f.Arg(0)

	cfg, appLogger, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer appLogger.Sync()

	a, err := newApp(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize application", zap.Error(err))
		return subcommands.ExitFailure
	}
	defer a.Close()

	if err := a.queue.Start(ctx, a.processor.Handle); err != nil {
		appLogger.Error("Failed to start queue", zap.Error(err))
		return subcommands.ExitFailure
	}
	defer a.queue.Close()

	run, runErr := a.scheduler.RunNow(ctx, name)
	if run == nil {
		appLogger.Error("Job not run", zap.String("job", name), zap.Error(runErr))
		return subcommands.ExitFailure
	}

	drainCtx, cancel := context.WithTimeout(ctx, c.drainTimeout)
	defer cancel()
	if err := a.queue.Drain(drainCtx); err != nil {
		appLogger.Warn("Work items still pending", zap.Error(err))
	}

	out, _ := json.MarshalIndent(run, "", "  ")
	fmt.Println(string(out))
	if runErr != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
