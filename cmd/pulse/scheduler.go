package main

import (
	"context"
	"time"

	"github.com/riskibarqy/pulse-leaderboard/internal/observability"
	"github.com/riskibarqy/pulse-leaderboard/internal/scheduler"
	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"
)

const batchRunTimeout = 30 * time.Minute

func newSchedulerCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Run the daily reset on its cron schedule",
	}
	cmd.AddCommand(newSchedulerStartCmd(opts))
	return cmd
}

func newSchedulerStartCmd(opts *rootOptions) *cobra.Command {
	var runNow bool
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Block and fire the daily reset at RESET_CRON in the trading timezone",
	}
	cmd.Flags().BoolVar(&runNow, "run-now", false, "run one batch immediately before waiting for the schedule")

	cmd.RunE = withRuntime(opts, func(ctx context.Context, rt *runtime) error {
		sched, err := scheduler.New(scheduler.Config{
			Spec:       rt.cfg.ResetCron,
			Location:   rt.app.Calendar.Location(),
			RunTimeout: batchRunTimeout,
		}, rt.app.Batch, rt.logger)
		if err != nil {
			return err
		}

		var wg conc.WaitGroup
		wg.Go(func() {
			if err := observability.ServePprof(ctx, rt.cfg, rt.logger); err != nil {
				rt.logger.Error("pprof server failed", "error", err)
			}
		})
		defer wg.Wait()

		if runNow {
			// failures are logged by the scheduler; keep serving the schedule
			_, _ = sched.RunNow(ctx)
		}

		sched.Start()
		rt.logger.Info("scheduler started", "spec", rt.cfg.ResetCron, "next_run", sched.Next())

		<-ctx.Done()
		rt.logger.Info("scheduler stopping")

		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := sched.Stop(stopCtx); err != nil {
			rt.logger.Warn("scheduler stop timed out", "error", err)
		}
		return nil
	})
	return cmd
}
