package main

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/pulse-leaderboard/internal/usecase"
	"github.com/spf13/cobra"
)

const initiatorCLI = "cli"

func newResetCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Run or inspect the daily prestige reset",
	}
	cmd.AddCommand(newResetDailyCmd(opts), newResetRunsCmd(opts))
	return cmd
}

func newResetDailyCmd(opts *rootOptions) *cobra.Command {
	var (
		at      string
		workers int
	)
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Close the previous trading day for every active scope",
		Long: "Runs the same batch the scheduler runs. Scopes already reset for the closed day\n" +
			"are reported as already issued, so rerunning is safe.",
	}
	cmd.Flags().StringVar(&at, "at", "", "evaluate as if now were this RFC3339 instant")
	cmd.Flags().IntVar(&workers, "workers", 0, "override RESET_MAX_WORKERS")

	cmd.RunE = withRuntime(opts, func(ctx context.Context, rt *runtime) error {
		input := usecase.BatchInput{Initiator: initiatorCLI, MaxWorkers: workers}
		if at != "" {
			now, err := time.Parse(time.RFC3339, at)
			if err != nil {
				return fmt.Errorf("invalid --at %q: %w", at, err)
			}
			input.Now = now
		}

		result, runErr := rt.app.Batch.RunDaily(ctx, input)
		if result.ClosedDayKey != "" {
			if err := writeJSON(cmd.OutOrStdout(), opts.pretty, result); err != nil {
				return err
			}
		}
		return runErr
	})
	return cmd
}

func newResetRunsCmd(opts *rootOptions) *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded batch run events for a closed day",
	}
	cmd.Flags().StringVar(&day, "day", "", "closed day key (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("day")

	cmd.RunE = withRuntime(opts, func(ctx context.Context, rt *runtime) error {
		events, err := rt.app.JobRuns.ListByWindow(ctx, usecase.DailyResetJobName, day)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), opts.pretty, events)
	})
	return cmd
}
