package main

import (
	"context"
	"fmt"

	"github.com/riskibarqy/pulse-leaderboard/internal/domain/reset"
	"github.com/riskibarqy/pulse-leaderboard/internal/usecase"
	"github.com/spf13/cobra"
)

type adminFlags struct {
	userID  string
	scopeID string
}

func (f *adminFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.userID, "user", "", "admin user id")
	cmd.Flags().StringVar(&f.scopeID, "scope", "", "community scope id")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("scope")
}

func newAdminCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Scope administration (requires admin level)",
	}
	cmd.AddCommand(
		newAdminResetCmd(opts),
		newAdminStatsCmd(opts),
		newAdminTodayCmd(opts),
		newAdminHistoryCmd(opts),
	)
	return cmd
}

func newAdminResetCmd(opts *rootOptions) *cobra.Command {
	var (
		flags     adminFlags
		resetType string
	)
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Manually reset the most recently closed window of a scope",
	}
	flags.bind(cmd)
	cmd.Flags().StringVar(&resetType, "type", string(reset.WindowDaily), "daily or weekly")

	cmd.RunE = withRuntime(opts, func(ctx context.Context, rt *runtime) error {
		kind := reset.WindowKind(resetType)
		if !kind.Valid() {
			return fmt.Errorf("invalid --type %q: valid values are %s, %s", resetType, reset.WindowDaily, reset.WindowWeekly)
		}
		outcome, err := rt.app.Admin.ManualReset(ctx, usecase.AdminResetInput{
			UserID:    flags.userID,
			ScopeID:   flags.scopeID,
			ResetType: kind,
		})
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), opts.pretty, outcome)
	})
	return cmd
}

func newAdminStatsCmd(opts *rootOptions) *cobra.Command {
	var flags adminFlags
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show today's and this week's activity for a scope",
	}
	flags.bind(cmd)

	cmd.RunE = withRuntime(opts, func(ctx context.Context, rt *runtime) error {
		stats, err := rt.app.Admin.Stats(ctx, flags.userID, flags.scopeID)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), opts.pretty, stats)
	})
	return cmd
}

func newAdminTodayCmd(opts *rootOptions) *cobra.Command {
	var flags adminFlags
	cmd := &cobra.Command{
		Use:   "today",
		Short: "List today's submissions for a scope",
	}
	flags.bind(cmd)

	cmd.RunE = withRuntime(opts, func(ctx context.Context, rt *runtime) error {
		entries, err := rt.app.Admin.TodaySubmissions(ctx, flags.userID, flags.scopeID)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), opts.pretty, entries)
	})
	return cmd
}

func newAdminHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		flags adminFlags
		limit int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent resets for a scope",
	}
	flags.bind(cmd)
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum records to return")

	cmd.RunE = withRuntime(opts, func(ctx context.Context, rt *runtime) error {
		records, err := rt.app.Admin.ResetHistory(ctx, flags.userID, flags.scopeID, limit)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), opts.pretty, records)
	})
	return cmd
}
