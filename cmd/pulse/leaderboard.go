package main

import (
	"context"

	"github.com/riskibarqy/pulse-leaderboard/internal/usecase"
	"github.com/spf13/cobra"
)

func newLeaderboardCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show ranked boards for a scope",
	}
	cmd.AddCommand(
		newBoardCmd(opts, "daily", "Rank one trading day (default today)", func(ctx context.Context, rt *runtime, q usecase.LeaderboardQuery) (usecase.LeaderboardView, error) {
			return rt.app.Leaderboards.Daily(ctx, q)
		}),
		newBoardCmd(opts, "weekly", "Rank one trading week by summed gain (default this week)", func(ctx context.Context, rt *runtime, q usecase.LeaderboardQuery) (usecase.LeaderboardView, error) {
			return rt.app.Leaderboards.Weekly(ctx, q)
		}),
	)
	return cmd
}

type boardLoader func(ctx context.Context, rt *runtime, q usecase.LeaderboardQuery) (usecase.LeaderboardView, error)

func newBoardCmd(opts *rootOptions, use, short string, load boardLoader) *cobra.Command {
	var query usecase.LeaderboardQuery
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
	}
	cmd.Flags().StringVar(&query.UserID, "user", "", "viewing user id")
	cmd.Flags().StringVar(&query.ScopeID, "scope", "", "community scope id")
	cmd.Flags().StringVar(&query.WindowKey, "window", "", "day key (YYYY-MM-DD) or week start key")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("scope")

	cmd.RunE = withRuntime(opts, func(ctx context.Context, rt *runtime) error {
		view, err := load(ctx, rt, query)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), opts.pretty, view)
	})
	return cmd
}
