package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/riskibarqy/pulse-leaderboard/internal/usecase"
	"github.com/spf13/cobra"
)

func newSubmitCmd(opts *rootOptions) *cobra.Command {
	var (
		userID    string
		scopeID   string
		gain      float64
		proofPath string
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Record today's percentage gain for a user in a scope",
		Example: `  pulse submit --user trader-1 --scope community-1 --gain 2.5
  pulse submit --user trader-1 --scope community-1 --gain -0.8 --proof ./pnl.png`,
	}
	cmd.Flags().StringVar(&userID, "user", "", "submitting user id")
	cmd.Flags().StringVar(&scopeID, "scope", "", "community scope id")
	cmd.Flags().Float64Var(&gain, "gain", 0, "percentage gain for the trading day")
	cmd.Flags().StringVar(&proofPath, "proof", "", "optional proof image")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("scope")
	_ = cmd.MarkFlagRequired("gain")

	cmd.RunE = withRuntime(opts, func(ctx context.Context, rt *runtime) error {
		input := usecase.SubmitInput{
			UserID:         userID,
			ScopeID:        scopeID,
			PercentageGain: &gain,
		}
		if proofPath != "" {
			f, err := os.Open(proofPath)
			if err != nil {
				return fmt.Errorf("open proof: %w", err)
			}
			defer f.Close()

			proof, err := proofFromFile(f)
			if err != nil {
				return err
			}
			input.Proof = proof
		}

		item, err := rt.app.Submissions.Submit(ctx, input)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), opts.pretty, item)
	})
	return cmd
}

func proofFromFile(f *os.File) (*usecase.ProofInput, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat proof: %w", err)
	}

	reader := bufio.NewReader(f)
	head, err := reader.Peek(512)
	if err != nil && len(head) == 0 {
		return nil, fmt.Errorf("read proof: %w", err)
	}

	return &usecase.ProofInput{
		ContentType: http.DetectContentType(head),
		Size:        info.Size(),
		Body:        reader,
	}, nil
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var userID, scopeID string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List a user's recent submissions in a scope, newest first",
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringVar(&scopeID, "scope", "", "community scope id")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("scope")

	cmd.RunE = withRuntime(opts, func(ctx context.Context, rt *runtime) error {
		items, err := rt.app.Submissions.History(ctx, usecase.HistoryQuery{UserID: userID, ScopeID: scopeID})
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), opts.pretty, items)
	})
	return cmd
}
