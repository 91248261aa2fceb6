package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/riskibarqy/pulse-leaderboard/internal/app"
	"github.com/riskibarqy/pulse-leaderboard/internal/config"
	"github.com/riskibarqy/pulse-leaderboard/internal/observability"
	"github.com/riskibarqy/pulse-leaderboard/internal/platform/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

const shutdownTimeout = 10 * time.Second

type rootOptions struct {
	store  string
	pretty bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "pulse",
		Short:         "Trading performance leaderboards with daily prestige resets",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.store, "store", "", "override STORE_BACKEND (postgres|memory)")
	cmd.PersistentFlags().BoolVar(&opts.pretty, "pretty", false, "indent JSON output")

	cmd.AddCommand(
		newSubmitCmd(opts),
		newHistoryCmd(opts),
		newLeaderboardCmd(opts),
		newResetCmd(opts),
		newAdminCmd(opts),
		newSchedulerCmd(opts),
		newMigrateCmd(opts),
	)
	return cmd
}

// runtime owns everything a command needs and tears it down in order.
type runtime struct {
	cfg         config.Config
	logger      *logging.Logger
	app         *app.App
	stopUptrace func(context.Context) error
	stopProfile func() error
}

// loadConfig applies --store through the environment so config.Load
// validates the backend it will actually use.
func loadConfig(opts *rootOptions) (config.Config, error) {
	if store := strings.ToLower(strings.TrimSpace(opts.store)); store != "" {
		if store != config.StoreBackendPostgres && store != config.StoreBackendMemory {
			return config.Config{}, fmt.Errorf("invalid --store %q: valid values are %s, %s", opts.store, config.StoreBackendPostgres, config.StoreBackendMemory)
		}
		if err := os.Setenv("STORE_BACKEND", store); err != nil {
			return config.Config{}, fmt.Errorf("apply --store: %w", err)
		}
	}
	return config.Load()
}

func newLogger(cfg config.Config) *logging.Logger {
	return logging.NewTo(zapcore.Lock(os.Stderr), cfg.LogLevel, cfg.LogFormat).
		With("service", cfg.ServiceName, "env", cfg.AppEnv)
}

func bootstrap(ctx context.Context, opts *rootOptions) (*runtime, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg)
	logger, stopUptrace, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init uptrace: %w", err)
	}
	logging.SetDefault(logger)

	rt := &runtime{cfg: cfg, logger: logger, stopUptrace: stopUptrace}

	stopProfile, err := observability.StartPyroscope(cfg, logger)
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("init pyroscope: %w", err)
	}
	rt.stopProfile = stopProfile

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.app = a

	return rt, nil
}

func (r *runtime) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if r.app != nil {
		if err := r.app.Close(ctx); err != nil {
			r.logger.Warn("close app", "error", err)
		}
	}
	if r.stopProfile != nil {
		if err := r.stopProfile(); err != nil {
			r.logger.Warn("stop pyroscope", "error", err)
		}
	}
	if r.stopUptrace != nil {
		if err := r.stopUptrace(ctx); err != nil {
			r.logger.Warn("shutdown uptrace", "error", err)
		}
	}
	_ = r.logger.Sync()
}

// withRuntime wires the app for one command invocation.
func withRuntime(opts *rootOptions, fn func(ctx context.Context, rt *runtime) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		rt, err := bootstrap(ctx, opts)
		if err != nil {
			return err
		}
		defer rt.close()

		return fn(ctx, rt)
	}
}
