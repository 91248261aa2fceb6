package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/pulse-leaderboard/internal/platform/logging"
	"github.com/riskibarqy/pulse-leaderboard/internal/usecase"
	"github.com/robfig/cron/v3"
)

const InitiatorCron = "scheduler"

// DailyResetRunner is satisfied by *usecase.ResetBatchService.
type DailyResetRunner interface {
	RunDaily(ctx context.Context, input usecase.BatchInput) (usecase.BatchResult, error)
}

type Config struct {
	// Spec uses the six-field form with seconds, e.g. "0 5 0 * * *".
	Spec     string
	Location *time.Location
	// RunTimeout bounds one batch; zero means no bound beyond Stop.
	RunTimeout time.Duration
}

// Scheduler triggers the daily reset batch on a cron spec evaluated in the
// trading calendar's zone. Overlapping triggers are skipped.
type Scheduler struct {
	cron    *cron.Cron
	runner  DailyResetRunner
	cfg     Config
	logger  *logging.Logger
	entryID cron.EntryID
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(cfg Config, runner DailyResetRunner, logger *logging.Logger) (*Scheduler, error) {
	if runner == nil {
		return nil, errors.New("scheduler requires a daily reset runner")
	}
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("scheduler")
	cfg.Spec = strings.TrimSpace(cfg.Spec)
	if cfg.Spec == "" {
		return nil, errors.New("scheduler spec cannot be empty")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	cronLog := cronLogger{logger: logger}
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(cfg.Location),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:   c,
		runner: runner,
		cfg:    cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	entryID, err := c.AddFunc(cfg.Spec, s.trigger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("schedule daily reset %q: %w", cfg.Spec, err)
	}
	s.entryID = entryID

	return s, nil
}

func (s *Scheduler) Start() {
	s.logger.Info("scheduler starting",
		"spec", s.cfg.Spec,
		"location", s.cfg.Location.String(),
		"next_run", s.Next(),
	)
	s.cron.Start()
}

// Stop cancels any running batch and waits for it to return. Scopes already
// in flight finish their transactions under the batch's own scope timeout.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entryID).Next
}

// RunNow executes one batch synchronously, outside the cron schedule.
func (s *Scheduler) RunNow(ctx context.Context) (usecase.BatchResult, error) {
	return s.run(ctx)
}

func (s *Scheduler) trigger() {
	_, _ = s.run(s.ctx)
}

func (s *Scheduler) run(ctx context.Context) (usecase.BatchResult, error) {
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	result, err := s.runner.RunDaily(ctx, usecase.BatchInput{Initiator: InitiatorCron})
	switch {
	case errors.Is(err, usecase.ErrPartialBatchFailure):
		s.logger.WarnContext(ctx, "scheduled daily reset finished with failures",
			"closed_day_key", result.ClosedDayKey,
			"scopes", result.ScopeCount,
			"failures", len(result.Failures),
			"skipped", len(result.SkippedScopes),
			"error", err,
		)
	case err != nil:
		s.logger.ErrorContext(ctx, "scheduled daily reset failed",
			"closed_day_key", result.ClosedDayKey,
			"error", err,
		)
	default:
		s.logger.InfoContext(ctx, "scheduled daily reset completed",
			"closed_day_key", result.ClosedDayKey,
			"scopes", result.ScopeCount,
			"awarded", result.AwardedCount,
			"no_winner", result.NoWinnerCount,
			"already_issued", result.AlreadyIssuedCount,
			"duration_ms", result.DurationMs,
		)
	}
	return result, err
}

// cronLogger adapts the service logger to cron.Logger.
type cronLogger struct {
	logger *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
