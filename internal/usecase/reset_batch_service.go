package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/calendar"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/jobscheduler"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/reset"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/submission"
	"github.com/riskibarqy/pulse-leaderboard/internal/platform/logging"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel/attribute"
)

const DailyResetJobName = "daily-reset"

type ResetBatchConfig struct {
	MaxWorkers   int
	ScopeTimeout time.Duration
}

type BatchInput struct {
	// Now defaults to the service clock; the closed day is the one before it.
	Now        time.Time
	Initiator  string
	MaxWorkers int
}

type BatchResult struct {
	ClosedDayKey       string         `json:"closed_day_key"`
	ScopeCount         int            `json:"scope_count"`
	WorkerCount        int            `json:"worker_count"`
	AwardedCount       int            `json:"awarded_count"`
	NoWinnerCount      int            `json:"no_winner_count"`
	AlreadyIssuedCount int            `json:"already_issued_count"`
	SkippedScopes      []string       `json:"skipped_scopes"`
	Outcomes           []ResetOutcome `json:"outcomes"`
	Failures           []ScopeFailure `json:"failures"`
	DurationMs         int64          `json:"duration_ms"`
}

// ResetBatchService is the scheduled entry point: it closes the previous
// trading day for every scope that had activity on it.
type ResetBatchService struct {
	calendar    *calendar.Calendar
	submissions submission.Repository
	resets      *ResetService
	runRepo     jobscheduler.Repository
	cfg         ResetBatchConfig
	logger      *logging.Logger
	now         func() time.Time
}

type scopeRun struct {
	outcome ResetOutcome
	failure *ScopeFailure
	skipped bool
}

func NewResetBatchService(
	cal *calendar.Calendar,
	submissions submission.Repository,
	resets *ResetService,
	runRepo jobscheduler.Repository,
	cfg ResetBatchConfig,
	logger *logging.Logger,
) *ResetBatchService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 4
	}
	if cfg.ScopeTimeout <= 0 {
		cfg.ScopeTimeout = 30 * time.Second
	}

	return &ResetBatchService{
		calendar:    cal,
		submissions: submissions,
		resets:      resets,
		runRepo:     runRepo,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *ResetBatchService) RunDaily(ctx context.Context, input BatchInput) (_ BatchResult, err error) {
	ctx, span := startSpan(ctx, "usecase.ResetBatchService.RunDaily")
	defer func() { endSpan(span, err) }()

	started := s.now()
	now := input.Now
	if now.IsZero() {
		now = started
	}
	initiator := strings.TrimSpace(input.Initiator)
	if initiator == "" {
		initiator = reset.InitiatorSystem
	}

	closedDay := s.calendar.PreviousDayKey(now)
	if closedDay >= s.calendar.DayKey(started) {
		return BatchResult{ClosedDayKey: closedDay}, fmt.Errorf("%w: trading day %s is not closed yet", ErrInvalidInput, closedDay)
	}
	span.SetAttributes(attribute.String("leaderboard.closed_day_key", closedDay))

	scopes, err := s.submissions.ListScopesByDay(ctx, closedDay)
	if err != nil {
		return BatchResult{ClosedDayKey: closedDay}, storageError("list active scopes", err)
	}
	scopes = uniqueSortedScopes(scopes)

	workerCount := normalizeWorkerCount(input.MaxWorkers, s.cfg.MaxWorkers, len(scopes))
	result := BatchResult{
		ClosedDayKey:  closedDay,
		ScopeCount:    len(scopes),
		WorkerCount:   workerCount,
		SkippedScopes: []string{},
		Outcomes:      make([]ResetOutcome, 0, len(scopes)),
		Failures:      []ScopeFailure{},
	}
	if len(scopes) == 0 {
		s.logger.InfoContext(ctx, "daily reset found no active scopes", "closed_day_key", closedDay)
		return result, nil
	}

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return result, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	runs := make(chan scopeRun, len(scopes))
	var awardedCount atomic.Int32
	var noWinnerCount atomic.Int32
	var alreadyIssuedCount atomic.Int32

	var workers sync.WaitGroup
	for i, scopeID := range scopes {
		scopeID := scopeID
		if ctx.Err() != nil {
			for _, rest := range scopes[i:] {
				runs <- scopeRun{outcome: ResetOutcome{ScopeID: rest}, skipped: true}
			}
			break
		}

		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			// Once a worker picks a scope up it finishes; only unstarted scopes are dropped.
			if ctx.Err() != nil {
				runs <- scopeRun{outcome: ResetOutcome{ScopeID: scopeID}, skipped: true}
				return
			}

			run := s.runScope(ctx, scopeID, closedDay, initiator)
			switch {
			case run.failure != nil:
			case run.outcome.Status == ResetStatusAwarded:
				awardedCount.Add(1)
			case run.outcome.Status == ResetStatusNoWinner:
				noWinnerCount.Add(1)
			case run.outcome.Status == ResetStatusAlreadyIssued:
				alreadyIssuedCount.Add(1)
			}
			runs <- run
		}); err != nil {
			workers.Done()
			runs <- scopeRun{failure: &ScopeFailure{
				ScopeID: scopeID,
				Reason:  "submit to worker pool: " + err.Error(),
				Err:     err,
			}}
		}
	}

	workers.Wait()
	close(runs)

	for run := range runs {
		switch {
		case run.skipped:
			result.SkippedScopes = append(result.SkippedScopes, run.outcome.ScopeID)
		case run.failure != nil:
			result.Failures = append(result.Failures, *run.failure)
		default:
			result.Outcomes = append(result.Outcomes, run.outcome)
		}
	}

	sort.Strings(result.SkippedScopes)
	sort.SliceStable(result.Outcomes, func(i, j int) bool {
		return result.Outcomes[i].ScopeID < result.Outcomes[j].ScopeID
	})
	sort.SliceStable(result.Failures, func(i, j int) bool {
		return result.Failures[i].ScopeID < result.Failures[j].ScopeID
	})

	result.AwardedCount = int(awardedCount.Load())
	result.NoWinnerCount = int(noWinnerCount.Load())
	result.AlreadyIssuedCount = int(alreadyIssuedCount.Load())
	result.DurationMs = s.now().Sub(started).Milliseconds()

	s.logger.InfoContext(ctx, "daily reset batch finished",
		"closed_day_key", closedDay,
		"scope_count", result.ScopeCount,
		"awarded", result.AwardedCount,
		"no_winner", result.NoWinnerCount,
		"already_issued", result.AlreadyIssuedCount,
		"skipped", len(result.SkippedScopes),
		"failed", len(result.Failures),
	)

	if len(result.Failures) > 0 {
		return result, &PartialBatchFailureError{
			ClosedDayKey: closedDay,
			Failures:     append([]ScopeFailure(nil), result.Failures...),
		}
	}
	return result, nil
}

// runScope detaches from the batch context so a cancelled batch does not
// abort a reset transaction halfway; the scope timeout still bounds it.
func (s *ResetBatchService) runScope(ctx context.Context, scopeID, closedDay, initiator string) scopeRun {
	scopeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ScopeTimeout)
	defer cancel()

	runID := runKey(DailyResetJobName, scopeID, closedDay)
	s.recordRunEvent(scopeCtx, jobscheduler.RunEvent{
		RunID:     runID,
		JobName:   DailyResetJobName,
		ScopeID:   scopeID,
		WindowKey: closedDay,
		Status:    jobscheduler.StatusStarted,
		Payload:   map[string]any{"initiator": initiator},
	})

	var (
		outcome ResetOutcome
		err     error
	)
	var catcher panics.Catcher
	catcher.Try(func() {
		outcome, err = s.resets.ResetDay(scopeCtx, ResetInput{
			ScopeID:   scopeID,
			WindowKey: closedDay,
			Initiator: initiator,
		})
	})
	if recovered := catcher.Recovered(); recovered != nil {
		err = recovered.AsError()
	}

	if err != nil {
		s.logger.ErrorContext(scopeCtx, "daily reset failed for scope",
			"scope_id", scopeID,
			"closed_day_key", closedDay,
			"error", err,
		)
		s.recordRunEvent(scopeCtx, jobscheduler.RunEvent{
			RunID:        runID,
			JobName:      DailyResetJobName,
			ScopeID:      scopeID,
			WindowKey:    closedDay,
			Status:       jobscheduler.StatusFailed,
			ErrorMessage: err.Error(),
			Payload:      map[string]any{"initiator": initiator, "retryable": errors.Is(err, ErrPersistenceUnavailable)},
		})
		return scopeRun{failure: &ScopeFailure{ScopeID: scopeID, Reason: err.Error(), Err: err}}
	}

	s.recordRunEvent(scopeCtx, jobscheduler.RunEvent{
		RunID:     runID,
		JobName:   DailyResetJobName,
		ScopeID:   scopeID,
		WindowKey: closedDay,
		Status:    jobscheduler.StatusCompleted,
		Payload: map[string]any{
			"initiator":             initiator,
			"status":                string(outcome.Status),
			"winner_participant_id": outcome.WinnerParticipantID,
			"prestige_level":        outcome.PrestigeLevel,
		},
	})
	return scopeRun{outcome: outcome}
}

func (s *ResetBatchService) recordRunEvent(ctx context.Context, event jobscheduler.RunEvent) {
	if s.runRepo == nil || strings.TrimSpace(event.RunID) == "" {
		return
	}
	traceID, spanID := traceIDs(ctx)
	event.TraceID = traceID
	event.SpanID = spanID
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}
	if err := s.runRepo.UpsertEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "record job run event failed",
			"run_id", event.RunID,
			"status", event.Status,
			"error", err,
		)
	}
}

func normalizeWorkerCount(requested, fallback, tasks int) int {
	workers := requested
	if workers <= 0 {
		workers = fallback
	}
	if workers <= 0 {
		workers = 1
	}
	if tasks > 0 && workers > tasks {
		workers = tasks
	}
	return workers
}

func uniqueSortedScopes(scopes []string) []string {
	seen := make(map[string]struct{}, len(scopes))
	out := make([]string, 0, len(scopes))
	for _, scopeID := range scopes {
		scopeID = strings.TrimSpace(scopeID)
		if scopeID == "" {
			continue
		}
		if _, ok := seen[scopeID]; ok {
			continue
		}
		seen[scopeID] = struct{}{}
		out = append(out, scopeID)
	}
	sort.Strings(out)
	return out
}
