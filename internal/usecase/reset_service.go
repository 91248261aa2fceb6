package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/pulse-leaderboard/internal/domain/calendar"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/leaderboard"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/reset"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/submission"
	"github.com/riskibarqy/pulse-leaderboard/internal/platform/id"
	"github.com/riskibarqy/pulse-leaderboard/internal/platform/logging"
	"github.com/riskibarqy/pulse-leaderboard/internal/platform/resilience"
	"go.opentelemetry.io/otel/attribute"
)

type ResetStatus string

const (
	ResetStatusAwarded       ResetStatus = "awarded"
	ResetStatusRecorded      ResetStatus = "recorded"
	ResetStatusNoWinner      ResetStatus = "no_winner"
	ResetStatusAlreadyIssued ResetStatus = "already_issued"
)

// ResetInput selects the closed window to reset. WindowKey is a day key for
// ResetDay and a Monday week-start key for ResetWeek.
type ResetInput struct {
	ScopeID   string
	WindowKey string
	Initiator string
}

type ResetOutcome struct {
	ScopeID             string             `json:"scope_id"`
	WindowKind          reset.WindowKind   `json:"window_kind"`
	WindowKey           string             `json:"window_key"`
	Status              ResetStatus        `json:"status"`
	WinnerParticipantID string             `json:"winner_participant_id,omitempty"`
	Winner              *leaderboard.Entry `json:"winner,omitempty"`
	PrestigeLevel       int                `json:"prestige_level,omitempty"`
}

// ResetService closes trading windows. A daily close awards one prestige
// point to the winner; a weekly close only writes the audit record.
type ResetService struct {
	calendar    *calendar.Calendar
	submissions submission.Repository
	resets      reset.Repository
	publisher   EventPublisher
	ids         id.Generator
	locks       *resilience.KeyedMutex
	cache       LeaderboardInvalidator
	logger      *logging.Logger
	now         func() time.Time
}

// LeaderboardInvalidator drops cached boards after prestige levels change.
type LeaderboardInvalidator interface {
	InvalidateScope(ctx context.Context, scopeID string)
}

var errWindowAlreadyClaimed = errors.New("reset window already claimed")

func NewResetService(
	cal *calendar.Calendar,
	submissions submission.Repository,
	resets reset.Repository,
	publisher EventPublisher,
	ids id.Generator,
	logger *logging.Logger,
) *ResetService {
	if publisher == nil {
		publisher = NewNoopEventPublisher()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &ResetService{
		calendar:    cal,
		submissions: submissions,
		resets:      resets,
		publisher:   publisher,
		ids:         ids,
		locks:       resilience.NewKeyedMutex(),
		logger:      logger,
		now:         time.Now,
	}
}

// WithLeaderboardInvalidator registers a cache to clear after each award.
func (s *ResetService) WithLeaderboardInvalidator(inv LeaderboardInvalidator) *ResetService {
	s.cache = inv
	return s
}

func (s *ResetService) ResetDay(ctx context.Context, input ResetInput) (_ ResetOutcome, err error) {
	ctx, span := startSpan(ctx, "usecase.ResetService.ResetDay",
		scopeAttr(input.ScopeID),
		attribute.String("leaderboard.window_key", input.WindowKey),
	)
	defer func() { endSpan(span, err) }()

	input, err = s.normalizeInput(input)
	if err != nil {
		return ResetOutcome{}, err
	}
	if _, err := s.calendar.ParseDayKey(input.WindowKey); err != nil {
		return ResetOutcome{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if input.WindowKey >= s.calendar.DayKey(s.now()) {
		return ResetOutcome{}, fmt.Errorf("%w: trading day %s is not closed yet", ErrInvalidInput, input.WindowKey)
	}

	return s.closeWindow(ctx, reset.WindowDaily, input)
}

func (s *ResetService) ResetWeek(ctx context.Context, input ResetInput) (_ ResetOutcome, err error) {
	ctx, span := startSpan(ctx, "usecase.ResetService.ResetWeek",
		scopeAttr(input.ScopeID),
		attribute.String("leaderboard.window_key", input.WindowKey),
	)
	defer func() { endSpan(span, err) }()

	input, err = s.normalizeInput(input)
	if err != nil {
		return ResetOutcome{}, err
	}
	if !s.calendar.IsWeekStartKey(input.WindowKey) {
		return ResetOutcome{}, fmt.Errorf("%w: week key %q must be a Monday", ErrInvalidInput, input.WindowKey)
	}
	if input.WindowKey >= s.calendar.WeekStartKey(s.now()) {
		return ResetOutcome{}, fmt.Errorf("%w: week %s is not closed yet", ErrInvalidInput, input.WindowKey)
	}

	return s.closeWindow(ctx, reset.WindowWeekly, input)
}

func (s *ResetService) normalizeInput(input ResetInput) (ResetInput, error) {
	input.ScopeID = strings.TrimSpace(input.ScopeID)
	input.WindowKey = strings.TrimSpace(input.WindowKey)
	input.Initiator = strings.TrimSpace(input.Initiator)
	if input.ScopeID == "" {
		return ResetInput{}, fmt.Errorf("%w: scope id is required", ErrInvalidInput)
	}
	if input.WindowKey == "" {
		return ResetInput{}, fmt.Errorf("%w: window key is required", ErrInvalidInput)
	}
	if input.Initiator == "" {
		input.Initiator = reset.InitiatorSystem
	}
	return input, nil
}

func (s *ResetService) closeWindow(ctx context.Context, kind reset.WindowKind, input ResetInput) (ResetOutcome, error) {
	unlock := s.locks.Lock(resetLockKey(input.ScopeID, kind, input.WindowKey))
	defer unlock()

	outcome := ResetOutcome{
		ScopeID:    input.ScopeID,
		WindowKind: kind,
		WindowKey:  input.WindowKey,
	}

	occurred, err := s.resets.HasOccurred(ctx, input.ScopeID, kind, input.WindowKey)
	if err != nil {
		return ResetOutcome{}, storageError("check reset log", err)
	}
	if occurred {
		outcome.Status = ResetStatusAlreadyIssued
		return outcome, nil
	}

	entries, err := s.rankWindow(ctx, kind, input.ScopeID, input.WindowKey)
	if err != nil {
		return ResetOutcome{}, err
	}

	winner, hasWinner := leaderboard.Winner(entries)
	recordID, err := s.ids.NewID()
	if err != nil {
		return ResetOutcome{}, fmt.Errorf("generate reset record id: %w", err)
	}
	record := reset.Record{
		ID:          recordID,
		ScopeID:     input.ScopeID,
		WindowKind:  kind,
		WindowKey:   input.WindowKey,
		Initiator:   input.Initiator,
		TriggeredAt: s.now().UTC(),
	}
	if hasWinner {
		winnerID := winner.ParticipantID
		record.WinnerParticipantID = &winnerID
		outcome.WinnerParticipantID = winnerID
		outcome.Winner = &winner
	}

	err = s.resets.WithinTx(ctx, func(ctx context.Context, tx reset.Tx) error {
		claimed, err := tx.Claim(ctx, record)
		if err != nil {
			return fmt.Errorf("claim reset window: %w", err)
		}
		if !claimed {
			return errWindowAlreadyClaimed
		}

		switch {
		case !hasWinner:
			outcome.Status = ResetStatusNoWinner
			return nil
		case kind == reset.WindowWeekly:
			outcome.Status = ResetStatusRecorded
			return nil
		}

		level, err := tx.IncrementPrestige(ctx, winner.ParticipantID)
		if err != nil {
			return fmt.Errorf("increment prestige participant=%s: %w", winner.ParticipantID, err)
		}
		outcome.Status = ResetStatusAwarded
		outcome.PrestigeLevel = level
		outcome.Winner.PrestigeLevel = level
		return nil
	})
	if errors.Is(err, errWindowAlreadyClaimed) {
		s.logger.InfoContext(ctx, "reset window claimed concurrently",
			"scope_id", input.ScopeID,
			"window_kind", kind,
			"window_key", input.WindowKey,
		)
		return ResetOutcome{
			ScopeID:    input.ScopeID,
			WindowKind: kind,
			WindowKey:  input.WindowKey,
			Status:     ResetStatusAlreadyIssued,
		}, nil
	}
	if err != nil {
		return ResetOutcome{}, storageError(fmt.Sprintf("reset scope=%s window=%s/%s", input.ScopeID, kind, input.WindowKey), err)
	}

	s.logger.InfoContext(ctx, "reset window closed",
		"scope_id", input.ScopeID,
		"window_kind", kind,
		"window_key", input.WindowKey,
		"status", outcome.Status,
		"winner_participant_id", outcome.WinnerParticipantID,
		"initiator", input.Initiator,
	)

	if outcome.Status == ResetStatusAwarded {
		if s.cache != nil {
			s.cache.InvalidateScope(ctx, input.ScopeID)
		}
		s.publishAward(ctx, input, record, outcome)
	}

	return outcome, nil
}

func (s *ResetService) rankWindow(ctx context.Context, kind reset.WindowKind, scopeID, windowKey string) ([]leaderboard.Entry, error) {
	if kind == reset.WindowWeekly {
		items, err := s.submissions.ListByWeek(ctx, scopeID, windowKey)
		if err != nil {
			return nil, storageError("list weekly submissions", err)
		}
		entries, err := leaderboard.AggregateWeekly(items, scopeID, windowKey)
		if err != nil {
			return nil, fmt.Errorf("aggregate week scope=%s week=%s: %w", scopeID, windowKey, err)
		}
		return entries, nil
	}

	items, err := s.submissions.ListByDay(ctx, scopeID, windowKey)
	if err != nil {
		return nil, storageError("list daily submissions", err)
	}
	entries, err := leaderboard.RankDaily(items, scopeID, windowKey)
	if err != nil {
		return nil, fmt.Errorf("rank day scope=%s day=%s: %w", scopeID, windowKey, err)
	}
	return entries, nil
}

func (s *ResetService) publishAward(ctx context.Context, input ResetInput, record reset.Record, outcome ResetOutcome) {
	event := PrestigeAwardedEvent{
		EventID:       runKey("prestige", input.ScopeID, input.WindowKey),
		ScopeID:       input.ScopeID,
		WindowKind:    string(outcome.WindowKind),
		WindowKey:     input.WindowKey,
		ParticipantID: outcome.WinnerParticipantID,
		PrestigeLevel: outcome.PrestigeLevel,
		Initiator:     input.Initiator,
		AwardedAt:     record.TriggeredAt,
	}
	if outcome.Winner != nil {
		event.GainValue = outcome.Winner.Value
	}

	if err := s.publisher.PublishPrestigeAwarded(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "publish prestige awarded event failed",
			"scope_id", input.ScopeID,
			"window_key", input.WindowKey,
			"participant_id", outcome.WinnerParticipantID,
			"error", err,
		)
	}
}

// History lists the most recent reset records for a scope, newest first.
func (s *ResetService) History(ctx context.Context, scopeID string, limit int) ([]reset.Record, error) {
	ctx, span := startSpan(ctx, "usecase.ResetService.History")
	defer span.End()

	scopeID = strings.TrimSpace(scopeID)
	if scopeID == "" {
		return nil, fmt.Errorf("%w: scope id is required", ErrInvalidInput)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	records, err := s.resets.ListByScope(ctx, scopeID, limit)
	if err != nil {
		return nil, storageError("list reset history", err)
	}
	return records, nil
}
