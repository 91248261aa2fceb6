package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/pulse-leaderboard/internal/domain/access"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/calendar"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/leaderboard"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/participant"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/reset"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/submission"
	"github.com/riskibarqy/pulse-leaderboard/internal/platform/cache"
	"github.com/riskibarqy/pulse-leaderboard/internal/platform/logging"
)

type LeaderboardQuery struct {
	UserID  string
	ScopeID string
	// WindowKey defaults to the current day or week.
	WindowKey string
}

type LeaderboardView struct {
	ScopeID    string              `json:"scope_id"`
	WindowKind reset.WindowKind    `json:"window_kind"`
	WindowKey  string              `json:"window_key"`
	Entries    []leaderboard.Entry `json:"entries"`
	TopThree   []leaderboard.Entry `json:"top_three"`
	Own        *leaderboard.Entry  `json:"own,omitempty"`
	Countdown  calendar.Countdown  `json:"countdown"`
}

type LeaderboardService struct {
	calendar     *calendar.Calendar
	submissions  submission.Repository
	participants participant.Repository
	checker      access.Checker
	boards       *cache.Store[[]leaderboard.Entry]
	logger       *logging.Logger
	now          func() time.Time
}

// NewLeaderboardService caches ranked boards when boards is non-nil.
func NewLeaderboardService(
	cal *calendar.Calendar,
	submissions submission.Repository,
	participants participant.Repository,
	checker access.Checker,
	boards *cache.Store[[]leaderboard.Entry],
	logger *logging.Logger,
) *LeaderboardService {
	if logger == nil {
		logger = logging.Default()
	}
	return &LeaderboardService{
		calendar:     cal,
		submissions:  submissions,
		participants: participants,
		checker:      checker,
		boards:       boards,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *LeaderboardService) Daily(ctx context.Context, query LeaderboardQuery) (LeaderboardView, error) {
	ctx, span := startSpan(ctx, "usecase.LeaderboardService.Daily")
	defer span.End()

	query, err := s.prepare(ctx, query)
	if err != nil {
		return LeaderboardView{}, err
	}
	now := s.now()
	if query.WindowKey == "" {
		query.WindowKey = s.calendar.DayKey(now)
	} else if _, err := s.calendar.ParseDayKey(query.WindowKey); err != nil {
		return LeaderboardView{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	entries, err := s.DailyEntries(ctx, query.ScopeID, query.WindowKey)
	if err != nil {
		return LeaderboardView{}, err
	}
	return s.view(ctx, query, reset.WindowDaily, entries, now), nil
}

func (s *LeaderboardService) Weekly(ctx context.Context, query LeaderboardQuery) (LeaderboardView, error) {
	ctx, span := startSpan(ctx, "usecase.LeaderboardService.Weekly")
	defer span.End()

	query, err := s.prepare(ctx, query)
	if err != nil {
		return LeaderboardView{}, err
	}
	now := s.now()
	if query.WindowKey == "" {
		query.WindowKey = s.calendar.WeekStartKey(now)
	} else if !s.calendar.IsWeekStartKey(query.WindowKey) {
		return LeaderboardView{}, fmt.Errorf("%w: week key %q must be a Monday", ErrInvalidInput, query.WindowKey)
	}

	entries, err := s.WeeklyEntries(ctx, query.ScopeID, query.WindowKey)
	if err != nil {
		return LeaderboardView{}, err
	}
	return s.view(ctx, query, reset.WindowWeekly, entries, now), nil
}

// DailyEntries returns the ranked board without access checks, for internal
// callers that already authorized the request.
func (s *LeaderboardService) DailyEntries(ctx context.Context, scopeID, dayKey string) ([]leaderboard.Entry, error) {
	return s.load(ctx, scopeID, reset.WindowDaily, dayKey, func(ctx context.Context) ([]leaderboard.Entry, error) {
		items, err := s.submissions.ListByDay(ctx, scopeID, dayKey)
		if err != nil {
			return nil, storageError("list daily submissions", err)
		}
		entries, err := leaderboard.RankDaily(items, scopeID, dayKey)
		if err != nil {
			return nil, fmt.Errorf("rank day scope=%s day=%s: %w", scopeID, dayKey, err)
		}
		return entries, nil
	})
}

func (s *LeaderboardService) WeeklyEntries(ctx context.Context, scopeID, weekKey string) ([]leaderboard.Entry, error) {
	return s.load(ctx, scopeID, reset.WindowWeekly, weekKey, func(ctx context.Context) ([]leaderboard.Entry, error) {
		items, err := s.submissions.ListByWeek(ctx, scopeID, weekKey)
		if err != nil {
			return nil, storageError("list weekly submissions", err)
		}
		entries, err := leaderboard.AggregateWeekly(items, scopeID, weekKey)
		if err != nil {
			return nil, fmt.Errorf("aggregate week scope=%s week=%s: %w", scopeID, weekKey, err)
		}
		return entries, nil
	})
}

// InvalidateScope drops every cached board of the scope.
func (s *LeaderboardService) InvalidateScope(ctx context.Context, scopeID string) {
	if s.boards == nil {
		return
	}
	s.boards.DeletePrefix(ctx, leaderboardCachePrefix(scopeID))
}

func (s *LeaderboardService) load(
	ctx context.Context,
	scopeID string,
	kind reset.WindowKind,
	windowKey string,
	loader func(context.Context) ([]leaderboard.Entry, error),
) ([]leaderboard.Entry, error) {
	if s.boards == nil {
		return loader(ctx)
	}
	key := leaderboardCachePrefix(scopeID) + string(kind) + ":" + windowKey
	entries, err := s.boards.GetOrLoad(ctx, key, loader)
	if err != nil {
		return nil, err
	}
	return append([]leaderboard.Entry(nil), entries...), nil
}

func (s *LeaderboardService) prepare(ctx context.Context, query LeaderboardQuery) (LeaderboardQuery, error) {
	query.ScopeID = strings.TrimSpace(query.ScopeID)
	query.WindowKey = strings.TrimSpace(query.WindowKey)
	if query.ScopeID == "" {
		return LeaderboardQuery{}, fmt.Errorf("%w: scope id is required", ErrInvalidInput)
	}
	if _, err := authorize(ctx, s.checker, query.UserID, query.ScopeID, false); err != nil {
		return LeaderboardQuery{}, err
	}
	return query, nil
}

func (s *LeaderboardService) view(
	ctx context.Context,
	query LeaderboardQuery,
	kind reset.WindowKind,
	entries []leaderboard.Entry,
	now time.Time,
) LeaderboardView {
	out := LeaderboardView{
		ScopeID:    query.ScopeID,
		WindowKind: kind,
		WindowKey:  query.WindowKey,
		Entries:    entries,
		TopThree:   leaderboard.TopThree(entries),
		Countdown:  s.calendar.TimeUntilNextDayBoundary(now),
	}

	if s.participants == nil {
		return out
	}
	p, ok, err := s.participants.GetByExternalID(ctx, strings.TrimSpace(query.UserID))
	if err != nil {
		s.logger.WarnContext(ctx, "resolve caller participant failed", "user_id", query.UserID, "error", err)
		return out
	}
	if !ok {
		return out
	}
	if own, found := leaderboard.FindParticipant(entries, p.ID); found {
		out.Own = &own
	}
	return out
}
