package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/pulse-leaderboard/internal/domain/access"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/calendar"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/leaderboard"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/reset"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/submission"
)

type AdminResetInput struct {
	UserID    string
	ScopeID   string
	ResetType reset.WindowKind
}

type WindowStats struct {
	Submissions int     `json:"submissions"`
	AverageGain float64 `json:"average_gain"`
}

type DailyStats struct {
	WindowStats
	Best  *leaderboard.Entry `json:"best,omitempty"`
	Worst *leaderboard.Entry `json:"worst,omitempty"`
}

type ScopeStats struct {
	ScopeID      string      `json:"scope_id"`
	DayKey       string      `json:"day_key"`
	WeekStartKey string      `json:"week_start_key"`
	Daily        DailyStats  `json:"daily"`
	Weekly       WindowStats `json:"weekly"`
	TotalMembers int         `json:"total_members"`
}

// AdminService holds the operations gated on admin access to a scope.
type AdminService struct {
	calendar     *calendar.Calendar
	submissions  submission.Repository
	checker      access.Checker
	resets       *ResetService
	leaderboards *LeaderboardService
	now          func() time.Time
}

func NewAdminService(
	cal *calendar.Calendar,
	submissions submission.Repository,
	checker access.Checker,
	resets *ResetService,
	leaderboards *LeaderboardService,
) *AdminService {
	return &AdminService{
		calendar:     cal,
		submissions:  submissions,
		checker:      checker,
		resets:       resets,
		leaderboards: leaderboards,
		now:          time.Now,
	}
}

// ManualReset closes the previous day or week on behalf of an admin. It
// shares the idempotency guard with the scheduled run.
func (s *AdminService) ManualReset(ctx context.Context, input AdminResetInput) (ResetOutcome, error) {
	ctx, span := startSpan(ctx, "usecase.AdminService.ManualReset")
	defer span.End()

	scopeID := strings.TrimSpace(input.ScopeID)
	if scopeID == "" {
		return ResetOutcome{}, fmt.Errorf("%w: scope id is required", ErrInvalidInput)
	}
	if input.ResetType == "" {
		input.ResetType = reset.WindowDaily
	}
	if !input.ResetType.Valid() {
		return ResetOutcome{}, fmt.Errorf("%w: reset type must be daily or weekly, got %q", ErrInvalidInput, input.ResetType)
	}
	if _, err := authorize(ctx, s.checker, input.UserID, scopeID, true); err != nil {
		return ResetOutcome{}, err
	}

	now := s.now()
	resetInput := ResetInput{
		ScopeID:   scopeID,
		Initiator: strings.TrimSpace(input.UserID),
	}
	if input.ResetType == reset.WindowWeekly {
		resetInput.WindowKey = s.calendar.PreviousWeekStartKey(now)
		return s.resets.ResetWeek(ctx, resetInput)
	}
	resetInput.WindowKey = s.calendar.PreviousDayKey(now)
	return s.resets.ResetDay(ctx, resetInput)
}

func (s *AdminService) Stats(ctx context.Context, userID, scopeID string) (ScopeStats, error) {
	ctx, span := startSpan(ctx, "usecase.AdminService.Stats")
	defer span.End()

	scopeID = strings.TrimSpace(scopeID)
	if scopeID == "" {
		return ScopeStats{}, fmt.Errorf("%w: scope id is required", ErrInvalidInput)
	}
	if _, err := authorize(ctx, s.checker, userID, scopeID, true); err != nil {
		return ScopeStats{}, err
	}

	now := s.now()
	out := ScopeStats{
		ScopeID:      scopeID,
		DayKey:       s.calendar.DayKey(now),
		WeekStartKey: s.calendar.WeekStartKey(now),
	}

	daily, err := s.leaderboards.DailyEntries(ctx, scopeID, out.DayKey)
	if err != nil {
		return ScopeStats{}, err
	}
	summary := leaderboard.Summarize(daily)
	out.Daily = DailyStats{
		WindowStats: WindowStats{Submissions: summary.Count, AverageGain: summary.Average},
		Best:        summary.Best,
		Worst:       summary.Worst,
	}

	weekItems, err := s.submissions.ListByWeek(ctx, scopeID, out.WeekStartKey)
	if err != nil {
		return ScopeStats{}, storageError("list weekly submissions", err)
	}
	out.Weekly = windowStats(weekItems)

	out.TotalMembers, err = s.submissions.CountParticipants(ctx, scopeID)
	if err != nil {
		return ScopeStats{}, storageError("count scope members", err)
	}
	return out, nil
}

// TodaySubmissions returns the current day's ranked board for review or export.
func (s *AdminService) TodaySubmissions(ctx context.Context, userID, scopeID string) ([]leaderboard.Entry, error) {
	ctx, span := startSpan(ctx, "usecase.AdminService.TodaySubmissions")
	defer span.End()

	scopeID = strings.TrimSpace(scopeID)
	if scopeID == "" {
		return nil, fmt.Errorf("%w: scope id is required", ErrInvalidInput)
	}
	if _, err := authorize(ctx, s.checker, userID, scopeID, true); err != nil {
		return nil, err
	}
	return s.leaderboards.DailyEntries(ctx, scopeID, s.calendar.DayKey(s.now()))
}

func (s *AdminService) ResetHistory(ctx context.Context, userID, scopeID string, limit int) ([]reset.Record, error) {
	ctx, span := startSpan(ctx, "usecase.AdminService.ResetHistory")
	defer span.End()

	scopeID = strings.TrimSpace(scopeID)
	if scopeID == "" {
		return nil, fmt.Errorf("%w: scope id is required", ErrInvalidInput)
	}
	if _, err := authorize(ctx, s.checker, userID, scopeID, true); err != nil {
		return nil, err
	}
	return s.resets.History(ctx, scopeID, limit)
}

// windowStats averages raw submissions, not per-participant totals.
func windowStats(items []submission.Joined) WindowStats {
	if len(items) == 0 {
		return WindowStats{}
	}
	var total float64
	for _, item := range items {
		total += item.PercentageGain
	}
	return WindowStats{
		Submissions: len(items),
		AverageGain: leaderboard.RoundTwo(total / float64(len(items))),
	}
}
