package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/pulse-leaderboard/internal/domain/access"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/leaderboard"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/submission"
	"github.com/riskibarqy/pulse-leaderboard/internal/infrastructure/identity"
	"github.com/riskibarqy/pulse-leaderboard/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/pulse-leaderboard/internal/platform/cache"
	"github.com/riskibarqy/pulse-leaderboard/internal/platform/logging"
)

type countingSubmissions struct {
	submission.Repository
	dayCalls atomic.Int32
}

func (r *countingSubmissions) ListByDay(ctx context.Context, scopeID, dayKey string) ([]submission.Joined, error) {
	r.dayCalls.Add(1)
	return r.Repository.ListByDay(ctx, scopeID, dayKey)
}

func newTestLeaderboardService(store *memory.Store, submissions submission.Repository, checker access.Checker, boards *cache.Store[[]leaderboard.Entry]) *LeaderboardService {
	svc := NewLeaderboardService(testCalendar(), submissions, store.Participants(), checker, boards, logging.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestLeaderboardService_Daily_RanksAndFindsCaller(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	seedClosedDay(t, store, testScope)
	checker := identity.NewStaticChecker().Grant("user-C", testScope, access.LevelMember)
	svc := newTestLeaderboardService(store, store.Submissions(), checker, nil)

	view, err := svc.Daily(t.Context(), LeaderboardQuery{UserID: "user-C", ScopeID: testScope, WindowKey: testClosedDay})
	if err != nil {
		t.Fatalf("daily leaderboard: %v", err)
	}
	if len(view.Entries) != 3 || len(view.TopThree) != 3 {
		t.Fatalf("unexpected entries: %+v", view.Entries)
	}
	if view.Entries[0].ParticipantID != "B" || view.Entries[1].ParticipantID != "C" {
		t.Fatalf("unexpected order: %+v", view.Entries)
	}
	if view.Entries[0].Rank != 1 || view.Entries[1].Rank != 1 || view.Entries[2].Rank != 3 {
		t.Fatalf("unexpected ranks: %+v", view.Entries)
	}
	if view.Own == nil || view.Own.ParticipantID != "C" || view.Own.Rank != 1 {
		t.Fatalf("unexpected own entry: %+v", view.Own)
	}
	// 11:00 EDT leaves 13h until midnight.
	if view.Countdown.Hours != 13 || view.Countdown.Minutes != 0 {
		t.Fatalf("unexpected countdown: %+v", view.Countdown)
	}
}

func TestLeaderboardService_Daily_DefaultsToToday(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	seedClosedDay(t, store, testScope)
	checker := identity.NewStaticChecker().Grant("user-A", testScope, access.LevelMember)
	svc := newTestLeaderboardService(store, store.Submissions(), checker, nil)

	view, err := svc.Daily(t.Context(), LeaderboardQuery{UserID: "user-A", ScopeID: testScope})
	if err != nil {
		t.Fatalf("daily leaderboard: %v", err)
	}
	if view.WindowKey != "2026-03-11" || len(view.Entries) != 0 || view.Entries == nil {
		t.Fatalf("unexpected empty board: %+v", view)
	}
	if view.Own != nil {
		t.Fatalf("caller without a submission has no own entry")
	}
}

func TestLeaderboardService_Weekly_SumsWeek(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	seedClosedDay(t, store, testScope)
	seedSubmission(t, store, testScope, "A", 1.5, testNow)
	checker := identity.NewStaticChecker().Grant("user-A", testScope, access.LevelAdmin)
	svc := newTestLeaderboardService(store, store.Submissions(), checker, nil)

	view, err := svc.Weekly(t.Context(), LeaderboardQuery{UserID: "user-A", ScopeID: testScope})
	if err != nil {
		t.Fatalf("weekly leaderboard: %v", err)
	}
	if view.WindowKey != testWeekStart {
		t.Fatalf("unexpected week key: %s", view.WindowKey)
	}
	if view.Entries[0].ParticipantID != "A" || view.Entries[0].Value != 3.0 {
		t.Fatalf("unexpected weekly leader: %+v", view.Entries[0])
	}
	if view.Entries[0].SubmissionID != "" || view.Entries[0].ProofReference != nil {
		t.Fatalf("weekly entries carry no submission data: %+v", view.Entries[0])
	}

	if _, err := svc.Weekly(t.Context(), LeaderboardQuery{UserID: "user-A", ScopeID: testScope, WindowKey: "2026-03-10"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for non-Monday key, got %v", err)
	}
}

func TestLeaderboardService_AccessChecks(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	checker := identity.NewStaticChecker().Grant("user-A", testScope, access.LevelMember)
	svc := newTestLeaderboardService(store, store.Submissions(), checker, nil)

	if _, err := svc.Daily(t.Context(), LeaderboardQuery{ScopeID: testScope}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.Daily(t.Context(), LeaderboardQuery{UserID: "user-A", ScopeID: testOtherScope}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Daily(t.Context(), LeaderboardQuery{UserID: "user-A"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Daily(t.Context(), LeaderboardQuery{UserID: "user-A", ScopeID: testScope, WindowKey: "yesterday"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad key, got %v", err)
	}
}

func TestLeaderboardService_CachesUntilInvalidated(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	seedClosedDay(t, store, testScope)
	counting := &countingSubmissions{Repository: store.Submissions()}
	boards := cache.NewStore[[]leaderboard.Entry](time.Minute)
	svc := newTestLeaderboardService(store, counting, identity.NewStaticChecker(), boards)

	first, err := svc.DailyEntries(t.Context(), testScope, testClosedDay)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	first[0].DisplayName = "mutated by caller"

	second, err := svc.DailyEntries(t.Context(), testScope, testClosedDay)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if counting.dayCalls.Load() != 1 {
		t.Fatalf("expected cached board, got %d loads", counting.dayCalls.Load())
	}
	if second[0].DisplayName == "mutated by caller" {
		t.Fatalf("cached board must not be shared with callers")
	}

	svc.InvalidateScope(t.Context(), testScope)
	if _, err := svc.DailyEntries(t.Context(), testScope, testClosedDay); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if counting.dayCalls.Load() != 2 {
		t.Fatalf("expected reload after invalidation, got %d loads", counting.dayCalls.Load())
	}
}
