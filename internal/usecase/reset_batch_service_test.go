package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/riskibarqy/pulse-leaderboard/internal/domain/jobscheduler"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/storage"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/submission"
	"github.com/riskibarqy/pulse-leaderboard/internal/infrastructure/repository/memory"
	submissionmock "github.com/riskibarqy/pulse-leaderboard/internal/mocks/domain/submission"
	"github.com/riskibarqy/pulse-leaderboard/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

// scopeFaultSubmissions injects per-scope failures into ListByDay.
type scopeFaultSubmissions struct {
	submission.Repository
	failScope  string
	panicScope string
	onList     func(scopeID string)
}

func (r *scopeFaultSubmissions) ListByDay(ctx context.Context, scopeID, dayKey string) ([]submission.Joined, error) {
	if r.onList != nil {
		r.onList(scopeID)
	}
	switch scopeID {
	case r.failScope:
		return nil, fmt.Errorf("%w: connection reset by peer", storage.ErrUnavailable)
	case r.panicScope:
		panic("corrupt row for " + scopeID)
	}
	return r.Repository.ListByDay(ctx, scopeID, dayKey)
}

func newTestBatchService(store *memory.Store, submissions submission.Repository, cfg ResetBatchConfig) *ResetBatchService {
	resets := NewResetService(testCalendar(), submissions, store.Resets(), nil, &sequenceIDs{prefix: "reset"}, logging.NewNop())
	resets.now = func() time.Time { return testNow }

	batch := NewResetBatchService(testCalendar(), submissions, resets, store.JobRuns(), cfg, logging.NewNop())
	batch.now = func() time.Time { return testNow }
	return batch
}

func TestResetBatchService_RunDaily_ClosesEveryActiveScope(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	seedClosedDay(t, store, testScope)
	seedClosedDay(t, store, testOtherScope)
	// Activity today must not pull a scope into the batch.
	seedParticipant(t, store, "D")
	seedSubmission(t, store, "community-3", "D", 4.0, testNow.Add(-time.Hour))

	batch := newTestBatchService(store, store.Submissions(), ResetBatchConfig{MaxWorkers: 4})

	result, err := batch.RunDaily(t.Context(), BatchInput{})
	if err != nil {
		t.Fatalf("run daily: %v", err)
	}
	if result.ClosedDayKey != testClosedDay || result.ScopeCount != 2 || result.WorkerCount != 2 {
		t.Fatalf("unexpected batch shape: %+v", result)
	}
	if result.AwardedCount != 2 || len(result.Outcomes) != 2 || len(result.Failures) != 0 {
		t.Fatalf("unexpected batch counts: %+v", result)
	}
	if result.Outcomes[0].ScopeID != testScope || result.Outcomes[1].ScopeID != testOtherScope {
		t.Fatalf("outcomes must be sorted by scope: %+v", result.Outcomes)
	}
	// B won both scopes.
	if got := prestigeOf(t, store, "B"); got != 2 {
		t.Fatalf("expected prestige 2 for B, got %d", got)
	}

	events, err := store.JobRuns().ListByWindow(t.Context(), DailyResetJobName, testClosedDay)
	if err != nil {
		t.Fatalf("list run events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected one run event per scope, got %d", len(events))
	}
	for _, event := range events {
		if event.Status != jobscheduler.StatusCompleted {
			t.Fatalf("unexpected run status: %+v", event)
		}
		if event.Payload["status"] != string(ResetStatusAwarded) {
			t.Fatalf("unexpected run payload: %+v", event.Payload)
		}
	}

	rerun, err := batch.RunDaily(t.Context(), BatchInput{})
	if err != nil {
		t.Fatalf("rerun daily: %v", err)
	}
	if rerun.AlreadyIssuedCount != 2 || rerun.AwardedCount != 0 {
		t.Fatalf("rerun must be a no-op: %+v", rerun)
	}
	if got := prestigeOf(t, store, "B"); got != 2 {
		t.Fatalf("rerun changed prestige: %d", got)
	}
}

func TestResetBatchService_RunDaily_IsolatesFailingScopes(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	seedClosedDay(t, store, testScope)
	seedClosedDay(t, store, testOtherScope)
	seedClosedDay(t, store, "community-3")

	faulty := &scopeFaultSubmissions{
		Repository: store.Submissions(),
		failScope:  testOtherScope,
		panicScope: "community-3",
	}
	batch := newTestBatchService(store, faulty, ResetBatchConfig{MaxWorkers: 2})

	result, err := batch.RunDaily(t.Context(), BatchInput{})
	if !errors.Is(err, ErrPartialBatchFailure) {
		t.Fatalf("expected ErrPartialBatchFailure, got %v", err)
	}
	if !errors.Is(err, ErrPersistenceUnavailable) {
		t.Fatalf("expected scope cause in chain, got %v", err)
	}
	var partial *PartialBatchFailureError
	if !errors.As(err, &partial) || len(partial.Failures) != 2 {
		t.Fatalf("expected two scope failures, got %v", err)
	}

	if len(result.Outcomes) != 1 || result.Outcomes[0].ScopeID != testScope || result.Outcomes[0].Status != ResetStatusAwarded {
		t.Fatalf("healthy scope must still be reset: %+v", result.Outcomes)
	}
	failed := []string{result.Failures[0].ScopeID, result.Failures[1].ScopeID}
	if !slices.Equal(failed, []string{testOtherScope, "community-3"}) && !slices.Equal(failed, []string{"community-3", testOtherScope}) {
		t.Fatalf("unexpected failures: %+v", result.Failures)
	}

	events, err := store.JobRuns().ListByWindow(t.Context(), DailyResetJobName, testClosedDay)
	if err != nil {
		t.Fatalf("list run events: %v", err)
	}
	statusByScope := make(map[string]jobscheduler.RunStatus, len(events))
	for _, event := range events {
		statusByScope[event.ScopeID] = event.Status
	}
	if statusByScope[testScope] != jobscheduler.StatusCompleted ||
		statusByScope[testOtherScope] != jobscheduler.StatusFailed ||
		statusByScope["community-3"] != jobscheduler.StatusFailed {
		t.Fatalf("unexpected run statuses: %+v", statusByScope)
	}

	occurred, err := store.Resets().HasOccurred(t.Context(), testOtherScope, "daily", testClosedDay)
	if err != nil || occurred {
		t.Fatalf("failed scope must not be claimed: occurred=%v err=%v", occurred, err)
	}
}

func TestResetBatchService_RunDaily_CancellationSkipsUnstartedScopes(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	for _, scopeID := range []string{"community-1", "community-2", "community-3"} {
		seedClosedDay(t, store, scopeID)
	}

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	faulty := &scopeFaultSubmissions{
		Repository: store.Submissions(),
		onList: func(scopeID string) {
			if scopeID == "community-1" {
				cancel()
			}
		},
	}
	batch := newTestBatchService(store, faulty, ResetBatchConfig{MaxWorkers: 1})

	result, err := batch.RunDaily(ctx, BatchInput{})
	if err != nil {
		t.Fatalf("cancelled batch without failures should not error: %v", err)
	}
	if len(result.Outcomes) != 1 || result.Outcomes[0].Status != ResetStatusAwarded {
		t.Fatalf("in-flight scope must finish: %+v", result.Outcomes)
	}
	if !slices.Equal(result.SkippedScopes, []string{"community-2", "community-3"}) {
		t.Fatalf("unexpected skipped scopes: %+v", result.SkippedScopes)
	}

	for _, scopeID := range result.SkippedScopes {
		occurred, err := store.Resets().HasOccurred(t.Context(), scopeID, "daily", testClosedDay)
		if err != nil || occurred {
			t.Fatalf("skipped scope %s must not be claimed", scopeID)
		}
	}
}

func TestResetBatchService_RunDaily_ListScopesFailureUsingMockery(t *testing.T) {
	t.Parallel()

	submissionRepo := submissionmock.NewRepository(t)
	submissionRepo.
		On("ListScopesByDay", mock.Anything, testClosedDay).
		Return(nil, fmt.Errorf("%w: too many connections", storage.ErrUnavailable)).
		Once()

	store := memory.NewStore()
	batch := newTestBatchService(store, submissionRepo, ResetBatchConfig{})

	result, err := batch.RunDaily(t.Context(), BatchInput{})
	if !errors.Is(err, ErrPersistenceUnavailable) {
		t.Fatalf("expected ErrPersistenceUnavailable, got %v", err)
	}
	if errors.Is(err, ErrPartialBatchFailure) {
		t.Fatalf("listing failure is not a partial batch failure")
	}
	if result.ClosedDayKey != testClosedDay {
		t.Fatalf("unexpected closed day: %q", result.ClosedDayKey)
	}
}

func TestResetBatchService_RunDaily_RejectsFutureReferenceTime(t *testing.T) {
	t.Parallel()

	// No expectations: the batch must fail before touching any scope.
	submissionRepo := submissionmock.NewRepository(t)
	batch := newTestBatchService(memory.NewStore(), submissionRepo, ResetBatchConfig{})

	result, err := batch.RunDaily(t.Context(), BatchInput{Now: testNow.Add(48 * time.Hour)})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if errors.Is(err, ErrPartialBatchFailure) {
		t.Fatalf("future reference time must not be reported per scope")
	}
	if result.ScopeCount != 0 || len(result.Failures) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestResetBatchService_RunDaily_NoActiveScopes(t *testing.T) {
	t.Parallel()

	batch := newTestBatchService(memory.NewStore(), memory.NewStore().Submissions(), ResetBatchConfig{})
	result, err := batch.RunDaily(t.Context(), BatchInput{})
	if err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if result.ScopeCount != 0 || len(result.Outcomes) != 0 || result.SkippedScopes == nil {
		t.Fatalf("unexpected empty result: %+v", result)
	}
}

func TestNormalizeWorkerCount(t *testing.T) {
	t.Parallel()

	cases := []struct {
		requested, fallback, tasks, want int
	}{
		{0, 4, 10, 4},
		{8, 4, 3, 3},
		{2, 4, 10, 2},
		{0, 0, 5, 1},
		{0, 4, 0, 4},
	}
	for _, tc := range cases {
		if got := normalizeWorkerCount(tc.requested, tc.fallback, tc.tasks); got != tc.want {
			t.Fatalf("normalizeWorkerCount(%d,%d,%d)=%d want=%d", tc.requested, tc.fallback, tc.tasks, got, tc.want)
		}
	}
}

func TestUniqueSortedScopes(t *testing.T) {
	t.Parallel()

	got := uniqueSortedScopes([]string{"b", " a ", "", "b", "c"})
	if !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected scopes: %v", got)
	}
}
