package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/pulse-leaderboard/internal/platform/logging"
	"github.com/riskibarqy/pulse-leaderboard/internal/usecase"
)

type stubRunner struct {
	mu     sync.Mutex
	inputs []usecase.BatchInput
	block  bool
	result usecase.BatchResult
	err    error
	called chan struct{}
}

func newStubRunner() *stubRunner {
	return &stubRunner{called: make(chan struct{}, 16)}
}

func (r *stubRunner) RunDaily(ctx context.Context, input usecase.BatchInput) (usecase.BatchResult, error) {
	r.mu.Lock()
	r.inputs = append(r.inputs, input)
	block := r.block
	r.mu.Unlock()
	r.called <- struct{}{}

	if block {
		<-ctx.Done()
		return r.result, ctx.Err()
	}
	return r.result, r.err
}

func (r *stubRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inputs)
}

func TestNew_RejectsBadSpec(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Spec: "not a cron"}, newStubRunner(), logging.NewNop()); err == nil {
		t.Fatalf("expected error for invalid spec")
	}
	if _, err := New(Config{Spec: " "}, newStubRunner(), logging.NewNop()); err == nil {
		t.Fatalf("expected error for empty spec")
	}
	if _, err := New(Config{Spec: "0 5 0 * * *"}, nil, logging.NewNop()); err == nil {
		t.Fatalf("expected error for nil runner")
	}
}

func TestNext_UsesLocation(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	s, err := New(Config{Spec: "0 5 0 * * *", Location: loc}, newStubRunner(), logging.NewNop())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	s.Start()
	defer func() { _ = s.Stop(context.Background()) }()

	next := s.Next().In(loc)
	if next.IsZero() {
		t.Fatalf("expected next run to be scheduled")
	}
	if next.Hour() != 0 || next.Minute() != 5 || next.Second() != 0 {
		t.Fatalf("unexpected next run in trading zone: %s", next)
	}
}

func TestRunNow_PassesInitiatorAndResult(t *testing.T) {
	t.Parallel()

	runner := newStubRunner()
	runner.result = usecase.BatchResult{ClosedDayKey: "2026-03-10", ScopeCount: 2, AwardedCount: 2}
	s, err := New(Config{Spec: "0 5 0 * * *"}, runner, logging.NewNop())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	result, err := s.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run now: %v", err)
	}
	if result.ClosedDayKey != "2026-03-10" || result.AwardedCount != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if runner.count() != 1 || runner.inputs[0].Initiator != InitiatorCron {
		t.Fatalf("unexpected runner inputs: %+v", runner.inputs)
	}
}

func TestRunNow_ReturnsPartialFailure(t *testing.T) {
	t.Parallel()

	runner := newStubRunner()
	runner.err = &usecase.PartialBatchFailureError{}
	s, err := New(Config{Spec: "0 5 0 * * *"}, runner, logging.NewNop())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	if _, err := s.RunNow(context.Background()); !errors.Is(err, usecase.ErrPartialBatchFailure) {
		t.Fatalf("expected partial batch failure, got %v", err)
	}
}

func TestRunNow_AppliesRunTimeout(t *testing.T) {
	t.Parallel()

	runner := newStubRunner()
	runner.block = true
	s, err := New(Config{Spec: "0 5 0 * * *", RunTimeout: 20 * time.Millisecond}, runner, logging.NewNop())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	if _, err := s.RunNow(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestScheduledRun_StopCancelsInFlightBatch(t *testing.T) {
	t.Parallel()

	runner := newStubRunner()
	runner.block = true
	s, err := New(Config{Spec: "* * * * * *"}, runner, logging.NewNop())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	s.Start()

	select {
	case <-runner.called:
	case <-time.After(3 * time.Second):
		t.Fatalf("expected a scheduled run within 3s")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("stop scheduler: %v", err)
	}
	if runner.count() != 1 {
		t.Fatalf("expected overlapping triggers to be skipped, got %d runs", runner.count())
	}
}
