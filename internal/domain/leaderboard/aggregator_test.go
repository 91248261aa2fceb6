package leaderboard

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/riskibarqy/pulse-leaderboard/internal/domain/submission"
)

func TestAggregateWeekly_SumsAcrossDays(t *testing.T) {
	t.Parallel()

	monday := joined("s1", "A", 1.0, 0)
	tuesday := joined("s2", "A", 0.5, 24*time.Hour)
	tuesday.TradingDayKey = "2026-03-10"
	tuesday.Participant.PrestigeLevel = 4

	entries, err := AggregateWeekly([]submission.Joined{monday, tuesday}, testScope, testWeek)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	got := entries[0]
	if got.Value != 1.5 || got.Rank != 1 {
		t.Fatalf("unexpected entry %+v", got)
	}
	if !got.ReferenceTimestamp.Equal(tuesday.SubmittedAt) {
		t.Fatalf("reference timestamp=%s want latest %s", got.ReferenceTimestamp, tuesday.SubmittedAt)
	}
	if got.PrestigeLevel != 4 {
		t.Fatalf("snapshot should come from latest submission, got prestige %d", got.PrestigeLevel)
	}
	if got.ProofReference != nil || got.SubmissionID != "" {
		t.Fatalf("weekly entry must not carry per-submission data: %+v", got)
	}
}

func TestAggregateWeekly_SumIsExactAndRanked(t *testing.T) {
	t.Parallel()

	items := []submission.Joined{
		joined("a1", "A", 2.25, 0),
		joined("b1", "B", 1.5, time.Minute),
		joined("a2", "A", -0.75, 2*time.Minute),
		joined("c1", "C", 0.5, 3*time.Minute),
		joined("b2", "B", 0.25, 4*time.Minute),
		joined("c2", "C", 1.0, 5*time.Minute),
	}

	entries, err := AggregateWeekly(items, testScope, testWeek)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	want := map[string]float64{"A": 1.5, "B": 1.75, "C": 1.5}
	for _, e := range entries {
		if e.Value != want[e.ParticipantID] {
			t.Fatalf("participant %s sum=%v want %v", e.ParticipantID, e.Value, want[e.ParticipantID])
		}
	}
	// A and C tie; A's latest submission is earlier.
	if got := participants(entries); !reflect.DeepEqual(got, []string{"B", "A", "C"}) {
		t.Fatalf("order=%v want [B A C]", got)
	}
	if got := ranks(entries); !reflect.DeepEqual(got, []int{1, 2, 2}) {
		t.Fatalf("ranks=%v want [1 2 2]", got)
	}
}

func TestAggregateWeekly_RejectsOtherWeek(t *testing.T) {
	t.Parallel()

	item := joined("s1", "A", 1, 0)
	item.WeekStartKey = "2026-03-02"
	if _, err := AggregateWeekly([]submission.Joined{item}, testScope, testWeek); !errors.Is(err, ErrWindowMismatch) {
		t.Fatalf("expected ErrWindowMismatch, got %v", err)
	}

	entries, err := AggregateWeekly(nil, testScope, testWeek)
	if err != nil || entries == nil || len(entries) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v err=%v", entries, err)
	}
}
