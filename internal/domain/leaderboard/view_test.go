package leaderboard

import (
	"testing"
	"time"

	"github.com/riskibarqy/pulse-leaderboard/internal/domain/submission"
)

func TestWinnerAndTopThree(t *testing.T) {
	t.Parallel()

	if _, ok := Winner(nil); ok {
		t.Fatalf("expected no winner on empty board")
	}

	entries, err := RankDaily([]submission.Joined{
		joined("s1", "A", 3, time.Minute),
		joined("s2", "B", 3, 0),
		joined("s3", "C", 2, 0),
		joined("s4", "D", 2, time.Second),
		joined("s5", "E", 1, 0),
	}, testScope, testDay)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}

	winner, ok := Winner(entries)
	if !ok || winner.ParticipantID != "B" {
		t.Fatalf("winner=%+v ok=%t want B (earliest of tie)", winner, ok)
	}

	top := TopThree(entries)
	if len(top) != 4 {
		t.Fatalf("expected 4 entries ranked within top three, got %d", len(top))
	}

	if e, ok := FindParticipant(entries, "E"); !ok || e.Rank != 5 {
		t.Fatalf("FindParticipant(E)=%+v ok=%t", e, ok)
	}
	if _, ok := FindParticipant(entries, "Z"); ok {
		t.Fatalf("unexpected participant Z")
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	if s := Summarize(nil); s.Count != 0 || s.Best != nil || s.Worst != nil {
		t.Fatalf("unexpected empty summary %+v", s)
	}

	entries, err := RankDaily([]submission.Joined{
		joined("s1", "A", 1.111, 0),
		joined("s2", "B", 2.222, 0),
		joined("s3", "C", -0.5, 0),
	}, testScope, testDay)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}

	s := Summarize(entries)
	if s.Count != 3 || s.Average != 0.94 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.Best.ParticipantID != "B" || s.Worst.ParticipantID != "C" {
		t.Fatalf("best=%s worst=%s", s.Best.ParticipantID, s.Worst.ParticipantID)
	}
}
