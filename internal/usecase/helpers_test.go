package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/pulse-leaderboard/internal/domain/calendar"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/participant"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/submission"
	"github.com/riskibarqy/pulse-leaderboard/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/pulse-leaderboard/internal/platform/logging"
)

// 2026-03-11 11:00 in New York (EDT), so the closed day is 2026-03-10.
var testNow = time.Date(2026, time.March, 11, 15, 0, 0, 0, time.UTC)

const (
	testClosedDay  = "2026-03-10"
	testWeekStart  = "2026-03-09"
	testPrevWeek   = "2026-03-02"
	testScope      = "community-1"
	testOtherScope = "community-2"
)

type sequenceIDs struct {
	prefix string
	next   atomic.Int64
}

func (g *sequenceIDs) NewID() (string, error) {
	return fmt.Sprintf("%s-%03d", g.prefix, g.next.Add(1)), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []PrestigeAwardedEvent
	err    error
}

func (p *recordingPublisher) PublishPrestigeAwarded(_ context.Context, event PrestigeAwardedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func testCalendar() *calendar.Calendar {
	return calendar.MustNew(calendar.DefaultTimezone)
}

func newTestResetService(store *memory.Store, publisher EventPublisher) *ResetService {
	svc := NewResetService(
		testCalendar(),
		store.Submissions(),
		store.Resets(),
		publisher,
		&sequenceIDs{prefix: "reset"},
		logging.NewNop(),
	)
	svc.now = func() time.Time { return testNow }
	return svc
}

func seedParticipant(t *testing.T, store *memory.Store, id string) {
	t.Helper()
	if _, err := store.Participants().Create(context.Background(), participant.Participant{
		ID:          id,
		ExternalID:  "user-" + id,
		DisplayName: "Trader " + id,
		Handle:      "@" + id,
	}); err != nil {
		t.Fatalf("seed participant %s: %v", id, err)
	}
}

// seedSubmission stores a gain for the participant at the given UTC time.
func seedSubmission(t *testing.T, store *memory.Store, scopeID, participantID string, gain float64, at time.Time) {
	t.Helper()
	cal := testCalendar()
	if err := store.Submissions().Create(context.Background(), submission.Submission{
		ID:             fmt.Sprintf("sub-%s-%s-%s", scopeID, participantID, cal.DayKey(at)),
		ParticipantID:  participantID,
		ScopeID:        scopeID,
		PercentageGain: gain,
		SubmittedAt:    at,
		TradingDayKey:  cal.DayKey(at),
		WeekStartKey:   cal.WeekStartKey(at),
	}); err != nil {
		t.Fatalf("seed submission %s/%s: %v", scopeID, participantID, err)
	}
}

func prestigeOf(t *testing.T, store *memory.Store, id string) int {
	t.Helper()
	p, ok, err := store.Participants().GetByID(context.Background(), id)
	if err != nil || !ok {
		t.Fatalf("get participant %s: ok=%v err=%v", id, ok, err)
	}
	return p.PrestigeLevel
}

// seedClosedDay gives scope a board of A=1.5, B=2.25, C=2.25 on the closed
// day. B submitted before C, so B wins the tie.
func seedClosedDay(t *testing.T, store *memory.Store, scopeID string) {
	t.Helper()
	for _, id := range []string{"A", "B", "C"} {
		if _, ok, _ := store.Participants().GetByID(context.Background(), id); !ok {
			seedParticipant(t, store, id)
		}
	}
	base := time.Date(2026, time.March, 10, 14, 0, 0, 0, time.UTC)
	seedSubmission(t, store, scopeID, "A", 1.5, base)
	seedSubmission(t, store, scopeID, "B", 2.25, base.Add(time.Minute))
	seedSubmission(t, store, scopeID, "C", 2.25, base.Add(2*time.Minute))
}
