package memory

import (
	"sync"

	"github.com/riskibarqy/pulse-leaderboard/internal/domain/jobscheduler"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/participant"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/reset"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/submission"
)

// Store keeps every table in process memory behind one lock. The reset
// transaction holds the write lock for its whole closure, which gives the
// same all-or-nothing claim and increment as the postgres backend.
type Store struct {
	mu sync.RWMutex

	participants map[string]participant.Participant
	byExternalID map[string]string

	submissions []submission.Submission
	dayIndex    map[string]struct{}

	resets   []reset.Record
	resetKey map[string]struct{}

	runEvents map[string]jobscheduler.RunEvent
}

func NewStore() *Store {
	return &Store{
		participants: make(map[string]participant.Participant),
		byExternalID: make(map[string]string),
		dayIndex:     make(map[string]struct{}),
		resetKey:     make(map[string]struct{}),
		runEvents:    make(map[string]jobscheduler.RunEvent),
	}
}

func (s *Store) Participants() *ParticipantRepository {
	return &ParticipantRepository{store: s}
}

func (s *Store) Submissions() *SubmissionRepository {
	return &SubmissionRepository{store: s}
}

func (s *Store) Resets() *ResetRepository {
	return &ResetRepository{store: s}
}

func (s *Store) JobRuns() *JobRunRepository {
	return &JobRunRepository{store: s}
}

func submissionDayKey(participantID, scopeID, dayKey string) string {
	return participantID + "|" + scopeID + "|" + dayKey
}

func resetRecordKey(scopeID string, kind reset.WindowKind, windowKey string) string {
	return scopeID + "|" + string(kind) + "|" + windowKey
}
