package submission

import (
	"errors"
	"time"

	"github.com/riskibarqy/pulse-leaderboard/internal/domain/participant"
)

// ErrDuplicate is returned when a participant already submitted for the trading day.
var ErrDuplicate = errors.New("submission already exists for trading day")

type Submission struct {
	ID             string    `json:"id"`
	ParticipantID  string    `json:"participant_id"`
	ScopeID        string    `json:"scope_id"`
	PercentageGain float64   `json:"percentage_gain"`
	ProofReference *string   `json:"proof_reference,omitempty"`
	SubmittedAt    time.Time `json:"submitted_at"`
	TradingDayKey  string    `json:"trading_day_key"`
	WeekStartKey   string    `json:"week_start_key"`
}

// Joined is a submission with the participant data needed for ranking.
type Joined struct {
	Submission
	Participant participant.Snapshot
}
