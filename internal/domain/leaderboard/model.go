package leaderboard

import (
	"errors"
	"time"
)

var (
	// ErrWindowMismatch means an item outside the requested scope or window was passed in.
	ErrWindowMismatch = errors.New("submission outside requested window")
	ErrInvalidValue   = errors.New("percentage gain is not a finite number")
)

// Entry is one ranked row. For weekly boards Value is the summed gain,
// ReferenceTimestamp the latest submission and ProofReference is nil.
type Entry struct {
	Rank               int       `json:"rank"`
	ParticipantID      string    `json:"participant_id"`
	SubmissionID       string    `json:"submission_id,omitempty"`
	DisplayName        string    `json:"display_name"`
	Handle             string    `json:"handle"`
	Value              float64   `json:"value"`
	ReferenceTimestamp time.Time `json:"reference_timestamp"`
	PrestigeLevel      int       `json:"prestige_level"`
	ProofReference     *string   `json:"proof_reference,omitempty"`
}

type Summary struct {
	Count   int
	Average float64
	Best    *Entry
	Worst   *Entry
}
