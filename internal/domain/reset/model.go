package reset

import "time"

type WindowKind string

const (
	WindowDaily  WindowKind = "daily"
	WindowWeekly WindowKind = "weekly"
)

const InitiatorSystem = "system"

func (k WindowKind) Valid() bool {
	return k == WindowDaily || k == WindowWeekly
}

// Record is the audit row for one window close. At most one exists per
// (ScopeID, WindowKind, WindowKey).
type Record struct {
	ID                  string     `json:"id"`
	ScopeID             string     `json:"scope_id"`
	WindowKind          WindowKind `json:"window_kind"`
	WindowKey           string     `json:"window_key"`
	Initiator           string     `json:"initiator"`
	WinnerParticipantID *string    `json:"winner_participant_id,omitempty"`
	TriggeredAt         time.Time  `json:"triggered_at"`
}
