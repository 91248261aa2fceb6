package participant

import "time"

// Participant is a community member identified by the identity provider's user id.
type Participant struct {
	ID            string
	ExternalID    string
	DisplayName   string
	Handle        string
	PrestigeLevel int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Snapshot is the subset of profile data shown next to a ranked entry.
type Snapshot struct {
	DisplayName   string
	Handle        string
	PrestigeLevel int
}

func (p Participant) Snapshot() Snapshot {
	return Snapshot{
		DisplayName:   p.DisplayName,
		Handle:        p.Handle,
		PrestigeLevel: p.PrestigeLevel,
	}
}
