package postgres

import "time"

type resetRecordInsertModel struct {
	PublicID                  string    `db:"public_id"`
	ScopeID                   string    `db:"scope_id"`
	WindowKind                string    `db:"window_kind"`
	WindowKey                 string    `db:"window_key"`
	Initiator                 string    `db:"initiator"`
	WinnerParticipantPublicID *string   `db:"winner_participant_public_id,omitnil"`
	TriggeredAt               time.Time `db:"triggered_at"`
}

type resetRecordRow struct {
	PublicID                  string    `db:"public_id"`
	ScopeID                   string    `db:"scope_id"`
	WindowKind                string    `db:"window_kind"`
	WindowKey                 string    `db:"window_key"`
	Initiator                 string    `db:"initiator"`
	WinnerParticipantPublicID *string   `db:"winner_participant_public_id"`
	TriggeredAt               time.Time `db:"triggered_at"`
}
