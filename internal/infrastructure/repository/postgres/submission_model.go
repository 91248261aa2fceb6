package postgres

import "time"

type submissionInsertModel struct {
	PublicID            string    `db:"public_id"`
	ParticipantPublicID string    `db:"participant_public_id"`
	ScopeID             string    `db:"scope_id"`
	PercentageGain      float64   `db:"percentage_gain"`
	ProofReference      *string   `db:"proof_reference,omitnil"`
	SubmittedAt         time.Time `db:"submitted_at"`
	TradingDayKey       string    `db:"trading_day_key"`
	WeekStartKey        string    `db:"week_start_key"`
}

type submissionRow struct {
	PublicID            string    `db:"public_id"`
	ParticipantPublicID string    `db:"participant_public_id"`
	ScopeID             string    `db:"scope_id"`
	PercentageGain      float64   `db:"percentage_gain"`
	ProofReference      *string   `db:"proof_reference"`
	SubmittedAt         time.Time `db:"submitted_at"`
	TradingDayKey       string    `db:"trading_day_key"`
	WeekStartKey        string    `db:"week_start_key"`
}

type joinedSubmissionRow struct {
	submissionRow
	DisplayName   string `db:"display_name"`
	Handle        string `db:"handle"`
	PrestigeLevel int    `db:"prestige_level"`
}
