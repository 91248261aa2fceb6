package postgres

import "time"

type participantInsertModel struct {
	PublicID      string `db:"public_id"`
	ExternalID    string `db:"external_id"`
	DisplayName   string `db:"display_name"`
	Handle        string `db:"handle"`
	PrestigeLevel int    `db:"prestige_level"`
}

type participantRow struct {
	PublicID      string    `db:"public_id"`
	ExternalID    string    `db:"external_id"`
	DisplayName   string    `db:"display_name"`
	Handle        string    `db:"handle"`
	PrestigeLevel int       `db:"prestige_level"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}
