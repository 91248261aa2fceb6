package reset

import "context"

// Tx is the unit of work for awarding a window.
type Tx interface {
	// Claim inserts the record; false means another run already claimed the window.
	Claim(ctx context.Context, record Record) (bool, error)
	// IncrementPrestige adds one to the participant's prestige and returns the new level.
	IncrementPrestige(ctx context.Context, participantID string) (int, error)
}

type Repository interface {
	HasOccurred(ctx context.Context, scopeID string, kind WindowKind, windowKey string) (bool, error)
	ListByScope(ctx context.Context, scopeID string, limit int) ([]Record, error)
	// WithinTx commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
