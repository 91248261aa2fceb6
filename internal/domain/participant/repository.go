package participant

import "context"

type Repository interface {
	GetByID(ctx context.Context, participantID string) (Participant, bool, error)
	GetByExternalID(ctx context.Context, externalID string) (Participant, bool, error)
	// Create inserts p, or returns the existing row when ExternalID is taken.
	Create(ctx context.Context, p Participant) (Participant, error)
}
