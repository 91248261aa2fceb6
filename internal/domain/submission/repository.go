package submission

import "context"

type Repository interface {
	Create(ctx context.Context, s Submission) error
	ListByDay(ctx context.Context, scopeID, dayKey string) ([]Joined, error)
	ListByWeek(ctx context.Context, scopeID, weekKey string) ([]Joined, error)
	// ListScopesByDay returns the distinct scopes with at least one submission on dayKey.
	ListScopesByDay(ctx context.Context, dayKey string) ([]string, error)
	// ListByParticipant returns newest first.
	ListByParticipant(ctx context.Context, scopeID, participantID string, limit int) ([]Submission, error)
	CountParticipants(ctx context.Context, scopeID string) (int, error)
}
