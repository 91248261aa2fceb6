package usecase

import (
	"context"
	"time"
)

// PrestigeAwardedEvent is emitted after a daily reset commits a prestige increment.
type PrestigeAwardedEvent struct {
	EventID       string    `json:"event_id"`
	ScopeID       string    `json:"scope_id"`
	WindowKind    string    `json:"window_kind"`
	WindowKey     string    `json:"window_key"`
	ParticipantID string    `json:"participant_id"`
	PrestigeLevel int       `json:"prestige_level"`
	GainValue     float64   `json:"gain_value"`
	Initiator     string    `json:"initiator"`
	AwardedAt     time.Time `json:"awarded_at"`
}

type EventPublisher interface {
	PublishPrestigeAwarded(ctx context.Context, event PrestigeAwardedEvent) error
}

type noopEventPublisher struct{}

func (noopEventPublisher) PublishPrestigeAwarded(_ context.Context, _ PrestigeAwardedEvent) error {
	return nil
}

func NewNoopEventPublisher() EventPublisher {
	return noopEventPublisher{}
}
