package memory

import (
	"context"
	"fmt"

	"github.com/riskibarqy/pulse-leaderboard/internal/domain/participant"
)

type ParticipantRepository struct {
	store *Store
}

func (r *ParticipantRepository) GetByID(_ context.Context, participantID string) (participant.Participant, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	p, ok := r.store.participants[participantID]
	return p, ok, nil
}

func (r *ParticipantRepository) GetByExternalID(_ context.Context, externalID string) (participant.Participant, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	participantID, ok := r.store.byExternalID[externalID]
	if !ok {
		return participant.Participant{}, false, nil
	}
	return r.store.participants[participantID], true, nil
}

func (r *ParticipantRepository) Create(_ context.Context, p participant.Participant) (participant.Participant, error) {
	if p.ID == "" || p.ExternalID == "" {
		return participant.Participant{}, fmt.Errorf("participant id and external id are required")
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if existingID, ok := r.store.byExternalID[p.ExternalID]; ok {
		return r.store.participants[existingID], nil
	}
	if _, ok := r.store.participants[p.ID]; ok {
		return participant.Participant{}, fmt.Errorf("participant id %s already exists", p.ID)
	}
	if p.PrestigeLevel < 0 {
		p.PrestigeLevel = 0
	}
	r.store.participants[p.ID] = p
	r.store.byExternalID[p.ExternalID] = p.ID
	return p, nil
}
