package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/pulse-leaderboard/internal/domain/submission"
)

type SubmissionRepository struct {
	store *Store
}

func (r *SubmissionRepository) Create(_ context.Context, item submission.Submission) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.participants[item.ParticipantID]; !ok {
		return fmt.Errorf("participant %s does not exist", item.ParticipantID)
	}
	key := submissionDayKey(item.ParticipantID, item.ScopeID, item.TradingDayKey)
	if _, exists := r.store.dayIndex[key]; exists {
		return fmt.Errorf("%w: participant=%s scope=%s day=%s",
			submission.ErrDuplicate, item.ParticipantID, item.ScopeID, item.TradingDayKey)
	}

	if item.ProofReference != nil {
		ref := *item.ProofReference
		item.ProofReference = &ref
	}
	r.store.dayIndex[key] = struct{}{}
	r.store.submissions = append(r.store.submissions, item)
	return nil
}

func (r *SubmissionRepository) ListByDay(_ context.Context, scopeID, dayKey string) ([]submission.Joined, error) {
	return r.joined(func(item submission.Submission) bool {
		return item.ScopeID == scopeID && item.TradingDayKey == dayKey
	}), nil
}

func (r *SubmissionRepository) ListByWeek(_ context.Context, scopeID, weekKey string) ([]submission.Joined, error) {
	return r.joined(func(item submission.Submission) bool {
		return item.ScopeID == scopeID && item.WeekStartKey == weekKey
	}), nil
}

func (r *SubmissionRepository) ListScopesByDay(_ context.Context, dayKey string) ([]string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, item := range r.store.submissions {
		if item.TradingDayKey != dayKey {
			continue
		}
		if _, ok := seen[item.ScopeID]; ok {
			continue
		}
		seen[item.ScopeID] = struct{}{}
		out = append(out, item.ScopeID)
	}
	sort.Strings(out)
	return out, nil
}

func (r *SubmissionRepository) ListByParticipant(_ context.Context, scopeID, participantID string, limit int) ([]submission.Submission, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]submission.Submission, 0)
	for _, item := range r.store.submissions {
		if item.ScopeID == scopeID && item.ParticipantID == participantID {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *SubmissionRepository) CountParticipants(_ context.Context, scopeID string) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, item := range r.store.submissions {
		if item.ScopeID == scopeID {
			seen[item.ParticipantID] = struct{}{}
		}
	}
	return len(seen), nil
}

func (r *SubmissionRepository) joined(match func(submission.Submission) bool) []submission.Joined {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]submission.Joined, 0)
	for _, item := range r.store.submissions {
		if !match(item) {
			continue
		}
		out = append(out, submission.Joined{
			Submission:  item,
			Participant: r.store.participants[item.ParticipantID].Snapshot(),
		})
	}
	return out
}
