package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/pulse-leaderboard/internal/domain/reset"
)

type ResetRepository struct {
	store *Store
}

func (r *ResetRepository) HasOccurred(_ context.Context, scopeID string, kind reset.WindowKind, windowKey string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	_, ok := r.store.resetKey[resetRecordKey(scopeID, kind, windowKey)]
	return ok, nil
}

func (r *ResetRepository) ListByScope(_ context.Context, scopeID string, limit int) ([]reset.Record, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]reset.Record, 0)
	for _, rec := range r.store.resets {
		if rec.ScopeID == scopeID {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TriggeredAt.After(out[j].TriggeredAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// WithinTx must not call other repositories of the same store from fn; the
// write lock is already held.
func (r *ResetRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx reset.Tx) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tx := &resetTx{store: r.store, prestige: make(map[string]int)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit reset tx: %w", err)
	}

	for _, rec := range tx.claims {
		r.store.resets = append(r.store.resets, rec)
		r.store.resetKey[resetRecordKey(rec.ScopeID, rec.WindowKind, rec.WindowKey)] = struct{}{}
	}
	for participantID, level := range tx.prestige {
		p := r.store.participants[participantID]
		p.PrestigeLevel = level
		r.store.participants[participantID] = p
	}
	return nil
}

type resetTx struct {
	store    *Store
	claims   []reset.Record
	prestige map[string]int
}

func (t *resetTx) Claim(_ context.Context, record reset.Record) (bool, error) {
	key := resetRecordKey(record.ScopeID, record.WindowKind, record.WindowKey)
	if _, ok := t.store.resetKey[key]; ok {
		return false, nil
	}
	for _, staged := range t.claims {
		if resetRecordKey(staged.ScopeID, staged.WindowKind, staged.WindowKey) == key {
			return false, nil
		}
	}
	t.claims = append(t.claims, record)
	return true, nil
}

func (t *resetTx) IncrementPrestige(_ context.Context, participantID string) (int, error) {
	level, staged := t.prestige[participantID]
	if !staged {
		p, ok := t.store.participants[participantID]
		if !ok {
			return 0, fmt.Errorf("participant %s does not exist", participantID)
		}
		level = p.PrestigeLevel
	}
	level++
	t.prestige[participantID] = level
	return level, nil
}
