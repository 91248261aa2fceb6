package memory

import (
	"context"
	"sort"

	"github.com/riskibarqy/pulse-leaderboard/internal/domain/jobscheduler"
)

type JobRunRepository struct {
	store *Store
}

// UpsertEvent keeps the latest state per run id.
func (r *JobRunRepository) UpsertEvent(_ context.Context, event jobscheduler.RunEvent) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.runEvents[event.RunID] = event
	return nil
}

func (r *JobRunRepository) ListByWindow(_ context.Context, jobName, windowKey string) ([]jobscheduler.RunEvent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]jobscheduler.RunEvent, 0)
	for _, event := range r.store.runEvents {
		if event.JobName == jobName && event.WindowKey == windowKey {
			out = append(out, event)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScopeID < out[j].ScopeID })
	return out, nil
}
