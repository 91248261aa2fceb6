package leaderboard

import (
	"fmt"
	"sort"

	"github.com/riskibarqy/pulse-leaderboard/internal/domain/submission"
)

// AggregateWeekly sums each participant's gains for weekKey (percentage
// points, not compounded) and ranks the totals.
func AggregateWeekly(items []submission.Joined, scopeID, weekKey string) ([]Entry, error) {
	byParticipant := make(map[string]*Entry, len(items))
	order := make([]string, 0, len(items))

	for _, item := range items {
		if item.ScopeID != scopeID || item.WeekStartKey != weekKey {
			return nil, fmt.Errorf("%w: submission %s is %s/%s, want %s/%s",
				ErrWindowMismatch, item.ID, item.ScopeID, item.WeekStartKey, scopeID, weekKey)
		}
		if !isFinite(item.PercentageGain) {
			return nil, fmt.Errorf("%w: submission %s", ErrInvalidValue, item.ID)
		}

		agg, ok := byParticipant[item.ParticipantID]
		if !ok {
			agg = &Entry{ParticipantID: item.ParticipantID}
			byParticipant[item.ParticipantID] = agg
			order = append(order, item.ParticipantID)
		}
		agg.Value += item.PercentageGain
		if !ok || item.SubmittedAt.After(agg.ReferenceTimestamp) {
			agg.ReferenceTimestamp = item.SubmittedAt
			agg.DisplayName = item.Participant.DisplayName
			agg.Handle = item.Participant.Handle
			agg.PrestigeLevel = item.Participant.PrestigeLevel
		}
	}

	entries := make([]Entry, 0, len(order))
	for _, participantID := range order {
		entries = append(entries, *byParticipant[participantID])
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Value != b.Value {
			return a.Value > b.Value
		}
		if !a.ReferenceTimestamp.Equal(b.ReferenceTimestamp) {
			return a.ReferenceTimestamp.Before(b.ReferenceTimestamp)
		}
		return a.ParticipantID < b.ParticipantID
	})
	assignCompetitionRanks(entries)

	return entries, nil
}
