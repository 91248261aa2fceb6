package leaderboard

import (
	"fmt"
	"math"
	"sort"

	"github.com/riskibarqy/pulse-leaderboard/internal/domain/submission"
)

// RankDaily orders one scope's submissions for dayKey by gain desc, then
// submission time, then submission id, and assigns competition ranks.
func RankDaily(items []submission.Joined, scopeID, dayKey string) ([]Entry, error) {
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		if item.ScopeID != scopeID || item.TradingDayKey != dayKey {
			return nil, fmt.Errorf("%w: submission %s is %s/%s, want %s/%s",
				ErrWindowMismatch, item.ID, item.ScopeID, item.TradingDayKey, scopeID, dayKey)
		}
		if !isFinite(item.PercentageGain) {
			return nil, fmt.Errorf("%w: submission %s", ErrInvalidValue, item.ID)
		}

		entries = append(entries, Entry{
			ParticipantID:      item.ParticipantID,
			SubmissionID:       item.ID,
			DisplayName:        item.Participant.DisplayName,
			Handle:             item.Participant.Handle,
			Value:              item.PercentageGain,
			ReferenceTimestamp: item.SubmittedAt,
			PrestigeLevel:      item.Participant.PrestigeLevel,
			ProofReference:     cloneString(item.ProofReference),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Value != b.Value {
			return a.Value > b.Value
		}
		if !a.ReferenceTimestamp.Equal(b.ReferenceTimestamp) {
			return a.ReferenceTimestamp.Before(b.ReferenceTimestamp)
		}
		return a.SubmissionID < b.SubmissionID
	})
	assignCompetitionRanks(entries)

	return entries, nil
}

// assignCompetitionRanks expects entries sorted by Value desc.
// rank = 1 + number of entries with a strictly greater value.
func assignCompetitionRanks(entries []Entry) {
	for i := range entries {
		if i > 0 && entries[i].Value == entries[i-1].Value {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
