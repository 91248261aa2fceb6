package leaderboard

import "math"

// Winner returns the first rank-1 entry of a ranked board.
func Winner(entries []Entry) (Entry, bool) {
	if len(entries) == 0 || entries[0].Rank != 1 {
		return Entry{}, false
	}
	return entries[0], true
}

// TopThree returns entries ranked 1 to 3, which can be more than three rows on ties.
func TopThree(entries []Entry) []Entry {
	out := make([]Entry, 0, 3)
	for _, e := range entries {
		if e.Rank > 3 {
			break
		}
		out = append(out, e)
	}
	return out
}

func FindParticipant(entries []Entry, participantID string) (Entry, bool) {
	for _, e := range entries {
		if e.ParticipantID == participantID {
			return e, true
		}
	}
	return Entry{}, false
}

// Summarize expects a ranked board. Average is rounded to two decimals.
func Summarize(entries []Entry) Summary {
	if len(entries) == 0 {
		return Summary{}
	}

	var total float64
	for _, e := range entries {
		total += e.Value
	}

	best := entries[0]
	worst := entries[len(entries)-1]
	return Summary{
		Count:   len(entries),
		Average: RoundTwo(total / float64(len(entries))),
		Best:    &best,
		Worst:   &worst,
	}
}

func RoundTwo(v float64) float64 {
	return math.Round(v*100) / 100
}
