package usecase

import (
	"regexp"
	"strings"

	"github.com/riskibarqy/pulse-leaderboard/internal/domain/reset"
)

var runKeyUnsafeCharRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// runKey builds a stable id such as daily-reset-<scope>-<window>. Unsafe
// characters are replaced so the id can double as a Kafka key or log field.
func runKey(prefix, scopeID, windowKey string) string {
	return sanitizeRunKeySegment(prefix) + "-" + sanitizeRunKeySegment(scopeID) + "-" + sanitizeRunKeySegment(windowKey)
}

func sanitizeRunKeySegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return runKeyUnsafeCharRegex.ReplaceAllString(value, "-")
}

func resetLockKey(scopeID string, kind reset.WindowKind, windowKey string) string {
	return scopeID + "|" + string(kind) + "|" + windowKey
}

func leaderboardCachePrefix(scopeID string) string {
	return "leaderboard:" + scopeID + ":"
}
