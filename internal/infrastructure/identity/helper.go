package identity

import (
	"errors"
	"strings"

	"github.com/riskibarqy/pulse-leaderboard/internal/domain/access"
)

func isCircuitFailure(err error) bool {
	return errors.Is(err, errIdentityTransient)
}

func normalizeLevel(raw string, hasAccess bool) access.Level {
	if !hasAccess {
		return access.LevelNone
	}
	switch access.Level(strings.ToLower(strings.TrimSpace(raw))) {
	case access.LevelAdmin:
		return access.LevelAdmin
	case access.LevelMember, "customer":
		return access.LevelMember
	default:
		return access.LevelNone
	}
}

func buildURL(baseURL, path string) string {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	path = strings.TrimSpace(path)
	if path == "" {
		return baseURL
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return baseURL + path
}
