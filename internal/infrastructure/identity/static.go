package identity

import (
	"context"
	"sync"

	"github.com/riskibarqy/pulse-leaderboard/internal/domain/access"
)

// StaticChecker serves verdicts from an in-process grant table. It backs the
// memory store and local CLI runs.
type StaticChecker struct {
	mu       sync.RWMutex
	grants   map[string]access.Level
	profiles map[string]access.Profile
}

func NewStaticChecker() *StaticChecker {
	return &StaticChecker{
		grants:   make(map[string]access.Level),
		profiles: make(map[string]access.Profile),
	}
}

func (c *StaticChecker) Grant(userID, scopeID string, level access.Level) *StaticChecker {
	c.mu.Lock()
	c.grants[userID+"|"+scopeID] = level
	c.mu.Unlock()
	return c
}

func (c *StaticChecker) SetProfile(userID string, profile access.Profile) *StaticChecker {
	c.mu.Lock()
	c.profiles[userID] = profile
	c.mu.Unlock()
	return c
}

func (c *StaticChecker) Verify(_ context.Context, userID, scopeID string) (access.Verdict, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	level, ok := c.grants[userID+"|"+scopeID]
	if !ok || level == access.LevelNone {
		return access.Verdict{HasAccess: false, Level: access.LevelNone}, nil
	}
	return access.Verdict{HasAccess: true, Level: level}, nil
}

// Profile falls back to the user id when no profile was registered.
func (c *StaticChecker) Profile(_ context.Context, userID string) (access.Profile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if p, ok := c.profiles[userID]; ok {
		return p, nil
	}
	return access.Profile{DisplayName: userID, Handle: userID}, nil
}
