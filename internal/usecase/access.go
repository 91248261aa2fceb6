package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/pulse-leaderboard/internal/domain/access"
)

// authorize checks the caller's scope membership and, when requireAdmin is
// set, that they administer the scope.
func authorize(ctx context.Context, checker access.Checker, userID, scopeID string, requireAdmin bool) (access.Verdict, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return access.Verdict{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	if checker == nil {
		return access.Verdict{}, fmt.Errorf("%w: access checker is not configured", ErrDependencyUnavailable)
	}

	verdict, err := checker.Verify(ctx, userID, scopeID)
	if err != nil {
		return access.Verdict{}, fmt.Errorf("%w: verify access: %v", ErrDependencyUnavailable, err)
	}
	if !verdict.HasAccess || verdict.Level == access.LevelNone {
		return verdict, fmt.Errorf("%w: user %s has no access to scope %s", ErrForbidden, userID, scopeID)
	}
	if requireAdmin && !verdict.IsAdmin() {
		return verdict, fmt.Errorf("%w: admin access required for scope %s", ErrForbidden, scopeID)
	}
	return verdict, nil
}
