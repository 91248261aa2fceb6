package postgres

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"github.com/lib/pq"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/storage"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/submission"
)

const (
	uniqueViolation = pq.ErrorCode("23505")

	// submissionDayConstraint is the one-per-trading-day index on submissions.
	submissionDayConstraint = "submissions_participant_scope_day_key"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// classifyError attaches the domain sentinel for driver failures the use cases
// react to, and annotates the rest with op.
func classifyError(err error, op string) error {
	if err == nil {
		return nil
	}
	switch {
	case isUniqueViolation(err, submissionDayConstraint):
		return crerr.Wrap(fmt.Errorf("%w: %w", submission.ErrDuplicate, err), op)
	case isUnavailable(err):
		return crerr.Wrap(fmt.Errorf("%w: %w", storage.ErrUnavailable, err), op)
	default:
		return crerr.Wrap(err, op)
	}
}

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == constraint
}

func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code.Class() {
	case "08", "53", "57":
		// 57014 is a cancelled statement, not a lost server.
		return pqErr.Code != "57014"
	default:
		return false
	}
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
