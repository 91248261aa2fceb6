package usecase

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/riskibarqy/pulse-leaderboard/internal/domain/storage"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/submission"
)

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrNotFound               = errors.New("resource not found")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrForbidden              = errors.New("forbidden")
	ErrDuplicateSubmission    = errors.New("already submitted for this trading day")
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
	ErrDependencyUnavailable  = errors.New("dependency unavailable")
	ErrPartialBatchFailure    = errors.New("partial batch failure")
)

// ScopeFailure is one scope that could not be reset during a batch run.
type ScopeFailure struct {
	ScopeID string `json:"scope_id"`
	Reason  string `json:"reason"`
	Err     error  `json:"-"`
}

// PartialBatchFailureError is returned alongside a BatchResult when at least
// one scope failed. It matches ErrPartialBatchFailure and each scope's cause.
type PartialBatchFailureError struct {
	ClosedDayKey string
	Failures     []ScopeFailure
}

func (e *PartialBatchFailureError) Error() string {
	ids := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		ids = append(ids, f.ScopeID)
	}
	sort.Strings(ids)
	return fmt.Sprintf("%s: day=%s failed_scopes=%s", ErrPartialBatchFailure, e.ClosedDayKey, strings.Join(ids, ","))
}

func (e *PartialBatchFailureError) Is(target error) bool {
	return target == ErrPartialBatchFailure
}

func (e *PartialBatchFailureError) Unwrap() []error {
	out := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		if f.Err != nil {
			out = append(out, f.Err)
		}
	}
	return out
}

// storageError keeps the cause for errors.Is and tags transient store
// failures with ErrPersistenceUnavailable.
func storageError(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrUnavailable):
		return fmt.Errorf("%w: %s: %w", ErrPersistenceUnavailable, op, err)
	case errors.Is(err, submission.ErrDuplicate):
		return fmt.Errorf("%w: %s: %w", ErrDuplicateSubmission, op, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
