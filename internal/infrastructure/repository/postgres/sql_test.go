package postgres

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/storage"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/submission"
)

func TestIsNotFound(t *testing.T) {
	if !isNotFound(fmt.Errorf("wrapped: %w", sql.ErrNoRows)) {
		t.Fatalf("expected wrapped sql.ErrNoRows to be not found")
	}
	if isNotFound(errors.New("other")) {
		t.Fatalf("unexpected not found for generic error")
	}
}

func TestClassifyError(t *testing.T) {
	t.Run("trading day unique violation is duplicate", func(t *testing.T) {
		err := classifyError(&pq.Error{Code: "23505", Constraint: "submissions_participant_scope_day_key"}, "insert submission")
		if !errors.Is(err, submission.ErrDuplicate) {
			t.Fatalf("expected duplicate, got %v", err)
		}
		if errors.Is(err, storage.ErrUnavailable) {
			t.Fatalf("duplicate must not be unavailable")
		}
	})

	t.Run("public id collisions are not duplicates", func(t *testing.T) {
		for _, constraint := range []string{"participants_public_id_key", "reset_records_public_id_key", "submissions_public_id_key", ""} {
			err := classifyError(&pq.Error{Code: "23505", Constraint: constraint}, "insert row")
			if errors.Is(err, submission.ErrDuplicate) {
				t.Fatalf("constraint %q: unexpected duplicate submission", constraint)
			}
			var pqErr *pq.Error
			if !errors.As(err, &pqErr) {
				t.Fatalf("constraint %q: expected pq error in chain, got %v", constraint, err)
			}
		}
	})

	t.Run("connection classes are unavailable", func(t *testing.T) {
		for _, code := range []pq.ErrorCode{"08006", "57P01", "53300"} {
			err := classifyError(&pq.Error{Code: code}, "list submissions")
			if !errors.Is(err, storage.ErrUnavailable) {
				t.Fatalf("code %s: expected unavailable, got %v", code, err)
			}
		}
	})

	t.Run("bad conn is unavailable", func(t *testing.T) {
		err := classifyError(fmt.Errorf("exec: %w", driver.ErrBadConn), "claim reset")
		if !errors.Is(err, storage.ErrUnavailable) {
			t.Fatalf("expected unavailable, got %v", err)
		}
	})

	t.Run("query cancel keeps original", func(t *testing.T) {
		err := classifyError(&pq.Error{Code: "57014"}, "list submissions")
		if errors.Is(err, storage.ErrUnavailable) {
			t.Fatalf("cancelled statement must not be unavailable")
		}
		var pqErr *pq.Error
		if !errors.As(err, &pqErr) {
			t.Fatalf("expected pq error in chain, got %v", err)
		}
	})

	t.Run("nil stays nil", func(t *testing.T) {
		if err := classifyError(nil, "noop"); err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
	})
}

func TestOptionalString(t *testing.T) {
	if optionalString("  ") != nil {
		t.Fatalf("expected nil for blank value")
	}
	got := optionalString(" proofs/a.png ")
	if got == nil || *got != "proofs/a.png" {
		t.Fatalf("unexpected value: %v", got)
	}
	if stringValue(nil) != "" || stringValue(got) != "proofs/a.png" {
		t.Fatalf("unexpected stringValue result")
	}
}

func TestJobRunPayloadRoundTrip(t *testing.T) {
	raw, err := marshalPayload(nil)
	if err != nil || raw != "{}" {
		t.Fatalf("unexpected empty payload: %q err=%v", raw, err)
	}

	raw, err = marshalPayload(map[string]any{"status": "awarded", "scope_id": "community-1"})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	decoded, err := unmarshalPayload(raw)
	if err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if decoded["status"] != "awarded" || decoded["scope_id"] != "community-1" {
		t.Fatalf("unexpected decoded payload: %+v", decoded)
	}
}
