package id

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDGenerator_NewIDIsUniqueAndOrdered(t *testing.T) {
	t.Parallel()

	gen := NewUUIDGenerator()
	prev := ""
	seen := make(map[string]struct{}, 64)
	for i := 0; i < 64; i++ {
		v, err := gen.NewID()
		if err != nil {
			t.Fatalf("new id: %v", err)
		}
		parsed, err := uuid.Parse(v)
		if err != nil {
			t.Fatalf("id %q is not a uuid: %v", v, err)
		}
		if parsed.Version() != 7 {
			t.Fatalf("id %q has version %d, want 7", v, parsed.Version())
		}
		if _, dup := seen[v]; dup {
			t.Fatalf("duplicate id %q", v)
		}
		if v <= prev {
			t.Fatalf("id %q does not sort after %q", v, prev)
		}
		seen[v] = struct{}{}
		prev = v
	}
}
