package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/access"
	"github.com/riskibarqy/pulse-leaderboard/internal/platform/logging"
	"github.com/riskibarqy/pulse-leaderboard/internal/platform/resilience"
)

func TestClientVerify_SendsKeyAndParsesVerdict(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if r.URL.Path != "/v1/access/verify" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer svc-secret" {
			t.Errorf("unexpected authorization header: %s", got)
		}

		var req map[string]string
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		if req["user_id"] != "user-1" || req["scope_id"] != "community-1" {
			t.Errorf("unexpected request: %+v", req)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = sonic.ConfigDefault.NewEncoder(w).Encode(map[string]any{
			"has_access":   true,
			"access_level": "admin",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), Config{BaseURL: srv.URL, APIKey: "svc-secret"}, logging.NewNop())

	verdict, err := client.Verify(context.Background(), "user-1", "community-1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !verdict.IsAdmin() {
		t.Fatalf("expected admin verdict, got %+v", verdict)
	}
}

func TestClientVerify_CachesVerdicts(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"has_access":true,"access_level":"customer"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), Config{BaseURL: srv.URL, CacheTTL: time.Minute}, logging.NewNop())

	for i := 0; i < 3; i++ {
		verdict, err := client.Verify(context.Background(), "user-1", "community-1")
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if verdict.Level != access.LevelMember {
			t.Fatalf("expected member level, got %s", verdict.Level)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected one upstream call, got %d", got)
	}
}

func TestClientProfile_FallsBackToHandle(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/users/profile" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"name":"  ","username":"trader_joe"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), Config{BaseURL: srv.URL}, logging.NewNop())

	profile, err := client.Profile(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.DisplayName != "trader_joe" || profile.Handle != "trader_joe" {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

func TestClientVerify_RejectedDoesNotTripBreaker(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), Config{
		BaseURL: srv.URL,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	}, logging.NewNop())

	for i := 0; i < 2; i++ {
		_, err := client.Verify(context.Background(), "user-1", "community-1")
		if !errors.Is(err, ErrRejected) {
			t.Fatalf("expected ErrRejected, got %v", err)
		}
	}
}

func TestClientVerify_ServerErrorsOpenBreaker(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), Config{
		BaseURL: srv.URL,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	}, logging.NewNop())

	for i := 0; i < 2; i++ {
		if _, err := client.Verify(context.Background(), "user-1", "community-1"); !isCircuitFailure(err) {
			t.Fatalf("expected transient failure, got %v", err)
		}
	}
	_, err := client.Verify(context.Background(), "user-1", "community-1")
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("expected two upstream calls, got %d", got)
	}
}

func TestStaticChecker(t *testing.T) {
	t.Parallel()

	checker := NewStaticChecker().
		Grant("admin-1", "community-1", access.LevelAdmin).
		Grant("user-1", "community-1", access.LevelMember).
		SetProfile("user-1", access.Profile{DisplayName: "User One", Handle: "u1"})

	v, _ := checker.Verify(context.Background(), "admin-1", "community-1")
	if !v.IsAdmin() {
		t.Fatalf("expected admin, got %+v", v)
	}
	v, _ = checker.Verify(context.Background(), "user-1", "community-2")
	if v.HasAccess {
		t.Fatalf("expected no access to other scope, got %+v", v)
	}
	p, _ := checker.Profile(context.Background(), "user-1")
	if p.Handle != "u1" {
		t.Fatalf("unexpected profile %+v", p)
	}
}
