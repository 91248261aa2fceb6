package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_UsesSingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore[[]string](time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) ([]string, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return []string{"participant-a", "participant-b"}, nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "daily:community-1", loader)
			if err != nil {
				errCh <- err
				return
			}
			if len(v) != 2 {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_ExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC)
	store := NewStore[int](30 * time.Second)
	store.now = func() time.Time { return now }

	store.Set(context.Background(), "k", 42)
	if v, ok := store.Get(context.Background(), "k"); !ok || v != 42 {
		t.Fatalf("expected cached value, got v=%d ok=%t", v, ok)
	}

	now = now.Add(31 * time.Second)
	if _, ok := store.Get(context.Background(), "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestStore_DeletePrefix(t *testing.T) {
	t.Parallel()

	store := NewStore[int](0)
	ctx := context.Background()
	store.Set(ctx, "leaderboard:c1:daily", 1)
	store.Set(ctx, "leaderboard:c1:weekly", 2)
	store.Set(ctx, "leaderboard:c2:daily", 3)

	store.DeletePrefix(ctx, "leaderboard:c1:")

	if _, ok := store.Get(ctx, "leaderboard:c1:daily"); ok {
		t.Fatalf("expected c1 daily to be evicted")
	}
	if _, ok := store.Get(ctx, "leaderboard:c2:daily"); !ok {
		t.Fatalf("expected c2 daily to survive")
	}
}

func TestStore_DeletePrefix_DropsInFlightLoad(t *testing.T) {
	t.Parallel()

	store := NewStore[string](time.Minute)
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan string, 1)
	go func() {
		v, _ := store.GetOrLoad(ctx, "lb:scope-1:daily", func(context.Context) (string, error) {
			close(started)
			<-release
			return "board-before-submit", nil
		})
		done <- v
	}()

	<-started
	store.DeletePrefix(ctx, "lb:scope-1:")

	fresh, err := store.GetOrLoad(ctx, "lb:scope-1:daily", func(context.Context) (string, error) {
		return "board-after-submit", nil
	})
	if err != nil || fresh != "board-after-submit" {
		t.Fatalf("expected a fresh load after invalidation, got v=%q err=%v", fresh, err)
	}

	close(release)
	if v := <-done; v != "board-before-submit" {
		t.Fatalf("unexpected in-flight result %q", v)
	}

	v, ok := store.Get(ctx, "lb:scope-1:daily")
	if !ok || v != "board-after-submit" {
		t.Fatalf("expected post-invalidation board, got v=%q ok=%t", v, ok)
	}
}

func TestStore_Delete_DropsInFlightLoad(t *testing.T) {
	t.Parallel()

	store := NewStore[int](0)
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		_, _ = store.GetOrLoad(ctx, "k", func(context.Context) (int, error) {
			close(started)
			<-release
			return 1, nil
		})
	}()

	<-started
	store.Delete(ctx, "k")
	close(release)
	<-done

	if v, ok := store.Get(ctx, "k"); ok {
		t.Fatalf("stale load should not be cached, got %d", v)
	}
}

func TestStore_GetOrLoad_DoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	store := NewStore[string](time.Minute)
	var calls atomic.Int32
	loader := func(context.Context) (string, error) {
		if calls.Add(1) == 1 {
			return "", errUnexpectedValue
		}
		return "ok", nil
	}

	if _, err := store.GetOrLoad(context.Background(), "k", loader); !errors.Is(err, errUnexpectedValue) {
		t.Fatalf("expected loader error, got %v", err)
	}
	v, err := store.GetOrLoad(context.Background(), "k", loader)
	if err != nil || v != "ok" {
		t.Fatalf("expected retry to load, got v=%q err=%v", v, err)
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")
