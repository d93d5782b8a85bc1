package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	pkgcache "Chenex/pkg/cache"
)

func newTestCache(t *testing.T) (*ResponseCache, *pkgcache.MemoryCache) {
	t.Helper()
	store := pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(100))
	t.Cleanup(func() { _ = store.Close() })
	return NewResponseCache(store, nil), store
}

func TestGetOrComputeInvokesOncePerTTLWindow(t *testing.T) {
	rc, _ := newTestCache(t)
	ctx := context.Background()

	var calls int32
	compute := func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "payload", nil
	}

	for i := 0; i < 3; i++ {
		v, err := GetOrCompute(ctx, rc, "chart:bitcoin:usd:7", time.Minute, compute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != "payload" {
			t.Fatalf("unexpected value %q", v)
		}
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("compute should run once within TTL, ran %d times", got)
	}
}

func TestGetOrComputeRecomputesAfterExpiry(t *testing.T) {
	rc, _ := newTestCache(t)
	ctx := context.Background()

	var calls int32
	compute := func(context.Context) (int, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	}

	if _, err := GetOrCompute(ctx, rc, "prices:usd:1:20", 30*time.Millisecond, compute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	v, err := GetOrCompute(ctx, rc, "prices:usd:1:20", 30*time.Millisecond, compute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 2 {
		t.Fatalf("expected recompute after expiry, got value %d", v)
	}
}

func TestDistinctKeysDoNotCollide(t *testing.T) {
	rc, _ := newTestCache(t)
	ctx := context.Background()

	a, _ := GetOrCompute(ctx, rc, "chart:bitcoin:usd:7", time.Minute, func(context.Context) (string, error) { return "seven", nil })
	b, _ := GetOrCompute(ctx, rc, "chart:bitcoin:usd:30", time.Minute, func(context.Context) (string, error) { return "thirty", nil })

	if a != "seven" || b != "thirty" {
		t.Fatalf("keys collided: %q %q", a, b)
	}
}

func TestConcurrentMissesSingleFlight(t *testing.T) {
	rc, _ := newTestCache(t)
	ctx := context.Background()

	var calls int32
	compute := func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond)
		return "shared", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := GetOrCompute(ctx, rc, "predict:bitcoin:usd:90", time.Minute, compute)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			results[i] = v
		}(i)
	}
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected a single upstream compute, got %d", got)
	}
	for i, v := range results {
		if v != "shared" {
			t.Fatalf("waiter %d got %q", i, v)
		}
	}
}

func TestComputeErrorNotCached(t *testing.T) {
	rc, _ := newTestCache(t)
	ctx := context.Background()

	var calls int32
	compute := func(context.Context) (string, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return "", context.DeadlineExceeded
		}
		return "ok", nil
	}

	if _, err := GetOrCompute(ctx, rc, "detail:bitcoin", time.Minute, compute); err == nil {
		t.Fatalf("expected first call to fail")
	}
	v, err := GetOrCompute(ctx, rc, "detail:bitcoin", time.Minute, compute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "ok" {
		t.Fatalf("expected recompute after failure, got %q", v)
	}
}
