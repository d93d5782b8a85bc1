package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"Chenex/internal/domain/repository"
	pkgcache "Chenex/pkg/cache"
)

// ResponseCache memoizes fetch results by request signature with a per-key
// in-flight guard: concurrent misses on the same key run the compute
// function once and every waiter receives the same stored value.
type ResponseCache struct {
	store   pkgcache.Service
	metrics repository.Metrics

	mu       sync.Mutex
	inflight map[string]*call
}

type call struct {
	done chan struct{}
	val  []byte
	err  error
}

// NewResponseCache wraps a byte store. metrics may be nil.
func NewResponseCache(store pkgcache.Service, metrics repository.Metrics) *ResponseCache {
	return &ResponseCache{
		store:    store,
		metrics:  metrics,
		inflight: make(map[string]*call),
	}
}

// GetOrCompute returns the cached value for key if present and unexpired;
// otherwise it runs compute, stores the JSON-encoded result under key with
// the given TTL, and returns it.
func GetOrCompute[T any](ctx context.Context, rc *ResponseCache, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	var zero T

	if b, err := rc.store.Get(ctx, key); err == nil {
		rc.record(key, true)
		var v T
		if uerr := json.Unmarshal(b, &v); uerr == nil {
			return v, nil
		}
		// Unreadable entry: drop it and fall through to recompute.
		_ = rc.store.Delete(ctx, key)
	} else {
		// A backend failure degrades to compute-through, same as a miss.
		rc.record(key, false)
	}

	b, err := rc.do(ctx, key, ttl, func(cctx context.Context) ([]byte, error) {
		v, cerr := compute(cctx)
		if cerr != nil {
			return nil, cerr
		}
		return json.Marshal(v)
	})
	if err != nil {
		return zero, err
	}

	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return zero, err
	}
	return v, nil
}

// do serializes concurrent misses per key. The first caller computes and
// stores; later callers block on the same call and share its outcome.
func (rc *ResponseCache) do(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) ([]byte, error)) ([]byte, error) {
	rc.mu.Lock()
	if c, ok := rc.inflight[key]; ok {
		rc.mu.Unlock()
		select {
		case <-c.done:
			return c.val, c.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	c := &call{done: make(chan struct{})}
	rc.inflight[key] = c
	rc.mu.Unlock()

	// A second read under the guard: the key may have been stored between
	// the miss and acquiring the in-flight slot.
	if b, err := rc.store.Get(ctx, key); err == nil {
		c.val = b
		rc.finish(key, c)
		return b, nil
	}

	c.val, c.err = compute(ctx)
	if c.err == nil {
		// Storage failure is not a caller failure; the value is still good.
		_ = rc.store.Set(ctx, key, c.val, ttl)
	}
	rc.finish(key, c)
	return c.val, c.err
}

func (rc *ResponseCache) finish(key string, c *call) {
	rc.mu.Lock()
	delete(rc.inflight, key)
	rc.mu.Unlock()
	close(c.done)
}

func (rc *ResponseCache) record(key string, hit bool) {
	if rc.metrics == nil {
		return
	}
	resource := key
	if i := strings.IndexByte(key, ':'); i > 0 {
		resource = key[:i]
	}
	rc.metrics.RecordCache(resource, hit)
}
