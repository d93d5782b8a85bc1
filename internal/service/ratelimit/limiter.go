package ratelimit

import (
	"context"
	"sync"
	"time"

	"Chenex/internal/domain/models"
)

// ClassConfig configures one resource class's bucket.
type ClassConfig struct {
	Capacity     float64
	RefillPerSec float64
}

type bucket struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	last       time.Time
}

// refillLocked tops up tokens for elapsed wall-clock time, capped at capacity.
// Caller holds b.mu.
func (b *bucket) refillLocked(now time.Time) {
	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * b.refillRate
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.last = now
	}
}

// Limiter owns one token bucket per resource class. Buckets are created
// once at construction and locked independently, so waiting on one class
// never blocks another.
type Limiter struct {
	buckets     map[string]*bucket
	maxWait     time.Duration
	maxWaitStep time.Duration
	now         func() time.Time
}

// Option configures the Limiter.
type Option func(*Limiter)

// WithClock overrides the wall clock; used by tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithWaitBounds caps Wait's total budget and per-iteration sleep.
func WithWaitBounds(maxWait, maxWaitStep time.Duration) Option {
	return func(l *Limiter) {
		l.maxWait = maxWait
		l.maxWaitStep = maxWaitStep
	}
}

// New builds a Limiter with a full bucket per configured class.
func New(classes map[string]ClassConfig, opts ...Option) *Limiter {
	l := &Limiter{
		buckets:     make(map[string]*bucket, len(classes)),
		maxWait:     30 * time.Second,
		maxWaitStep: 2 * time.Second,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	start := l.now()
	for name, cfg := range classes {
		l.buckets[name] = &bucket{
			tokens:     cfg.Capacity,
			capacity:   cfg.Capacity,
			refillRate: cfg.RefillPerSec,
			last:       start,
		}
	}
	return l
}

// TryConsume refills the class's bucket and deducts cost if covered.
// Refill-then-decide-then-deduct is a single critical section per bucket.
// Unknown classes are admitted; only configured classes are throttled.
func (l *Limiter) TryConsume(class string, cost float64) bool {
	b, ok := l.buckets[class]
	if !ok {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked(l.now())
	if b.tokens >= cost {
		b.tokens -= cost
		return true
	}
	return false
}

// TimeUntilAvailable reports how long until one token is available for class.
func (l *Limiter) TimeUntilAvailable(class string) time.Duration {
	b, ok := l.buckets[class]
	if !ok {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked(l.now())
	if b.tokens >= 1 {
		return 0
	}
	return time.Duration((1 - b.tokens) / b.refillRate * float64(time.Second))
}

// Wait blocks until one token is granted for class, the context is done,
// or the total wait budget is exhausted. Each sleep iteration is capped at
// maxWaitStep so a long estimate is re-checked rather than slept through.
func (l *Limiter) Wait(ctx context.Context, class string) error {
	deadline := l.now().Add(l.maxWait)
	for {
		if l.TryConsume(class, 1) {
			return nil
		}
		sleep := l.TimeUntilAvailable(class)
		if sleep > l.maxWaitStep {
			sleep = l.maxWaitStep
		}
		if sleep <= 0 {
			sleep = 10 * time.Millisecond
		}
		if l.now().Add(sleep).After(deadline) {
			return models.NewMarketError(models.KindRateLimited,
				"admission wait budget exhausted for class "+class, nil)
		}
		select {
		case <-ctx.Done():
			return models.NewMarketError(models.KindRateLimited,
				"admission wait cancelled for class "+class, ctx.Err())
		case <-time.After(sleep):
		}
	}
}

// Snapshot returns the current token count for a class; used by tests.
func (l *Limiter) Snapshot(class string) (tokens, capacity float64, ok bool) {
	b, found := l.buckets[class]
	if !found {
		return 0, 0, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokens, b.capacity, true
}
