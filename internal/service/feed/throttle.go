package feed

import (
	"context"
	"sync"
	"time"
)

// Providers are shared public endpoints; a module with many series on one
// host must not burst-hammer it. Token bucket per host, refilled on demand.
const (
	hostBurst     = 4.0
	hostRefillPer = 2.0 // tokens per second
)

type hostBucket struct {
	tokens float64
	last   time.Time
}

type hostThrottle struct {
	mu sync.Mutex
	m  map[string]*hostBucket
}

func newHostThrottle() *hostThrottle {
	return &hostThrottle{m: make(map[string]*hostBucket)}
}

// allow consumes one token for host if available.
func (t *hostThrottle) allow(host string) bool {
	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()

	b, ok := t.m[host]
	if !ok {
		b = &hostBucket{tokens: hostBurst, last: now}
		t.m[host] = b
	}
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens += elapsed * hostRefillPer
		if b.tokens > hostBurst {
			b.tokens = hostBurst
		}
		b.last = now
	}
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// wait blocks until a token is available for host or ctx ends.
func (t *hostThrottle) wait(ctx context.Context, host string) error {
	for !t.allow(host) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return nil
}
