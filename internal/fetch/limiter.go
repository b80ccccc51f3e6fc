package fetch

import (
	"context"
	"sync"
	"time"
)

// HostLimiter spaces requests per origin host: at most one request per
// host per interval. Hosts never delay each other.
type HostLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     map[string]time.Time
}

func NewHostLimiter(interval time.Duration) *HostLimiter {
	return &HostLimiter{
		interval: interval,
		last:     make(map[string]time.Time),
	}
}

// Wait blocks until the host's next slot. Each caller reserves its slot
// under the lock, so concurrent requests to one host queue one interval
// apart. Returns early with the context error when canceled.
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	if l.interval <= 0 || host == "" {
		return ctx.Err()
	}

	l.mu.Lock()
	now := time.Now()
	var wait time.Duration
	if prev, ok := l.last[host]; ok {
		if d := l.interval - now.Sub(prev); d > 0 {
			wait = d
		}
	}
	l.last[host] = now.Add(wait)
	l.mu.Unlock()

	if wait <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
