package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryGuard holds claims in process memory. Claims lapse after ttl.
type MemoryGuard struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	claims map[string]time.Time
}

func NewMemoryGuard(ttl time.Duration) *MemoryGuard {
	return &MemoryGuard{
		ttl:    ttl,
		now:    time.Now,
		claims: make(map[string]time.Time),
	}
}

func (g *MemoryGuard) Claim(ctx context.Context, key string) (bool, error) {
	_ = ctx

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if expires, ok := g.claims[key]; ok && now.Before(expires) {
		return false, nil
	}
	g.claims[key] = now.Add(g.ttl)
	g.sweep(now)
	return true, nil
}

func (g *MemoryGuard) Release(ctx context.Context, key string) error {
	_ = ctx

	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.claims, key)
	return nil
}

// sweep drops lapsed claims; callers hold mu.
func (g *MemoryGuard) sweep(now time.Time) {
	for k, expires := range g.claims {
		if !now.Before(expires) {
			delete(g.claims, k)
		}
	}
}
