package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"event-games-service/internal/app"
	"event-games-service/internal/domain"
)

// LeaderboardCache caches computed leaderboard snapshots with TTL when no
// Redis is configured.
type LeaderboardCache struct {
	ttl   time.Duration
	clock func() time.Time
	rnd   *rand.Rand

	mu      sync.RWMutex
	entries map[string]cachedLeaderboard
}

type cachedLeaderboard struct {
	lb        domain.Leaderboard
	expiresAt time.Time
}

var _ app.LeaderboardCache = (*LeaderboardCache)(nil)

func NewLeaderboardCache(ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		entries: make(map[string]cachedLeaderboard),
	}
}

func (c *LeaderboardCache) Get(_ context.Context, key string) (domain.Leaderboard, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.Leaderboard{}, false
	}
	return entry.lb, true
}

func (c *LeaderboardCache) Set(_ context.Context, key string, lb domain.Leaderboard) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cachedLeaderboard{lb: lb, expiresAt: c.clock().Add(c.ttlWithJitter())}
}

func (c *LeaderboardCache) Invalidate(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cachedLeaderboard)
}

func (c *LeaderboardCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
