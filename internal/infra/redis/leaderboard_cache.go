package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"event-games-service/internal/app"
	"event-games-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// LeaderboardCache stores computed leaderboard snapshots as JSON strings with
// a jittered TTL. All operations are best-effort: Redis trouble degrades to a
// recompute, never to an error.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
	rnd    *rand.Rand
}

var _ app.LeaderboardCache = (*LeaderboardCache)(nil)

func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		client: client,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *LeaderboardCache) Get(ctx context.Context, key string) (domain.Leaderboard, bool) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		return domain.Leaderboard{}, false
	}
	var lb domain.Leaderboard
	if err := json.Unmarshal(raw, &lb); err != nil {
		return domain.Leaderboard{}, false
	}
	return lb, true
}

func (c *LeaderboardCache) Set(ctx context.Context, key string, lb domain.Leaderboard) {
	raw, err := json.Marshal(lb)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.key(key), raw, c.ttlWithJitter()).Err()
}

// Invalidate drops every snapshot. The key space is one overall key plus one
// per day, so they are deleted by name.
func (c *LeaderboardCache) Invalidate(ctx context.Context) {
	keys := []string{c.key(cacheKeyOverall)}
	for _, day := range domain.Days {
		keys = append(keys, c.key(cacheKeyDayPrefix+string(day)))
	}
	_ = c.client.Del(ctx, keys...).Err()
}

const (
	cacheKeyOverall   = "leaderboard:overall"
	cacheKeyDayPrefix = "leaderboard:day:"
)

func (c *LeaderboardCache) key(key string) string {
	return "event:" + key
}

func (c *LeaderboardCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
