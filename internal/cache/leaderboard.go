package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"sweatervote/internal/model"
)

const (
	// LeaderboardKeyPrefix is the key prefix for cached leaderboard pages
	LeaderboardKeyPrefix = "leaderboard:limit:"

	// LeaderboardKeySet tracks which pages are cached so they can be dropped together
	LeaderboardKeySet = "leaderboard:keys"

	// DefaultLeaderboardTTL matches the display's polling interval
	DefaultLeaderboardTTL = 2 * time.Second
)

// LeaderboardCache holds recently computed leaderboard pages keyed by limit.
// Entries expire on their own; Invalidate only makes fresh data show up sooner.
type LeaderboardCache interface {
	// Get returns the cached page and whether it was found.
	Get(ctx context.Context, limit int) ([]model.Participant, bool, error)

	// Set stores a page with the cache TTL.
	Set(ctx context.Context, limit int, items []model.Participant) error

	// Invalidate drops every cached page.
	Invalidate(ctx context.Context) error
}

// RedisLeaderboardCache implements LeaderboardCache with plain string keys.
type RedisLeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLeaderboardCache creates a LeaderboardCache backed by Redis.
func NewLeaderboardCache(client *redis.Client, ttl time.Duration) LeaderboardCache {
	if ttl <= 0 {
		ttl = DefaultLeaderboardTTL
	}
	return &RedisLeaderboardCache{client: client, ttl: ttl}
}

func leaderboardKey(limit int) string {
	return LeaderboardKeyPrefix + strconv.Itoa(limit)
}

func (c *RedisLeaderboardCache) Get(ctx context.Context, limit int) ([]model.Participant, bool, error) {
	raw, err := c.client.Get(ctx, leaderboardKey(limit)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		log.Printf("[LeaderboardCache] Get FAILED: limit=%d err=%v", limit, err)
		return nil, false, fmt.Errorf("get leaderboard: %w", err)
	}

	var items []model.Participant
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, fmt.Errorf("decode leaderboard: %w", err)
	}
	return items, true, nil
}

// Set writes the page and records its key in a pipeline.
func (c *RedisLeaderboardCache) Set(ctx context.Context, limit int, items []model.Participant) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode leaderboard: %w", err)
	}

	key := leaderboardKey(limit)
	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, raw, c.ttl)
	pipe.SAdd(ctx, LeaderboardKeySet, key)
	pipe.Expire(ctx, LeaderboardKeySet, 24*time.Hour)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[LeaderboardCache] Set FAILED: limit=%d err=%v", limit, err)
		return fmt.Errorf("set leaderboard: %w", err)
	}
	return nil
}

func (c *RedisLeaderboardCache) Invalidate(ctx context.Context) error {
	startTime := time.Now()

	keys, err := c.client.SMembers(ctx, LeaderboardKeySet).Result()
	if err != nil {
		log.Printf("[LeaderboardCache] Invalidate FAILED: err=%v", err)
		return fmt.Errorf("list leaderboard keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	pipe.Del(ctx, keys...)
	pipe.SRem(ctx, LeaderboardKeySet, toInterfaces(keys)...)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[LeaderboardCache] Invalidate FAILED: keys=%d err=%v", len(keys), err)
		return fmt.Errorf("invalidate leaderboard: %w", err)
	}

	log.Printf("[LeaderboardCache] Invalidate OK: keys=%d duration=%v", len(keys), time.Since(startTime))
	return nil
}

func toInterfaces(keys []string) []interface{} {
	out := make([]interface{}, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}

// NoopLeaderboardCache never stores anything. Used when Redis is not configured.
type NoopLeaderboardCache struct{}

func (NoopLeaderboardCache) Get(ctx context.Context, limit int) ([]model.Participant, bool, error) {
	return nil, false, nil
}

func (NoopLeaderboardCache) Set(ctx context.Context, limit int, items []model.Participant) error {
	return nil
}

func (NoopLeaderboardCache) Invalidate(ctx context.Context) error {
	return nil
}
