package lists

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/directmail/internal/domain"
	"github.com/ignite/directmail/internal/pkg/logger"
)

// SnapshotCache holds per-organization list snapshots between searches.
// A miss is never an error; callers fall back to the repository.
type SnapshotCache interface {
	Get(ctx context.Context, orgID string) ([]domain.MailingList, bool)
	Set(ctx context.Context, orgID string, lists []domain.MailingList)
	Invalidate(ctx context.Context, orgID string)
}

// NopCache disables snapshot caching.
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]domain.MailingList, bool) { return nil, false }
func (NopCache) Set(context.Context, string, []domain.MailingList)        {}
func (NopCache) Invalidate(context.Context, string)                       {}

// RedisCache stores snapshots as JSON under <prefix>:lists:snapshot:<orgID>.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache creates a snapshot cache. A non-positive ttl means one minute.
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) key(orgID string) string {
	return fmt.Sprintf("%s:lists:snapshot:%s", c.prefix, orgID)
}

// Get returns the cached snapshot. Redis errors and undecodable payloads
// count as misses.
func (c *RedisCache) Get(ctx context.Context, orgID string) ([]domain.MailingList, bool) {
	data, err := c.client.Get(ctx, c.key(orgID)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Warn("snapshot cache read failed", "org_id", orgID, "error", err)
		return nil, false
	}

	var lists []domain.MailingList
	if err := json.Unmarshal(data, &lists); err != nil {
		logger.Warn("snapshot cache decode failed", "org_id", orgID, "error", err)
		return nil, false
	}
	return lists, true
}

// Set stores the snapshot with the cache TTL.
func (c *RedisCache) Set(ctx context.Context, orgID string, lists []domain.MailingList) {
	data, err := json.Marshal(lists)
	if err != nil {
		logger.Warn("snapshot cache encode failed", "org_id", orgID, "error", err)
		return
	}
	if err := c.client.Set(ctx, c.key(orgID), data, c.ttl).Err(); err != nil {
		logger.Warn("snapshot cache write failed", "org_id", orgID, "error", err)
	}
}

// Invalidate drops the organization's snapshot.
func (c *RedisCache) Invalidate(ctx context.Context, orgID string) {
	if err := c.client.Del(ctx, c.key(orgID)).Err(); err != nil {
		logger.Warn("snapshot cache invalidate failed", "org_id", orgID, "error", err)
	}
}
