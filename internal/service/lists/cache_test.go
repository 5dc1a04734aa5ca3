package lists

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/directmail/internal/domain"
)

func newTestRedisCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, "dm", ttl), mr
}

func TestRedisCache_RoundTrip(t *testing.T) {
	cache, mr := newTestRedisCache(t, 30*time.Second)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "org-1")
	assert.False(t, ok)

	sent := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	in := []domain.MailingList{{
		ID:        "l-1",
		Name:      "Owners",
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Tags:      []domain.TagEntry{domain.FlatTag("t-1", "A"), domain.WrappedTag("t-2", "B")},
		Campaigns: []domain.Campaign{{ID: "c-1", SentAt: &sent}},
	}}
	cache.Set(ctx, "org-1", in)

	assert.True(t, mr.Exists("dm:lists:snapshot:org-1"))
	assert.Equal(t, 30*time.Second, mr.TTL("dm:lists:snapshot:org-1"))

	out, ok := cache.Get(ctx, "org-1")
	require.True(t, ok)
	require.Len(t, out, 1)
	assert.Equal(t, []string{"t-1", "t-2"}, out[0].TagIDs())
	assert.False(t, out[0].Tags[0].Wrapped)
	assert.True(t, out[0].Tags[1].Wrapped)
	require.NotNil(t, out[0].LastMailedDate())
	assert.True(t, sent.Equal(*out[0].LastMailedDate()))
}

func TestRedisCache_Expiry(t *testing.T) {
	cache, mr := newTestRedisCache(t, time.Minute)
	ctx := context.Background()

	cache.Set(ctx, "org-1", []domain.MailingList{{ID: "l-1"}})
	mr.FastForward(2 * time.Minute)

	_, ok := cache.Get(ctx, "org-1")
	assert.False(t, ok)
}

func TestRedisCache_Invalidate(t *testing.T) {
	cache, _ := newTestRedisCache(t, time.Minute)
	ctx := context.Background()

	cache.Set(ctx, "org-1", []domain.MailingList{{ID: "l-1"}})
	cache.Set(ctx, "org-2", []domain.MailingList{{ID: "l-2"}})
	cache.Invalidate(ctx, "org-1")

	_, ok := cache.Get(ctx, "org-1")
	assert.False(t, ok)
	_, ok = cache.Get(ctx, "org-2")
	assert.True(t, ok)
}

func TestRedisCache_CorruptPayloadIsMiss(t *testing.T) {
	cache, mr := newTestRedisCache(t, time.Minute)
	require.NoError(t, mr.Set("dm:lists:snapshot:org-1", "{not json"))

	_, ok := cache.Get(context.Background(), "org-1")
	assert.False(t, ok)
}

func TestRedisCache_UnavailableIsMiss(t *testing.T) {
	cache, mr := newTestRedisCache(t, time.Minute)
	mr.Close()

	_, ok := cache.Get(context.Background(), "org-1")
	assert.False(t, ok)
	cache.Set(context.Background(), "org-1", nil)
	cache.Invalidate(context.Background(), "org-1")
}

func TestNewRedisCache_DefaultTTL(t *testing.T) {
	cache := NewRedisCache(nil, "dm", 0)
	assert.Equal(t, time.Minute, cache.ttl)
}
