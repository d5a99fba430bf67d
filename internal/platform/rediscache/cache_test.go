package rediscache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exhub-store-bot/internal/features/giveaway/models"
	"exhub-store-bot/internal/platform/roblox"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewWithClient(client), mr
}

func TestMemberRoundtrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	detail := models.EntrantDetail{ID: "u1", Username: "alice", DisplayName: "Alice"}
	require.NoError(t, c.SetMember(ctx, "g1", detail))

	got, ok, err := c.GetMember(ctx, "g1", "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, detail, got)
}

func TestMemberMiss(t *testing.T) {
	c, _ := newTestCache(t)

	_, ok, err := c.GetMember(context.Background(), "g1", "nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemberScopedByGuild(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetMember(ctx, "g1", models.EntrantDetail{ID: "u1", Username: "alice"}))

	_, ok, err := c.GetMember(ctx, "g2", "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemberExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetMember(ctx, "g1", models.EntrantDetail{ID: "u1", Username: "alice"}))
	mr.FastForward(memberTTL + time.Minute)

	_, ok, err := c.GetMember(ctx, "g1", "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvalidateMember(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetMember(ctx, "g1", models.EntrantDetail{ID: "u1", Username: "alice"}))
	require.NoError(t, c.InvalidateMember(ctx, "g1", "u1"))

	_, ok, err := c.GetMember(ctx, "g1", "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRobloxRoundtrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	user := roblox.User{ID: 12345, Name: "builderman", DisplayName: "Builderman"}
	require.NoError(t, c.SetRobloxUser(ctx, "builderman", user))

	got, ok, err := c.GetRobloxUser(ctx, "builderman")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, user, got)
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	require.NoError(t, c.SetMember(ctx, "g1", models.EntrantDetail{ID: "u1"}))
	_, ok, err := c.GetMember(ctx, "g1", "u1")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, c.Close())
}
