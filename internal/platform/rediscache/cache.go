package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "exhub-store-bot/internal/common/errors"
	"exhub-store-bot/internal/features/giveaway/models"
	"exhub-store-bot/internal/platform/roblox"
)

const (
	memberTTL = 6 * time.Hour
	robloxTTL = 30 * time.Minute
)

// Cache keeps resolved display identities and Roblox lookups out of the
// hot path. Entirely optional: a nil *Cache is a no-op that always
// misses, so the bot runs unchanged without Redis.
type Cache struct {
	client *redis.Client
}

// New connects and pings. An empty addr host returns a nil cache.
func New(host string, port int, password string, db int) (*Cache, error) {
	if host == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, apperrors.NewCacheError("redis ping failed", err)
	}

	return &Cache{client: client}, nil
}

// NewWithClient wraps an existing client. Used by tests.
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// Ping checks connectivity. Used by the readiness probe.
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.client.Ping(ctx).Err(); err != nil {
		return apperrors.NewCacheError("redis ping failed", err)
	}
	return nil
}

func memberKey(guildID, userID string) string {
	return fmt.Sprintf("member:%s:%s", guildID, userID)
}

func robloxKey(username string) string {
	return "roblox:user:" + username
}

// SetMember caches a resolved display identity.
func (c *Cache) SetMember(ctx context.Context, guildID string, detail models.EntrantDetail) error {
	if c == nil {
		return nil
	}
	b, err := json.Marshal(detail)
	if err != nil {
		return apperrors.NewCacheError("failed to encode member", err)
	}
	if err := c.client.Set(ctx, memberKey(guildID, detail.ID), b, memberTTL).Err(); err != nil {
		return apperrors.NewCacheError("failed to cache member", err)
	}
	return nil
}

// GetMember returns a cached identity. A miss is (zero, false, nil).
func (c *Cache) GetMember(ctx context.Context, guildID, userID string) (models.EntrantDetail, bool, error) {
	if c == nil {
		return models.EntrantDetail{}, false, nil
	}
	b, err := c.client.Get(ctx, memberKey(guildID, userID)).Bytes()
	if err == redis.Nil {
		return models.EntrantDetail{}, false, nil
	}
	if err != nil {
		return models.EntrantDetail{}, false, apperrors.NewCacheError("failed to read cached member", err)
	}
	var detail models.EntrantDetail
	if err := json.Unmarshal(b, &detail); err != nil {
		return models.EntrantDetail{}, false, apperrors.NewCacheError("failed to decode cached member", err)
	}
	return detail, true, nil
}

// InvalidateMember drops a cached identity.
func (c *Cache) InvalidateMember(ctx context.Context, guildID, userID string) error {
	if c == nil {
		return nil
	}
	if err := c.client.Del(ctx, memberKey(guildID, userID)).Err(); err != nil {
		return apperrors.NewCacheError("failed to invalidate member", err)
	}
	return nil
}

// SetRobloxUser caches a username lookup.
func (c *Cache) SetRobloxUser(ctx context.Context, username string, user roblox.User) error {
	if c == nil {
		return nil
	}
	b, err := json.Marshal(user)
	if err != nil {
		return apperrors.NewCacheError("failed to encode roblox user", err)
	}
	if err := c.client.Set(ctx, robloxKey(username), b, robloxTTL).Err(); err != nil {
		return apperrors.NewCacheError("failed to cache roblox user", err)
	}
	return nil
}

// GetRobloxUser returns a cached lookup. A miss is (zero, false, nil).
func (c *Cache) GetRobloxUser(ctx context.Context, username string) (roblox.User, bool, error) {
	if c == nil {
		return roblox.User{}, false, nil
	}
	b, err := c.client.Get(ctx, robloxKey(username)).Bytes()
	if err == redis.Nil {
		return roblox.User{}, false, nil
	}
	if err != nil {
		return roblox.User{}, false, apperrors.NewCacheError("failed to read cached roblox user", err)
	}
	var user roblox.User
	if err := json.Unmarshal(b, &user); err != nil {
		return roblox.User{}, false, apperrors.NewCacheError("failed to decode cached roblox user", err)
	}
	return user, true, nil
}
