package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/t2m/license-platform/internal/core/domain"
)

const permKeyPrefix = "perms:"

// PermissionCache shares resolved permission sets across instances.
// Entries expire after the configured staleness window; mutations delete
// eagerly, so a change is at worst one TTL stale on nodes that cached it.
type PermissionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPermissionCache wraps the Redis client. A ttl <= 0 falls back to one
// minute.
func NewPermissionCache(client *redis.Client, ttl time.Duration) *PermissionCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &PermissionCache{client: client, ttl: ttl}
}

// Get returns the cached permission set and whether it was present.
func (c *PermissionCache) Get(ctx context.Context, roleID string) ([]domain.Permission, bool, error) {
	raw, err := c.client.Get(ctx, permKey(roleID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("permission cache get: %w", err)
	}

	var perms []domain.Permission
	if err := json.Unmarshal(raw, &perms); err != nil {
		// treat corrupt entries as misses; the resolver will overwrite
		return nil, false, nil
	}
	return perms, true, nil
}

// Set stores the permission set with the staleness-window TTL.
func (c *PermissionCache) Set(ctx context.Context, roleID string, perms []domain.Permission) error {
	raw, err := json.Marshal(perms)
	if err != nil {
		return fmt.Errorf("permission cache encode: %w", err)
	}
	return c.client.Set(ctx, permKey(roleID), raw, c.ttl).Err()
}

// Delete drops the cached set for one role.
func (c *PermissionCache) Delete(ctx context.Context, roleID string) error {
	return c.client.Del(ctx, permKey(roleID)).Err()
}

// Flush drops every cached role, used when a permission document changes.
func (c *PermissionCache) Flush(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, permKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("permission cache flush: %w", err)
		}
	}
	return iter.Err()
}

func permKey(roleID string) string {
	return permKeyPrefix + roleID
}
