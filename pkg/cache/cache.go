// Package cache keeps each admin's permission codes and roles in Redis so
// permission checks do not hit the database on every request.
//
// Permissions live in a hash at {APP_NAME}:perm:{user_id} mapping each held
// code to "1". A user warmed with no permissions gets the single field
// emptyField so the empty set is still a hit. Roles are a JSON list at
// {APP_NAME}:role:{user_id}.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long a warmed entry lives.
const DefaultTTL = 24 * time.Hour

// RedisClient is the subset of *redis.Client the cache uses.
type RedisClient interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HKeys(ctx context.Context, key string) *redis.StringSliceCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// emptyField marks a warmed hash with no permission codes. Codes always
// contain a colon, so it cannot collide with one.
const emptyField = "_none"

// ErrMiss means nothing is cached for the user.
var ErrMiss = errors.New("cache miss")

type PermissionCache struct {
	redis   RedisClient
	appName string
	ttl     time.Duration
}

func NewPermissionCache(client RedisClient, appName string) *PermissionCache {
	return &PermissionCache{redis: client, appName: appName, ttl: DefaultTTL}
}

func (c *PermissionCache) PermissionKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s:perm:%s", c.appName, userID)
}

func (c *PermissionCache) RoleKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s:role:%s", c.appName, userID)
}

// Warm replaces the cached permissions and roles of a user.
func (c *PermissionCache) Warm(ctx context.Context, userID uuid.UUID, roles, permissions []string) error {
	permKey := c.PermissionKey(userID)
	roleKey := c.RoleKey(userID)

	if err := c.redis.Del(ctx, permKey, roleKey).Err(); err != nil {
		return fmt.Errorf("failed to clear permission cache: %w", err)
	}

	values := make([]interface{}, 0, len(permissions)*2)
	for _, code := range permissions {
		values = append(values, code, "1")
	}
	if len(values) == 0 {
		values = append(values, emptyField, "1")
	}
	if err := c.redis.HSet(ctx, permKey, values...).Err(); err != nil {
		return fmt.Errorf("failed to cache permissions: %w", err)
	}
	if err := c.redis.Expire(ctx, permKey, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set permission cache ttl: %w", err)
	}

	encoded, err := json.Marshal(roles)
	if err != nil {
		return err
	}
	if err := c.redis.Set(ctx, roleKey, encoded, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache roles: %w", err)
	}
	return nil
}

// Permissions returns the cached codes, or ErrMiss.
func (c *PermissionCache) Permissions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	codes, err := c.redis.HKeys(ctx, c.PermissionKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return nil, ErrMiss
	}
	if len(codes) == 1 && codes[0] == emptyField {
		return []string{}, nil
	}
	return codes, nil
}

// Roles returns the cached role codes, or ErrMiss.
func (c *PermissionCache) Roles(ctx context.Context, userID uuid.UUID) ([]string, error) {
	raw, err := c.redis.Get(ctx, c.RoleKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	var roles []string
	if err := json.Unmarshal([]byte(raw), &roles); err != nil {
		return nil, fmt.Errorf("corrupt role cache: %w", err)
	}
	return roles, nil
}

// Clear drops everything cached for a user.
func (c *PermissionCache) Clear(ctx context.Context, userID uuid.UUID) error {
	return c.redis.Del(ctx, c.PermissionKey(userID), c.RoleKey(userID)).Err()
}
