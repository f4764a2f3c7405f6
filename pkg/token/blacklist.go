package token

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisClient is the subset of *redis.Client the blacklist uses.
type RedisClient interface {
	SetEx(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Keys(ctx context.Context, pattern string) *redis.StringSliceCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

const (
	accessFamily  = "token_blacklist"
	refreshFamily = "refresh_token_blacklist"
)

// Blacklist records revoked tokens until they would have expired anyway.
type Blacklist struct {
	redis   RedisClient
	appName string
	logger  zerolog.Logger
	now     func() time.Time
}

// BlacklistStats counts the keys of each family.
type BlacklistStats struct {
	AccessTokens  int `json:"blacklisted_access_tokens"`
	RefreshTokens int `json:"blacklisted_refresh_tokens"`
}

func NewBlacklist(client RedisClient, appName string, logger zerolog.Logger) *Blacklist {
	return &Blacklist{
		redis:   client,
		appName: appName,
		logger:  logger,
		now:     time.Now,
	}
}

func fingerprint(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func (b *Blacklist) key(family, raw string) string {
	return b.appName + ":" + family + ":" + fingerprint(raw)
}

// AccessKey and RefreshKey expose the Redis keys, mostly for tests.
func (b *Blacklist) AccessKey(raw string) string  { return b.key(accessFamily, raw) }
func (b *Blacklist) RefreshKey(raw string) string { return b.key(refreshFamily, raw) }

func (b *Blacklist) add(ctx context.Context, key string, expiresAt time.Time) bool {
	ttl := expiresAt.Sub(b.now())
	if ttl <= 0 {
		return false
	}
	// SETEX takes whole seconds; round up so a token with a sub-second
	// lifetime left is still refused until it expires.
	ttl = (ttl + time.Second - 1).Truncate(time.Second)
	if err := b.redis.SetEx(ctx, key, "1", ttl).Err(); err != nil {
		b.logger.Error().Err(err).Str("key", key).Msg("failed to blacklist token")
		return false
	}
	return true
}

func (b *Blacklist) exists(ctx context.Context, key string) bool {
	n, err := b.redis.Exists(ctx, key).Result()
	if err != nil {
		b.logger.Error().Err(err).Str("key", key).Msg("blacklist lookup failed")
		return false
	}
	return n > 0
}

// Add blacklists an access token until expiresAt.
func (b *Blacklist) Add(ctx context.Context, raw string, expiresAt time.Time) bool {
	return b.add(ctx, b.AccessKey(raw), expiresAt)
}

// AddRefresh blacklists a refresh token until expiresAt.
func (b *Blacklist) AddRefresh(ctx context.Context, raw string, expiresAt time.Time) bool {
	return b.add(ctx, b.RefreshKey(raw), expiresAt)
}

// IsBlacklisted treats Redis failures as not blacklisted.
func (b *Blacklist) IsBlacklisted(ctx context.Context, raw string) bool {
	return b.exists(ctx, b.AccessKey(raw))
}

func (b *Blacklist) IsRefreshBlacklisted(ctx context.Context, raw string) bool {
	return b.exists(ctx, b.RefreshKey(raw))
}

// Remove deletes an access token from the blacklist.
func (b *Blacklist) Remove(ctx context.Context, raw string) bool {
	n, err := b.redis.Del(ctx, b.AccessKey(raw)).Result()
	return err == nil && n > 0
}

func (b *Blacklist) Stats(ctx context.Context) (BlacklistStats, error) {
	access, err := b.redis.Keys(ctx, b.appName+":"+accessFamily+":*").Result()
	if err != nil {
		return BlacklistStats{}, err
	}
	refresh, err := b.redis.Keys(ctx, b.appName+":"+refreshFamily+":*").Result()
	if err != nil {
		return BlacklistStats{}, err
	}
	return BlacklistStats{AccessTokens: len(access), RefreshTokens: len(refresh)}, nil
}
