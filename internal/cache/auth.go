package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reelist/reelist/internal/model"
)

const (
	// authCachePrefix is the Redis key prefix for session auth contexts.
	authCachePrefix = "auth:session:"
	// authCacheTTL is the upper bound on how long a validated session is trusted without a DB check.
	authCacheTTL = 5 * time.Minute
)

// GetAuthContext retrieves a cached auth context by token hash.
// Returns ErrCacheMiss if absent, corrupted, or already past the session expiry.
func (c *Cache) GetAuthContext(ctx context.Context, tokenHash string) (*model.AuthContext, error) {
	data, err := c.client.Get(ctx, authCachePrefix+tokenHash).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var authCtx model.AuthContext
	if err := json.Unmarshal(data, &authCtx); err != nil {
		return nil, ErrCacheMiss
	}

	if !authCtx.ExpiresAt.IsZero() && !time.Now().Before(authCtx.ExpiresAt) {
		return nil, ErrCacheMiss
	}

	return &authCtx, nil
}

// SetAuthContext caches an auth context. The TTL never outlives the session.
func (c *Cache) SetAuthContext(ctx context.Context, tokenHash string, authCtx *model.AuthContext) error {
	ttl := authCacheTTL
	if !authCtx.ExpiresAt.IsZero() {
		remaining := time.Until(authCtx.ExpiresAt)
		if remaining <= 0 {
			return nil
		}
		if remaining < ttl {
			ttl = remaining
		}
	}

	data, err := json.Marshal(authCtx)
	if err != nil {
		return fmt.Errorf("marshal auth context: %w", err)
	}

	return c.client.Set(ctx, authCachePrefix+tokenHash, data, ttl).Err()
}

// DeleteAuthContext removes a cached auth context.
// Used when a session is revoked.
func (c *Cache) DeleteAuthContext(ctx context.Context, tokenHash string) error {
	return c.client.Del(ctx, authCachePrefix+tokenHash).Err()
}
