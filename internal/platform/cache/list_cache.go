package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"lmsWs/internal/modules/catalog/application/port"
	"lmsWs/internal/modules/catalog/domain"
)

const keyPrefix = "lms:list"

// ListCache keeps list pages in Redis under a per-entity version. Invalidate bumps the
// version so every older page stops matching and expires on its own.
type ListCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewListCache(client *redis.Client, ttl time.Duration) *ListCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ListCache{client: client, ttl: ttl}
}

func versionKey(entity string) string {
	return keyPrefix + ":" + strings.ToLower(strings.TrimSpace(entity)) + ":version"
}

// Version returns the current version of entity, 0 when it was never bumped.
func (c *ListCache) Version(ctx context.Context, entity string) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, versionKey(entity)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

func pageKey(entity string, version int64, key string) string {
	return fmt.Sprintf("%s:%s:%d:%s", keyPrefix, strings.ToLower(strings.TrimSpace(entity)), version, key)
}

// Get reads the page stored for key under version.
func (c *ListCache) Get(ctx context.Context, entity string, version int64, key string) (domain.ListResult, bool, error) {
	if c == nil || c.client == nil {
		return domain.ListResult{}, false, nil
	}
	fullKey := pageKey(entity, version, key)
	payload, err := c.client.Get(ctx, fullKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ListResult{}, false, nil
	}
	if err != nil {
		return domain.ListResult{}, false, err
	}
	var result domain.ListResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return domain.ListResult{}, false, fmt.Errorf("platform/cache: decode %s: %w", fullKey, err)
	}
	return result, true, nil
}

// Set stores result under the version the caller read before fetching it. A page
// written for a version that was bumped meanwhile is never read again.
func (c *ListCache) Set(ctx context.Context, entity string, version int64, key string, result domain.ListResult) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, pageKey(entity, version, key), raw, c.ttl).Err()
}

// Invalidate bumps the entity version.
func (c *ListCache) Invalidate(ctx context.Context, entity string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, versionKey(entity)).Err()
}

var _ port.ListCache = (*ListCache)(nil)
