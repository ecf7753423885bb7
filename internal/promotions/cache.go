package promotions

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const statusKeyPrefix = "promotions:status:"

// StatusCache keeps the per-article active-promotion projection in Redis.
// It is a pure read accelerator: the database query stays authoritative
// and every cache failure degrades to a miss.
type StatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatusCache instantiates the cache helper.
func NewStatusCache(client *redis.Client, ttl time.Duration) *StatusCache {
	return &StatusCache{client: client, ttl: ttl}
}

// Get returns the cached projection, (nil, false) on miss or error.
func (c *StatusCache) Get(ctx context.Context, articleID uuid.UUID) (*StatusResponse, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, statusKeyPrefix+articleID.String()).Bytes()
	if err != nil {
		return nil, false
	}
	var status StatusResponse
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, false
	}
	return &status, true
}

// Set stores the projection with the configured TTL.
func (c *StatusCache) Set(ctx context.Context, articleID uuid.UUID, status *StatusResponse) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statusKeyPrefix+articleID.String(), raw, c.ttl).Err()
}

// Invalidate drops the cached projection after a grant, revoke or sweep.
func (c *StatusCache) Invalidate(ctx context.Context, articleID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}
	err := c.client.Del(ctx, statusKeyPrefix+articleID.String()).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
