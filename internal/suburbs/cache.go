package suburbs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const cacheKeyPrefix = "suburbs:postcode:"

// CachedResolver keeps resolutions in Redis so replicas share lookups.
// Any Redis failure falls back to the wrapped resolver.
type CachedResolver struct {
	next   Resolver
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewCachedResolver wraps next. A nil client disables caching.
func NewCachedResolver(next Resolver, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedResolver{next: next, client: client, ttl: ttl, logger: logger}
}

func (c *CachedResolver) ResolveMultiplier(ctx context.Context, postcode string) Resolution {
	code, ok := parsePostcode(postcode)
	if c.client == nil || !ok {
		return c.next.ResolveMultiplier(ctx, postcode)
	}

	key := cacheKeyPrefix + strconv.Itoa(code)
	if res, ok := c.get(ctx, key); ok {
		return res
	}

	v, _, _ := c.group.Do(key, func() (interface{}, error) {
		res := c.next.ResolveMultiplier(ctx, postcode)
		c.set(ctx, key, res)
		return res, nil
	})
	return v.(Resolution)
}

func (c *CachedResolver) get(ctx context.Context, key string) (Resolution, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Resolution{}, false
	}
	if err != nil {
		c.logger.Warn("suburb cache get", slog.String("key", key), slog.Any("error", err))
		return Resolution{}, false
	}
	var res Resolution
	if err := json.Unmarshal(raw, &res); err != nil {
		c.logger.Warn("suburb cache decode", slog.String("key", key), slog.Any("error", err))
		return Resolution{}, false
	}
	return res, true
}

func (c *CachedResolver) set(ctx context.Context, key string, res Resolution) {
	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("suburb cache set", slog.String("key", key), slog.Any("error", err))
	}
}
