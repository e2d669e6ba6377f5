package postal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const redisKeyPrefix = "postal:cep:"

// Cache stores results by normalized postal code in a bounded in-process
// LRU and, optionally, in Redis shared by every instance. An L1 miss that
// hits Redis is promoted into the LRU.
type Cache struct {
	local  *expirable.LRU[string, *Result]
	remote *redis.Client
	ttl    time.Duration
	logger *zerolog.Logger
}

// NewCache returns an empty cache. A nil remote disables the Redis tier and
// a zero ttl keeps entries until evicted.
func NewCache(capacity int, ttl time.Duration, remote *redis.Client, logger *zerolog.Logger) *Cache {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Cache{
		local:  expirable.NewLRU[string, *Result](capacity, nil, ttl),
		remote: remote,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *Cache) Get(ctx context.Context, code string) (*Result, bool) {
	if r, ok := c.local.Get(code); ok {
		return r, true
	}
	if c.remote == nil {
		return nil, false
	}

	data, err := c.remote.Get(ctx, redisKeyPrefix+code).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("postal_code", code).Msg("postal cache redis read failed")
		}
		return nil, false
	}

	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		c.logger.Warn().Err(err).Str("postal_code", code).Msg("discarding undecodable postal cache entry")
		return nil, false
	}

	c.local.Add(code, &r)
	return &r, true
}

func (c *Cache) Set(ctx context.Context, code string, r *Result) {
	c.local.Add(code, r)
	if c.remote == nil {
		return
	}

	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	if err := c.remote.Set(ctx, redisKeyPrefix+code, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("postal_code", code).Msg("postal cache redis write failed")
	}
}

// Len is the number of entries in the in-process tier.
func (c *Cache) Len() int {
	return c.local.Len()
}

// Clear empties both tiers.
func (c *Cache) Clear(ctx context.Context) {
	c.local.Purge()
	if c.remote == nil {
		return
	}

	iter := c.remote.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn().Err(err).Msg("postal cache redis scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.remote.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("postal cache redis purge failed")
	}
}
