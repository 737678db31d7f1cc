package jurisdiction

import (
	"context"
	"errors"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SubtreeSource is the uncached subtree lookup, normally *Service.
type SubtreeSource interface {
	Subtree(ctx context.Context, id int64) ([]int64, error)
}

// RedisCache memoizes subtree lookups, which run on every authorized
// request. Redis failures degrade to the source instead of failing the
// request.
type RedisCache struct {
	client *redis.Client
	source SubtreeSource
	ttl    time.Duration
	prefix string
	logger zerolog.Logger
}

func NewRedisCache(client *redis.Client, source SubtreeSource, ttl time.Duration, logger zerolog.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		source: source,
		ttl:    ttl,
		prefix: "casemon:jurisdiction:subtree:",
		logger: logger,
	}
}

func (c *RedisCache) key(id int64) string {
	return c.prefix + strconv.FormatInt(id, 10)
}

func (c *RedisCache) Subtree(ctx context.Context, id int64) ([]int64, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	switch {
	case err == nil:
		var ids []int64
		if jerr := json.Unmarshal(data, &ids); jerr == nil {
			return ids, nil
		}
	case !errors.Is(err, redis.Nil):
		c.logger.Warn().Err(err).Int64("jurisdiction_id", id).Msg("jurisdiction cache read failed")
	}

	ids, err := c.source.Subtree(ctx, id)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(ids); err == nil {
		if err := c.client.Set(ctx, c.key(id), data, c.ttl).Err(); err != nil {
			c.logger.Warn().Err(err).Int64("jurisdiction_id", id).Msg("jurisdiction cache write failed")
		}
	}
	return ids, nil
}

// Flush drops every cached subtree, used after the tree is reseeded.
func (c *RedisCache) Flush(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
