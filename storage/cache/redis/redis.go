// Package redis provides a BlockCache shared through redis.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/distribution/ipld/address"
	"github.com/distribution/ipld/storage/cache"
	"github.com/mitchellh/mapstructure"
	"github.com/redis/go-redis/v9"
)

// init registers the redis cache provider.
func init() {
	if err := cache.Register("redis", NewBlockCacheProvider); err != nil {
		panic(err)
	}
}

// Redis configures the redis cache.
type Redis struct {
	Addrs      []string      `yaml:"addrs,omitempty"`
	Password   string        `yaml:"password,omitempty"`
	DB         int           `yaml:"db,omitempty"`
	Expiration time.Duration `yaml:"expiration,omitempty"`
}

// redisBlockCache stores each block under its own key, expiring after the
// configured time. Zero expiration keeps blocks until redis evicts them.
type redisBlockCache struct {
	pool       redis.UniversalClient
	expiration time.Duration
}

// NewRedisBlockCache returns a BlockCache over pool.
func NewRedisBlockCache(pool redis.UniversalClient, expiration time.Duration) cache.BlockCache {
	return cache.WithLatency(
		&redisBlockCache{pool: pool, expiration: expiration},
		"cache_redis",
		"Number of seconds taken by redis",
	)
}

// NewBlockCacheProvider connects to the redis described by
// options["params"].
func NewBlockCacheProvider(ctx context.Context, options map[string]any) (cache.BlockCache, error) {
	var c Redis
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     &c,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(options["params"]); err != nil {
		return nil, err
	}
	if len(c.Addrs) == 0 {
		return nil, errors.New("redis: no addresses configured")
	}

	pool := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    c.Addrs,
		Password: c.Password,
		DB:       c.DB,
	})
	if err := pool.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return NewRedisBlockCache(pool, c.Expiration), nil
}

func (c *redisBlockCache) Get(ctx context.Context, addr address.Address) ([]byte, error) {
	data, err := c.pool.Get(ctx, blockKey(addr)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cache.ErrNotCached
	}
	return data, err
}

func (c *redisBlockCache) Set(ctx context.Context, addr address.Address, data []byte) error {
	return c.pool.Set(ctx, blockKey(addr), data, c.expiration).Err()
}

func blockKey(addr address.Address) string {
	return "ipld::block::" + addr.String()
}
