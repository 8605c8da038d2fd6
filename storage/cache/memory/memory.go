// Package memory provides an in-process BlockCache with adaptive
// replacement.
package memory

import (
	"bytes"
	"context"
	"math"

	"github.com/distribution/ipld/address"
	"github.com/distribution/ipld/storage/cache"
	"github.com/hashicorp/golang-lru/arc/v2"
	"github.com/mitchellh/mapstructure"
)

// init registers the inmemory cache provider.
func init() {
	if err := cache.Register("inmemory", NewBlockCacheProvider); err != nil {
		panic(err)
	}
}

const (
	// DefaultSize is the default number of cached blocks if no size is
	// explicitly configured.
	DefaultSize = 10000

	// UnlimitedSize indicates the cache size should not be limited.
	UnlimitedSize = math.MaxInt
)

// Memory configures inmemory cache
type Memory struct {
	Size int `yaml:"size,omitempty"`
}

// NewCacheOptions returns new memory cache options.
func NewCacheOptions(size int) map[string]any {
	return map[string]any{
		"params": map[any]any{
			"size": size,
		},
	}
}

type blockCache struct {
	lru *arc.ARCCache[string, []byte]
}

// NewBlockCacheProvider returns a new ARC based cache of at most
// options["params"]["size"] blocks.
func NewBlockCacheProvider(ctx context.Context, options map[string]any) (cache.BlockCache, error) {
	var c Memory
	if err := mapstructure.Decode(options["params"], &c); err != nil {
		return nil, err
	}

	size := c.Size
	if size <= 0 {
		size = DefaultSize
	}

	lruCache, err := arc.NewARC[string, []byte](size)
	if err != nil {
		// NewARC can only fail if size is <= 0, so this unreachable
		return nil, err
	}
	return &blockCache{lru: lruCache}, nil
}

func (c *blockCache) Get(ctx context.Context, addr address.Address) ([]byte, error) {
	data, ok := c.lru.Get(addr.Key())
	if !ok {
		return nil, cache.ErrNotCached
	}
	return data, nil
}

func (c *blockCache) Set(ctx context.Context, addr address.Address, data []byte) error {
	c.lru.Add(addr.Key(), bytes.Clone(data))
	return nil
}
