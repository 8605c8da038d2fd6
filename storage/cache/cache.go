// Package cache keeps recently read blocks close to the selections reading
// them. A Store decorates a block store with a BlockCache; cache backends
// register themselves by name, like storage backends do.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/distribution/ipld/address"
	prometheus "github.com/distribution/ipld/metrics"
	"github.com/docker/go-metrics"
)

// ErrNotCached is returned by a BlockCache for blocks it does not hold.
var ErrNotCached = errors.New("block not cached")

// BlockCache holds block bytes by address. Blocks are immutable, so a
// cached block never needs to be invalidated; caches only evict.
type BlockCache interface {
	// Get returns the cached bytes of addr, or ErrNotCached.
	Get(ctx context.Context, addr address.Address) ([]byte, error)

	// Set caches data as the bytes of addr.
	Set(ctx context.Context, addr address.Address, data []byte) error
}

// InitFunc is the type of a BlockCache factory function and is used to
// register the constructor for different cache backends.
type InitFunc func(ctx context.Context, options map[string]any) (BlockCache, error)

var (
	providersMu sync.RWMutex
	providers   map[string]InitFunc
)

// Register is used to register an InitFunc for a cache backend with the
// given name.
func Register(name string, initFunc InitFunc) error {
	providersMu.Lock()
	defer providersMu.Unlock()
	if providers == nil {
		providers = make(map[string]InitFunc)
	}
	if _, exists := providers[name]; exists {
		return fmt.Errorf("name already registered: %s", name)
	}
	providers[name] = initFunc
	return nil
}

// Get constructs a BlockCache with the given options using the named
// backend.
func Get(ctx context.Context, name string, options map[string]any) (BlockCache, error) {
	providersMu.RLock()
	initFunc, exists := providers[name]
	providersMu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("no cache provider registered with name: %s", name)
	}
	return initFunc(ctx, options)
}

type timedCache struct {
	BlockCache
	latencyTimer metrics.LabeledTimer
}

// WithLatency reports the time taken by the operations of c in a labeled
// timer named name.
func WithLatency(c BlockCache, name, help string) BlockCache {
	return &timedCache{
		c,
		prometheus.StorageNamespace.NewLabeledTimer(name, help, "operation"),
	}
}

func (c *timedCache) Get(ctx context.Context, addr address.Address) ([]byte, error) {
	start := time.Now()
	data, err := c.BlockCache.Get(ctx, addr)
	c.latencyTimer.WithValues("Get").UpdateSince(start)
	return data, err
}

func (c *timedCache) Set(ctx context.Context, addr address.Address, data []byte) error {
	start := time.Now()
	err := c.BlockCache.Set(ctx, addr, data)
	c.latencyTimer.WithValues("Set").UpdateSince(start)
	return err
}
