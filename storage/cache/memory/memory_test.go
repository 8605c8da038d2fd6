package memory

import (
	"context"
	"testing"

	"github.com/distribution/ipld/address"
	"github.com/distribution/ipld/storage/cache"
	"github.com/distribution/ipld/storage/cache/cachecheck"
	"github.com/stretchr/testify/require"
)

// TestInMemoryBlockCache checks the in memory implementation is working
// correctly.
func TestInMemoryBlockCache(t *testing.T) {
	c, err := NewBlockCacheProvider(context.Background(), NewCacheOptions(UnlimitedSize))
	require.NoError(t, err)
	cachecheck.CheckBlockCache(t, c)
}

func TestRegistered(t *testing.T) {
	c, err := cache.Get(context.Background(), "inmemory", nil)
	require.NoError(t, err)
	cachecheck.CheckBlockCache(t, c)
}

func TestEviction(t *testing.T) {
	ctx := context.Background()
	c, err := NewBlockCacheProvider(ctx, NewCacheOptions(2))
	require.NoError(t, err)

	var addrs []address.Address
	for _, s := range []string{"a", "b", "c"} {
		addr, err := address.Sum(0x55, 0x12, []byte(s))
		require.NoError(t, err)
		require.NoError(t, c.Set(ctx, addr, []byte(s)))
		addrs = append(addrs, addr)
	}

	_, err = c.Get(ctx, addrs[0])
	require.ErrorIs(t, err, cache.ErrNotCached)
	got, err := c.Get(ctx, addrs[2])
	require.NoError(t, err)
	require.Equal(t, "c", string(got))
}
