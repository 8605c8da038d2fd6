// Package cachecheck holds the checks every BlockCache implementation must
// pass.
package cachecheck

import (
	"context"
	"testing"

	"github.com/distribution/ipld/address"
	"github.com/distribution/ipld/storage/cache"
	"github.com/stretchr/testify/require"
)

// CheckBlockCache exercises c with a single block.
func CheckBlockCache(t *testing.T, c cache.BlockCache) {
	t.Helper()
	ctx := context.Background()

	addr, err := address.Sum(0x55, 0x12, []byte("cached"))
	require.NoError(t, err)

	_, err = c.Get(ctx, addr)
	require.ErrorIs(t, err, cache.ErrNotCached)

	data := []byte("cached")
	require.NoError(t, c.Set(ctx, addr, data))
	data[0] = 'X'

	got, err := c.Get(ctx, addr)
	require.NoError(t, err)
	require.Equal(t, "cached", string(got), "the cache keeps its own copy")

	other, err := address.Sum(0x71, 0x12, []byte("cached"))
	require.NoError(t, err)
	_, err = c.Get(ctx, other)
	require.ErrorIs(t, err, cache.ErrNotCached, "addresses differing only in codec are distinct")
}
