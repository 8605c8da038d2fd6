package car

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/distribution/ipld"
	"github.com/distribution/ipld/address"
	"github.com/distribution/ipld/codec/dagcbor"
	"github.com/distribution/ipld/selector"
	"github.com/distribution/ipld/storage"
	"github.com/distribution/ipld/storage/inmemory"
	"github.com/stretchr/testify/require"
)

func TestWriteRead(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "blocks.car")

	root, err := address.Sum(dagcbor.Code, 0x12, []byte{0xa0})
	require.NoError(t, err)

	w, err := Create(path, root)
	require.NoError(t, err)
	addr, err := storage.Put(ctx, w, dagcbor.Code, 0x12, []byte{0xa0})
	require.NoError(t, err)
	require.True(t, root.Equals(addr))

	data, err := storage.Get(ctx, w, addr)
	require.NoError(t, err)
	require.Equal(t, []byte{0xa0}, data)
	require.NoError(t, w.Finalize())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	roots, err := r.Roots()
	require.NoError(t, err)
	require.Len(t, roots, 1)
	require.True(t, root.Equals(roots[0]))

	data, err = storage.Get(ctx, r, root)
	require.NoError(t, err)
	require.Equal(t, []byte{0xa0}, data)

	missing, err := address.Sum(dagcbor.Code, 0x12, []byte{0xf6})
	require.NoError(t, err)
	_, err = r.BlockReader(ctx, missing)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	src := inmemory.New()

	leaf := ipld.String("leaf")
	leafAddr, err := ipld.Put(ctx, src, &leaf, dagcbor.Code, 0x12)
	require.NoError(t, err)

	unrelated := ipld.String("unrelated")
	_, err = ipld.Put(ctx, src, &unrelated, dagcbor.Code, 0x12)
	require.NoError(t, err)

	root := ipld.List[ipld.Link[ipld.String]]{ipld.LinkTo[ipld.String](leafAddr)}
	rootAddr, err := ipld.Put(ctx, src, &root, dagcbor.Code, 0x12)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "export.car")
	n, err := Export(ctx, src, rootAddr, selector.MatchAllRecursively(), path)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	got, err := ipld.Load[ipld.List[ipld.Link[ipld.String]]](ctx, r, rootAddr)
	require.NoError(t, err)
	s, err := got[0].Resolve(ctx, r)
	require.NoError(t, err)
	require.Equal(t, ipld.String("leaf"), s)
}
