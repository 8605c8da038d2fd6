package inmemory

import (
	"context"
	"errors"
	"testing"

	"github.com/distribution/ipld/address"
	"github.com/distribution/ipld/storage"
	"github.com/distribution/ipld/storage/factory"
	"github.com/stretchr/testify/require"
)

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	s := New()

	addr, err := storage.Put(ctx, s, 0x55, 0x12, []byte("hello"))
	require.NoError(t, err)
	require.True(t, s.Has(addr))
	require.Equal(t, 1, s.Len())

	want, err := address.Sum(0x55, 0x12, []byte("hello"))
	require.NoError(t, err)
	require.True(t, want.Equals(addr))

	data, err := storage.Get(ctx, s, addr)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestNotFound(t *testing.T) {
	s := New()
	addr, err := address.Sum(0x55, 0x12, []byte("missing"))
	require.NoError(t, err)

	_, err = s.BlockReader(context.Background(), addr)
	require.True(t, errors.Is(err, storage.ErrNotFound))

	var nf storage.BlockNotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "inmemory", nf.Backend)
}

func TestUncommittedWriterDiscards(t *testing.T) {
	s := New()
	w, err := s.BlockWriter(context.Background(), nil)
	require.NoError(t, err)
	_, err = w.Write([]byte("dropped"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.Equal(t, 0, s.Len())

	_, err = w.Write([]byte("late"))
	require.ErrorIs(t, err, storage.ErrCommitted)
}

func TestFactory(t *testing.T) {
	s, err := factory.Create(context.Background(), "inmemory", nil)
	require.NoError(t, err)
	require.Equal(t, 1, s.(*Store).Len(), "the verification block is stored")

	_, err = factory.Create(context.Background(), "nope", nil)
	require.Equal(t, factory.InvalidStorageError{Name: "nope"}, err)
	require.Contains(t, factory.Registered(), "inmemory")
}
