// Package blockstore adapts a go-ipfs-blockstore Blockstore to a block
// store, so graphs can be read from and written to IPFS datastores.
package blockstore

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/distribution/ipld/address"
	"github.com/distribution/ipld/storage"
	"github.com/distribution/ipld/storage/factory"
	blocks "github.com/ipfs/go-block-format"
	ds "github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	bstore "github.com/ipfs/go-ipfs-blockstore"
)

const backendName = "blockstore"

func init() {
	factory.Register(backendName, factory.FactoryFunc(func(context.Context, map[string]any) (storage.Writable, error) {
		return NewInMemory(), nil
	}))
}

// Store is a storage.Writable over a Blockstore.
type Store struct {
	bs bstore.Blockstore
}

// New wraps bs.
func New(bs bstore.Blockstore) *Store {
	return &Store{bs: bs}
}

// NewInMemory returns a Store over a map datastore.
func NewInMemory() *Store {
	return New(bstore.NewBlockstore(dssync.MutexWrap(ds.NewMapDatastore())))
}

// Blockstore returns the wrapped Blockstore.
func (s *Store) Blockstore() bstore.Blockstore {
	return s.bs
}

// BlockReader implements storage.Context.
func (s *Store) BlockReader(ctx context.Context, addr address.Address) (io.ReadCloser, error) {
	blk, err := s.bs.Get(ctx, addr.Cid())
	if err != nil {
		if errors.Is(err, bstore.ErrNotFound) {
			return nil, storage.BlockNotFoundError{Address: addr, Backend: backendName}
		}
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(blk.RawData())), nil
}

// BlockWriter implements storage.Writable.
func (s *Store) BlockWriter(ctx context.Context, replacing *address.Address) (storage.BlockWriter, error) {
	return storage.NewBlockWriter(func(addr address.Address, data []byte) error {
		blk, err := blocks.NewBlockWithCid(bytes.Clone(data), addr.Cid())
		if err != nil {
			return err
		}
		return s.bs.Put(ctx, blk)
	}), nil
}

// Has reports whether the block at addr is stored.
func (s *Store) Has(ctx context.Context, addr address.Address) (bool, error) {
	return s.bs.Has(ctx, addr.Cid())
}
