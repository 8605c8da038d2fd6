// Package inmemory provides a block store backed by a map. It is intended
// for tests and short lived graphs.
package inmemory

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/distribution/ipld/address"
	"github.com/distribution/ipld/storage"
	"github.com/distribution/ipld/storage/factory"
)

const backendName = "inmemory"

func init() {
	factory.Register(backendName, factory.FactoryFunc(func(context.Context, map[string]any) (storage.Writable, error) {
		return New(), nil
	}))
}

// Store is a storage.Writable keeping blocks in memory.
type Store struct {
	mutex  sync.RWMutex
	blocks map[string][]byte
}

// New constructs an empty Store.
func New() *Store {
	return &Store{blocks: make(map[string][]byte)}
}

// BlockReader implements storage.Context.
func (s *Store) BlockReader(ctx context.Context, addr address.Address) (io.ReadCloser, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	data, ok := s.blocks[addr.Key()]
	if !ok {
		return nil, storage.BlockNotFoundError{Address: addr, Backend: backendName}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// BlockWriter implements storage.Writable. Replaced blocks are kept since
// other graphs may still link to them.
func (s *Store) BlockWriter(ctx context.Context, replacing *address.Address) (storage.BlockWriter, error) {
	return storage.NewBlockWriter(func(addr address.Address, data []byte) error {
		s.mutex.Lock()
		defer s.mutex.Unlock()
		s.blocks[addr.Key()] = bytes.Clone(data)
		return nil
	}), nil
}

// Has reports whether the block at addr is stored.
func (s *Store) Has(addr address.Address) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	_, ok := s.blocks[addr.Key()]
	return ok
}

// Len returns the number of stored blocks.
func (s *Store) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.blocks)
}
