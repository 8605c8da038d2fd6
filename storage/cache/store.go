package cache

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/distribution/ipld/address"
	"github.com/distribution/ipld/internal/dcontext"
	prometheus "github.com/distribution/ipld/metrics"
	"github.com/distribution/ipld/storage"
)

// cacheCount is the number of total cache request received/hits/misses
var cacheCount = prometheus.StorageNamespace.NewLabeledCounter("cache", "The number of cache request received", "type")

// Metrics is used to hold metric counters related to the number of times a
// cache was hit or missed.
type Metrics struct {
	Requests uint64
	Hits     uint64
	Misses   uint64
}

// Store prefers a cache and falls back to a backend. Blocks read from or
// written to the backend are added to the cache.
type Store struct {
	backend storage.Context
	cache   BlockCache

	requests atomic.Uint64
	hits     atomic.Uint64
	misses   atomic.Uint64
}

// New returns a Store reading through c to backend.
func New(backend storage.Context, c BlockCache) *Store {
	return &Store{backend: backend, cache: c}
}

// Metrics returns the hits and misses counted so far.
func (s *Store) Metrics() Metrics {
	return Metrics{
		Requests: s.requests.Load(),
		Hits:     s.hits.Load(),
		Misses:   s.misses.Load(),
	}
}

// BlockReader implements storage.Context.
func (s *Store) BlockReader(ctx context.Context, addr address.Address) (io.ReadCloser, error) {
	cacheCount.WithValues("Request").Inc(1)
	s.requests.Add(1)

	// try getting from cache
	data, cacheErr := s.cache.Get(ctx, addr)
	if cacheErr == nil {
		cacheCount.WithValues("Hit").Inc(1)
		s.hits.Add(1)
		return io.NopCloser(bytes.NewReader(data)), nil
	}

	// couldn't get from cache; get from backend
	data, err := storage.Get(ctx, s.backend, addr)
	if err != nil {
		return nil, err
	}

	if errors.Is(cacheErr, ErrNotCached) {
		cacheCount.WithValues("Miss").Inc(1)
		s.misses.Add(1)
		s.set(ctx, addr, data)
	} else {
		// unknown error from cache. just log it; do not store as it may
		// trigger many set calls
		dcontext.GetLoggerWithField(ctx, "block", addr).WithError(cacheErr).Error("error from cache reading block")
		cacheCount.WithValues("Error").Inc(1)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// BlockWriter implements storage.Writable when the backend does; otherwise
// the store is read only.
func (s *Store) BlockWriter(ctx context.Context, replacing *address.Address) (storage.BlockWriter, error) {
	w, ok := s.backend.(storage.Writable)
	if !ok {
		return nil, errors.New("cache: backend is read only")
	}
	bw, err := w.BlockWriter(ctx, replacing)
	if err != nil {
		return nil, err
	}
	return &cachingWriter{BlockWriter: bw, store: s, ctx: ctx}, nil
}

func (s *Store) set(ctx context.Context, addr address.Address, data []byte) {
	if err := s.cache.Set(ctx, addr, data); err != nil {
		dcontext.GetLoggerWithField(ctx, "block", addr).WithError(err).Error("error from cache setting block")
	}
}

// cachingWriter keeps a copy of the block so it can be cached on commit.
type cachingWriter struct {
	storage.BlockWriter
	store *Store
	ctx   context.Context
	buf   bytes.Buffer
}

func (w *cachingWriter) Write(p []byte) (int, error) {
	n, err := w.BlockWriter.Write(p)
	w.buf.Write(p[:n])
	return n, err
}

func (w *cachingWriter) Commit(codec uint64, mhType uint64) (address.Address, error) {
	addr, err := w.BlockWriter.Commit(codec, mhType)
	if err != nil {
		return addr, err
	}
	w.store.set(w.ctx, addr, w.buf.Bytes())
	return addr, nil
}
