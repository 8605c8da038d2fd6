// Package storage defines where blocks are read from and written to. A
// block is the encoding of a single value, stored under the content address
// of its bytes.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/distribution/ipld/address"
)

// Context reads blocks by address. Implementations may be used from
// several goroutines.
type Context interface {
	// BlockReader returns a fresh reader over the block at addr. A missing
	// block is an error matching ErrNotFound.
	BlockReader(ctx context.Context, addr address.Address) (io.ReadCloser, error)
}

// Writable is a Context that stores new blocks.
type Writable interface {
	Context

	// BlockWriter returns a writer for a new block. replacing, if not nil,
	// is the address of the block the new one supersedes.
	BlockWriter(ctx context.Context, replacing *address.Address) (BlockWriter, error)
}

// BlockWriter accumulates the bytes of a block.
type BlockWriter interface {
	io.Writer

	// Commit hashes the written bytes with the multihash mhType, stores
	// them and returns the address of the block, tagged with codec.
	Commit(codec uint64, mhType uint64) (address.Address, error)

	// Close releases the writer. Closing a writer that was not committed
	// discards the block.
	Close() error
}

// ErrNotFound is matched by errors for missing blocks.
var ErrNotFound = errors.New("block not found")

// BlockNotFoundError is returned when a block is not stored.
type BlockNotFoundError struct {
	Address address.Address
	Backend string
}

func (err BlockNotFoundError) Error() string {
	return fmt.Sprintf("%s: block not found: %s", err.Backend, err.Address)
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (err BlockNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ErrCommitted is returned when a block writer is used after Commit or
// Close.
var ErrCommitted = errors.New("block writer already committed or closed")

// CommitFunc stores a hashed block. It is called by the writer returned
// from NewBlockWriter.
type CommitFunc func(addr address.Address, data []byte) error

type bufferedWriter struct {
	buf    bytes.Buffer
	commit CommitFunc
	done   bool
}

// NewBlockWriter returns a BlockWriter that buffers the block in memory and
// hands it to commit once hashed.
func NewBlockWriter(commit CommitFunc) BlockWriter {
	return &bufferedWriter{commit: commit}
}

func (w *bufferedWriter) Write(p []byte) (int, error) {
	if w.done {
		return 0, ErrCommitted
	}
	return w.buf.Write(p)
}

func (w *bufferedWriter) Commit(codec uint64, mhType uint64) (address.Address, error) {
	if w.done {
		return address.Undef, ErrCommitted
	}
	data := w.buf.Bytes()
	addr, err := address.Sum(codec, mhType, data)
	if err != nil {
		return address.Undef, err
	}
	if err := w.commit(addr, data); err != nil {
		return address.Undef, err
	}
	w.done = true
	return addr, nil
}

func (w *bufferedWriter) Close() error {
	w.done = true
	w.buf.Reset()
	return nil
}

// Get reads the whole block at addr.
func Get(ctx context.Context, store Context, addr address.Address) ([]byte, error) {
	rc, err := store.BlockReader(ctx, addr)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Put stores data as a block tagged with codec and hashed with mhType.
func Put(ctx context.Context, store Writable, codec, mhType uint64, data []byte) (address.Address, error) {
	w, err := store.BlockWriter(ctx, nil)
	if err != nil {
		return address.Undef, err
	}
	defer w.Close()
	if _, err := w.Write(data); err != nil {
		return address.Undef, err
	}
	return w.Commit(codec, mhType)
}
