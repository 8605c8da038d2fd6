package ipld

import (
	"context"
	"io"

	"github.com/distribution/ipld/address"
	"github.com/distribution/ipld/codec"
	"github.com/distribution/ipld/internal/dcontext"
	prometheus "github.com/distribution/ipld/metrics"
	"github.com/distribution/ipld/storage"
)

var (
	blocksRead    = prometheus.StorageNamespace.NewCounter("blocks_read", "The number of blocks read for decoding")
	blocksWritten = prometheus.StorageNamespace.NewCounter("blocks_written", "The number of blocks encoded and stored")
)

// openBlock returns a token reader over the block at addr, using the codec
// the address is tagged with. Cancellation of ctx is checked here, before
// every block is read.
func openBlock(ctx context.Context, store storage.Context, addr address.Address) (codec.Reader, io.Closer, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if store == nil {
		return nil, nil, ErrNoStorage
	}
	c, err := codec.Lookup(addr.Codec())
	if err != nil {
		return nil, nil, err
	}
	rc, err := store.BlockReader(ctx, addr)
	if err != nil {
		return nil, nil, err
	}
	blocksRead.Inc(1)
	dcontext.GetLoggerWithField(ctx, "block", addr).Debug("reading block")
	return c.NewReader(rc), rc, nil
}

// Load reads and decodes the T stored at addr.
func Load[T Representation](ctx context.Context, store storage.Context, addr address.Address) (T, error) {
	var v T
	d, err := decodableOf(&v)
	if err != nil {
		return v, err
	}
	r, closer, err := openBlock(ctx, store, addr)
	if err != nil {
		return v, err
	}
	defer closer.Close()

	if err := d.DecodeIPLD(r); err != nil {
		return v, err
	}
	return v, nil
}

// Put flushes the dirty links of v, then stores v itself as a block encoded
// with the codec code and hashed with mhType.
func Put[T Representation](ctx context.Context, store storage.Writable, v *T, code, mhType uint64) (address.Address, error) {
	f := &flusher{ctx: ctx, store: store, code: code, mhType: mhType}
	if _, err := f.flushValue(v); err != nil {
		return address.Undef, err
	}
	return f.put(*v, address.Undef)
}

// Flush stores the targets of every dirty link reachable from v, deepest
// first, and updates the links to the new addresses. A link is also
// rewritten when a link below it was. New blocks keep the codec and hash
// function of the block they replace; code and mhType are used for links
// that had no address yet.
func Flush[T Representation](ctx context.Context, store storage.Writable, v *T, code, mhType uint64) error {
	f := &flusher{ctx: ctx, store: store, code: code, mhType: mhType}
	_, err := f.flushValue(v)
	return err
}

// flushable is implemented by values that may contain links.
type flushable interface {
	flush(f *flusher) (bool, error)
}

type flusher struct {
	ctx    context.Context
	store  storage.Writable
	code   uint64
	mhType uint64
}

// flushValue flushes the value p points to and reports whether any link in
// it got a new address.
func (f *flusher) flushValue(p any) (bool, error) {
	fl, ok := p.(flushable)
	if !ok {
		return false, nil
	}
	return fl.flush(f)
}

// put stores v as the block superseding old.
func (f *flusher) put(v Representation, old address.Address) (address.Address, error) {
	if err := f.ctx.Err(); err != nil {
		return address.Undef, err
	}
	if f.store == nil {
		return address.Undef, ErrNoStorage
	}

	code, mhType := f.code, f.mhType
	var replacing *address.Address
	if old.Defined() {
		replacing = &old
		if old.Version() > 0 {
			code, mhType = old.Codec(), old.HashCode()
		}
	}
	c, err := codec.Lookup(code)
	if err != nil {
		return address.Undef, err
	}

	w, err := f.store.BlockWriter(f.ctx, replacing)
	if err != nil {
		return address.Undef, err
	}
	defer w.Close()

	if err := v.EncodeIPLD(c.NewWriter(w)); err != nil {
		return address.Undef, err
	}
	addr, err := w.Commit(code, mhType)
	if err != nil {
		return address.Undef, err
	}
	blocksWritten.Inc(1)
	dcontext.GetLoggerWithFields(f.ctx, map[any]any{
		"block":    addr,
		"replaces": old,
	}).Debug("stored block")
	return addr, nil
}
