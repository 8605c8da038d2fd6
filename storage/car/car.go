// Package car reads and writes blocks in CAR files, the archive format for
// content addressed graphs.
package car

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/distribution/ipld"
	"github.com/distribution/ipld/address"
	"github.com/distribution/ipld/internal/dcontext"
	"github.com/distribution/ipld/selector"
	"github.com/distribution/ipld/storage"
	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-cid"
	bstore "github.com/ipfs/go-ipfs-blockstore"
	carbs "github.com/ipld/go-car/v2/blockstore"
)

const backendName = "car"

// blockGetter is the read side shared by read only and read write CARs.
type blockGetter interface {
	Get(ctx context.Context, key cid.Cid) (blocks.Block, error)
	Roots() ([]cid.Cid, error)
}

func readBlock(ctx context.Context, bg blockGetter, addr address.Address) (io.ReadCloser, error) {
	blk, err := bg.Get(ctx, addr.Cid())
	if err != nil {
		if errors.Is(err, bstore.ErrNotFound) {
			return nil, storage.BlockNotFoundError{Address: addr, Backend: backendName}
		}
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(blk.RawData())), nil
}

func roots(bg blockGetter) ([]address.Address, error) {
	cids, err := bg.Roots()
	if err != nil {
		return nil, err
	}
	out := make([]address.Address, 0, len(cids))
	for _, c := range cids {
		a, err := address.FromCid(c)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Reader is a storage.Context over a CAR file.
type Reader struct {
	ro *carbs.ReadOnly
}

// Open opens the CAR file at path for reading. CARv1 files are indexed in
// memory.
func Open(path string) (*Reader, error) {
	ro, err := carbs.OpenReadOnly(path, carbs.UseWholeCIDs(true))
	if err != nil {
		return nil, fmt.Errorf("car: open %s: %w", path, err)
	}
	return &Reader{ro: ro}, nil
}

// BlockReader implements storage.Context.
func (r *Reader) BlockReader(ctx context.Context, addr address.Address) (io.ReadCloser, error) {
	return readBlock(ctx, r.ro, addr)
}

// Roots returns the roots recorded in the CAR header.
func (r *Reader) Roots() ([]address.Address, error) {
	return roots(r.ro)
}

// Close releases the file.
func (r *Reader) Close() error {
	return r.ro.Close()
}

// Writer is a storage.Writable appending blocks to a CAR file. The file is
// only complete once Finalize is called.
type Writer struct {
	rw *carbs.ReadWrite
}

// Create opens the CAR file at path for writing with the given roots. An
// existing unfinalized file with the same roots is resumed.
func Create(path string, rootAddrs ...address.Address) (*Writer, error) {
	cids := make([]cid.Cid, len(rootAddrs))
	for i, a := range rootAddrs {
		cids[i] = a.Cid()
	}
	rw, err := carbs.OpenReadWrite(path, cids, carbs.UseWholeCIDs(true))
	if err != nil {
		return nil, fmt.Errorf("car: create %s: %w", path, err)
	}
	return &Writer{rw: rw}, nil
}

// BlockReader implements storage.Context.
func (w *Writer) BlockReader(ctx context.Context, addr address.Address) (io.ReadCloser, error) {
	return readBlock(ctx, w.rw, addr)
}

// BlockWriter implements storage.Writable.
func (w *Writer) BlockWriter(ctx context.Context, replacing *address.Address) (storage.BlockWriter, error) {
	return storage.NewBlockWriter(func(addr address.Address, data []byte) error {
		blk, err := blocks.NewBlockWithCid(bytes.Clone(data), addr.Cid())
		if err != nil {
			return err
		}
		return w.rw.Put(ctx, blk)
	}), nil
}

// Roots returns the roots the file was created with.
func (w *Writer) Roots() ([]address.Address, error) {
	return roots(w.rw)
}

// Finalize writes the index and closes the file.
func (w *Writer) Finalize() error {
	return w.rw.Finalize()
}

// Discard closes the file without finalizing it.
func (w *Writer) Discard() {
	w.rw.Discard()
}

// Export writes to a new CAR file at path every block sel reads when it is
// run over the graph rooted at root, and returns how many were written.
// root is the only root of the file.
func Export(ctx context.Context, src storage.Context, root address.Address, sel selector.Selector, path string) (int, error) {
	w, err := Create(path, root)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]bool)
	var order []address.Address
	err = ipld.Select[ipld.Any](ctx, src, ipld.Params{Root: root, Selector: sel}, ipld.SelectNode{
		Fn: func(s ipld.Selection, _ ipld.Node) error {
			if k := s.Block.Key(); !seen[k] {
				seen[k] = true
				order = append(order, s.Block)
			}
			return nil
		},
	})
	if err != nil {
		w.Discard()
		return 0, err
	}

	for _, addr := range order {
		data, err := storage.Get(ctx, src, addr)
		if err != nil {
			w.Discard()
			return 0, err
		}
		blk, err := blocks.NewBlockWithCid(data, addr.Cid())
		if err != nil {
			w.Discard()
			return 0, err
		}
		if err := w.rw.Put(ctx, blk); err != nil {
			w.Discard()
			return 0, err
		}
	}
	if err := w.Finalize(); err != nil {
		return 0, err
	}
	dcontext.GetLoggerWithFields(ctx, map[any]any{
		"root":   root,
		"blocks": len(order),
		"path":   path,
	}).Info("exported car")
	return len(order), nil
}
