package factory

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/distribution/ipld/address"
	"github.com/distribution/ipld/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lossy accepts writes and loses them.
type lossy struct{}

func (lossy) BlockReader(ctx context.Context, addr address.Address) (io.ReadCloser, error) {
	return nil, storage.BlockNotFoundError{Address: addr, Backend: "lossy"}
}

func (lossy) BlockWriter(ctx context.Context, replacing *address.Address) (storage.BlockWriter, error) {
	return storage.NewBlockWriter(func(address.Address, []byte) error { return nil }), nil
}

func TestCreateVerifies(t *testing.T) {
	Register("lossy", FactoryFunc(func(context.Context, map[string]any) (storage.Writable, error) {
		return lossy{}, nil
	}))
	_, err := Create(context.Background(), "lossy", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to read verification block")
}

func TestCreatePassesParameters(t *testing.T) {
	boom := errors.New("boom")
	var got map[string]any
	Register("params", FactoryFunc(func(_ context.Context, p map[string]any) (storage.Writable, error) {
		got = p
		return nil, boom
	}))
	_, err := Create(context.Background(), "params", map[string]any{"path": "/x"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, map[string]any{"path": "/x"}, got)
	assert.Contains(t, Registered(), "params")
}

func TestRegisterPanics(t *testing.T) {
	assert.Panics(t, func() { Register("nil", nil) })
	Register("twice", FactoryFunc(func(context.Context, map[string]any) (storage.Writable, error) {
		return lossy{}, nil
	}))
	assert.Panics(t, func() {
		Register("twice", FactoryFunc(func(context.Context, map[string]any) (storage.Writable, error) {
			return lossy{}, nil
		}))
	})
}

func TestUnknownStorage(t *testing.T) {
	_, err := Create(context.Background(), "nowhere", nil)
	var invalid InvalidStorageError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "nowhere", invalid.Name)
}
