// Package factory creates block stores by name. Backends register
// themselves from their init functions; import them for their side
// effects.
package factory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/distribution/ipld/address"
	"github.com/distribution/ipld/internal/dcontext"
	"github.com/distribution/ipld/storage"
)

var (
	mu        sync.RWMutex
	factories = make(map[string]StorageFactory)
)

// StorageFactory creates a block store from its parameters. Parameters vary
// by backend and unknown ones may be ignored.
type StorageFactory interface {
	Create(ctx context.Context, parameters map[string]any) (storage.Writable, error)
}

// FactoryFunc adapts a function to a StorageFactory.
type FactoryFunc func(ctx context.Context, parameters map[string]any) (storage.Writable, error)

func (f FactoryFunc) Create(ctx context.Context, parameters map[string]any) (storage.Writable, error) {
	return f(ctx, parameters)
}

// Register makes a backend available by the provided name.
// If Register is called twice with the same name or if factory is nil, it panics.
func Register(name string, factory StorageFactory) {
	if factory == nil {
		panic("Must not provide nil StorageFactory")
	}
	mu.Lock()
	defer mu.Unlock()
	if _, registered := factories[name]; registered {
		panic(fmt.Sprintf("StorageFactory named %s already registered", name))
	}
	factories[name] = factory
}

// Registered returns the sorted names of the registered backends.
func Registered() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create a new block store with the given name and parameters. The store is
// verified by writing a probe block and reading it back. If no backend is
// registered under name, an InvalidStorageError is returned.
func Create(ctx context.Context, name string, parameters map[string]any) (storage.Writable, error) {
	mu.RLock()
	f, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, InvalidStorageError{name}
	}
	s, err := f.Create(ctx, parameters)
	if err != nil {
		return nil, err
	}
	if err := verify(ctx, s); err != nil {
		return nil, fmt.Errorf("unable to verify read and write access on storage %q: %v", name, err)
	}
	dcontext.GetLoggerWithField(ctx, "storage", name).Info("storage ready")
	return s, nil
}

// probe is a raw block holding "ipld"; its address is fixed.
var probe = []byte("ipld")

const (
	rawCodec = 0x55
	sha2_256 = 0x12
)

func verify(ctx context.Context, s storage.Writable) error {
	addr, err := storage.Put(ctx, s, rawCodec, sha2_256, probe)
	if err != nil {
		return fmt.Errorf("unable to write verification block: %v", err)
	}
	want, err := address.Sum(rawCodec, sha2_256, probe)
	if err != nil {
		return err
	}
	if !addr.Equals(want) {
		return fmt.Errorf("verification block stored as %s, want %s", addr, want)
	}
	data, err := storage.Get(ctx, s, addr)
	if err != nil {
		return fmt.Errorf("unable to read verification block: %v", err)
	}
	if string(data) != string(probe) {
		return fmt.Errorf("verification block read back as %q", data)
	}
	return nil
}

// InvalidStorageError records an attempt to construct an unregistered backend.
type InvalidStorageError struct {
	Name string
}

func (err InvalidStorageError) Error() string {
	return fmt.Sprintf("storage not registered: %s", err.Name)
}
