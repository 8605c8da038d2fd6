// Package badger provides a block store persisted in a BadgerDB database.
package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/distribution/ipld/address"
	"github.com/distribution/ipld/internal/dcontext"
	"github.com/distribution/ipld/storage"
	"github.com/distribution/ipld/storage/factory"
	"github.com/mitchellh/mapstructure"
)

const backendName = "badger"

func init() {
	factory.Register(backendName, factory.FactoryFunc(fromParameters))
}

// Config holds the parameters of a badger store.
type Config struct {
	// Path is the directory of the database. It is ignored when InMemory is
	// set.
	Path string `mapstructure:"path"`

	// InMemory keeps the database in memory only.
	InMemory bool `mapstructure:"inmemory"`

	// SyncWrites syncs every commit to disk.
	SyncWrites bool `mapstructure:"syncwrites"`

	// GCInterval is how often the value log is garbage collected. Zero
	// disables collection.
	GCInterval time.Duration `mapstructure:"gcinterval"`
}

func fromParameters(ctx context.Context, parameters map[string]any) (storage.Writable, error) {
	var cfg Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(parameters); err != nil {
		return nil, fmt.Errorf("badger: invalid parameters: %v", err)
	}
	return Open(ctx, cfg)
}

// logger adapts a dcontext.Logger to the logger badger expects.
type logger struct {
	dcontext.Logger
}

func (l logger) Warningf(format string, args ...any) {
	l.Warnf(format, args...)
}

// Store is a storage.Writable keeping blocks in BadgerDB, keyed by the
// binary form of their address.
type Store struct {
	db   *badger.DB
	stop chan struct{}
	done chan struct{}
}

// Open opens the database described by cfg.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger: path is required for a persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("badger: create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(logger{dcontext.GetLoggerWithField(ctx, "storage", backendName)})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open database: %w", err)
	}

	s := &Store{db: db}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.stop = make(chan struct{})
		s.done = make(chan struct{})
		go s.collect(dcontext.DetachedContext(ctx), cfg.GCInterval)
	}
	return s, nil
}

func (s *Store) collect(ctx context.Context, interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			err := s.db.RunValueLogGC(0.5)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				dcontext.GetLogger(ctx).Warnf("badger: value log gc: %v", err)
			}
		}
	}
}

// BlockReader implements storage.Context.
func (s *Store) BlockReader(ctx context.Context, addr address.Address) (io.ReadCloser, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(addr.Bytes())
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.BlockNotFoundError{Address: addr, Backend: backendName}
	}
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// BlockWriter implements storage.Writable.
func (s *Store) BlockWriter(ctx context.Context, replacing *address.Address) (storage.BlockWriter, error) {
	return storage.NewBlockWriter(func(addr address.Address, data []byte) error {
		return s.db.Update(func(txn *badger.Txn) error {
			return txn.Set(addr.Bytes(), bytes.Clone(data))
		})
	}), nil
}

// Close stops garbage collection and closes the database.
func (s *Store) Close() error {
	if s.stop != nil {
		close(s.stop)
		<-s.done
		s.stop = nil
	}
	return s.db.Close()
}
