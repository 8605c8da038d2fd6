package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/distribution/ipld"
	"github.com/distribution/ipld/address"
	"github.com/distribution/ipld/codec"
	"github.com/distribution/ipld/codec/dagjson"
	"github.com/distribution/ipld/configuration"
	"github.com/distribution/ipld/internal/dcontext"
	"github.com/distribution/ipld/storage"
	"github.com/distribution/ipld/storage/cache"
	"github.com/distribution/ipld/storage/cache/memory"
	"github.com/distribution/ipld/storage/factory"
	"github.com/distribution/ipld/version"
	"github.com/multiformats/go-multihash"
	log "github.com/sirupsen/logrus"
)

// environment is what every command runs with: a logger in ctx, the
// configured store, and the format of new blocks.
type environment struct {
	ctx    context.Context
	config *configuration.Configuration
	store  storage.Writable

	code   uint64
	mhType uint64

	backend storage.Writable
}

func (e *environment) close() {
	closeQuietly(e.backend)
}

func resolveConfiguration(args []string) (*configuration.Configuration, error) {
	var configurationPath string

	if len(args) > 0 {
		configurationPath = args[0]
	} else if os.Getenv("IPLD_CONFIGURATION_PATH") != "" {
		configurationPath = os.Getenv("IPLD_CONFIGURATION_PATH")
	}

	if configurationPath == "" {
		return nil, errors.New("configuration path unspecified")
	}

	fp, err := os.Open(configurationPath)
	if err != nil {
		return nil, err
	}
	defer fp.Close()

	config, err := configuration.Parse(fp)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %v", configurationPath, err)
	}
	return config, nil
}

func newEnvironment(ctx context.Context, config *configuration.Configuration) (*environment, error) {
	ctx, err := configureLogging(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to configure logging with config: %s", err)
	}

	c, err := codec.LookupName(config.Selection.Codec)
	if err != nil {
		return nil, err
	}
	mhType, ok := multihash.Names[config.Selection.Hash]
	if !ok {
		return nil, fmt.Errorf("unknown hash function %q", config.Selection.Hash)
	}

	backend, err := factory.Create(ctx, config.Storage.Type(), config.Storage.Parameters())
	if err != nil {
		return nil, fmt.Errorf("failed to construct %s storage: %v", config.Storage.Type(), err)
	}

	store, err := configureCache(ctx, config, backend)
	if err != nil {
		closeQuietly(backend)
		return nil, err
	}

	return &environment{
		ctx:     ctx,
		config:  config,
		store:   store,
		code:    c.Code(),
		mhType:  mhType,
		backend: backend,
	}, nil
}

// configureCache puts the configured block cache in front of backend.
func configureCache(ctx context.Context, config *configuration.Configuration, backend storage.Writable) (storage.Writable, error) {
	var options map[string]any
	switch name := config.Cache.BlockDescriptor; name {
	case "":
		return backend, nil
	case "inmemory":
		options = memory.NewCacheOptions(config.Cache.BlockDescriptorSize)
	case "redis":
		options = map[string]any{
			"params": map[string]any{
				"addrs":      config.Redis.Addrs,
				"password":   config.Redis.Password,
				"db":         config.Redis.DB,
				"expiration": config.Redis.Expiration,
			},
		}
	default:
		return nil, fmt.Errorf("unknown block cache %q", name)
	}

	c, err := cache.Get(ctx, config.Cache.BlockDescriptor, options)
	if err != nil {
		return nil, fmt.Errorf("failed to construct %s cache: %v", config.Cache.BlockDescriptor, err)
	}
	dcontext.GetLogger(ctx).Infof("using %q block cache", config.Cache.BlockDescriptor)
	return cache.New(backend, c), nil
}

// configureLogging prepares the context with a logger using the
// configuration.
func configureLogging(ctx context.Context, config *configuration.Configuration) (context.Context, error) {
	log.SetLevel(logLevel(config.Log.Level))

	formatter := config.Log.Formatter
	if formatter == "" {
		formatter = "text" // default formatter
	}

	switch formatter {
	case "json":
		log.SetFormatter(&log.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	case "text":
		log.SetFormatter(&log.TextFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	default:
		return ctx, fmt.Errorf("unsupported logging formatter: %q", config.Log.Formatter)
	}

	if config.Log.Formatter != "" {
		log.Debugf("using %q logging formatter", config.Log.Formatter)
	}

	// log the application version with messages
	ctx = dcontext.WithVersion(ctx, version.Version())

	if len(config.Log.Fields) > 0 {
		// build up the static fields, if present.
		var fields []any
		for k := range config.Log.Fields {
			fields = append(fields, k)
		}

		ctx = dcontext.WithValues(ctx, config.Log.Fields)
		ctx = dcontext.WithLogger(ctx, dcontext.GetLogger(ctx, fields...))
	}

	return ctx, nil
}

func logLevel(level configuration.Loglevel) log.Level {
	l, err := log.ParseLevel(string(level))
	if err != nil {
		l = log.InfoLevel
		log.Warnf("error parsing level %q: %v, using %q", level, err, l)
	}
	return l
}

// putValue stores the dag-json document read from r.
func putValue(ctx context.Context, store storage.Writable, r io.Reader, code, mhType uint64) (address.Address, error) {
	v, err := ipld.Read[ipld.Any](r, dagjson.Code)
	if err != nil {
		return address.Undef, err
	}
	return ipld.Put(ctx, store, &v, code, mhType)
}

// getValue writes the block at addr to w as dag-json.
func getValue(ctx context.Context, store storage.Context, addr address.Address, w io.Writer) error {
	v, err := ipld.Load[ipld.Any](ctx, store, addr)
	if err != nil {
		return err
	}
	if err := ipld.Write(w, v, dagjson.Code); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w)
	return err
}

// selectTo runs p and writes one line per selection to w.
func selectTo(ctx context.Context, store storage.Context, p ipld.Params, mode string, onlyMatched bool, w io.Writer) error {
	var sink ipld.Sink
	switch mode {
	case "node":
		sink = ipld.SelectNode{
			OnlyMatched: onlyMatched,
			Fn: func(s ipld.Selection, n ipld.Node) error {
				line := fmt.Sprintf("/%s\t%s\t%s\t%s", s.Path, n.Kind, n.Type, s.Block)
				if n.Link.Defined() {
					line += "\t" + n.Link.String()
				}
				if s.Label != "" {
					line += "\t" + s.Label
				}
				_, err := fmt.Fprintln(w, line)
				return err
			},
		}
	case "dag":
		sink = ipld.SelectDag{
			Fn: func(s ipld.Selection, v ipld.Representation) error {
				data, err := ipld.Encode(v, dagjson.Code)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(w, "/%s\t%s\n", s.Path, data)
				return err
			},
		}
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
	return ipld.Select[ipld.Any](ctx, store, p, sink)
}
