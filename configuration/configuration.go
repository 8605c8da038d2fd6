// Package configuration reads the YAML configuration of the ipld command,
// with overrides from IPLD_ prefixed environment variables.
package configuration

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"
)

// Configuration is a versioned configuration, intended to be provided by a
// yaml file and optionally modified by environment variables.
type Configuration struct {
	// Version is the version which defines the format of the rest of the
	// configuration.
	Version Version `yaml:"version"`

	// Log configures the logrus logger.
	Log Log `yaml:"log"`

	// Storage is the block storage backend and its parameters.
	Storage Storage `yaml:"storage"`

	// Cache selects the block cache placed in front of Storage.
	Cache Cache `yaml:"cache,omitempty"`

	// Selection holds the defaults for selections and new blocks.
	Selection Selection `yaml:"selection,omitempty"`

	// Redis configures the redis client used by the redis block cache.
	Redis Redis `yaml:"redis,omitempty"`
}

// v0_1Configuration is a Version 0.1 Configuration struct. It is currently
// aliased to Configuration, as it is the current version.
type v0_1Configuration Configuration

// CurrentVersion is the most recent Version that can be parsed.
var CurrentVersion = MajorMinorVersion(0, 1)

// Log configures logging.
type Log struct {
	// Level is the level at which operations are logged.
	Level Loglevel `yaml:"level,omitempty"`

	// Formatter is "text" or "json".
	Formatter string `yaml:"formatter,omitempty"`

	// Fields are added to every log line.
	Fields map[string]any `yaml:"fields,omitempty"`
}

// Loglevel is the level at which operations are logged. It can be error,
// warn, info, or debug.
type Loglevel string

// UnmarshalYAML lowercases the level and checks it is known.
func (loglevel *Loglevel) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	s = strings.ToLower(s)
	switch s {
	case "error", "warn", "info", "debug":
	default:
		return fmt.Errorf("invalid loglevel %s, must be one of [error, warn, info, debug]", s)
	}

	*loglevel = Loglevel(s)
	return nil
}

// Parameters defines a key-value parameters mapping.
type Parameters map[string]any

// Storage defines the block storage backend. It holds a single key naming a
// registered backend, such as inmemory, blockstore or badger.
type Storage map[string]Parameters

// Type returns the backend name.
func (storage Storage) Type() string {
	for k := range storage {
		return k
	}
	return ""
}

// Parameters returns the parameters of the backend.
func (storage Storage) Parameters() Parameters {
	return storage[storage.Type()]
}

// UnmarshalYAML accepts a single item map, or a string naming a backend
// with no parameters.
func (storage *Storage) UnmarshalYAML(unmarshal func(any) error) error {
	var storageMap map[string]Parameters
	err := unmarshal(&storageMap)
	if err == nil {
		if len(storageMap) > 1 {
			types := make([]string, 0, len(storageMap))
			for k := range storageMap {
				types = append(types, k)
			}
			return fmt.Errorf("must provide exactly one storage type, provided: %v", types)
		}
		*storage = storageMap
		return nil
	}

	var storageType string
	if err := unmarshal(&storageType); err != nil {
		return err
	}
	*storage = Storage{storageType: Parameters{}}
	return nil
}

// MarshalYAML writes a backend without parameters as a plain string.
func (storage Storage) MarshalYAML() (any, error) {
	if len(storage.Parameters()) == 0 {
		return storage.Type(), nil
	}
	return map[string]Parameters(storage), nil
}

// Cache configures the block cache.
type Cache struct {
	// BlockDescriptor names the cache provider: inmemory or redis. Empty
	// disables caching.
	BlockDescriptor string `yaml:"blockdescriptor,omitempty"`

	// BlockDescriptorSize bounds the number of blocks of the inmemory cache.
	BlockDescriptorSize int `yaml:"blockdescriptorsize,omitempty"`
}

// Selection holds selection limits and the format of new blocks.
type Selection struct {
	// MaxPathDepth and MaxLinkDepth bound selections. Zero is unlimited.
	MaxPathDepth int `yaml:"maxpathdepth,omitempty"`
	MaxLinkDepth int `yaml:"maxlinkdepth,omitempty"`

	// Codec is the codec name new blocks are encoded with.
	Codec string `yaml:"codec,omitempty"`

	// Hash is the multihash function name new blocks are hashed with.
	Hash string `yaml:"hash,omitempty"`
}

// Redis configures the redis client.
type Redis struct {
	// Addrs are the redis endpoints. More than one selects a cluster client.
	Addrs []string `yaml:"addrs,omitempty"`

	Password string `yaml:"password,omitempty"`

	DB int `yaml:"db,omitempty"`

	// Expiration is how long cached blocks live. Zero keeps them until
	// redis evicts them.
	Expiration time.Duration `yaml:"expiration,omitempty"`
}

// Parse parses an input configuration yaml document into a Configuration.
//
// Environment variables may be used to override configuration parameters
// other than version: Configuration.Abc may be replaced by the value of
// IPLD_ABC, Configuration.Abc.Xyz by IPLD_ABC_XYZ, and so forth.
func Parse(rd io.Reader) (*Configuration, error) {
	in, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}

	p := NewParser("ipld", []VersionedParseInfo{
		{
			Version: MajorMinorVersion(0, 1),
			ParseAs: reflect.TypeOf(v0_1Configuration{}),
			ConversionFunc: func(c any) (any, error) {
				v0_1, ok := c.(*v0_1Configuration)
				if !ok {
					return nil, fmt.Errorf("expected *v0_1Configuration, received %#v", c)
				}
				if v0_1.Log.Level == "" {
					v0_1.Log.Level = "info"
				}
				if v0_1.Storage.Type() == "" {
					return nil, errors.New("no storage configuration provided")
				}
				if v0_1.Selection.Codec == "" {
					v0_1.Selection.Codec = "dag-cbor"
				}
				if v0_1.Selection.Hash == "" {
					v0_1.Selection.Hash = "sha2-256"
				}
				if v0_1.Selection.MaxPathDepth < 0 || v0_1.Selection.MaxLinkDepth < 0 {
					return nil, errors.New("selection depth limits must not be negative")
				}
				return (*Configuration)(v0_1), nil
			},
		},
	})

	config := new(Configuration)
	if err := p.Parse(in, config); err != nil {
		return nil, err
	}
	return config, nil
}
