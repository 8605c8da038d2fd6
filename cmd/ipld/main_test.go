package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/distribution/ipld"
	"github.com/distribution/ipld/codec/dagcbor"
	"github.com/distribution/ipld/configuration"
	"github.com/distribution/ipld/selector"
	"github.com/distribution/ipld/storage/cache"
	"github.com/distribution/ipld/storage/inmemory"
	"github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `{"name":"root","items":[1,2]}`

func parseConfig(t *testing.T, in string) *configuration.Configuration {
	t.Helper()
	config, err := configuration.Parse(strings.NewReader(in))
	require.NoError(t, err)
	return config
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	store := inmemory.New()

	addr, err := putValue(ctx, store, strings.NewReader(doc), dagcbor.Code, multihash.SHA2_256)
	require.NoError(t, err)
	assert.EqualValues(t, dagcbor.Code, addr.Codec())

	var out bytes.Buffer
	require.NoError(t, getValue(ctx, store, addr, &out))
	assert.Equal(t, `{"items":[1,2],"name":"root"}`+"\n", out.String())
}

func TestSelectTo(t *testing.T) {
	ctx := context.Background()
	store := inmemory.New()
	addr, err := putValue(ctx, store, strings.NewReader(doc), dagcbor.Code, multihash.SHA2_256)
	require.NoError(t, err)

	p := ipld.Params{
		Root:     addr,
		Selector: selector.MustParseJSON(`{"f":{"f>":{"name":{".":{}}}}}`),
	}

	var out bytes.Buffer
	require.NoError(t, selectTo(ctx, store, p, "dag", false, &out))
	assert.Equal(t, "/name\t\"root\"\n", out.String())

	out.Reset()
	require.NoError(t, selectTo(ctx, store, p, "node", true, &out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "/name\tstring\t"), lines[0])
	assert.Contains(t, lines[0], addr.String())

	out.Reset()
	require.NoError(t, selectTo(ctx, store, p, "node", false, &out))
	lines = strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "/\tmap\t"), lines[0])

	assert.Error(t, selectTo(ctx, store, p, "tree", false, &out))
}

func TestNewEnvironment(t *testing.T) {
	config := parseConfig(t, "version: 0.1\nstorage: inmemory\nselection:\n  codec: dag-json\ncache:\n  blockdescriptor: inmemory\n")

	e, err := newEnvironment(context.Background(), config)
	require.NoError(t, err)
	defer e.close()

	assert.EqualValues(t, 0x0129, e.code)
	assert.EqualValues(t, multihash.SHA2_256, e.mhType)
	_, ok := e.store.(*cache.Store)
	assert.True(t, ok, "store should be cached")

	addr, err := putValue(e.ctx, e.store, strings.NewReader(doc), e.code, e.mhType)
	require.NoError(t, err)
	var out bytes.Buffer
	require.NoError(t, getValue(e.ctx, e.store, addr, &out))
	assert.Contains(t, out.String(), `"name":"root"`)
}

func TestNewEnvironmentErrors(t *testing.T) {
	for _, in := range []string{
		"version: 0.1\nstorage: nowhere\n",
		"version: 0.1\nstorage: inmemory\nselection:\n  codec: dag-pb\n",
		"version: 0.1\nstorage: inmemory\nselection:\n  hash: nohash\n",
		"version: 0.1\nstorage: inmemory\ncache:\n  blockdescriptor: disk\n",
		"version: 0.1\nstorage: inmemory\nlog:\n  formatter: xml\n",
	} {
		_, err := newEnvironment(context.Background(), parseConfig(t, in))
		assert.Error(t, err, in)
	}
}

func TestConfigureLoggingFields(t *testing.T) {
	config := parseConfig(t, "version: 0.1\nstorage: inmemory\nlog:\n  formatter: json\n  fields:\n    service: ipld\n")
	ctx, err := configureLogging(context.Background(), config)
	require.NoError(t, err)
	assert.Equal(t, "ipld", ctx.Value("service"))
}

func TestResolveConfiguration(t *testing.T) {
	_, err := resolveConfiguration(nil)
	assert.Error(t, err)

	_, err = resolveConfiguration([]string{"/does/not/exist.yml"})
	assert.Error(t, err)
}
