package configuration

import (
	"os"
	"reflect"

	"gopkg.in/check.v1"
)

type localConfiguration struct {
	Version Version        `yaml:"version"`
	Log     *localLog      `yaml:"log"`
	Stores  []localStore   `yaml:"stores,omitempty"`
	Limits  map[string]int `yaml:"limits,omitempty"`
}

type localLog struct {
	Formatter string `yaml:"formatter,omitempty"`
}

type localStore struct {
	Name string `yaml:"name"`
}

var expectedLocalConfig = localConfiguration{
	Version: "0.1",
	Log: &localLog{
		Formatter: "json",
	},
	Stores: []localStore{
		{Name: "badger"},
		{Name: "car"},
		{Name: "blockstore"},
	},
}

const localConfig = `version: "0.1"
log:
  formatter: "text"
stores:
  - name: "badger"
  - name: "car"
  - name: "blockstore"`

type ParserSuite struct{}

var _ = check.Suite(new(ParserSuite))

func (suite *ParserSuite) SetUpTest(c *check.C) {
	os.Clearenv()
}

func newLocalParser() *Parser {
	return NewParser("ipld", []VersionedParseInfo{
		{
			Version: "0.1",
			ParseAs: reflect.TypeOf(localConfiguration{}),
			ConversionFunc: func(c any) (any, error) {
				return c, nil
			},
		},
	})
}

func (suite *ParserSuite) TestParserOverwriteInitializedPointer(c *check.C) {
	os.Setenv("IPLD_LOG_FORMATTER", "json")

	config := localConfiguration{}
	err := newLocalParser().Parse([]byte(localConfig), &config)
	c.Assert(err, check.IsNil)
	c.Assert(config, check.DeepEquals, expectedLocalConfig)
}

func (suite *ParserSuite) TestParserOverwriteUninitializedPointer(c *check.C) {
	os.Setenv("IPLD_LOG_FORMATTER", "json")

	config := localConfiguration{}
	err := newLocalParser().Parse([]byte("version: \"0.1\"\n"), &config)
	c.Assert(err, check.IsNil)
	c.Assert(config.Log, check.DeepEquals, &localLog{Formatter: "json"})
}

func (suite *ParserSuite) TestParserOverwriteListElements(c *check.C) {
	os.Setenv("IPLD_LOG_FORMATTER", "json")
	// override only the middle element, leave the others unchanged.
	os.Setenv("IPLD_STORES_1_NAME", "car")

	in := `version: "0.1"
log:
  formatter: "text"
stores:
  - name: "badger"
  - name: "inmemory"
  - name: "blockstore"`

	config := localConfiguration{}
	err := newLocalParser().Parse([]byte(in), &config)
	c.Assert(err, check.IsNil)
	c.Assert(config, check.DeepEquals, expectedLocalConfig)
}

func (suite *ParserSuite) TestParserOverwriteMapEntries(c *check.C) {
	os.Setenv("IPLD_LIMITS_DEPTH", "12")

	config := localConfiguration{}
	err := newLocalParser().Parse([]byte("version: \"0.1\"\nlimits:\n  depth: 1\n  links: 2\n"), &config)
	c.Assert(err, check.IsNil)
	c.Assert(config.Limits, check.DeepEquals, map[string]int{"depth": 12, "links": 2})
}

func (suite *ParserSuite) TestParserUnsupportedVersion(c *check.C) {
	config := localConfiguration{}
	err := newLocalParser().Parse([]byte("version: \"1.0\"\n"), &config)
	c.Assert(err, check.ErrorMatches, `unsupported version: "1.0"`)
}
