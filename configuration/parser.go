package configuration

import (
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

// Version is a major/minor version pair of the form Major.Minor. Major
// version upgrades indicate structure or type changes; minor version
// upgrades are strictly additive.
type Version string

// MajorMinorVersion constructs a Version from its Major and Minor components.
func MajorMinorVersion(major, minor uint) Version {
	return Version(fmt.Sprintf("%d.%d", major, minor))
}

func (version Version) parts() (uint, uint, error) {
	majorPart, minorPart, ok := strings.Cut(string(version), ".")
	if !ok {
		return 0, 0, fmt.Errorf("invalid version %q, want <major>.<minor>", string(version))
	}
	major, err := strconv.ParseUint(majorPart, 10, 0)
	if err != nil {
		return 0, 0, err
	}
	minor, err := strconv.ParseUint(minorPart, 10, 0)
	if err != nil {
		return 0, 0, err
	}
	return uint(major), uint(minor), nil
}

// Major returns the major version portion of a Version.
func (version Version) Major() uint {
	major, _, _ := version.parts()
	return major
}

// Minor returns the minor version portion of a Version.
func (version Version) Minor() uint {
	_, minor, _ := version.parts()
	return minor
}

// UnmarshalYAML accepts strings of the form X.Y where X and Y are unsigned
// integers.
func (version *Version) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v := Version(s)
	if _, _, err := v.parts(); err != nil {
		return err
	}
	*version = v
	return nil
}

// VersionedParseInfo defines how a specific version of a configuration should
// be parsed into the current version.
type VersionedParseInfo struct {
	// Version is the version which this parsing information relates to.
	Version Version

	// ParseAs is the type a configuration of this version is parsed into.
	ParseAs reflect.Type

	// ConversionFunc converts the parsed configuration, a pointer to a
	// ParseAs, into the current configuration version.
	ConversionFunc func(any) (any, error)
}

// Parser parses a configuration file and the environment into a single
// versioned structure.
type Parser struct {
	prefix  string
	mapping map[Version]VersionedParseInfo
	env     map[string]string
}

// NewParser returns a *Parser with the given environment prefix which handles
// versioned configurations which match the given parseInfos.
func NewParser(prefix string, parseInfos []VersionedParseInfo) *Parser {
	p := Parser{prefix: prefix, mapping: make(map[Version]VersionedParseInfo), env: make(map[string]string)}

	for _, parseInfo := range parseInfos {
		p.mapping[parseInfo.Version] = parseInfo
	}

	for _, env := range os.Environ() {
		k, v, _ := strings.Cut(env, "=")
		p.env[k] = v
	}

	return &p
}

// Parse reads in and the environment and writes the resulting configuration
// into v.
//
// Environment variables override every field other than version:
// v.Abc is replaced by the value of PREFIX_ABC, v.Abc.Xyz by PREFIX_ABC_XYZ,
// and the second element of a list v.Abc by PREFIX_ABC_1. Values are
// parsed as YAML.
func (p *Parser) Parse(in []byte, v any) error {
	var versionedStruct struct {
		Version Version
	}

	if err := yaml.Unmarshal(in, &versionedStruct); err != nil {
		return err
	}

	parseInfo, ok := p.mapping[versionedStruct.Version]
	if !ok {
		return fmt.Errorf("unsupported version: %q", versionedStruct.Version)
	}

	parseAs := reflect.New(parseInfo.ParseAs)
	if err := yaml.Unmarshal(in, parseAs.Interface()); err != nil {
		return err
	}

	if err := p.overwriteFields(parseAs, p.prefix); err != nil {
		return err
	}

	c, err := parseInfo.ConversionFunc(parseAs.Interface())
	if err != nil {
		return err
	}
	reflect.ValueOf(v).Elem().Set(reflect.Indirect(reflect.ValueOf(c)))
	return nil
}

// hasPrefix reports whether any environment variable overrides a field
// below prefix.
func (p *Parser) hasPrefix(prefix string) bool {
	prefix = strings.ToUpper(prefix) + "_"
	for k := range p.env {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

func (p *Parser) overwriteFields(v reflect.Value, prefix string) error {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			if !v.CanSet() || !p.hasPrefix(prefix) {
				return nil
			}
			v.Set(reflect.New(v.Type().Elem()))
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			sf := v.Type().Field(i)
			if !sf.IsExported() {
				continue
			}
			fieldPrefix := strings.ToUpper(prefix + "_" + sf.Name)
			if e, ok := p.env[fieldPrefix]; ok {
				fieldVal := reflect.New(sf.Type)
				if err := yaml.Unmarshal([]byte(e), fieldVal.Interface()); err != nil {
					return fmt.Errorf("%s: %w", fieldPrefix, err)
				}
				v.Field(i).Set(reflect.Indirect(fieldVal))
			}
			if err := p.overwriteFields(v.Field(i), fieldPrefix); err != nil {
				return err
			}
		}
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			elemPrefix := fmt.Sprintf("%s_%d", strings.ToUpper(prefix), i)
			if e, ok := p.env[elemPrefix]; ok {
				elem := reflect.New(v.Type().Elem())
				if err := yaml.Unmarshal([]byte(e), elem.Interface()); err != nil {
					return fmt.Errorf("%s: %w", elemPrefix, err)
				}
				v.Index(i).Set(elem.Elem())
			}
			if err := p.overwriteFields(v.Index(i), elemPrefix); err != nil {
				return err
			}
		}
	case reflect.Map:
		return p.overwriteMap(v, prefix)
	}
	return nil
}

func (p *Parser) overwriteMap(m reflect.Value, prefix string) error {
	if m.IsNil() || m.Type().Key().Kind() != reflect.String {
		return nil
	}

	switch m.Type().Elem().Kind() {
	case reflect.Map:
		for _, k := range m.MapKeys() {
			if err := p.overwriteMap(m.MapIndex(k), strings.ToUpper(fmt.Sprintf("%s_%s", prefix, k))); err != nil {
				return err
			}
		}
	case reflect.Struct:
		for _, k := range m.MapKeys() {
			// map elements are not addressable; overwrite a copy.
			elem := reflect.New(m.Type().Elem()).Elem()
			elem.Set(m.MapIndex(k))
			if err := p.overwriteFields(elem, strings.ToUpper(fmt.Sprintf("%s_%s", prefix, k))); err != nil {
				return err
			}
			m.SetMapIndex(k, elem)
		}
		fallthrough
	default:
		envMapRegexp, err := regexp.Compile(fmt.Sprintf("^%s_([A-Z0-9]+)$", strings.ToUpper(prefix)))
		if err != nil {
			return err
		}
		for key, val := range p.env {
			submatches := envMapRegexp.FindStringSubmatch(key)
			if submatches == nil {
				continue
			}
			mapValue := reflect.New(m.Type().Elem())
			if err := yaml.Unmarshal([]byte(val), mapValue.Interface()); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			m.SetMapIndex(reflect.ValueOf(strings.ToLower(submatches[1])).Convert(m.Type().Key()), reflect.Indirect(mapValue))
		}
	}
	return nil
}
