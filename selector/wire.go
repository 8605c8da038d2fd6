package selector

import (
	"bytes"
	"errors"
	"sort"
	"strings"

	"github.com/distribution/ipld/codec"
	"github.com/distribution/ipld/codec/dagjson"
)

// Decode reads a selector from r and validates it.
func Decode(r codec.Reader) (Selector, error) {
	s, err := decode(r)
	if err != nil {
		return nil, err
	}
	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Encode writes s to w. The traversal position of a derived ExploreRecursive
// is not part of the wire form; its whole sequence is written.
func Encode(w codec.Writer, s Selector) error {
	if s == nil {
		return &InvalidError{Code: '?', Reason: "missing selector"}
	}
	if err := w.Write(codec.MapOpen(1)); err != nil {
		return err
	}
	if err := w.Write(codec.String(string(s.Code()))); err != nil {
		return err
	}
	if err := s.encode(w); err != nil {
		return err
	}
	return w.Write(codec.MapClose())
}

// ParseJSON parses a selector from its DAG-JSON form.
func ParseJSON(s string) (Selector, error) {
	return Decode(dagjson.Codec{}.NewReader(strings.NewReader(s)))
}

// MustParseJSON is like ParseJSON but panics on error.
func MustParseJSON(s string) Selector {
	sel, err := ParseJSON(s)
	if err != nil {
		panic(err)
	}
	return sel
}

// JSON returns the DAG-JSON form of s.
func JSON(s Selector) (string, error) {
	var buf bytes.Buffer
	if err := Encode(dagjson.Codec{}.NewWriter(&buf), s); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type entry struct {
	key   string
	write func(w codec.Writer) error
}

// writeMap writes entries in the key order required by w.
func writeMap(w codec.Writer, entries ...entry) error {
	keys := make([]string, len(entries))
	byKey := make(map[string]entry, len(entries))
	for i, e := range entries {
		keys[i] = e.key
		byKey[e.key] = e
	}
	codec.SortKeys(w.KeyOrder(), keys)

	if err := w.Write(codec.MapOpen(len(entries))); err != nil {
		return err
	}
	for _, k := range keys {
		if err := w.Write(codec.String(k)); err != nil {
			return err
		}
		if err := byKey[k].write(w); err != nil {
			return err
		}
	}
	return w.Write(codec.MapClose())
}

func selectorEntry(key string, s Selector) entry {
	return entry{key: key, write: func(w codec.Writer) error { return Encode(w, s) }}
}

func intEntry(key string, i int64) entry {
	return entry{key: key, write: func(w codec.Writer) error { return w.Write(codec.Int(i)) }}
}

func (s *Matcher) encode(w codec.Writer) error {
	var entries []entry
	if s.Label != "" {
		entries = append(entries, entry{key: "label", write: func(w codec.Writer) error {
			return w.Write(codec.String(s.Label))
		}})
	}
	if s.Subset != nil {
		entries = append(entries, entry{key: "subset", write: func(w codec.Writer) error {
			return writeMap(w, intEntry("[", s.Subset.From), intEntry("]", s.Subset.To))
		}})
	}
	if s.OnlyIf != nil {
		entries = append(entries, entry{key: "onlyIf", write: func(w codec.Writer) error {
			return encodeCondition(w, s.OnlyIf)
		}})
	}
	return writeMap(w, entries...)
}

func (s *ExploreAll) encode(w codec.Writer) error {
	return writeMap(w, selectorEntry(">", s.Next))
}

func (s *ExploreFields) encode(w codec.Writer) error {
	return writeMap(w, entry{key: "f>", write: func(w codec.Writer) error {
		var fields []entry
		for name, next := range s.Fields {
			fields = append(fields, selectorEntry(name, next))
		}
		sort.Slice(fields, func(i, j int) bool { return fields[i].key < fields[j].key })
		return writeMap(w, fields...)
	}})
}

func (s *ExploreIndex) encode(w codec.Writer) error {
	return writeMap(w, intEntry("i", s.Index), selectorEntry(">", s.Next))
}

func (s *ExploreRange) encode(w codec.Writer) error {
	return writeMap(w, intEntry("^", s.Start), intEntry("$", s.End), selectorEntry(">", s.Next))
}

func (s *ExploreRecursive) encode(w codec.Writer) error {
	limit := entry{key: "l", write: func(w codec.Writer) error {
		if s.Limit.None {
			return writeMap(w, entry{key: "none", write: func(w codec.Writer) error { return writeMap(w) }})
		}
		return writeMap(w, intEntry("depth", s.Limit.Depth))
	}}
	entries := []entry{limit, selectorEntry(":>", s.Sequence)}
	if s.StopAt != nil {
		entries = append(entries, entry{key: "!", write: func(w codec.Writer) error {
			return encodeCondition(w, s.StopAt)
		}})
	}
	return writeMap(w, entries...)
}

func (s *ExploreRecursiveEdge) encode(w codec.Writer) error {
	return writeMap(w)
}

func (s *ExploreUnion) encode(w codec.Writer) error {
	if err := w.Write(codec.ListOpen(len(s.Members))); err != nil {
		return err
	}
	for _, m := range s.Members {
		if err := Encode(w, m); err != nil {
			return err
		}
	}
	return w.Write(codec.ListClose())
}

func (s *ExploreConditional) encode(w codec.Writer) error {
	return writeMap(w,
		entry{key: "c", write: func(w codec.Writer) error { return encodeCondition(w, s.Condition) }},
		selectorEntry(">", s.Next),
	)
}

func (s *ExploreInterpretAs) encode(w codec.Writer) error {
	return writeMap(w,
		entry{key: "as", write: func(w codec.Writer) error { return w.Write(codec.String(s.As)) }},
		selectorEntry(">", s.Next),
	)
}

func decode(r codec.Reader) (Selector, error) {
	if _, err := codec.Expect(r, codec.TokenMapOpen); err != nil {
		return nil, wireError('?', err)
	}
	key, err := codec.Expect(r, codec.TokenString)
	if err != nil {
		return nil, wireError('?', err)
	}
	if len(key.Str) != 1 {
		return nil, invalid('?', "unknown selector key %q", key.Str)
	}

	code := key.Str[0]
	var s Selector
	switch code {
	case CodeMatcher:
		s, err = decodeMatcher(r)
	case CodeExploreAll:
		sel := &ExploreAll{}
		err = readMap(r, code, map[string]func() error{
			">": readSelector(r, &sel.Next),
		}, ">")
		s = sel
	case CodeExploreFields:
		sel := &ExploreFields{Fields: map[string]Selector{}}
		err = readMap(r, code, map[string]func() error{
			"f>": func() error {
				return readAnyMap(r, code, func(name string) error {
					next, err := decode(r)
					if err != nil {
						return err
					}
					sel.Fields[name] = next
					return nil
				})
			},
		}, "f>")
		s = sel
	case CodeExploreIndex:
		sel := &ExploreIndex{}
		err = readMap(r, code, map[string]func() error{
			"i": readInt(r, code, &sel.Index),
			">": readSelector(r, &sel.Next),
		}, "i", ">")
		s = sel
	case CodeExploreRange:
		sel := &ExploreRange{}
		err = readMap(r, code, map[string]func() error{
			"^": readInt(r, code, &sel.Start),
			"$": readInt(r, code, &sel.End),
			">": readSelector(r, &sel.Next),
		}, "^", "$", ">")
		s = sel
	case CodeExploreRecursive:
		s, err = decodeRecursive(r)
	case CodeExploreRecursiveEdge:
		err = readMap(r, code, nil)
		s = &ExploreRecursiveEdge{}
	case CodeExploreUnion:
		s, err = decodeUnion(r)
	case CodeExploreConditional:
		sel := &ExploreConditional{}
		err = readMap(r, code, map[string]func() error{
			"c": func() (err error) {
				sel.Condition, err = decodeCondition(r)
				return err
			},
			">": readSelector(r, &sel.Next),
		}, "c", ">")
		s = sel
	case CodeExploreInterpretAs:
		sel := &ExploreInterpretAs{}
		err = readMap(r, code, map[string]func() error{
			"as": func() error {
				tk, err := codec.Expect(r, codec.TokenString)
				sel.As = tk.Str
				return err
			},
			">": readSelector(r, &sel.Next),
		}, "as", ">")
		s = sel
	default:
		return nil, invalid('?', "unknown selector key %q", key.Str)
	}
	if err != nil {
		return nil, wireError(code, err)
	}

	if _, err := codec.Expect(r, codec.TokenMapClose); err != nil {
		return nil, invalid(code, "selector must be a single entry map")
	}
	return s, nil
}

func decodeMatcher(r codec.Reader) (Selector, error) {
	m := &Matcher{}
	err := readMap(r, CodeMatcher, map[string]func() error{
		"label": func() error {
			tk, err := codec.Expect(r, codec.TokenString)
			m.Label = tk.Str
			return err
		},
		"subset": func() error {
			m.Subset = &Slice{}
			return readMap(r, CodeMatcher, map[string]func() error{
				"[": readInt(r, CodeMatcher, &m.Subset.From),
				"]": readInt(r, CodeMatcher, &m.Subset.To),
			}, "[", "]")
		},
		"onlyIf": func() (err error) {
			m.OnlyIf, err = decodeCondition(r)
			return err
		},
	})
	return m, err
}

func decodeRecursive(r codec.Reader) (Selector, error) {
	sel := &ExploreRecursive{}
	err := readMap(r, CodeExploreRecursive, map[string]func() error{
		"l": func() error {
			return readMap(r, CodeExploreRecursive, map[string]func() error{
				"none": func() error {
					sel.Limit = LimitNone()
					return r.Skip()
				},
				"depth": readInt(r, CodeExploreRecursive, &sel.Limit.Depth),
			})
		},
		":>": readSelector(r, &sel.Sequence),
		"!": func() (err error) {
			sel.StopAt, err = decodeCondition(r)
			return err
		},
	}, "l", ":>")
	return sel, err
}

func decodeUnion(r codec.Reader) (Selector, error) {
	if _, err := codec.Expect(r, codec.TokenListOpen); err != nil {
		return nil, err
	}
	u := &ExploreUnion{}
	for {
		tk, err := r.Peek()
		if err != nil {
			return nil, err
		}
		if tk.Kind == codec.TokenListClose {
			_, err := r.Next()
			return u, err
		}
		m, err := decode(r)
		if err != nil {
			return nil, err
		}
		u.Members = append(u.Members, m)
	}
}

// readMap reads a map whose values are consumed by fields. Unknown keys are
// skipped; every key in required must be present.
func readMap(r codec.Reader, code byte, fields map[string]func() error, required ...string) error {
	seen := make(map[string]bool, len(fields))
	err := readAnyMap(r, code, func(key string) error {
		fn, ok := fields[key]
		if !ok {
			return r.Skip()
		}
		seen[key] = true
		return fn()
	})
	if err != nil {
		return err
	}
	for _, k := range required {
		if !seen[k] {
			return invalid(code, "missing %q", k)
		}
	}
	return nil
}

func readAnyMap(r codec.Reader, code byte, fn func(key string) error) error {
	if _, err := codec.Expect(r, codec.TokenMapOpen); err != nil {
		return err
	}
	for {
		tk, err := r.Next()
		if err != nil {
			return err
		}
		switch tk.Kind {
		case codec.TokenMapClose:
			return nil
		case codec.TokenString:
			if err := fn(tk.Str); err != nil {
				return err
			}
		default:
			return invalid(code, "map key must be a string, got %v", tk.Kind)
		}
	}
}

func readSelector(r codec.Reader, dst *Selector) func() error {
	return func() (err error) {
		*dst, err = decode(r)
		return err
	}
}

func readInt(r codec.Reader, code byte, dst *int64) func() error {
	return func() error {
		tk, err := r.Next()
		if err != nil {
			return err
		}
		if tk.Kind != codec.TokenInt {
			return invalid(code, "expected an integer, got %v", tk.Kind)
		}
		*dst = tk.Int
		return nil
	}
}

func wireError(code byte, err error) error {
	var ie *InvalidError
	if errors.As(err, &ie) {
		return err
	}
	return &InvalidError{Code: code, Reason: "malformed", Err: err}
}

// discard is a Writer that drops every token. It is used to check that a
// value is encodable.
type discard struct{}

func (discard) Code() uint64 { return 0 }

func (discard) KeyOrder() codec.MapSortMode { return codec.SortNone }

func (discard) Write(codec.Token) error { return nil }
