package ipld

import (
	"github.com/distribution/ipld/codec"
	"github.com/ipld/go-ipld-prime/datamodel"
)

// MapKey is a string type usable as a map key.
type MapKey interface {
	~string
	Representation
}

// MapEntry is a single key and value of a Map.
type MapEntry[K MapKey, V Representation] struct {
	Key   K
	Value V
}

// Map is a map from K to V that keeps its entries in insertion order. When
// encoded, entries are written in the key order of the codec. The zero value
// is an empty map.
type Map[K MapKey, V Representation] struct {
	entries []MapEntry[K, V]
	index   map[K]int
}

// MapOf returns a map holding entries, in order. A later entry replaces an
// earlier one with the same key.
func MapOf[K MapKey, V Representation](entries ...MapEntry[K, V]) Map[K, V] {
	var m Map[K, V]
	for _, e := range entries {
		m.Put(e.Key, e.Value)
	}
	return m
}

// Len returns the number of entries.
func (m Map[K, V]) Len() int {
	return len(m.entries)
}

// Get returns the value stored under k.
func (m Map[K, V]) Get(k K) (V, bool) {
	if i, ok := m.lookup(k); ok {
		return m.entries[i].Value, true
	}
	var zero V
	return zero, false
}

// Put sets the value of k. A new key is appended after the existing ones.
func (m *Map[K, V]) Put(k K, v V) {
	if i, ok := m.lookup(k); ok {
		m.entries[i].Value = v
		return
	}
	if m.index == nil {
		m.index = make(map[K]int)
	}
	m.index[k] = len(m.entries)
	m.entries = append(m.entries, MapEntry[K, V]{Key: k, Value: v})
}

// Delete removes k and reports whether it was present.
func (m *Map[K, V]) Delete(k K) bool {
	i, ok := m.lookup(k)
	if !ok {
		return false
	}
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	delete(m.index, k)
	for j := i; j < len(m.entries); j++ {
		m.index[m.entries[j].Key] = j
	}
	return true
}

// Keys returns the keys in insertion order.
func (m Map[K, V]) Keys() []K {
	keys := make([]K, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns the entries in insertion order. The slice must not be
// modified.
func (m Map[K, V]) Entries() []MapEntry[K, V] {
	return m.entries
}

func (m Map[K, V]) lookup(k K) (int, bool) {
	if m.index == nil {
		return 0, false
	}
	i, ok := m.index[k]
	return i, ok
}

func (Map[K, V]) Name() string {
	var (
		k K
		v V
	)
	return "Map<" + k.Name() + ", " + v.Name() + ">"
}

func (m Map[K, V]) Schema() string {
	var (
		k K
		v V
	)
	return "type " + m.Name() + " {" + k.Name() + ":" + v.Name() + "}"
}

func (Map[K, V]) Kind() Kind             { return KindMap }
func (Map[K, V]) SchemaKind() SchemaKind { return SchemaKindMap }
func (Map[K, V]) Strategy() Strategy     { return StrategyBasic }

func (Map[K, V]) HasLinks() bool {
	var v V
	return v.HasLinks()
}

func (m Map[K, V]) EncodeIPLD(w codec.Writer) error {
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = string(e.Key)
	}
	codec.SortKeys(w.KeyOrder(), keys)

	if err := w.Write(codec.MapOpen(len(keys))); err != nil {
		return err
	}
	for _, k := range keys {
		i, _ := m.lookup(K(k))
		if err := w.Write(codec.String(k)); err != nil {
			return err
		}
		if err := m.entries[i].Value.EncodeIPLD(w); err != nil {
			return err
		}
	}
	return w.Write(codec.MapClose())
}

func (m *Map[K, V]) DecodeIPLD(r codec.Reader) error {
	if _, err := codec.Expect(r, codec.TokenMapOpen); err != nil {
		return wrapDecode(m.Name(), err)
	}
	var decoded Map[K, V]
	for {
		tk, err := r.Next()
		if err != nil {
			return err
		}
		switch tk.Kind {
		case codec.TokenMapClose:
			*m = decoded
			return nil
		case codec.TokenString:
		default:
			return &DecodeError{Type: m.Name(), Reason: "map key must be a string, got " + tk.Kind.String()}
		}
		key := K(tk.Str)
		if _, dup := decoded.lookup(key); dup {
			return decodeErrorf(m.Name(), "duplicate key %q", tk.Str)
		}

		var v V
		d, err := decodableOf(&v)
		if err != nil {
			return err
		}
		if err := d.DecodeIPLD(r); err != nil {
			return err
		}
		decoded.Put(key, v)
	}
}

func (m *Map[K, V]) SelectEncoded(s Seed, r codec.Reader) error { return s.selectEncoded(m, m, r) }
func (m *Map[K, V]) SelectValue(s Seed) error                   { return s.selectValue(m, m) }

func (m *Map[K, V]) length() int { return len(m.entries) }

func (m *Map[K, V]) has(name string) bool {
	_, ok := m.lookup(K(name))
	return ok
}

func (m *Map[K, V]) newChild() (Selectable, error) {
	var v V
	return selectableOf(&v)
}

func (m *Map[K, V]) each(fn func(seg datamodel.PathSegment, child Selectable) error) error {
	for i := range m.entries {
		child, err := selectableOf(&m.entries[i].Value)
		if err != nil {
			return err
		}
		if err := fn(datamodel.PathSegmentOfString(string(m.entries[i].Key)), child); err != nil {
			return err
		}
	}
	return nil
}

func (m *Map[K, V]) flush(f *flusher) (bool, error) {
	changed := false
	for i := range m.entries {
		c, err := f.flushValue(&m.entries[i].Value)
		if err != nil {
			return false, err
		}
		changed = changed || c
	}
	return changed, nil
}
