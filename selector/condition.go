package selector

import (
	"fmt"

	"github.com/distribution/ipld/codec"
)

// Condition is a predicate over a node, used by ExploreConditional,
// Matcher.OnlyIf and ExploreRecursive.StopAt. Conditions are plain data;
// they are evaluated by the traversal engine.
type Condition interface {
	// Key returns the wire key of the condition kind.
	Key() string

	encode(w codec.Writer) error
}

// Condition wire keys.
const (
	KeyHasField = "hasField"
	KeyHasValue = "="
	KeyHasKind  = "%"
	KeyIsLink   = "/"
	KeyAnd      = "and"
	KeyOr       = "or"
)

// HasField holds for maps that have an entry named Name.
type HasField struct {
	Name string
}

func (HasField) Key() string { return KeyHasField }

// HasValue holds for scalar nodes equal to Value. Value is nil, a bool, an
// int64, a float64, a string or a []byte.
type HasValue struct {
	Value any
}

func (HasValue) Key() string { return KeyHasValue }

// HasKind holds for nodes of the named data model kind, such as "map" or
// "link".
type HasKind struct {
	Kind string
}

func (HasKind) Key() string { return KeyHasKind }

// IsLink holds for link nodes.
type IsLink struct{}

func (IsLink) Key() string { return KeyIsLink }

// And holds when all of its conditions hold.
type And struct {
	Conditions []Condition
}

func (And) Key() string { return KeyAnd }

// Or holds when any of its conditions holds.
type Or struct {
	Conditions []Condition
}

func (Or) Key() string { return KeyOr }

func encodeCondition(w codec.Writer, c Condition) error {
	if err := w.Write(codec.MapOpen(1)); err != nil {
		return err
	}
	if err := w.Write(codec.String(c.Key())); err != nil {
		return err
	}
	if err := c.encode(w); err != nil {
		return err
	}
	return w.Write(codec.MapClose())
}

func (c HasField) encode(w codec.Writer) error {
	return w.Write(codec.String(c.Name))
}

func (c HasValue) encode(w codec.Writer) error {
	switch v := c.Value.(type) {
	case nil:
		return w.Write(codec.Null())
	case bool:
		return w.Write(codec.Bool(v))
	case int64:
		return w.Write(codec.Int(v))
	case int:
		return w.Write(codec.Int(int64(v)))
	case float64:
		return w.Write(codec.Float(v))
	case string:
		return w.Write(codec.String(v))
	case []byte:
		return w.Write(codec.Bytes(v))
	}
	return fmt.Errorf("selector: unsupported condition value %T", c.Value)
}

func (c HasKind) encode(w codec.Writer) error {
	return w.Write(codec.String(c.Kind))
}

func (c IsLink) encode(w codec.Writer) error {
	if err := w.Write(codec.MapOpen(0)); err != nil {
		return err
	}
	return w.Write(codec.MapClose())
}

func (c And) encode(w codec.Writer) error {
	return encodeConditionList(w, c.Conditions)
}

func (c Or) encode(w codec.Writer) error {
	return encodeConditionList(w, c.Conditions)
}

func encodeConditionList(w codec.Writer, cs []Condition) error {
	if err := w.Write(codec.ListOpen(len(cs))); err != nil {
		return err
	}
	for _, c := range cs {
		if err := encodeCondition(w, c); err != nil {
			return err
		}
	}
	return w.Write(codec.ListClose())
}

func decodeCondition(r codec.Reader) (Condition, error) {
	if _, err := codec.Expect(r, codec.TokenMapOpen); err != nil {
		return nil, err
	}
	key, err := codec.Expect(r, codec.TokenString)
	if err != nil {
		return nil, err
	}

	var c Condition
	switch key.Str {
	case KeyHasField:
		tk, err := codec.Expect(r, codec.TokenString)
		if err != nil {
			return nil, err
		}
		c = HasField{Name: tk.Str}
	case KeyHasValue:
		tk, err := r.Next()
		if err != nil {
			return nil, err
		}
		switch tk.Kind {
		case codec.TokenNull:
			c = HasValue{}
		case codec.TokenBool:
			c = HasValue{Value: tk.Bool}
		case codec.TokenInt:
			c = HasValue{Value: tk.Int}
		case codec.TokenFloat:
			c = HasValue{Value: tk.Float}
		case codec.TokenString:
			c = HasValue{Value: tk.Str}
		case codec.TokenBytes:
			c = HasValue{Value: tk.Bytes}
		default:
			return nil, invalid(CodeExploreConditional, "condition value must be a scalar, got %v", tk.Kind)
		}
	case KeyHasKind:
		tk, err := codec.Expect(r, codec.TokenString)
		if err != nil {
			return nil, err
		}
		c = HasKind{Kind: tk.Str}
	case KeyIsLink:
		if err := r.Skip(); err != nil {
			return nil, err
		}
		c = IsLink{}
	case KeyAnd, KeyOr:
		cs, err := decodeConditionList(r)
		if err != nil {
			return nil, err
		}
		if key.Str == KeyAnd {
			c = And{Conditions: cs}
		} else {
			c = Or{Conditions: cs}
		}
	default:
		return nil, invalid(CodeExploreConditional, "unknown condition %q", key.Str)
	}

	if _, err := codec.Expect(r, codec.TokenMapClose); err != nil {
		return nil, invalid(CodeExploreConditional, "condition must be a single entry map")
	}
	return c, nil
}

func decodeConditionList(r codec.Reader) ([]Condition, error) {
	if _, err := codec.Expect(r, codec.TokenListOpen); err != nil {
		return nil, err
	}
	var cs []Condition
	for {
		tk, err := r.Peek()
		if err != nil {
			return nil, err
		}
		if tk.Kind == codec.TokenListClose {
			_, err := r.Next()
			return cs, err
		}
		c, err := decodeCondition(r)
		if err != nil {
			return nil, err
		}
		cs = append(cs, c)
	}
}
