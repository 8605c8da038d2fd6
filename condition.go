package ipld

import (
	"bytes"
	"math"
	"math/big"

	"github.com/distribution/ipld/selector"
)

// fielder is implemented by maps.
type fielder interface {
	has(name string) bool
}

// eval reports whether v satisfies c.
func (s Seed) eval(c selector.Condition, v Selectable) bool {
	switch cond := c.(type) {
	case selector.HasField:
		f, ok := v.(fielder)
		return ok && f.has(cond.Name)
	case selector.HasValue:
		sc, ok := v.(scalar)
		return ok && equalScalar(sc.scalarValue(), cond.Value)
	case selector.HasKind:
		return v.Kind().String() == cond.Kind
	case selector.IsLink:
		return v.Kind() == KindLink
	case selector.And:
		for _, sub := range cond.Conditions {
			if !s.eval(sub, v) {
				return false
			}
		}
		return true
	case selector.Or:
		for _, sub := range cond.Conditions {
			if s.eval(sub, v) {
				return true
			}
		}
	}
	return false
}

func normalizeScalar(x any) any {
	switch n := x.(type) {
	case int:
		return int64(n)
	case uint64:
		if n <= math.MaxInt64 {
			return int64(n)
		}
	case float32:
		return float64(n)
	}
	return x
}

func equalScalar(a, b any) bool {
	a, b = normalizeScalar(a), normalizeScalar(b)
	switch av := a.(type) {
	case nil:
		return b == nil
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	case int64:
		if bf, ok := b.(float64); ok {
			return float64(av) == bf
		}
	case float64:
		if bi, ok := b.(int64); ok {
			return av == float64(bi)
		}
	case *big.Int:
		bi, ok := b.(*big.Int)
		return ok && av.Cmp(bi) == 0
	}
	if _, ok := b.([]byte); ok {
		return false
	}
	return a == b
}
