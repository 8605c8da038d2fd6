// Package ipldprime converts values to and from go-ipld-prime nodes, so
// data can be handed to tooling built on that library.
package ipldprime

import (
	"fmt"
	"io"
	"math"

	"github.com/distribution/ipld"
	"github.com/distribution/ipld/address"
	"github.com/distribution/ipld/codec"
	"github.com/ipld/go-ipld-prime/datamodel"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/ipld/go-ipld-prime/node/basicnode"
)

// ToNode builds a basicnode holding the data model value of v. Map entries
// keep the order v writes them in.
func ToNode(v ipld.Representation) (datamodel.Node, error) {
	nb := basicnode.Prototype.Any.NewBuilder()
	w := &assembler{root: nb}
	if err := v.EncodeIPLD(w); err != nil {
		return nil, err
	}
	if !w.done || len(w.stack) > 0 {
		return nil, fmt.Errorf("ipldprime: incomplete value for %s", v.Name())
	}
	return nb.Build(), nil
}

// FromNode decodes n into a T, as if n had been read from a block.
func FromNode[T ipld.Representation](n datamodel.Node) (T, error) {
	var v T
	d, ok := any(&v).(ipld.Decodable)
	if !ok {
		return v, fmt.Errorf("ipldprime: %T does not implement Decodable", &v)
	}
	var tokens []codec.Token
	if err := walk(n, &tokens); err != nil {
		return v, err
	}
	src := &tokenSource{tokens: tokens}
	if err := d.DecodeIPLD(codec.NewReader(0, src)); err != nil {
		return v, err
	}
	if len(src.tokens) > 0 {
		return v, fmt.Errorf("ipldprime: %d trailing tokens after %s", len(src.tokens), v.Name())
	}
	return v, nil
}

type frame struct {
	ma        datamodel.MapAssembler
	la        datamodel.ListAssembler
	expectKey bool
}

// assembler is a codec.Writer feeding a go-ipld-prime NodeAssembler.
type assembler struct {
	root  datamodel.NodeAssembler
	stack []*frame
	done  bool
}

func (a *assembler) Code() uint64                { return 0 }
func (a *assembler) KeyOrder() codec.MapSortMode { return codec.SortNone }

func (a *assembler) Write(tk codec.Token) error {
	if tk.IsClose() {
		return a.close(tk)
	}

	var na datamodel.NodeAssembler
	if len(a.stack) == 0 {
		if a.done {
			return fmt.Errorf("ipldprime: unexpected %v after value", tk.Kind)
		}
		na, a.done = a.root, true
	} else {
		top := a.stack[len(a.stack)-1]
		switch {
		case top.la != nil:
			na = top.la.AssembleValue()
		case top.expectKey:
			if tk.Kind != codec.TokenString {
				return fmt.Errorf("ipldprime: map key must be a string, got %v", tk.Kind)
			}
			top.expectKey = false
			return top.ma.AssembleKey().AssignString(tk.Str)
		default:
			top.expectKey = true
			na = top.ma.AssembleValue()
		}
	}
	return a.assign(na, tk)
}

func (a *assembler) assign(na datamodel.NodeAssembler, tk codec.Token) error {
	switch tk.Kind {
	case codec.TokenNull:
		return na.AssignNull()
	case codec.TokenBool:
		return na.AssignBool(tk.Bool)
	case codec.TokenInt:
		return na.AssignInt(tk.Int)
	case codec.TokenUint:
		if tk.Uint > math.MaxInt64 {
			return fmt.Errorf("ipldprime: %d does not fit an int node", tk.Uint)
		}
		return na.AssignInt(int64(tk.Uint))
	case codec.TokenFloat:
		return na.AssignFloat(tk.Float)
	case codec.TokenString:
		return na.AssignString(tk.Str)
	case codec.TokenBytes:
		return na.AssignBytes(tk.Bytes)
	case codec.TokenLink:
		return na.AssignLink(cidlink.Link{Cid: tk.Link.Cid()})
	case codec.TokenListOpen:
		la, err := na.BeginList(sizeHint(tk.Length))
		if err != nil {
			return err
		}
		a.stack = append(a.stack, &frame{la: la})
		return nil
	case codec.TokenMapOpen:
		ma, err := na.BeginMap(sizeHint(tk.Length))
		if err != nil {
			return err
		}
		a.stack = append(a.stack, &frame{ma: ma, expectKey: true})
		return nil
	}
	return fmt.Errorf("ipldprime: unexpected %v", tk.Kind)
}

func (a *assembler) close(tk codec.Token) error {
	if len(a.stack) == 0 {
		return fmt.Errorf("ipldprime: unexpected %v", tk.Kind)
	}
	top := a.stack[len(a.stack)-1]
	a.stack = a.stack[:len(a.stack)-1]
	switch {
	case tk.Kind == codec.TokenListClose && top.la != nil:
		return top.la.Finish()
	case tk.Kind == codec.TokenMapClose && top.ma != nil && top.expectKey:
		return top.ma.Finish()
	}
	return fmt.Errorf("ipldprime: unexpected %v", tk.Kind)
}

func sizeHint(n int) int64 {
	if n < 0 {
		return 0
	}
	return int64(n)
}

// walk appends the token stream of n to tokens.
func walk(n datamodel.Node, tokens *[]codec.Token) error {
	switch n.Kind() {
	case datamodel.Kind_Null:
		*tokens = append(*tokens, codec.Null())
	case datamodel.Kind_Bool:
		b, err := n.AsBool()
		if err != nil {
			return err
		}
		*tokens = append(*tokens, codec.Bool(b))
	case datamodel.Kind_Int:
		i, err := n.AsInt()
		if err != nil {
			return err
		}
		*tokens = append(*tokens, codec.Int(i))
	case datamodel.Kind_Float:
		f, err := n.AsFloat()
		if err != nil {
			return err
		}
		*tokens = append(*tokens, codec.Float(f))
	case datamodel.Kind_String:
		s, err := n.AsString()
		if err != nil {
			return err
		}
		*tokens = append(*tokens, codec.String(s))
	case datamodel.Kind_Bytes:
		b, err := n.AsBytes()
		if err != nil {
			return err
		}
		*tokens = append(*tokens, codec.Bytes(b))
	case datamodel.Kind_Link:
		l, err := n.AsLink()
		if err != nil {
			return err
		}
		cl, ok := l.(cidlink.Link)
		if !ok {
			return fmt.Errorf("ipldprime: unsupported link type %T", l)
		}
		addr, err := address.FromCid(cl.Cid)
		if err != nil {
			return err
		}
		*tokens = append(*tokens, codec.Link(addr))
	case datamodel.Kind_List:
		*tokens = append(*tokens, codec.ListOpen(int(n.Length())))
		it := n.ListIterator()
		for !it.Done() {
			_, v, err := it.Next()
			if err != nil {
				return err
			}
			if err := walk(v, tokens); err != nil {
				return err
			}
		}
		*tokens = append(*tokens, codec.ListClose())
	case datamodel.Kind_Map:
		*tokens = append(*tokens, codec.MapOpen(int(n.Length())))
		it := n.MapIterator()
		for !it.Done() {
			k, v, err := it.Next()
			if err != nil {
				return err
			}
			ks, err := k.AsString()
			if err != nil {
				return err
			}
			*tokens = append(*tokens, codec.String(ks))
			if err := walk(v, tokens); err != nil {
				return err
			}
		}
		*tokens = append(*tokens, codec.MapClose())
	default:
		return fmt.Errorf("ipldprime: unsupported node kind %v", n.Kind())
	}
	return nil
}

type tokenSource struct {
	tokens []codec.Token
}

func (s *tokenSource) ReadToken(tk *codec.Token) error {
	if len(s.tokens) == 0 {
		return io.ErrUnexpectedEOF
	}
	*tk = s.tokens[0]
	s.tokens = s.tokens[1:]
	return nil
}
