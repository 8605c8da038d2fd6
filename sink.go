package ipld

import (
	"github.com/distribution/ipld/address"
	"github.com/ipld/go-ipld-prime/datamodel"
)

// Selection describes where a sink call happens.
type Selection struct {
	// Path is the path from the root to the node.
	Path datamodel.Path

	// Label is the label of the matcher that selected the node.
	Label string

	// Block is the address of the block the node was read from.
	Block address.Address

	// Matched is false for nodes a SelectNode sink is told about only
	// because the traversal passed through them.
	Matched bool
}

// Node describes a node without its value.
type Node struct {
	Kind Kind
	Type string

	// Link is the target of a link node.
	Link address.Address

	// Length is the number of entries of a list or map, or -1 when it is
	// not known without reading them.
	Length int
}

// Sink receives the results of a selection. It is one of SelectNode,
// SelectDag, SelectRef or Patch.
type Sink interface {
	sink()
}

// SelectNode receives a description of every node the traversal passes
// through, or only of matched nodes if OnlyMatched is set. Values are never
// materialized for it.
type SelectNode struct {
	Fn          func(Selection, Node) error
	OnlyMatched bool
}

// SelectDag receives a copy of every matched value. Use As to get the typed
// value back.
type SelectDag struct {
	Fn func(Selection, Representation) error
}

// SelectRef receives a pointer to every matched value of an in-memory tree.
// It is only supported by SelectValue.
type SelectRef struct {
	Fn func(Selection, Representation) error
}

// Patch receives a pointer to every matched value of an in-memory tree and
// reports whether it changed the value. Links enclosing a changed value are
// marked dirty. It is only supported by SelectValue.
type Patch struct {
	Fn func(Selection, Representation) (bool, error)
}

func (SelectNode) sink() {}
func (SelectDag) sink()  {}
func (SelectRef) sink()  {}
func (Patch) sink()      {}
