package ipld

import (
	"github.com/distribution/ipld/address"
	"github.com/ipld/go-ipld-prime/datamodel"
)

// State tracks where a selection is in a graph: the path from the root, how
// many links were crossed to get there and which block is being read.
type State struct {
	// MaxPathDepth and MaxLinkDepth bound the path length and the number of
	// links crossed. Zero means unlimited.
	MaxPathDepth int
	MaxLinkDepth int

	path      datamodel.Path
	kinds     []Kind
	linkDepth int
	blocks    []address.Address
}

// NewState returns a state at the root of a graph.
func NewState(maxPathDepth, maxLinkDepth int) *State {
	return &State{MaxPathDepth: maxPathDepth, MaxLinkDepth: maxLinkDepth}
}

// Descend moves to the child at seg, of the given kind. Moving to a link
// child counts as crossing the link. If either depth limit would be
// exceeded the state is left unchanged and a DepthError is returned.
func (s *State) Descend(kind Kind, seg datamodel.PathSegment) error {
	if s.MaxPathDepth > 0 && len(s.kinds)+1 > s.MaxPathDepth {
		return &DepthError{Budget: PathDepth, Max: s.MaxPathDepth, Path: s.path.AppendSegment(seg)}
	}
	if kind == KindLink && s.MaxLinkDepth > 0 && s.linkDepth+1 > s.MaxLinkDepth {
		return &DepthError{Budget: LinkDepth, Max: s.MaxLinkDepth, Path: s.path.AppendSegment(seg)}
	}

	s.path = s.path.AppendSegment(seg)
	s.kinds = append(s.kinds, kind)
	if kind == KindLink {
		s.linkDepth++
	}
	return nil
}

// Ascend undoes the matching Descend. It panics if there is nothing to
// ascend from or kind differs from the kind descended into.
func (s *State) Ascend(kind Kind) {
	n := len(s.kinds)
	if n == 0 {
		panic("ipld: Ascend without Descend")
	}
	if s.kinds[n-1] != kind {
		panic("ipld: Ascend(" + kind.String() + ") after Descend(" + s.kinds[n-1].String() + ")")
	}

	s.kinds = s.kinds[:n-1]
	s.path = s.path.Truncate(n - 1)
	if kind == KindLink {
		s.linkDepth--
	}
}

// EnterBlock records that reading continues in the block at addr.
func (s *State) EnterBlock(addr address.Address) {
	s.blocks = append(s.blocks, addr)
}

// ExitBlock returns to the enclosing block.
func (s *State) ExitBlock() {
	if len(s.blocks) == 0 {
		panic("ipld: ExitBlock without EnterBlock")
	}
	s.blocks = s.blocks[:len(s.blocks)-1]
}

// Path returns the path from the root to the current node.
func (s *State) Path() datamodel.Path {
	return s.path
}

// PathDepth returns the number of segments of the current path.
func (s *State) PathDepth() int {
	return len(s.kinds)
}

// LinkDepth returns the number of links crossed to reach the current node.
func (s *State) LinkDepth() int {
	return s.linkDepth
}

// Block returns the address of the block being read, or address.Undef for a
// value that is not read from storage.
func (s *State) Block() address.Address {
	if len(s.blocks) == 0 {
		return address.Undef
	}
	return s.blocks[len(s.blocks)-1]
}
