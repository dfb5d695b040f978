package mpt

import "fmt"

type walkAction uint8

const (
	actionNext walkAction = iota
	actionOnly
	actionReturn
	actionStop
)

// Decision tells the walker what to do after visiting a node. It is
// the only way a visitor influences the walk.
type Decision struct {
	action walkAction
	only   Nibble
	result interface{}
}

// Next descends into all of the node's children. Visitors must not
// rely on the order siblings are visited in.
func Next() Decision {
	return Decision{action: actionNext}
}

// OnlyChild descends into exactly one branch slot.
func OnlyChild(b Nibble) Decision {
	return Decision{action: actionOnly, only: b}
}

// ReturnWith aborts the walk and delivers v as its result. Visits
// already in flight for siblings become no-ops.
func ReturnWith(v interface{}) Decision {
	return Decision{action: actionReturn, result: v}
}

// Stop prunes this subtree but continues with siblings.
func Stop() Decision {
	return Decision{action: actionStop}
}

// Visitor inspects a node together with the accumulated nibble path
// from the root to the node and decides how the walk proceeds.
type Visitor func(node Node, path []Nibble) Decision

type walkState struct {
	done   bool
	result interface{}
}

// walkRef drives a depth-first walk over the trie rooted at ref,
// resolving references through the store as it descends. It returns
// the value delivered by ReturnWith, if any.
func (s *NodeStore) walkRef(ref Ref, visitor Visitor) (interface{}, bool, error) {
	st := &walkState{}
	if err := s.walkNode(ref, nil, visitor, st); err != nil {
		return nil, false, err
	}
	return st.result, st.done, nil
}

func (s *NodeStore) walkNode(ref Ref, path []Nibble, visitor Visitor, st *walkState) error {
	if st.done || ref.Empty() {
		return nil
	}

	node, err := s.GetNode(ref)
	if err != nil {
		return err
	}

	d := visitor(node, path)
	if st.done {
		return nil
	}

	switch d.action {
	case actionReturn:
		st.done = true
		st.result = d.result

	case actionStop:

	case actionOnly:
		branch, ok := node.(*BranchNode)
		if !ok {
			return fmt.Errorf("mpt: OnlyChild on a non-branch node")
		}
		child := branch.children[int(d.only)]
		childPath := append(append([]Nibble(nil), path...), d.only)
		return s.walkNode(child, childPath, visitor, st)

	case actionNext:
		switch n := node.(type) {
		case *ExtensionNode:
			childPath := append(append([]Nibble(nil), path...), n.path...)
			return s.walkNode(n.child, childPath, visitor, st)
		case *BranchNode:
			for i := range n.children {
				if st.done {
					return nil
				}
				if n.children[i].Empty() {
					continue
				}
				childPath := append(append([]Nibble(nil), path...), Nibble(i))
				if err := s.walkNode(n.children[i], childPath, visitor, st); err != nil {
					return err
				}
			}
		case *LeafNode:
			// no children
		}
	}

	return nil
}
