package mpt

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// decodeNode parses the RLP serialization of a node.
func decodeNode(data []byte) (Node, error) {
	var slots Slots
	if err := rlp.DecodeBytes(data, &slots); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nodeFromSlots(slots)
}

// nodeFromSlots rebuilds a node from its raw slots. Child references
// stay references; they are resolved lazily through the node store.
func nodeFromSlots(slots Slots) (Node, error) {
	switch len(slots) {
	case 17:
		branch := newBranchNode()
		for i := 0; i < 16; i++ {
			ref, err := refFromSlot(slots[i])
			if err != nil {
				return nil, fmt.Errorf("%w: branch slot %d: %v", ErrDecode, i, err)
			}
			branch.children[i] = ref
		}
		value, ok := slots[16].([]byte)
		if !ok {
			return nil, fmt.Errorf("%w: branch value is not a byte string", ErrDecode)
		}
		if len(value) > 0 {
			branch.value = value
		}
		return branch, nil

	case 2:
		encPath, ok := slots[0].([]byte)
		if !ok {
			return nil, fmt.Errorf("%w: node path is not a byte string", ErrDecode)
		}
		path, isLeaf, err := removePrefixFromNibbles(newNibbles(encPath))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}

		if isLeaf {
			value, ok := slots[1].([]byte)
			if !ok {
				return nil, fmt.Errorf("%w: leaf value is not a byte string", ErrDecode)
			}
			return newLeafNode(path, value), nil
		}

		if len(path) == 0 {
			return nil, fmt.Errorf("%w: extension with empty path", ErrDecode)
		}
		child, err := refFromSlot(slots[1])
		if err != nil {
			return nil, fmt.Errorf("%w: extension child: %v", ErrDecode, err)
		}
		if child.Empty() {
			return nil, fmt.Errorf("%w: extension with empty child", ErrDecode)
		}
		return newExtensionNode(path, child), nil
	}

	return nil, fmt.Errorf("%w: %d slots", ErrDecode, len(slots))
}

// refFromSlot recognizes a child reference inside a decoded parent: a
// list shape is an inline node, a 32-byte string is a hash, the empty
// string is no child.
func refFromSlot(slot interface{}) (Ref, error) {
	switch v := slot.(type) {
	case []byte:
		switch len(v) {
		case 0:
			return Ref{}, nil
		case HashLength:
			return hashRef(v), nil
		}
		return Ref{}, fmt.Errorf("reference of %d bytes", len(v))
	case Slots:
		if len(v) == 0 {
			return Ref{}, nil
		}
		return inlineRef(v), nil
	}
	return Ref{}, fmt.Errorf("reference is neither a byte string nor a list")
}
