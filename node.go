package mpt

import (
	"encoding/hex"

	"github.com/ethereum/go-ethereum/rlp"
)

var (
	nilNodeRaw = []byte{}

	// EmptyRoot is the root hash of an empty trie: the Keccak256 hash
	// of the RLP encoding of the empty byte string.
	EmptyRoot, _ = hex.DecodeString("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")
)

// HashLength is the length of a node hash and of the trie root.
const HashLength = 32

// Slots is the raw, non-RLP-encoded representation of a node: a slice
// whose elements are byte strings or nested Slots.
type Slots = []interface{}

// Node is one of the three trie node variants: leaf, extension, branch.
type Node interface {
	// asSlots returns the raw slots representation of this node.
	asSlots() Slots

	// serialized returns the RLP encoding of the slots representation.
	serialized() []byte

	// hash returns the Keccak256 hash of the serialization.
	hash() []byte
}

// Ref is a reference to a node as it appears inside a parent: either
// the 32-byte hash of the node's serialization, or, for nodes that
// encode to fewer than 32 bytes, the node's own slots spliced in place.
// The zero Ref is the empty reference.
type Ref struct {
	hash []byte
	raw  Slots
}

func hashRef(h []byte) Ref {
	return Ref{hash: h}
}

func inlineRef(s Slots) Ref {
	return Ref{raw: s}
}

// nodeRef returns the reference a parent embeds for node: the raw slots
// when the serialization is shorter than 32 bytes, the hash otherwise.
// It has to be ">= 32", rather than "> 32", so that when deserialized,
// a hash and an inline node can be distinguished by shape.
func nodeRef(node Node) Ref {
	if len(node.serialized()) >= HashLength {
		return hashRef(node.hash())
	}
	return inlineRef(node.asSlots())
}

// Empty reports whether r references nothing.
func (r Ref) Empty() bool {
	return r.hash == nil && r.raw == nil
}

// Inline reports whether r carries the node itself rather than a hash.
func (r Ref) Inline() bool {
	return r.raw != nil
}

// Hash returns the referenced hash, nil for empty or inline refs.
func (r Ref) Hash() []byte {
	return r.hash
}

// slot returns the value embedded into a parent's slots for this ref.
func (r Ref) slot() interface{} {
	switch {
	case r.Empty():
		return nilNodeRaw
	case r.Inline():
		return r.raw
	default:
		return r.hash
	}
}

///////////////////////////
// Branch node definitions
///////////////////////////

// BranchNode is a 16-way fan-out indexed by the next nibble of the key,
// with an optional terminal value for keys ending at this depth.
type BranchNode struct {
	children [16]Ref
	value    []byte
}

func newBranchNode() *BranchNode {
	return &BranchNode{}
}

func (b *BranchNode) asSlots() Slots {
	slots := make(Slots, 17)
	for i := 0; i < 16; i++ {
		slots[i] = b.children[i].slot()
	}
	slots[16] = b.value
	return slots
}

func (b *BranchNode) serialized() []byte {
	return serializeNode(b)
}

func (b *BranchNode) hash() []byte {
	return Keccak256(b.serialized())
}

func (b *BranchNode) setChild(nibble Nibble, ref Ref) {
	b.children[int(nibble)] = ref
}

func (b *BranchNode) hasValue() bool {
	return b.value != nil
}

///////////////////////////////
// Extension node definitions
///////////////////////////////

// ExtensionNode is a path compression step: a run of shared nibbles
// pointing at exactly one downstream node. Its path is never empty.
type ExtensionNode struct {
	path  []Nibble
	child Ref
}

func newExtensionNode(path []Nibble, child Ref) *ExtensionNode {
	return &ExtensionNode{
		path:  path,
		child: child,
	}
}

func (e *ExtensionNode) asSlots() Slots {
	return Slots{
		nibblesAsBytes(appendPrefixToNibbles(e.path, false)),
		e.child.slot(),
	}
}

func (e *ExtensionNode) serialized() []byte {
	return serializeNode(e)
}

func (e *ExtensionNode) hash() []byte {
	return Keccak256(e.serialized())
}

//////////////////////////
// Leaf node definitions
//////////////////////////

// LeafNode terminates a path. Its path holds the nibbles remaining
// between its parent edge and the full key; it may be empty.
type LeafNode struct {
	path  []Nibble
	value []byte
}

func newLeafNode(path []Nibble, value []byte) *LeafNode {
	return &LeafNode{
		path:  path,
		value: value,
	}
}

func (l *LeafNode) asSlots() Slots {
	return Slots{
		nibblesAsBytes(appendPrefixToNibbles(l.path, true)),
		l.value,
	}
}

func (l *LeafNode) serialized() []byte {
	return serializeNode(l)
}

func (l *LeafNode) hash() []byte {
	return Keccak256(l.serialized())
}

func serializeNode(node Node) []byte {
	var raw interface{}

	if node == nil {
		raw = nilNodeRaw
	} else {
		raw = node.asSlots()
	}

	enc, err := rlp.EncodeToBytes(raw)
	if err != nil {
		// SAFETY: a node built from valid nibbles and byte values
		// always encodes; failing here is a fatal error.
		panic(err)
	}

	return enc
}
