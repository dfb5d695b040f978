package mpt

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/trie"
)

// Proof holds the serialized nodes along a key's path, addressable by
// their hash the way a proof verifier reads them.
type Proof interface {
	// Put inserts the given value into the key-value data store.
	Put(key []byte, value []byte) error

	// Delete removes the key from the key-value data store.
	Delete(key []byte) error

	// Has retrieves if a key is present in the key-value data store.
	Has(key []byte) (bool, error)

	// Get retrieves the given key if it's present in the key-value data store.
	Get(key []byte) ([]byte, error)

	// Serialize returns the serialized proof
	Serialize() [][]byte
}

// ProofDB is the map-backed Proof implementation.
type ProofDB struct {
	kv map[string][]byte
}

func NewProofDB() *ProofDB {
	return &ProofDB{
		kv: make(map[string][]byte),
	}
}

func (w *ProofDB) Put(key []byte, value []byte) error {
	w.kv[fmt.Sprintf("%x", key)] = value
	return nil
}

func (w *ProofDB) Delete(key []byte) error {
	delete(w.kv, fmt.Sprintf("%x", key))
	return nil
}

func (w *ProofDB) Has(key []byte) (bool, error) {
	_, ok := w.kv[fmt.Sprintf("%x", key)]
	return ok, nil
}

func (w *ProofDB) Get(key []byte) ([]byte, error) {
	val, ok := w.kv[fmt.Sprintf("%x", key)]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return val, nil
}

func (w *ProofDB) Serialize() [][]byte {
	nodes := make([][]byte, 0, len(w.kv))
	for _, value := range w.kv {
		nodes = append(nodes, value)
	}
	return nodes
}

// Prove returns the merkle proof for key under the current root: the
// serialized nodes along its path. ErrNotFound means the key is not in
// the trie.
func (t *Trie) Prove(key []byte) (Proof, error) {
	root := t.rootRef()
	if root.Empty() {
		return nil, ErrNotFound
	}

	proof := NewProofDB()
	remainder := newNibbles(key)

	node, err := t.store.GetNode(root)
	if err != nil {
		return nil, err
	}

	for {
		if err := proof.Put(node.hash(), node.serialized()); err != nil {
			return nil, err
		}

		var next Ref
		switch n := node.(type) {
		case *LeafNode:
			if nibblesEqual(n.path, remainder) {
				return proof, nil
			}
			return nil, ErrNotFound

		case *BranchNode:
			if len(remainder) == 0 {
				if n.hasValue() {
					return proof, nil
				}
				return nil, ErrNotFound
			}
			b := remainder[0]
			if n.children[int(b)].Empty() {
				return nil, ErrNotFound
			}
			remainder = remainder[1:]
			next = n.children[int(b)]

		case *ExtensionNode:
			matched := prefixMatchedLen(n.path, remainder)
			if matched < len(n.path) {
				return nil, ErrNotFound
			}
			remainder = remainder[matched:]
			next = n.child
		}

		node, err = t.store.GetNode(next)
		if err != nil {
			return nil, err
		}
	}
}

// VerifyProof verifies the proof for the given key under the given
// root hash using go-ethereum's VerifyProof implementation. It returns
// the value for the key if the proof is valid, otherwise an error.
func VerifyProof(rootHash []byte, key []byte, proof Proof) (value []byte, err error) {
	return trie.VerifyProof(common.BytesToHash(rootHash), key, proof)
}
