package mpt

import (
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/trieforge/mpt/storage"
)

// Trie is a persistent, authenticated key/value map over a NodeStore.
// Every mutation commits a batch of new nodes and moves the root hash;
// stored nodes are never modified in place, so any root that was ever
// committed stays readable for as long as its nodes are retained.
//
// Put, Delete and Batch serialize against each other through a binary
// semaphore. Reads do not take it: they see the root committed by the
// most recently completed writer.
type Trie struct {
	store      *NodeStore
	root       []byte
	checkpoint bool
	writeSem   *semaphore.Weighted
	log        *zap.Logger
}

// Option configures a Trie.
type Option func(*Trie)

// WithRoot starts the trie at a previously committed root hash.
// Passing a root of the wrong length is a programmer error.
func WithRoot(root []byte) Option {
	return func(t *Trie) {
		if err := t.SetRoot(root); err != nil {
			panic(err)
		}
	}
}

// WithLogger sets the logger; the default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(t *Trie) {
		t.log = log
	}
}

// WithCheckpoint sets the checkpoint flag. While it is set, deletion
// of a stored node records a del operation in the commit batch; a
// checkpointing overlay sets it during its staged-write phase. Off by
// default.
func WithCheckpoint(enabled bool) Option {
	return func(t *Trie) {
		t.checkpoint = enabled
	}
}

// New returns a trie over store, empty unless WithRoot is given.
func New(store *NodeStore, opts ...Option) *Trie {
	t := &Trie{
		store:    store,
		root:     EmptyRoot,
		writeSem: semaphore.NewWeighted(1),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Root returns the current root hash.
func (t *Trie) Root() []byte {
	return append([]byte(nil), t.root...)
}

// SetRoot points the trie at root. A nil root resets to the empty trie.
func (t *Trie) SetRoot(root []byte) error {
	if root == nil {
		t.root = EmptyRoot
		return nil
	}
	if len(root) != HashLength {
		return fmt.Errorf("%w: got %d bytes", ErrInvalidRoot, len(root))
	}
	t.root = append([]byte(nil), root...)
	return nil
}

// SetCheckpoint toggles the checkpoint flag, see WithCheckpoint.
func (t *Trie) SetCheckpoint(enabled bool) {
	t.checkpoint = enabled
}

// Copy returns a new facade sharing the backends and starting at the
// current root. The write lock is per-facade, not per-backend.
func (t *Trie) Copy() *Trie {
	return &Trie{
		store:      t.store,
		root:       append([]byte(nil), t.root...),
		checkpoint: t.checkpoint,
		writeSem:   semaphore.NewWeighted(1),
		log:        t.log,
	}
}

func (t *Trie) rootRef() Ref {
	if bytes.Equal(t.root, EmptyRoot) {
		return Ref{}
	}
	return hashRef(t.root)
}

// Get returns the value stored under key, or nil when the key is
// absent.
func (t *Trie) Get(key []byte) ([]byte, error) {
	res, err := t.findPath(newNibbles(key))
	if err != nil {
		return nil, err
	}
	if res.node == nil || len(res.remainder) != 0 {
		return nil, nil
	}
	switch n := res.node.(type) {
	case *LeafNode:
		return n.value, nil
	case *BranchNode:
		return n.value, nil
	}
	return nil, nil
}

// Put stores value under key. An empty value deletes the key.
func (t *Trie) Put(key []byte, value []byte) error {
	if len(value) == 0 {
		return t.Delete(key)
	}
	if err := t.writeSem.Acquire(context.Background(), 1); err != nil {
		return err
	}
	defer t.writeSem.Release(1)
	return t.put(key, value)
}

// Delete removes key. Deleting an absent key succeeds silently.
func (t *Trie) Delete(key []byte) error {
	if err := t.writeSem.Acquire(context.Background(), 1); err != nil {
		return err
	}
	defer t.writeSem.Release(1)
	return t.del(key)
}

// Batch applies a list of put/del operations sequentially, each one
// under the write lock.
func (t *Trie) Batch(ops []storage.BatchOp) error {
	for _, op := range ops {
		if op.Del {
			if err := t.Delete(op.Key); err != nil {
				return err
			}
		} else {
			if err := t.Put(op.Key, op.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetRaw reads a raw store key, bypassing the trie.
func (t *Trie) GetRaw(key []byte) ([]byte, error) {
	return t.store.GetRaw(key)
}

// PutRaw writes a raw store key, bypassing the trie.
func (t *Trie) PutRaw(key []byte, value []byte) error {
	return t.store.PutRaw(key, value)
}

// CheckRoot reports whether the store holds a node under root.
func (t *Trie) CheckRoot(root []byte) (bool, error) {
	data, err := t.store.GetRaw(root)
	if err != nil {
		return false, err
	}
	return data != nil, nil
}

////////////////////
// Insert
////////////////////

func (t *Trie) put(key []byte, value []byte) error {
	nibbles := newNibbles(key)

	if bytes.Equal(t.root, EmptyRoot) {
		leaf := newLeafNode(nibbles, value)
		var ops []storage.BatchOp
		ref := t.formatNode(leaf, true, false, &ops)
		if err := t.store.Batch(ops); err != nil {
			return err
		}
		t.setRoot(ref)
		return nil
	}

	res, err := t.findPath(nibbles)
	if err != nil {
		return err
	}
	return t.updateNode(nibbles, value, res)
}

// updateNode rewrites the tail of the path-finder stack for an insert
// and re-hashes bottom-up.
func (t *Trie) updateNode(key []Nibble, value []byte, res *pathResult) error {
	var ops []storage.BatchOp

	stack := res.stack
	remainder := res.remainder
	last := stack[len(stack)-1]
	stack = stack[:len(stack)-1]

	switch {
	case res.node != nil:
		// the key is already present; overwrite its terminal value
		switch n := last.(type) {
		case *BranchNode:
			n.value = value
		case *LeafNode:
			n.value = value
		}
		stack = append(stack, last)

	default:
		if branch, ok := last.(*BranchNode); ok {
			// the walk stopped at an empty branch slot
			stack = append(stack, branch)
			if len(remainder) != 0 {
				stack = append(stack, newLeafNode(remainder[1:], value))
			} else {
				branch.value = value
			}
			break
		}
		stack = t.splitNode(last, remainder, value, stack, &ops)
	}

	return t.saveStack(key, stack, ops)
}

// splitNode replaces a leaf or extension whose key diverges from the
// remainder with an (optional) extension over the shared nibbles and a
// branch carrying both suffixes.
func (t *Trie) splitNode(last Node, remainder []Nibble, value []byte, stack []Node, ops *[]storage.BatchOp) []Node {
	var lastPath []Nibble
	switch n := last.(type) {
	case *LeafNode:
		lastPath = n.path
	case *ExtensionNode:
		lastPath = n.path
	}

	matched := prefixMatchedLen(lastPath, remainder)
	if matched > 0 {
		stack = append(stack, newExtensionNode(remainder[:matched], Ref{}))
	}
	branch := newBranchNode()
	stack = append(stack, branch)

	if matched < len(lastPath) {
		b := lastPath[matched]
		rest := lastPath[matched+1:]
		switch n := last.(type) {
		case *LeafNode:
			shortened := newLeafNode(rest, n.value)
			branch.setChild(b, t.formatNode(shortened, false, false, ops))
		case *ExtensionNode:
			if len(rest) != 0 {
				shortened := newExtensionNode(rest, n.child)
				branch.setChild(b, t.formatNode(shortened, false, false, ops))
			} else {
				// a one-nibble extension leaves no suffix; the branch
				// absorbs its child reference
				branch.setChild(b, n.child)
			}
		}
	} else {
		// the old leaf's path is a strict prefix of the new key
		branch.value = last.(*LeafNode).value
	}

	if len(remainder) != matched {
		stack = append(stack, newLeafNode(remainder[matched+1:], value))
	} else {
		branch.value = value
	}

	return stack
}

////////////////////
// Delete
////////////////////

func (t *Trie) del(key []byte) error {
	nibbles := newNibbles(key)

	res, err := t.findPath(nibbles)
	if err != nil {
		return err
	}
	if res.node == nil {
		return nil
	}
	if branch, ok := res.node.(*BranchNode); ok && !branch.hasValue() {
		return nil
	}

	return t.deleteNode(nibbles, res.stack)
}

// deleteNode removes the terminal found at the end of stack and
// restores canonical form, collapsing any branch left with a single
// occupant.
func (t *Trie) deleteNode(key []Nibble, stack []Node) error {
	var ops []storage.BatchOp

	last := stack[len(stack)-1]
	stack = stack[:len(stack)-1]
	var parent Node
	if len(stack) > 0 {
		parent = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
	}

	if leaf, ok := last.(*LeafNode); ok {
		if parent == nil {
			// the trie's only entry
			t.formatNode(leaf, true, true, &ops)
			if err := t.store.Batch(ops); err != nil {
				return err
			}
			t.root = append([]byte(nil), EmptyRoot...)
			return nil
		}

		branch, ok := parent.(*BranchNode)
		if !ok {
			return fmt.Errorf("%w: leaf parent is not a branch", ErrDecode)
		}
		key = key[:len(key)-len(leaf.path)]
		t.formatNode(leaf, false, true, &ops)
		b := key[len(key)-1]
		key = key[:len(key)-1]
		branch.setChild(b, Ref{})

		last = branch
		parent = nil
		if len(stack) > 0 {
			parent = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
		}
	} else {
		last.(*BranchNode).value = nil
	}

	branch := last.(*BranchNode)
	count, lone := 0, -1
	for i := range branch.children {
		if !branch.children[i].Empty() {
			count++
			lone = i
		}
	}
	occupied := count
	if branch.hasValue() {
		occupied++
	}

	if occupied >= 2 {
		if parent != nil {
			stack = append(stack, parent)
		}
		stack = append(stack, branch)
		return t.saveStack(key, stack, ops)
	}

	if count == 0 {
		// only the terminal value remains; the branch becomes a
		// zero-key leaf merged with an extension parent
		leaf := newLeafNode(nil, branch.value)
		if ext, ok := parent.(*ExtensionNode); ok {
			leaf.path = append([]Nibble(nil), ext.path...)
		} else if parent != nil {
			stack = append(stack, parent)
		}
		stack = append(stack, leaf)
		return t.saveStack(key, stack, ops)
	}

	// exactly one occupied edge and no value: eliminate the branch by
	// combining keys with the parent and the lone child
	b := Nibble(lone)
	child, err := t.store.GetNode(branch.children[lone])
	if err != nil {
		return err
	}

	switch c := child.(type) {
	case *BranchNode:
		key = append(key, b)
		if ext, ok := parent.(*ExtensionNode); ok {
			ext.path = append(ext.path, b)
			stack = append(stack, ext, c)
		} else {
			if parent != nil {
				stack = append(stack, parent)
			}
			stack = append(stack, newExtensionNode([]Nibble{b}, Ref{}), c)
		}

	case *LeafNode:
		key, stack = mergeShortNode(&c.path, b, parent, key, stack)
		stack = append(stack, c)

	case *ExtensionNode:
		key, stack = mergeShortNode(&c.path, b, parent, key, stack)
		stack = append(stack, c)
	}

	return t.saveStack(key, stack, ops)
}

// mergeShortNode unshifts the surviving branch nibble onto a leaf or
// extension child and, when the parent is an extension, folds the
// parent's key in as well (the parent is dropped). The running key
// grows by the nibbles the child now consumes below the old branch.
func mergeShortNode(childPath *[]Nibble, b Nibble, parent Node, key []Nibble, stack []Node) ([]Nibble, []Node) {
	joined := append([]Nibble{b}, *childPath...)
	key = append(key, joined...)

	if ext, ok := parent.(*ExtensionNode); ok {
		*childPath = append(append([]Nibble(nil), ext.path...), joined...)
		return key, stack
	}

	*childPath = joined
	if parent != nil {
		stack = append(stack, parent)
	}
	return key, stack
}

////////////////////
// Bottom-up save
////////////////////

// saveStack re-hashes the stack from the deepest node up, linking each
// node to the reference of the node below it, and commits the produced
// op list as one batch. key must hold exactly the nibbles consumed
// along the stack.
func (t *Trie) saveStack(key []Nibble, stack []Node, ops []storage.BatchOp) error {
	var last Ref

	for i := len(stack) - 1; i >= 0; i-- {
		switch n := stack[i].(type) {
		case *LeafNode:
			key = key[:len(key)-len(n.path)]
		case *ExtensionNode:
			key = key[:len(key)-len(n.path)]
			if !last.Empty() {
				n.child = last
			}
		case *BranchNode:
			if !last.Empty() {
				b := key[len(key)-1]
				key = key[:len(key)-1]
				n.setChild(b, last)
			}
		}
		last = t.formatNode(stack[i], i == 0, false, &ops)
	}

	if err := t.store.Batch(ops); err != nil {
		return err
	}
	t.setRoot(last)
	return nil
}

// formatNode produces the reference under which node will be known to
// its parent and appends the matching store operation. Nodes at the
// top of the stack are always stored by hash, so the root is a hash
// even when the whole trie encodes small. With remove set, the node is
// being dropped: under checkpoint mode its hash is scheduled for
// deletion, otherwise nothing is recorded.
func (t *Trie) formatNode(node Node, topLevel bool, remove bool, ops *[]storage.BatchOp) Ref {
	enc := node.serialized()
	if len(enc) >= HashLength || topLevel {
		h := node.hash()
		if remove {
			if t.checkpoint {
				*ops = append(*ops, storage.BatchOp{Del: true, Key: h})
			}
		} else {
			*ops = append(*ops, storage.BatchOp{Key: h, Value: enc})
		}
		return hashRef(h)
	}
	if remove {
		return Ref{}
	}
	return inlineRef(node.asSlots())
}

func (t *Trie) setRoot(ref Ref) {
	old := t.root
	t.root = append([]byte(nil), ref.hash...)
	t.log.Debug("root updated",
		zap.String("old", fmt.Sprintf("%x", old)),
		zap.String("new", fmt.Sprintf("%x", t.root)))
}
