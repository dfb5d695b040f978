package mpt

import "go.uber.org/zap"

// Entry is one key/value pair yielded by a read stream.
type Entry struct {
	Key   []byte
	Value []byte
}

// Each walks every value-bearing node and calls fn with the
// reassembled byte key and the value, in traversal order (not sorted).
// Returning false from fn stops the walk.
func (t *Trie) Each(fn func(key []byte, value []byte) bool) error {
	root := t.rootRef()
	if root.Empty() {
		return nil
	}

	_, _, err := t.store.walkRef(root, func(node Node, path []Nibble) Decision {
		switch n := node.(type) {
		case *LeafNode:
			full := append(append([]Nibble(nil), path...), n.path...)
			if !fn(nibblesAsBytes(full), n.value) {
				return ReturnWith(nil)
			}
		case *BranchNode:
			if n.hasValue() {
				full := append([]Nibble(nil), path...)
				if !fn(nibblesAsBytes(full), n.value) {
					return ReturnWith(nil)
				}
			}
		}
		return Next()
	})
	return err
}

// ReadStream yields all key/value pairs over a channel. The channel is
// closed when the walk finishes; a store failure mid-walk ends the
// stream early and is logged.
func (t *Trie) ReadStream() <-chan Entry {
	ch := make(chan Entry)
	go func() {
		defer close(ch)
		err := t.Each(func(key []byte, value []byte) bool {
			ch <- Entry{Key: key, Value: value}
			return true
		})
		if err != nil {
			t.log.Warn("read stream aborted", zap.Error(err))
		}
	}()
	return ch
}
