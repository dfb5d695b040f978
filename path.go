package mpt

// pathResult is the outcome of walking a key's nibble path from the
// root: the terminal node when the full key matched, the unmatched key
// suffix, and every node actually descended through, mismatch anchor
// included.
type pathResult struct {
	node      Node
	remainder []Nibble
	stack     []Node
}

// findPath walks to the deepest node along key's nibble path.
func (t *Trie) findPath(key []Nibble) (*pathResult, error) {
	res := &pathResult{remainder: key}

	root := t.rootRef()
	if root.Empty() {
		return res, nil
	}

	_, _, err := t.store.walkRef(root, func(node Node, _ []Nibble) Decision {
		res.stack = append(res.stack, node)

		switch n := node.(type) {
		case *BranchNode:
			if len(res.remainder) == 0 {
				res.node = n
				return ReturnWith(n)
			}
			b := res.remainder[0]
			if n.children[int(b)].Empty() {
				return ReturnWith(nil)
			}
			res.remainder = res.remainder[1:]
			return OnlyChild(b)

		case *LeafNode:
			if nibblesEqual(n.path, res.remainder) {
				res.remainder = res.remainder[len(n.path):]
				res.node = n
				return ReturnWith(n)
			}
			return ReturnWith(nil)

		case *ExtensionNode:
			matched := prefixMatchedLen(n.path, res.remainder)
			if matched < len(n.path) {
				return ReturnWith(nil)
			}
			res.remainder = res.remainder[matched:]
			return Next()
		}

		return Stop()
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}
