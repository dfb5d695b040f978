package mpt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindPath(t *testing.T) {
	trie := newTestTrie(t)
	require.NoError(t, trie.Put([]byte("do"), []byte("verb")))
	require.NoError(t, trie.Put([]byte("dog"), []byte("puppy")))

	t.Run("empty trie", func(t *testing.T) {
		empty := newTestTrie(t)
		res, err := empty.findPath(newNibbles([]byte("do")))
		require.NoError(t, err)
		require.Nil(t, res.node)
		require.Empty(t, res.stack)
		require.Equal(t, newNibbles([]byte("do")), res.remainder)
	})

	t.Run("key ending at a branch value", func(t *testing.T) {
		res, err := trie.findPath(newNibbles([]byte("do")))
		require.NoError(t, err)
		require.NotNil(t, res.node)
		require.Empty(t, res.remainder)

		branch, ok := res.node.(*BranchNode)
		require.True(t, ok)
		require.Equal(t, []byte("verb"), branch.value)

		// the stack holds every node descended through, the terminal
		// node included
		require.Equal(t, res.node, res.stack[len(res.stack)-1])
		_, ok = res.stack[0].(*ExtensionNode)
		require.True(t, ok)
	})

	t.Run("key ending at a leaf", func(t *testing.T) {
		res, err := trie.findPath(newNibbles([]byte("dog")))
		require.NoError(t, err)
		require.NotNil(t, res.node)
		require.Empty(t, res.remainder)

		leaf, ok := res.node.(*LeafNode)
		require.True(t, ok)
		require.Equal(t, []byte("puppy"), leaf.value)
	})

	t.Run("mismatch keeps the remainder and the anchor", func(t *testing.T) {
		res, err := trie.findPath(newNibbles([]byte("horse")))
		require.NoError(t, err)
		require.Nil(t, res.node)
		require.NotEmpty(t, res.remainder)
		require.NotEmpty(t, res.stack)
	})

	t.Run("dangling branch slot", func(t *testing.T) {
		res, err := trie.findPath(newNibbles([]byte("dot")))
		require.NoError(t, err)
		require.Nil(t, res.node)
		// "do" is consumed down to the branch; the unmatched suffix of
		// "dot" remains
		require.NotEmpty(t, res.remainder)
		_, ok := res.stack[len(res.stack)-1].(*BranchNode)
		require.True(t, ok)
	})
}
