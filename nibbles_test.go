package mpt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsNibble(t *testing.T) {
	for i := 0; i < 20; i++ {
		expected := i < 16
		require.Equal(t, expected, isNibble(byte(i)), i)
	}
}

func TestNewNibbles(t *testing.T) {
	require.Equal(t, []Nibble{0, 1, 0, 2}, newNibbles([]byte{1, 2}))
	require.Equal(t, []Nibble{6, 4, 6, 15}, newNibbles([]byte("do")))
	require.Empty(t, newNibbles(nil))
}

func TestAppendPrefixToNibbles(t *testing.T) {
	cases := []struct {
		ns         []byte
		isLeafNode bool
		expected   []Nibble
	}{
		{[]byte{1}, false, []Nibble{1, 1}},
		{[]byte{1, 2}, false, []Nibble{0, 0, 1, 2}},
		{[]byte{1}, true, []Nibble{3, 1}},
		{[]byte{1, 2}, true, []Nibble{2, 0, 1, 2}},
	}

	for _, c := range cases {
		ns, err := fromNibbleBytes(c.ns)
		require.NoError(t, err)
		require.Equal(t, c.expected, appendPrefixToNibbles(ns, c.isLeafNode))
	}
}

func TestRemovePrefixFromNibbles(t *testing.T) {
	t.Run("round trips", func(t *testing.T) {
		for _, isLeaf := range []bool{false, true} {
			for _, ns := range [][]Nibble{{1}, {1, 2}, {5, 0, 6}, {}} {
				stripped, gotLeaf, err := removePrefixFromNibbles(appendPrefixToNibbles(ns, isLeaf))
				require.NoError(t, err)
				require.Equal(t, isLeaf, gotLeaf)
				require.Equal(t, len(ns), len(stripped))
				require.True(t, nibblesEqual(ns, stripped))
			}
		}
	})

	t.Run("rejects invalid prefix", func(t *testing.T) {
		_, _, err := removePrefixFromNibbles([]Nibble{7, 1})
		require.Error(t, err)

		_, _, err = removePrefixFromNibbles(nil)
		require.Error(t, err)
	})
}

func TestNibblesAsBytes(t *testing.T) {
	require.Equal(t, []byte{0x35, 0x06}, nibblesAsBytes([]Nibble{3, 5, 0, 6}))
	require.Equal(t, []byte("do"), nibblesAsBytes(newNibbles([]byte("do"))))
}

func TestPrefixMatchedLen(t *testing.T) {
	require.Equal(t, 3, prefixMatchedLen([]Nibble{0, 1, 2, 3}, []Nibble{0, 1, 2}))
	require.Equal(t, 4, prefixMatchedLen([]Nibble{0, 1, 2, 3}, []Nibble{0, 1, 2, 3}))
	require.Equal(t, 4, prefixMatchedLen([]Nibble{0, 1, 2, 3}, []Nibble{0, 1, 2, 3, 4}))
	require.Equal(t, 0, prefixMatchedLen([]Nibble{1}, []Nibble{2}))
}

func TestNibblesEqual(t *testing.T) {
	require.True(t, nibblesEqual([]Nibble{1, 2}, []Nibble{1, 2}))
	require.True(t, nibblesEqual(nil, []Nibble{}))
	require.False(t, nibblesEqual([]Nibble{1, 2}, []Nibble{1}))
	require.False(t, nibblesEqual([]Nibble{1, 2}, []Nibble{1, 3}))
}
