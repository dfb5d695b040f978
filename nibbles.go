package mpt

import (
	"fmt"
)

// Nibble is a 4-bit value. Every trie path is a sequence of nibbles,
// high nibble of each key byte first.
type Nibble byte

func isNibble(b byte) bool {
	return b < 16
}

func fromNibbleByte(b byte) (Nibble, error) {
	if !isNibble(b) {
		return 0, fmt.Errorf("non-nibble byte: %v", b)
	}
	return Nibble(b), nil
}

// fromNibbleBytes converts a slice of bytes that are already nibble
// values (each in 0..15) into a nibble slice.
func fromNibbleBytes(bs []byte) ([]Nibble, error) {
	ns := make([]Nibble, 0, len(bs))
	for _, b := range bs {
		n, err := fromNibbleByte(b)
		if err != nil {
			return nil, fmt.Errorf("contains non-nibble byte: %w", err)
		}
		ns = append(ns, n)
	}
	return ns, nil
}

func nibblesFromByte(b byte) []Nibble {
	return []Nibble{
		Nibble(b >> 4),
		Nibble(b % 16),
	}
}

// newNibbles expands a byte key into its 2n-nibble path.
func newNibbles(bs []byte) []Nibble {
	ns := make([]Nibble, 0, len(bs)*2)
	for _, b := range bs {
		ns = append(ns, nibblesFromByte(b)...)
	}
	return ns
}

// appendPrefixToNibbles prepends the hex-prefix nibbles that encode the
// node kind (leaf vs extension) and the parity of the path length. The
// result always has even length.
func appendPrefixToNibbles(ns []Nibble, isLeafNode bool) []Nibble {
	var prefix []Nibble
	if len(ns)%2 > 0 {
		prefix = []Nibble{1}
	} else {
		prefix = []Nibble{0, 0}
	}

	prefixed := make([]Nibble, 0, len(prefix)+len(ns))
	prefixed = append(prefixed, prefix...)
	prefixed = append(prefixed, ns...)

	if isLeafNode {
		prefixed[0] += 2
	}

	return prefixed
}

// removePrefixFromNibbles strips the hex prefix and reports whether the
// path belongs to a leaf node.
//
// 	hex char    bits    |    node type partial     path length
// ----------------------------------------------------------
//    0        0000    |       extension              even
//    1        0001    |       extension              odd
//    2        0010    |   terminating (leaf)         even
//    3        0011    |   terminating (leaf)         odd
func removePrefixFromNibbles(ns []Nibble) ([]Nibble, bool, error) {
	if len(ns) == 0 {
		return nil, false, fmt.Errorf("empty nibble path")
	}

	switch ns[0] {
	case 1:
		return ns[1:], false, nil
	case 3:
		return ns[1:], true, nil
	case 0:
		return ns[2:], false, nil
	case 2:
		return ns[2:], true, nil
	}

	return nil, false, fmt.Errorf("invalid nibble prefix: %v", ns[0])
}

// nibblesAsBytes packs a nibble slice of even length back into bytes.
func nibblesAsBytes(ns []Nibble) []byte {
	buf := make([]byte, 0, len(ns)/2)

	for i := 0; i < len(ns); i += 2 {
		b := byte(ns[i]<<4) + byte(ns[i+1])
		buf = append(buf, b)
	}

	return buf
}

// prefixMatchedLen returns the length of the longest common prefix.
//
// [0,1,2,3], [0,1,2] => 3
// [0,1,2,3], [0,1,2,3] => 4
// [0,1,2,3], [0,1,2,3,4] => 4
func prefixMatchedLen(a []Nibble, b []Nibble) int {
	matched := 0
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			break
		}
		matched++
	}
	return matched
}

func nibblesEqual(a []Nibble, b []Nibble) bool {
	if len(a) != len(b) {
		return false
	}
	return prefixMatchedLen(a, b) == len(a)
}
