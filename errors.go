package mpt

import "errors"

var (
	// ErrMissingNode is returned when a hashed node reference cannot be
	// resolved in any configured read backend. Hitting it while walking
	// from a valid root means the store is incomplete.
	ErrMissingNode = errors.New("mpt: missing trie node")

	// ErrInvalidRoot is returned when a root hash is not 32 bytes.
	ErrInvalidRoot = errors.New("mpt: root hash must be 32 bytes")

	// ErrDecode is returned when stored node bytes fail to parse.
	ErrDecode = errors.New("mpt: invalid node encoding")

	// ErrNotFound is returned by Prove for a key that is not in the trie.
	ErrNotFound = errors.New("mpt: key not found")
)
