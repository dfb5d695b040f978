package mpt

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"github.com/trieforge/mpt/storage"
)

const defaultCacheSize = 4096

// NodeStore reads and writes trie nodes against a set of byte KV
// backends. Reads consult the read backends in order and return the
// first hit; writes and batches are broadcast to every write backend.
// Nodes are addressed by the Keccak256 hash of their serialization and
// are immutable once written, which makes the read cache sound.
type NodeStore struct {
	getDBs []storage.Store
	putDBs []storage.Store
	cache  *lru.Cache
	log    *zap.Logger
}

// StoreOption configures a NodeStore.
type StoreOption func(*NodeStore)

// WithReadBackends appends read-only backends consulted after the
// primary on Get.
func WithReadBackends(backends ...storage.Store) StoreOption {
	return func(s *NodeStore) {
		s.getDBs = append(s.getDBs, backends...)
	}
}

// WithWriteBackends appends additional backends every write and batch
// is mirrored to.
func WithWriteBackends(backends ...storage.Store) StoreOption {
	return func(s *NodeStore) {
		s.getDBs = append(s.getDBs, backends...)
		s.putDBs = append(s.putDBs, backends...)
	}
}

// WithStoreLogger sets the logger; the default is a no-op logger.
func WithStoreLogger(log *zap.Logger) StoreOption {
	return func(s *NodeStore) {
		s.log = log
	}
}

// WithCacheSize overrides the size of the node cache; zero disables it.
func WithCacheSize(size int) StoreOption {
	return func(s *NodeStore) {
		s.cache = nil
		if size > 0 {
			s.cache, _ = lru.New(size)
		}
	}
}

// NewNodeStore returns a NodeStore over the given primary backend.
func NewNodeStore(db storage.Store, opts ...StoreOption) *NodeStore {
	s := &NodeStore{
		getDBs: []storage.Store{db},
		putDBs: []storage.Store{db},
		log:    zap.NewNop(),
	}
	s.cache, _ = lru.New(defaultCacheSize)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetRaw returns the stored bytes for key, or nil when no backend has
// it. Absence is not an error.
func (s *NodeStore) GetRaw(key []byte) ([]byte, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(string(key)); ok {
			return v.([]byte), nil
		}
	}
	storeReads.Inc()
	for _, db := range s.getDBs {
		value, err := db.Get(key)
		if err != nil {
			return nil, fmt.Errorf("store get: %w", err)
		}
		if value != nil {
			s.cacheAdd(key, value)
			return value, nil
		}
	}
	return nil, nil
}

// PutRaw writes key/value to every write backend.
func (s *NodeStore) PutRaw(key []byte, value []byte) error {
	storeWrites.Inc()
	for _, db := range s.putDBs {
		if err := db.Put(key, value); err != nil {
			return fmt.Errorf("store put: %w", err)
		}
	}
	s.cacheAdd(key, value)
	return nil
}

// Batch applies ops atomically to every write backend.
func (s *NodeStore) Batch(ops []storage.BatchOp) error {
	if len(ops) == 0 {
		return nil
	}
	storeBatches.Inc()
	for _, db := range s.putDBs {
		if err := db.PutBatch(ops); err != nil {
			return fmt.Errorf("store batch: %w", err)
		}
	}
	for _, op := range ops {
		if op.Del {
			s.cacheRemove(op.Key)
		} else {
			s.cacheAdd(op.Key, op.Value)
		}
	}
	s.log.Debug("committed batch", zap.Int("ops", len(ops)))
	return nil
}

// GetNode resolves a node reference: inline refs decode in place,
// hashed refs are fetched from the backends. A hashed ref that no
// backend can resolve is ErrMissingNode.
func (s *NodeStore) GetNode(ref Ref) (Node, error) {
	if ref.Empty() {
		return nil, nil
	}
	if ref.Inline() {
		return nodeFromSlots(ref.raw)
	}
	data, err := s.GetRaw(ref.hash)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %x", ErrMissingNode, ref.hash)
	}
	return decodeNode(data)
}

func (s *NodeStore) cacheAdd(key, value []byte) {
	if s.cache != nil && len(key) == HashLength {
		s.cache.Add(string(key), value)
	}
}

func (s *NodeStore) cacheRemove(key []byte) {
	if s.cache != nil {
		s.cache.Remove(string(key))
	}
}
