package storage

import (
	"fmt"
	"os"
	"path"

	"go.etcd.io/bbolt"
)

// Bucket is the single boltdb bucket holding all the data.
var Bucket = []byte("DB")

// BoltDBStore is the Store implementation backed by a BoltDB file.
type BoltDBStore struct {
	db *bbolt.DB
}

// NewBoltDBStore opens the BoltDB file at fileName, creating the data
// bucket if needed.
func NewBoltDBStore(fileName string) (*BoltDBStore, error) {
	if err := os.MkdirAll(path.Dir(fileName), os.ModePerm); err != nil {
		return nil, fmt.Errorf("could not create dir for BoltDB: %w", err)
	}
	db, err := bbolt.Open(fileName, 0600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(Bucket)
		if err != nil {
			return fmt.Errorf("could not create root bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &BoltDBStore{db: db}, nil
}

// Get implements the Store interface.
func (s *BoltDBStore) Get(key []byte) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		// the returned slice is only valid inside the transaction
		if v := tx.Bucket(Bucket).Get(key); v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	return value, err
}

// Put implements the Store interface.
func (s *BoltDBStore) Put(key []byte, value []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(Bucket).Put(key, value)
	})
}

// Delete implements the Store interface.
func (s *BoltDBStore) Delete(key []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(Bucket).Delete(key)
	})
}

// PutBatch implements the Store interface as a single bolt transaction.
func (s *BoltDBStore) PutBatch(ops []BatchOp) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(Bucket)
		for _, op := range ops {
			if op.Del {
				if err := b.Delete(op.Key); err != nil {
					return err
				}
			} else {
				if err := b.Put(op.Key, op.Value); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Close implements the Store interface.
func (s *BoltDBStore) Close() error {
	return s.db.Close()
}
