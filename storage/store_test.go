package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, s Store) {
	t.Helper()

	t.Run("get absent returns nil without error", func(t *testing.T) {
		value, err := s.Get([]byte("absent"))
		require.NoError(t, err)
		require.Nil(t, value)
	})

	t.Run("put then get", func(t *testing.T) {
		require.NoError(t, s.Put([]byte("alpha"), []byte("one")))
		value, err := s.Get([]byte("alpha"))
		require.NoError(t, err)
		require.Equal(t, []byte("one"), value)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, s.Put([]byte("alpha"), []byte("two")))
		value, err := s.Get([]byte("alpha"))
		require.NoError(t, err)
		require.Equal(t, []byte("two"), value)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete([]byte("alpha")))
		value, err := s.Get([]byte("alpha"))
		require.NoError(t, err)
		require.Nil(t, value)

		// deleting an absent key succeeds
		require.NoError(t, s.Delete([]byte("alpha")))
	})

	t.Run("batch", func(t *testing.T) {
		require.NoError(t, s.Put([]byte("stale"), []byte("x")))
		ops := []BatchOp{
			{Key: []byte("beta"), Value: []byte("1")},
			{Key: []byte("gamma"), Value: []byte("2")},
			{Del: true, Key: []byte("stale")},
		}
		require.NoError(t, s.PutBatch(ops))

		value, err := s.Get([]byte("beta"))
		require.NoError(t, err)
		require.Equal(t, []byte("1"), value)

		value, err = s.Get([]byte("gamma"))
		require.NoError(t, err)
		require.Equal(t, []byte("2"), value)

		value, err = s.Get([]byte("stale"))
		require.NoError(t, err)
		require.Nil(t, value)
	})
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	testStore(t, s)
	require.NoError(t, s.Close())
}

func TestLevelDBStore(t *testing.T) {
	s, err := NewLevelDBStore(filepath.Join(t.TempDir(), "level"))
	require.NoError(t, err)
	testStore(t, s)
	require.NoError(t, s.Close())
}

func TestBoltDBStore(t *testing.T) {
	s, err := NewBoltDBStore(filepath.Join(t.TempDir(), "bolt.db"))
	require.NoError(t, err)
	testStore(t, s)
	require.NoError(t, s.Close())
}
