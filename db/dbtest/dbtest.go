// Package dbtest holds the behaviour every db.KeyValueStore implementation must share.
package dbtest

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/NethermindEth/statedb/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestKeyValueStore runs the conformance suite against stores returned by open.
// Each subtest gets a fresh, empty store.
func TestKeyValueStore(t *testing.T, open func(t *testing.T) db.KeyValueStore) {
	t.Run("get missing key", func(t *testing.T) {
		store := open(t)
		err := store.Get([]byte("missing"), func([]byte) error { return nil })
		require.ErrorIs(t, err, db.ErrKeyNotFound)

		has, err := store.Has([]byte("missing"))
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("put get delete", func(t *testing.T) {
		store := open(t)
		require.NoError(t, store.Put([]byte("k"), []byte("v")))
		assert.Equal(t, []byte("v"), mustGet(t, store, []byte("k")))

		require.NoError(t, store.Delete([]byte("k")))
		has, err := store.Has([]byte("k"))
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("get propagates callback error", func(t *testing.T) {
		store := open(t)
		require.NoError(t, store.Put([]byte("k"), []byte("v")))
		cbErr := errors.New("callback")
		require.ErrorIs(t, store.Get([]byte("k"), func([]byte) error { return cbErr }), cbErr)
	})

	t.Run("indexed batch reads its own writes", func(t *testing.T) {
		store := open(t)
		require.NoError(t, store.Put([]byte("a"), []byte("1")))
		require.NoError(t, store.Put([]byte("b"), []byte("2")))

		batch := store.NewIndexedBatch()
		require.NoError(t, batch.Put([]byte("c"), []byte("3")))
		require.NoError(t, batch.Delete([]byte("a")))

		assert.Equal(t, []byte("3"), mustGet(t, batch, []byte("c")))
		has, err := batch.Has([]byte("a"))
		require.NoError(t, err)
		assert.False(t, has)
		assert.Equal(t, map[string]string{"b": "2", "c": "3"}, collect(t, batch, nil, false))

		// Nothing is visible outside the batch before Write.
		has, err = store.Has([]byte("c"))
		require.NoError(t, err)
		assert.False(t, has)

		require.NoError(t, batch.Write())
		assert.Equal(t, map[string]string{"b": "2", "c": "3"}, collect(t, store, nil, false))
	})

	t.Run("closed batch discards writes", func(t *testing.T) {
		store := open(t)
		batch := store.NewIndexedBatch()
		require.NoError(t, batch.Put([]byte("k"), []byte("v")))
		assert.Positive(t, batch.Size())
		require.NoError(t, batch.Close())

		has, err := store.Has([]byte("k"))
		require.NoError(t, err)
		assert.False(t, has)

		// The writer slot is free again.
		require.NoError(t, store.Update(func(b db.IndexedBatch) error {
			return b.Put([]byte("k"), []byte("w"))
		}))
		assert.Equal(t, []byte("w"), mustGet(t, store, []byte("k")))
	})

	t.Run("batch unusable after write", func(t *testing.T) {
		store := open(t)
		batch := store.NewIndexedBatch()
		require.NoError(t, batch.Put([]byte("k"), []byte("v")))
		require.NoError(t, batch.Write())
		assert.Error(t, batch.Put([]byte("k"), []byte("w")))
		assert.Error(t, batch.Close())
	})

	t.Run("update rolls back on error", func(t *testing.T) {
		store := open(t)
		fnErr := errors.New("abort")
		err := store.Update(func(b db.IndexedBatch) error {
			require.NoError(t, b.Put([]byte("k"), []byte("v")))
			return fnErr
		})
		require.ErrorIs(t, err, fnErr)

		has, err := store.Has([]byte("k"))
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("single writer", func(t *testing.T) {
		store := open(t)
		first := store.NewIndexedBatch()

		var wg sync.WaitGroup
		acquired := make(chan struct{})
		wg.Add(1)
		go func() {
			defer wg.Done()
			second := store.NewIndexedBatch()
			close(acquired)
			assert.NoError(t, second.Close())
		}()

		select {
		case <-acquired:
			t.Fatal("second batch opened while the first was still open")
		case <-time.After(50 * time.Millisecond):
		}

		require.NoError(t, first.Close())
		wg.Wait()
	})

	t.Run("snapshot is isolated from later writes", func(t *testing.T) {
		store := open(t)
		require.NoError(t, store.Put([]byte("k"), []byte("old")))

		snap := store.NewSnapshot()
		require.NoError(t, store.Put([]byte("k"), []byte("new")))
		require.NoError(t, store.Put([]byte("other"), []byte("x")))

		assert.Equal(t, []byte("old"), mustGet(t, snap, []byte("k")))
		assert.Equal(t, map[string]string{"k": "old"}, collect(t, snap, nil, false))
		require.NoError(t, snap.Close())

		require.NoError(t, store.View(func(s db.Snapshot) error {
			assert.Equal(t, []byte("new"), mustGet(t, s, []byte("k")))
			return nil
		}))
	})

	t.Run("iterator bounds", func(t *testing.T) {
		store := open(t)
		for _, k := range []string{"a", "b1", "b2", "b\xff", "c"} {
			require.NoError(t, store.Put([]byte(k), []byte(k)))
		}

		assert.Equal(t, map[string]string{"b1": "b1", "b2": "b2", "b\xff": "b\xff"},
			collect(t, store, []byte("b"), true))
		assert.Equal(t, map[string]string{"b1": "b1", "b2": "b2", "b\xff": "b\xff", "c": "c"},
			collect(t, store, []byte("b"), false))
	})

	t.Run("iterator positioning", func(t *testing.T) {
		store := open(t)
		for _, k := range []string{"k1", "k3", "k5"} {
			require.NoError(t, store.Put([]byte(k), []byte("v"+k)))
		}

		it, err := store.NewIterator([]byte("k"), true)
		require.NoError(t, err)
		defer it.Close()

		require.True(t, it.Seek([]byte("k2")))
		assert.Equal(t, []byte("k3"), it.Key())
		val, err := it.Value()
		require.NoError(t, err)
		assert.Equal(t, []byte("vk3"), val)

		require.True(t, it.Prev())
		assert.Equal(t, []byte("k1"), it.Key())
		assert.False(t, it.Prev())

		require.True(t, it.Seek([]byte("k3")))
		assert.Equal(t, []byte("k3"), it.Key())

		assert.False(t, it.Seek([]byte("k6")))
		require.True(t, it.Last())
		assert.Equal(t, []byte("k5"), it.Key())

		require.True(t, it.First())
		assert.Equal(t, []byte("k1"), it.Key())
		require.True(t, it.Next())
		assert.Equal(t, []byte("k3"), it.Key())
	})

	t.Run("fresh iterator next and prev", func(t *testing.T) {
		store := open(t)
		for _, k := range []string{"x", "y"} {
			require.NoError(t, store.Put([]byte(k), []byte(k)))
		}

		it, err := store.NewIterator(nil, false)
		require.NoError(t, err)
		require.True(t, it.Next())
		assert.Equal(t, []byte("x"), it.Key())
		require.NoError(t, it.Close())

		it, err = store.NewIterator(nil, false)
		require.NoError(t, err)
		require.True(t, it.Prev())
		assert.Equal(t, []byte("y"), it.Key())
		require.NoError(t, it.Close())
	})

	t.Run("empty iterator", func(t *testing.T) {
		store := open(t)
		it, err := store.NewIterator([]byte("none"), true)
		require.NoError(t, err)
		assert.False(t, it.First())
		assert.False(t, it.Last())
		assert.False(t, it.Seek([]byte("none")))
		assert.False(t, it.Valid())
		require.NoError(t, it.Close())
	})

	t.Run("listener observes io and commits", func(t *testing.T) {
		store := open(t)
		var mu sync.Mutex
		var reads, writes, commits int
		listened := store.WithListener(&db.SelectiveListener{
			OnIOCb: func(write bool, _ time.Duration) {
				mu.Lock()
				defer mu.Unlock()
				if write {
					writes++
				} else {
					reads++
				}
			},
			OnCommitCb: func(time.Duration) {
				mu.Lock()
				defer mu.Unlock()
				commits++
			},
		})

		require.NoError(t, listened.Update(func(b db.IndexedBatch) error {
			return b.Put([]byte("k"), []byte("v"))
		}))
		_, err := listened.Has([]byte("k"))
		require.NoError(t, err)

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 1, writes)
		assert.Equal(t, 1, reads)
		assert.Equal(t, 1, commits)
	})
}

func mustGet(t *testing.T, r db.KeyValueReader, key []byte) []byte {
	t.Helper()
	var out []byte
	require.NoError(t, r.Get(key, func(v []byte) error {
		out = append([]byte(nil), v...)
		return nil
	}))
	return out
}

func collect(t *testing.T, it db.Iterable, lowerBound []byte, withUpperBound bool) map[string]string {
	t.Helper()
	iter, err := it.NewIterator(lowerBound, withUpperBound)
	require.NoError(t, err)
	defer func() { require.NoError(t, iter.Close()) }()

	out := make(map[string]string)
	for iter.First(); iter.Valid(); iter.Next() {
		val, err := iter.Value()
		require.NoError(t, err)
		out[string(iter.Key())] = string(val)
	}
	return out
}
