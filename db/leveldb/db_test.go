package leveldb_test

import (
	"testing"

	"github.com/NethermindEth/statedb/db"
	"github.com/NethermindEth/statedb/db/dbtest"
	"github.com/NethermindEth/statedb/db/leveldb"
	"github.com/stretchr/testify/require"
)

func TestLevelDB(t *testing.T) {
	dbtest.TestKeyValueStore(t, func(t *testing.T) db.KeyValueStore {
		return leveldb.NewMemTest(t)
	})
}

func TestReopen(t *testing.T) {
	path := t.TempDir()

	store, err := leveldb.New(path, leveldb.WithCacheSize(8), leveldb.WithMaxOpenFiles(64))
	require.NoError(t, err)
	require.NoError(t, store.Update(func(b db.IndexedBatch) error {
		return b.Put([]byte("k"), []byte("v"))
	}))
	require.NoError(t, store.Close())

	store, err = leveldb.New(path)
	require.NoError(t, err)
	defer store.Close()

	has, err := store.Has([]byte("k"))
	require.NoError(t, err)
	require.True(t, has)
}
