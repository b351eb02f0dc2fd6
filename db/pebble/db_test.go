package pebble_test

import (
	"testing"

	"github.com/NethermindEth/statedb/db"
	"github.com/NethermindEth/statedb/db/dbtest"
	"github.com/NethermindEth/statedb/db/pebble"
	"github.com/stretchr/testify/require"
)

func TestPebble(t *testing.T) {
	dbtest.TestKeyValueStore(t, func(t *testing.T) db.KeyValueStore {
		return pebble.NewMemTest(t)
	})
}

func TestReopen(t *testing.T) {
	path := t.TempDir()

	store, err := pebble.New(path, pebble.WithCacheSize(16), pebble.WithMaxOpenFiles(64))
	require.NoError(t, err)
	require.NoError(t, store.Put([]byte("k"), []byte("v")))
	require.NoError(t, store.Close())
	require.Error(t, store.Close())

	store, err = pebble.New(path)
	require.NoError(t, err)
	defer store.Close()

	var got []byte
	require.NoError(t, store.Get([]byte("k"), func(v []byte) error {
		got = append(got, v...)
		return nil
	}))
	require.Equal(t, []byte("v"), got)
}
