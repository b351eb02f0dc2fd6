package db_test

import (
	"testing"

	"github.com/NethermindEth/statedb/db"
	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	t.Run("bucket with no key", func(t *testing.T) {
		key := db.ContractStorage.Key()
		assert.Equal(t, []byte{byte(db.ContractStorage)}, key)
	})
	t.Run("bucket with nil key", func(t *testing.T) {
		key := db.ContractStorage.Key(nil)
		assert.Equal(t, []byte{byte(db.ContractStorage)}, key)
	})
	t.Run("bucket with multiple keys", func(t *testing.T) {
		keys := [][]byte{{}, {0}, {0, 1, 2, 3, 4}, {0, 1, 2, 3, 4, 5, 6, 7, 8, 9}}

		for _, k := range keys {
			t.Run(string(rune(len(k))), func(t *testing.T) {
				expectedKey := make([]byte, 0, 1+len(k))
				expectedKey = append(expectedKey, byte(db.ContractStorage))
				expectedKey = append(expectedKey, k...)
				assert.Equal(t, expectedKey, db.ContractStorage.Key(k))
			})
		}
	})
	t.Run("key parts are concatenated", func(t *testing.T) {
		assert.Equal(t, []byte{byte(db.Nonces), 1, 2, 3}, db.Nonces.Key([]byte{1}, []byte{2, 3}))
	})
}

func TestBucketNames(t *testing.T) {
	assert.Equal(t, "markers", db.Markers.String())
	assert.Equal(t, "storage_version", db.StorageVersion.String())
	assert.Equal(t, "unknown", db.Bucket(200).String())
	assert.Len(t, db.Buckets(), int(db.StorageVersion)+1)
}

func TestUpperBound(t *testing.T) {
	tests := map[string]struct {
		prefix []byte
		want   []byte
	}{
		"simple":        {[]byte{1, 2}, []byte{1, 3}},
		"carry":         {[]byte{1, 0xff}, []byte{2}},
		"all ones":      {[]byte{0xff, 0xff}, nil},
		"empty":         {nil, nil},
		"single prefix": {[]byte{byte(db.Casms)}, []byte{byte(db.Casms) + 1}},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.want, db.UpperBound(test.prefix))
		})
	}
}
