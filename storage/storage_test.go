package storage_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/NethermindEth/statedb/blob"
	"github.com/NethermindEth/statedb/core"
	"github.com/NethermindEth/statedb/core/felt"
	"github.com/NethermindEth/statedb/db/memory"
	"github.com/NethermindEth/statedb/encoder"
	"github.com/NethermindEth/statedb/mocks"
	"github.com/NethermindEth/statedb/storage"
	"github.com/NethermindEth/statedb/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testBlobConfig = blob.Config{
	MinSize:    4096,
	MaxSize:    1 << 24,
	GrowthStep: 4096,
}

func newTestStorage(t *testing.T) *storage.Storage {
	t.Helper()

	log := utils.NewNopZapLogger()
	files, err := storage.OpenFiles(t.TempDir(), testBlobConfig, nil, log)
	require.NoError(t, err)
	s, err := storage.New(memory.New(), files, log)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

// dump copies every row of the database.
func dump(t *testing.T, s *storage.Storage) map[string][]byte {
	t.Helper()

	it, err := s.DB().NewIterator(nil, false)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, it.Close())
	}()

	rows := make(map[string][]byte)
	for it.Next() {
		value, err := it.Value()
		require.NoError(t, err)
		rows[string(it.Key())] = bytes.Clone(value)
	}
	return rows
}

func appendDiff(t *testing.T, s *storage.Storage, block core.BlockNumber, diff *core.StateDiff) {
	t.Helper()
	require.NoError(t, s.Update(func(txn *storage.WriteTxn) error {
		return txn.AppendStateDiff(block, diff)
	}))
}

func marker(t *testing.T, s *storage.Storage, kind core.MarkerKind) core.BlockNumber {
	t.Helper()
	var block core.BlockNumber
	require.NoError(t, s.View(func(txn *storage.ReadTxn) error {
		var err error
		block, err = txn.Marker(kind)
		return err
	}))
	return block
}

func requireSameEncoding[T any](t *testing.T, s encoder.Serializer[T], want, got T) {
	t.Helper()
	wantBytes, err := encoder.Marshal(s, want)
	require.NoError(t, err)
	gotBytes, err := encoder.Marshal(s, got)
	require.NoError(t, err)
	require.Equal(t, wantBytes, gotBytes)
}

func TestOpen(t *testing.T) {
	address := utils.HexTo[felt.Address]("0x1")
	key := utils.HexTo[felt.StorageKey]("0x2")
	value := utils.HexTo[felt.Felt]("0x3")

	for _, engine := range []storage.Engine{storage.EnginePebble, storage.EngineLevelDB, storage.EngineMemory} {
		t.Run(string(engine), func(t *testing.T) {
			config := storage.DefaultConfig()
			config.Path = t.TempDir()
			config.Engine = engine
			config.CacheSizeMB = 8
			config.Blob = testBlobConfig

			s, err := storage.Open(&config, utils.NewNopZapLogger())
			require.NoError(t, err)

			var diff core.StateDiff
			diff.SetStorage(address, key, value)
			appendDiff(t, s, 0, &diff)
			require.NoError(t, s.Close())

			if engine == storage.EngineMemory {
				return
			}

			s, err = storage.Open(&config, utils.NewNopZapLogger())
			require.NoError(t, err)
			defer func() {
				require.NoError(t, s.Close())
			}()

			require.Equal(t, core.BlockNumber(1), marker(t, s, core.StateMarker))
			require.NoError(t, s.View(func(txn *storage.ReadTxn) error {
				stored, err := txn.StateDiff(0)
				require.NoError(t, err)
				require.Equal(t, &diff, stored)

				got, err := txn.StateReader().StorageAt(core.RightAfterBlock(0), address, key)
				require.NoError(t, err)
				assert.Equal(t, value, got)
				return nil
			}))
		})
	}
}

func TestOpenInvalidConfig(t *testing.T) {
	config := storage.DefaultConfig()
	config.Path = t.TempDir()
	config.Engine = "rocksdb"

	_, err := storage.Open(&config, utils.NewNopZapLogger())
	require.ErrorContains(t, err, "invalid storage config")

	config = storage.DefaultConfig()
	_, err = storage.Open(&config, utils.NewNopZapLogger())
	require.Error(t, err)
}

func TestOpenWithDBListener(t *testing.T) {
	ctrl := gomock.NewController(t)
	listener := mocks.NewMockEventListener(ctrl)
	listener.EXPECT().OnIO(gomock.Any(), gomock.Any()).AnyTimes()
	listener.EXPECT().OnCommit(gomock.Any()).MinTimes(2)

	config := storage.DefaultConfig()
	config.Path = t.TempDir()
	config.Engine = storage.EngineMemory
	config.Blob = testBlobConfig

	s, err := storage.Open(&config, utils.NewNopZapLogger(), storage.WithDBListener(listener))
	require.NoError(t, err)
	appendDiff(t, s, 0, &core.StateDiff{})
	require.NoError(t, s.Close())
}

func TestDiscardResetsFiles(t *testing.T) {
	s := newTestStorage(t)
	before := dump(t, s)

	var diff core.StateDiff
	diff.Nonces.Set(utils.HexTo[felt.Address]("0x1"), *new(felt.Felt).SetUint64(1))

	txn := s.BeginWrite()
	require.NoError(t, txn.AppendStateDiff(0, &diff))
	require.NoError(t, txn.Discard())
	require.NoError(t, txn.Discard())
	require.ErrorIs(t, txn.Commit(), storage.ErrTxnDone)
	assert.Equal(t, before, dump(t, s))

	appendDiff(t, s, 0, &diff)
	require.NoError(t, s.View(func(txn *storage.ReadTxn) error {
		offset, err := txn.FileOffset(core.ThinStateDiffOffset)
		require.NoError(t, err)

		encoded, err := encoder.Marshal(core.StateDiffSerializer, diff)
		require.NoError(t, err)
		assert.Equal(t, uint64(len(encoded)), offset)
		return nil
	}))
}

func TestUpdateDiscardsOnError(t *testing.T) {
	s := newTestStorage(t)
	before := dump(t, s)

	errBoom := errors.New("boom")
	err := s.Update(func(txn *storage.WriteTxn) error {
		var diff core.StateDiff
		diff.DeployedContracts.Set(utils.HexTo[felt.Address]("0x1"), utils.HexTo[felt.ClassHash]("0x2"))
		require.NoError(t, txn.AppendStateDiff(0, &diff))
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, before, dump(t, s))
	assert.Equal(t, core.BlockNumber(0), marker(t, s, core.StateMarker))
}

func TestFileFailureDiscardsEverything(t *testing.T) {
	ctrl := gomock.NewController(t)
	files := mocks.NewMockFileHandlers(ctrl)

	// storage version commit
	files.EXPECT().Flush().Return(nil)
	s, err := storage.New(memory.New(), files, utils.NewNopZapLogger())
	require.NoError(t, err)
	before := dump(t, s)

	zeroOffsets := make(map[core.OffsetKind]uint64)
	for _, kind := range core.OffsetKinds() {
		zeroOffsets[kind] = 0
	}
	errFull := errors.New("file full")
	files.EXPECT().AppendStateDiff(gomock.Any()).Return(core.LocationInFile{}, errFull)
	files.EXPECT().Reset(zeroOffsets)

	var diff core.StateDiff
	diff.DeployedContracts.Set(utils.HexTo[felt.Address]("0x1"), utils.HexTo[felt.ClassHash]("0x2"))
	diff.SetStorage(utils.HexTo[felt.Address]("0x1"), utils.HexTo[felt.StorageKey]("0x5"), *new(felt.Felt).SetUint64(7))
	err = s.Update(func(txn *storage.WriteTxn) error {
		return txn.AppendStateDiff(0, &diff)
	})
	require.ErrorIs(t, err, errFull)
	assert.Equal(t, before, dump(t, s))

	files.EXPECT().Close().Return(nil)
	require.NoError(t, s.Close())
}

func TestFlushFailureDiscardsBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	files := mocks.NewMockFileHandlers(ctrl)

	files.EXPECT().Flush().Return(nil)
	s, err := storage.New(memory.New(), files, utils.NewNopZapLogger())
	require.NoError(t, err)
	before := dump(t, s)

	location := core.LocationInFile{Offset: 0, Len: 10}
	errFlush := errors.New("flush failed")
	files.EXPECT().AppendStateDiff(gomock.Any()).Return(location, nil)
	files.EXPECT().StateDiff(location).Return(&core.StateDiff{}, nil).AnyTimes()
	files.EXPECT().Flush().Return(errFlush)
	files.EXPECT().Reset(gomock.Any())

	err = s.Update(func(txn *storage.WriteTxn) error {
		return txn.AppendStateDiff(0, &core.StateDiff{})
	})
	require.ErrorIs(t, err, errFlush)
	assert.Equal(t, before, dump(t, s))

	// the write lock was released
	files.EXPECT().Reset(gomock.Any())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.BeginWrite().Discard()
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("write transaction still held")
	}

	files.EXPECT().Close().Return(nil)
	require.NoError(t, s.Close())
}
