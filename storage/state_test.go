package storage_test

import (
	"slices"
	"testing"

	"github.com/NethermindEth/statedb/core"
	"github.com/NethermindEth/statedb/core/felt"
	"github.com/NethermindEth/statedb/db"
	"github.com/NethermindEth/statedb/encoder"
	"github.com/NethermindEth/statedb/storage"
	"github.com/NethermindEth/statedb/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	addr0 = utils.HexTo[felt.Address]("0xa0")
	addr1 = utils.HexTo[felt.Address]("0xa1")
	addr2 = utils.HexTo[felt.Address]("0xa2")

	key0 = utils.HexTo[felt.StorageKey]("0x10")
	key1 = utils.HexTo[felt.StorageKey]("0x11")

	class0 = utils.HexTo[felt.ClassHash]("0xc0")
	class1 = utils.HexTo[felt.ClassHash]("0xc1")
	class2 = utils.HexTo[felt.ClassHash]("0xc2")

	casmHash0 = utils.HexTo[felt.CasmClassHash]("0xcc0")
	casmHash1 = utils.HexTo[felt.CasmClassHash]("0xcc1")
)

func feltOf(v uint64) felt.Felt {
	return *new(felt.Felt).SetUint64(v)
}

// Block 0 deploys addr0 and addr1, block 1 writes storage and nonces, block 2 replaces the
// class of addr0.
func testDiffs() []*core.StateDiff {
	var diff0 core.StateDiff
	diff0.DeployedContracts.Set(addr0, class0)
	diff0.DeployedContracts.Set(addr1, class1)
	diff0.SetStorage(addr0, key0, feltOf(1))
	diff0.DeclaredClasses.Set(class2, casmHash0)
	diff0.DeprecatedDeclaredClasses = []felt.ClassHash{class0, class1}
	diff0.Nonces.Set(addr1, feltOf(3))

	var diff1 core.StateDiff
	diff1.SetStorage(addr0, key0, feltOf(2))
	diff1.SetStorage(addr0, key1, feltOf(5))
	diff1.Nonces.Set(addr0, feltOf(1))

	var diff2 core.StateDiff
	diff2.DeployedContracts.Set(addr0, class1)
	diff2.SetStorage(addr1, key0, feltOf(9))

	return []*core.StateDiff{&diff0, &diff1, &diff2}
}

func TestAppendStateDiffMarkerMismatch(t *testing.T) {
	s := newTestStorage(t)
	before := dump(t, s)

	err := s.Update(func(txn *storage.WriteTxn) error {
		return txn.AppendStateDiff(1, testDiffs()[0])
	})
	var mismatch *storage.MarkerMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, storage.MarkerMismatchError{Kind: core.StateMarker, Expected: 0, Found: 1}, *mismatch)
	assert.Equal(t, before, dump(t, s))
}

func TestStateReaderPointInTime(t *testing.T) {
	s := newTestStorage(t)
	for i, diff := range testDiffs() {
		appendDiff(t, s, core.BlockNumber(i), diff)
	}
	require.Equal(t, core.BlockNumber(3), marker(t, s, core.StateMarker))

	txn := s.BeginRead()
	defer func() {
		require.NoError(t, txn.Close())
	}()
	reader := txn.StateReader()

	t.Run("class hash", func(t *testing.T) {
		tests := []struct {
			state core.StateNumber
			addr  felt.Address
			want  felt.ClassHash
			found bool
		}{
			{core.RightBeforeBlock(0), addr0, felt.ClassHash{}, false},
			{core.RightAfterBlock(0), addr0, class0, true},
			{core.RightAfterBlock(1), addr0, class0, true},
			{core.RightAfterBlock(2), addr0, class1, true},
			{core.RightAfterBlock(100), addr0, class1, true},
			{core.RightAfterBlock(2), addr1, class1, true},
			{core.RightAfterBlock(2), addr2, felt.ClassHash{}, false},
		}
		for _, test := range tests {
			got, found, err := reader.ClassHashAt(test.state, test.addr)
			require.NoError(t, err)
			assert.Equal(t, test.found, found, "state %d", test.state)
			assert.Equal(t, test.want, got, "state %d", test.state)
		}
	})

	t.Run("storage", func(t *testing.T) {
		tests := []struct {
			state core.StateNumber
			addr  felt.Address
			key   felt.StorageKey
			want  felt.Felt
		}{
			{core.RightBeforeBlock(0), addr0, key0, felt.Zero},
			{core.RightAfterBlock(0), addr0, key0, feltOf(1)},
			{core.RightBeforeBlock(1), addr0, key0, feltOf(1)},
			{core.RightAfterBlock(1), addr0, key0, feltOf(2)},
			{core.RightAfterBlock(0), addr0, key1, felt.Zero},
			{core.RightAfterBlock(2), addr0, key1, feltOf(5)},
			{core.RightAfterBlock(1), addr1, key0, felt.Zero},
			{core.RightAfterBlock(2), addr1, key0, feltOf(9)},
			{core.RightAfterBlock(2), addr2, key0, felt.Zero},
		}
		for _, test := range tests {
			got, err := reader.StorageAt(test.state, test.addr, test.key)
			require.NoError(t, err)
			assert.Equal(t, test.want, got, "state %d", test.state)
		}
	})

	t.Run("nonce", func(t *testing.T) {
		// addr0 was deployed without a nonce and starts at zero
		nonce, found, err := reader.NonceAt(core.RightAfterBlock(0), addr0)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, felt.Zero, nonce)

		nonce, found, err = reader.NonceAt(core.RightAfterBlock(1), addr0)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, feltOf(1), nonce)

		nonce, found, err = reader.NonceAt(core.RightAfterBlock(0), addr1)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, feltOf(3), nonce)

		_, found, err = reader.NonceAt(core.RightBeforeBlock(0), addr1)
		require.NoError(t, err)
		assert.False(t, found)

		_, found, err = reader.NonceAt(core.RightAfterBlock(2), addr2)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("compiled class hash", func(t *testing.T) {
		_, found, err := reader.CompiledClassHashAt(core.RightBeforeBlock(0), class2)
		require.NoError(t, err)
		assert.False(t, found)

		got, found, err := reader.CompiledClassHashAt(core.RightAfterBlock(0), class2)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, casmHash0, got)
	})

	t.Run("declaration blocks", func(t *testing.T) {
		block, found, err := reader.ClassDefinitionBlockNumber(class2)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, core.BlockNumber(0), block)

		block, found, err = reader.DeprecatedClassDefinitionBlockNumber(class1)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, core.BlockNumber(0), block)

		_, found, err = reader.ClassDefinitionBlockNumber(class0)
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestAppendRejectsRedeclaredClass(t *testing.T) {
	s := newTestStorage(t)
	appendDiff(t, s, 0, testDiffs()[0])

	var diff core.StateDiff
	diff.DeclaredClasses.Set(class2, casmHash1)
	err := s.Update(func(txn *storage.WriteTxn) error {
		return txn.AppendStateDiff(1, &diff)
	})
	require.Error(t, err)
	assert.Equal(t, core.BlockNumber(1), marker(t, s, core.StateMarker))
}

func TestRevertOnlyTopmostBlock(t *testing.T) {
	s := newTestStorage(t)
	diffs := testDiffs()
	appendDiff(t, s, 0, diffs[0])
	appendDiff(t, s, 1, diffs[1])
	before := dump(t, s)

	for _, block := range []core.BlockNumber{0, 2, 5} {
		require.NoError(t, s.Update(func(txn *storage.WriteTxn) error {
			reverted, err := txn.RevertStateDiff(block)
			require.NoError(t, err)
			assert.Nil(t, reverted)
			return nil
		}))
	}
	assert.Equal(t, before, dump(t, s))
}

func withoutBuckets(rows map[string][]byte, buckets ...db.Bucket) map[string][]byte {
	filtered := make(map[string][]byte, len(rows))
	for key, value := range rows {
		if !slices.Contains(buckets, db.Bucket(key[0])) {
			filtered[key] = value
		}
	}
	return filtered
}

func TestAppendRevertSymmetry(t *testing.T) {
	s := newTestStorage(t)
	diffs := testDiffs()

	for i, diff := range diffs {
		block := core.BlockNumber(i)
		before := dump(t, s)
		appendDiff(t, s, block, diff)
		appended := dump(t, s)

		var reverted *core.RevertedStateDiff
		require.NoError(t, s.Update(func(txn *storage.WriteTxn) error {
			var err error
			reverted, err = txn.RevertStateDiff(block)
			return err
		}))
		require.NotNil(t, reverted)
		assert.Equal(t, *diff, reverted.StateDiff)
		// markers and offsets of an empty database have no rows until first written
		assert.Equal(t, withoutBuckets(before, db.Markers, db.FileOffsets),
			withoutBuckets(dump(t, s), db.Markers, db.FileOffsets), "block %d", block)
		assert.Equal(t, block, marker(t, s, core.StateMarker))

		// the re-appended body lands after the reverted one in the blob file
		appendDiff(t, s, block, &reverted.StateDiff)
		assert.Equal(t, withoutBuckets(appended, db.StateDiffs, db.FileOffsets),
			withoutBuckets(dump(t, s), db.StateDiffs, db.FileOffsets), "block %d", block)
		require.NoError(t, s.View(func(txn *storage.ReadTxn) error {
			stored, err := txn.StateDiff(block)
			require.NoError(t, err)
			require.NotNil(t, stored)
			requireSameEncoding(t, core.StateDiffSerializer, *diff, *stored)
			return nil
		}))
	}
}

func TestRevertKeepsOpenSnapshotsReadable(t *testing.T) {
	s := newTestStorage(t)

	var original core.StateDiff
	original.SetStorage(addr0, key0, feltOf(1))
	appendDiff(t, s, 0, &original)

	old := s.BeginRead()
	t.Cleanup(func() {
		require.NoError(t, old.Close())
	})
	requireOriginal := func(t *testing.T) {
		t.Helper()
		stored, err := old.StateDiff(0)
		require.NoError(t, err)
		require.NotNil(t, stored)
		requireSameEncoding(t, core.StateDiffSerializer, original, *stored)

		value, err := old.StateReader().StorageAt(core.RightAfterBlock(0), addr0, key0)
		require.NoError(t, err)
		assert.Equal(t, feltOf(1), value)
	}

	require.NoError(t, s.Update(func(txn *storage.WriteTxn) error {
		reverted, err := txn.RevertStateDiff(0)
		require.NotNil(t, reverted)
		return err
	}))
	t.Run("after revert", requireOriginal)

	var replacement core.StateDiff
	replacement.SetStorage(addr0, key0, feltOf(7))
	appendDiff(t, s, 0, &replacement)
	t.Run("after re-append", requireOriginal)

	require.NoError(t, s.View(func(txn *storage.ReadTxn) error {
		stored, err := txn.StateDiff(0)
		require.NoError(t, err)
		require.NotNil(t, stored)
		requireSameEncoding(t, core.StateDiffSerializer, replacement, *stored)
		return nil
	}))
}

func TestRevertDeletesImplicitNonce(t *testing.T) {
	s := newTestStorage(t)
	diffs := testDiffs()
	appendDiff(t, s, 0, diffs[0])

	var diff1 core.StateDiff
	diff1.DeployedContracts.Set(addr2, class0)
	// addr0 already has its implicit nonce from block 0
	diff1.DeployedContracts.Set(addr0, class2)
	appendDiff(t, s, 1, &diff1)

	require.NoError(t, s.View(func(txn *storage.ReadTxn) error {
		nonce, found, err := txn.StateReader().NonceAt(core.RightAfterBlock(1), addr2)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, felt.Zero, nonce)
		return nil
	}))

	require.NoError(t, s.Update(func(txn *storage.WriteTxn) error {
		_, err := txn.RevertStateDiff(1)
		return err
	}))

	require.NoError(t, s.View(func(txn *storage.ReadTxn) error {
		reader := txn.StateReader()
		_, found, err := reader.NonceAt(core.RightAfterBlock(1), addr2)
		require.NoError(t, err)
		assert.False(t, found)

		nonce, found, err := reader.NonceAt(core.RightAfterBlock(1), addr0)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, felt.Zero, nonce)

		classHash, _, err := reader.ClassHashAt(core.RightAfterBlock(1), addr0)
		require.NoError(t, err)
		assert.Equal(t, class0, classHash)
		return nil
	}))
}

func TestCompiledClassMarker(t *testing.T) {
	s := newTestStorage(t)

	var declaring core.StateDiff
	declaring.DeclaredClasses.Set(class0, casmHash0)
	declaring.DeclaredClasses.Set(class1, casmHash1)

	appendDiff(t, s, 0, &core.StateDiff{})
	assert.Equal(t, core.BlockNumber(1), marker(t, s, core.CompiledClassMarker))

	appendDiff(t, s, 1, &declaring)
	appendDiff(t, s, 2, &core.StateDiff{})
	assert.Equal(t, core.BlockNumber(1), marker(t, s, core.CompiledClassMarker))

	appendCasm(t, s, class0, testCasm(1))
	assert.Equal(t, core.BlockNumber(1), marker(t, s, core.CompiledClassMarker))

	appendCasm(t, s, class1, testCasm(2))
	assert.Equal(t, core.BlockNumber(3), marker(t, s, core.CompiledClassMarker))

	// blocks without declarations keep it in step with the state marker
	appendDiff(t, s, 3, &core.StateDiff{})
	assert.Equal(t, core.BlockNumber(4), marker(t, s, core.CompiledClassMarker))

	var reverted *core.RevertedStateDiff
	for _, block := range []core.BlockNumber{3, 2, 1} {
		require.NoError(t, s.Update(func(txn *storage.WriteTxn) error {
			var err error
			reverted, err = txn.RevertStateDiff(block)
			return err
		}))
		assert.Equal(t, block, marker(t, s, core.CompiledClassMarker))
	}
	assert.Equal(t, []felt.ClassHash{class0, class1}, reverted.DeletedClassHashes)
	require.Len(t, reverted.DeletedCompiledClasses, 2)
	requireSameEncoding(t, core.CasmClassSerializer, *testCasm(2), *reverted.DeletedCompiledClasses[class1])

	require.NoError(t, s.View(func(txn *storage.ReadTxn) error {
		casm, err := txn.Casm(class0)
		require.NoError(t, err)
		assert.Nil(t, casm)
		return nil
	}))
}

func TestRevertStopsAtFirstMissingCasm(t *testing.T) {
	s := newTestStorage(t)

	var diff core.StateDiff
	diff.DeclaredClasses.Set(class0, casmHash0)
	diff.DeclaredClasses.Set(class1, casmHash1)
	appendDiff(t, s, 0, &diff)
	// only the second class has its CASM, the first is missing
	appendCasm(t, s, class1, testCasm(7))

	var reverted *core.RevertedStateDiff
	require.NoError(t, s.Update(func(txn *storage.WriteTxn) error {
		var err error
		reverted, err = txn.RevertStateDiff(0)
		return err
	}))
	assert.Empty(t, reverted.DeletedCompiledClasses)

	require.NoError(t, s.View(func(txn *storage.ReadTxn) error {
		casm, err := txn.Casm(class1)
		require.NoError(t, err)
		assert.NotNil(t, casm)
		return nil
	}))
}

func TestDeprecatedClassRedeclaration(t *testing.T) {
	s := newTestStorage(t)

	var diff0 core.StateDiff
	diff0.DeprecatedDeclaredClasses = []felt.ClassHash{class0}
	appendDiff(t, s, 0, &diff0)
	require.NoError(t, s.Update(func(txn *storage.WriteTxn) error {
		return txn.AppendClasses(0, nil, []storage.DeprecatedClassEntry{{Hash: class0, Class: testDeprecatedClass()}})
	}))

	var diff1 core.StateDiff
	diff1.DeprecatedDeclaredClasses = []felt.ClassHash{class0}
	appendDiff(t, s, 1, &diff1)
	require.NoError(t, s.Update(func(txn *storage.WriteTxn) error {
		return txn.AppendClasses(1, nil, []storage.DeprecatedClassEntry{{Hash: class0, Class: testDeprecatedClass()}})
	}))

	revert := func(block core.BlockNumber) *core.RevertedStateDiff {
		var reverted *core.RevertedStateDiff
		require.NoError(t, s.Update(func(txn *storage.WriteTxn) error {
			var err error
			reverted, err = txn.RevertStateDiff(block)
			return err
		}))
		return reverted
	}

	reverted := revert(1)
	assert.Empty(t, reverted.DeletedDeprecatedClassHashes)
	assert.Empty(t, reverted.DeletedDeprecatedClasses)
	assert.Equal(t, core.BlockNumber(1), marker(t, s, core.ClassMarker))

	require.NoError(t, s.View(func(txn *storage.ReadTxn) error {
		class, err := txn.StateReader().DeprecatedClassDefinitionAt(core.RightAfterBlock(0), class0)
		require.NoError(t, err)
		require.NotNil(t, class)
		requireSameEncoding(t, core.DeprecatedClassSerializer, *testDeprecatedClass(), *class)
		return nil
	}))

	reverted = revert(0)
	assert.Equal(t, []felt.ClassHash{class0}, reverted.DeletedDeprecatedClassHashes)
	require.Contains(t, reverted.DeletedDeprecatedClasses, class0)
	assert.Equal(t, core.BlockNumber(0), marker(t, s, core.ClassMarker))
}

func TestRevertDetectsMissingDeprecatedIndex(t *testing.T) {
	s := newTestStorage(t)

	var diff core.StateDiff
	diff.DeprecatedDeclaredClasses = []felt.ClassHash{class0}
	appendDiff(t, s, 0, &diff)

	encoded, err := encoder.Marshal(core.ClassHashSerializer, class0)
	require.NoError(t, err)
	require.NoError(t, s.DB().Delete(db.DeprecatedDeclaredClassesBlock.Key(encoded)))

	err = s.Update(func(txn *storage.WriteTxn) error {
		_, err := txn.RevertStateDiff(0)
		return err
	})
	var inconsistency *storage.DBInconsistencyError
	require.ErrorAs(t, err, &inconsistency)
	assert.Equal(t, core.BlockNumber(1), marker(t, s, core.StateMarker))
}
