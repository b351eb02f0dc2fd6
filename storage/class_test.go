package storage_test

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/NethermindEth/statedb/core"
	"github.com/NethermindEth/statedb/core/felt"
	"github.com/NethermindEth/statedb/db/typed"
	"github.com/NethermindEth/statedb/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSierraClass(version string) *core.SierraClass {
	return &core.SierraClass{
		Program:              []felt.Felt{feltOf(1), feltOf(2), feltOf(3)},
		ContractClassVersion: version,
		EntryPoints: core.SierraEntryPointsByType{
			External: []core.SierraEntryPoint{{FunctionIdx: 0, Selector: feltOf(0x42)}},
		},
		Abi: `[{"type":"function","name":"transfer"}]`,
	}
}

func testCasm(seed int64) *core.CasmClass {
	return &core.CasmClass{
		Prime:           big.NewInt(0x7fff),
		CompilerVersion: "2.6.0",
		Bytecode:        []*big.Int{big.NewInt(seed), big.NewInt(seed + 1)},
		Hints:           []core.CasmHints{{PC: 1, Hints: [][]byte{[]byte(`{"AllocSegment":{}}`)}}},
		EntryPoints: core.CasmEntryPointsByType{
			External: []core.CasmEntryPoint{{Selector: big.NewInt(seed), Offset: 0, Builtins: []string{"range_check"}}},
		},
	}
}

func testDeprecatedClass() *core.DeprecatedClass {
	return &core.DeprecatedClass{
		Program: core.Program{
			Builtins: json.RawMessage(`["pedersen"]`),
			Data:     json.RawMessage(`["0x1","0x2"]`),
			Prime:    json.RawMessage(`"0x800000000000011000000000000000000000000000000000000000000000001"`),
		},
		EntryPoints: map[core.EntryPointType][]core.DeprecatedEntryPoint{
			core.External: {{Selector: feltOf(0x10), Offset: 4}},
		},
	}
}

func appendCasm(t *testing.T, s *storage.Storage, classHash felt.ClassHash, casm *core.CasmClass) {
	t.Helper()
	require.NoError(t, s.Update(func(txn *storage.WriteTxn) error {
		return txn.AppendCasm(classHash, casm)
	}))
}

func TestAppendClasses(t *testing.T) {
	s := newTestStorage(t)

	var diff core.StateDiff
	diff.DeclaredClasses.Set(class0, casmHash0)
	diff.DeprecatedDeclaredClasses = []felt.ClassHash{class1}

	t.Run("ahead of state", func(t *testing.T) {
		err := s.Update(func(txn *storage.WriteTxn) error {
			return txn.AppendClasses(0, nil, nil)
		})
		var ahead *storage.ClassMarkerAheadOfStateError
		require.ErrorAs(t, err, &ahead)
		assert.Equal(t, storage.ClassMarkerAheadOfStateError{}, *ahead)
	})

	appendDiff(t, s, 0, &diff)

	t.Run("body is not written yet", func(t *testing.T) {
		require.NoError(t, s.View(func(txn *storage.ReadTxn) error {
			class, err := txn.StateReader().ClassDefinitionAt(core.RightAfterBlock(0), class0)
			require.NoError(t, err)
			assert.Nil(t, class)
			return nil
		}))
	})

	t.Run("marker mismatch", func(t *testing.T) {
		err := s.Update(func(txn *storage.WriteTxn) error {
			return txn.AppendClasses(1, nil, nil)
		})
		var mismatch *storage.MarkerMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, core.ClassMarker, mismatch.Kind)
	})

	sierra := testSierraClass("0.1.0")
	deprecated := testDeprecatedClass()
	require.NoError(t, s.Update(func(txn *storage.WriteTxn) error {
		return txn.AppendClasses(0,
			[]storage.ClassEntry{{Hash: class0, Class: sierra}},
			[]storage.DeprecatedClassEntry{{Hash: class1, Class: deprecated}},
		)
	}))
	assert.Equal(t, core.BlockNumber(1), marker(t, s, core.ClassMarker))

	require.NoError(t, s.View(func(txn *storage.ReadTxn) error {
		reader := txn.StateReader()

		class, err := reader.ClassDefinitionAt(core.RightAfterBlock(0), class0)
		require.NoError(t, err)
		require.NotNil(t, class)
		requireSameEncoding(t, core.SierraClassSerializer, *sierra, *class)

		class, err = reader.ClassDefinitionAt(core.RightBeforeBlock(0), class0)
		require.NoError(t, err)
		assert.Nil(t, class)

		stored, err := txn.Class(class0)
		require.NoError(t, err)
		require.NotNil(t, stored)
		requireSameEncoding(t, core.SierraClassSerializer, *sierra, *stored)

		deprecatedClass, err := reader.DeprecatedClassDefinitionAt(core.RightAfterBlock(0), class1)
		require.NoError(t, err)
		require.NotNil(t, deprecatedClass)
		requireSameEncoding(t, core.DeprecatedClassSerializer, *deprecated, *deprecatedClass)

		deprecatedClass, err = txn.DeprecatedClass(class1)
		require.NoError(t, err)
		require.NotNil(t, deprecatedClass)

		deprecatedClass, err = reader.DeprecatedClassDefinitionAt(core.RightBeforeBlock(0), class1)
		require.NoError(t, err)
		assert.Nil(t, deprecatedClass)
		return nil
	}))

	t.Run("class stored twice", func(t *testing.T) {
		appendDiff(t, s, 1, &core.StateDiff{})
		err := s.Update(func(txn *storage.WriteTxn) error {
			return txn.AppendClasses(1, []storage.ClassEntry{{Hash: class0, Class: sierra}}, nil)
		})
		require.ErrorIs(t, err, typed.ErrKeyAlreadyExists)
	})

	t.Run("revert returns the bodies", func(t *testing.T) {
		require.NoError(t, s.Update(func(txn *storage.WriteTxn) error {
			_, err := txn.RevertStateDiff(1)
			return err
		}))
		var reverted *core.RevertedStateDiff
		require.NoError(t, s.Update(func(txn *storage.WriteTxn) error {
			var err error
			reverted, err = txn.RevertStateDiff(0)
			return err
		}))
		require.Contains(t, reverted.DeletedClasses, class0)
		requireSameEncoding(t, core.SierraClassSerializer, *sierra, *reverted.DeletedClasses[class0])
		require.Contains(t, reverted.DeletedDeprecatedClasses, class1)
		assert.Equal(t, core.BlockNumber(0), marker(t, s, core.ClassMarker))

		require.NoError(t, s.View(func(txn *storage.ReadTxn) error {
			class, err := txn.Class(class0)
			require.NoError(t, err)
			assert.Nil(t, class)
			return nil
		}))
	})
}

func TestClassDefinitionMissingBelowClassMarker(t *testing.T) {
	s := newTestStorage(t)

	var diff core.StateDiff
	diff.DeclaredClasses.Set(class0, casmHash0)
	appendDiff(t, s, 0, &diff)
	// the class marker passes block 0 without its class body
	require.NoError(t, s.Update(func(txn *storage.WriteTxn) error {
		return txn.AppendClasses(0, nil, nil)
	}))

	require.NoError(t, s.View(func(txn *storage.ReadTxn) error {
		_, err := txn.StateReader().ClassDefinitionAt(core.RightAfterBlock(0), class0)
		var inconsistency *storage.DBInconsistencyError
		require.ErrorAs(t, err, &inconsistency)
		return nil
	}))
}

func TestAppendCasm(t *testing.T) {
	s := newTestStorage(t)

	var diff core.StateDiff
	diff.DeclaredClasses.Set(class0, casmHash0)
	appendDiff(t, s, 0, &diff)

	casm := testCasm(3)
	appendCasm(t, s, class0, casm)
	assert.Equal(t, core.BlockNumber(1), marker(t, s, core.CompiledClassMarker))

	require.NoError(t, s.View(func(txn *storage.ReadTxn) error {
		stored, err := txn.Casm(class0)
		require.NoError(t, err)
		require.NotNil(t, stored)
		requireSameEncoding(t, core.CasmClassSerializer, *casm, *stored)
		return nil
	}))

	err := s.Update(func(txn *storage.WriteTxn) error {
		return txn.AppendCasm(class0, casm)
	})
	require.ErrorIs(t, err, typed.ErrKeyAlreadyExists)
}

func TestDeprecatedClassDeployedWithoutDeclaration(t *testing.T) {
	s := newTestStorage(t)

	var diff core.StateDiff
	diff.DeployedContracts.Set(addr0, class2)
	appendDiff(t, s, 0, &diff)

	body := testDeprecatedClass()
	require.NoError(t, s.Update(func(txn *storage.WriteTxn) error {
		return txn.AppendClasses(0, nil, []storage.DeprecatedClassEntry{{Hash: class2, Class: body}})
	}))

	require.NoError(t, s.View(func(txn *storage.ReadTxn) error {
		reader := txn.StateReader()

		_, declared, err := reader.DeprecatedClassDefinitionBlockNumber(class2)
		require.NoError(t, err)
		assert.False(t, declared)

		class, err := reader.DeprecatedClassDefinitionAt(core.RightAfterBlock(0), class2)
		require.NoError(t, err)
		require.NotNil(t, class)
		requireSameEncoding(t, core.DeprecatedClassSerializer, *body, *class)

		class, err = reader.DeprecatedClassDefinitionAt(core.RightBeforeBlock(0), class2)
		require.NoError(t, err)
		assert.Nil(t, class)
		return nil
	}))

	var reverted *core.RevertedStateDiff
	require.NoError(t, s.Update(func(txn *storage.WriteTxn) error {
		var err error
		reverted, err = txn.RevertStateDiff(0)
		return err
	}))
	require.Contains(t, reverted.DeletedDeprecatedClasses, class2)
	assert.Empty(t, reverted.DeletedDeprecatedClassHashes)

	require.NoError(t, s.View(func(txn *storage.ReadTxn) error {
		class, err := txn.StateReader().DeprecatedClassDefinitionAt(core.RightAfterBlock(0), class2)
		require.NoError(t, err)
		assert.Nil(t, class)
		return nil
	}))
}
