package storage

import (
	"time"

	"github.com/NethermindEth/statedb/core"
	"github.com/NethermindEth/statedb/core/felt"
	"github.com/NethermindEth/statedb/db/typed"
	"github.com/NethermindEth/statedb/encoder"
	"github.com/NethermindEth/statedb/utils"
	"github.com/pkg/errors"
)

// StateMarker returns the first block whose state diff is not stored.
func (t *ReadTxn) StateMarker() (core.BlockNumber, error) {
	return t.Marker(core.StateMarker)
}

// StateDiff returns the diff stored for block, or nil.
func (t *ReadTxn) StateDiff(block core.BlockNumber) (*core.StateDiff, error) {
	location, found, err := stateDiffsTable.Get(t.reader, block)
	if err != nil || !found {
		return nil, err
	}
	diff, err := t.files.StateDiff(location)
	if err != nil {
		return nil, errors.Wrapf(err, "read state diff of block %d", block)
	}
	return diff, nil
}

// StateReader answers point-in-time queries. Every query takes the state number to read at.
type StateReader struct {
	txn *ReadTxn
}

func (t *ReadTxn) StateReader() *StateReader {
	return &StateReader{txn: t}
}

// predecessor finds the newest version of entity written before boundary.
func predecessor[E comparable, V any](r reader, table typed.Bucket[encoder.Pair[E, core.BlockNumber], V],
	entity E, boundary core.BlockNumber,
) (V, bool, error) {
	var zero V
	cursor, err := table.Cursor(r)
	if err != nil {
		return zero, false, err
	}

	entry, err := func() (typed.Entry[encoder.Pair[E, core.BlockNumber], V], error) {
		if _, err := cursor.LowerBound(encoder.Pair[E, core.BlockNumber]{First: entity, Second: boundary}); err != nil {
			return typed.Entry[encoder.Pair[E, core.BlockNumber], V]{}, err
		}
		return cursor.Prev()
	}()
	if err = utils.RunAndWrapOnError(cursor.Close, err); err != nil {
		return zero, false, err
	}
	if !entry.Ok || entry.Key.First != entity {
		return zero, false, nil
	}
	return entry.Value, true, nil
}

// ClassHashAt returns the class of the contract deployed at address, if it was deployed by then.
func (s *StateReader) ClassHashAt(state core.StateNumber, address felt.Address) (felt.ClassHash, bool, error) {
	return predecessor(s.txn.reader, deployedContractsTable, address, state.BlockAfter())
}

func (s *StateReader) NonceAt(state core.StateNumber, address felt.Address) (felt.Felt, bool, error) {
	return predecessor(s.txn.reader, noncesTable, address, state.BlockAfter())
}

func (s *StateReader) CompiledClassHashAt(state core.StateNumber, classHash felt.ClassHash) (felt.CasmClassHash, bool, error) {
	return predecessor(s.txn.reader, compiledClassHashTable, classHash, state.BlockAfter())
}

// StorageAt returns the value of a storage slot. Slots never written read as zero.
func (s *StateReader) StorageAt(state core.StateNumber, address felt.Address, key felt.StorageKey) (felt.Felt, error) {
	value, _, err := predecessor(s.txn.reader, contractStorageTable,
		storageSlot{First: address, Second: key}, state.BlockAfter())
	return value, err
}

// ClassDefinitionBlockNumber returns the block that declared the Sierra class.
func (s *StateReader) ClassDefinitionBlockNumber(classHash felt.ClassHash) (core.BlockNumber, bool, error) {
	return declaredClassesBlockTable.Get(s.txn.reader, classHash)
}

// DeprecatedClassDefinitionBlockNumber returns the block that first declared the deprecated class.
func (s *StateReader) DeprecatedClassDefinitionBlockNumber(classHash felt.ClassHash) (core.BlockNumber, bool, error) {
	return deprecatedDeclaredClassesBlockTable.Get(s.txn.reader, classHash)
}

// ClassDefinitionAt returns the Sierra class if it was declared at state, or nil.
func (s *StateReader) ClassDefinitionAt(state core.StateNumber, classHash felt.ClassHash) (*core.SierraClass, error) {
	declaredAt, found, err := s.ClassDefinitionBlockNumber(classHash)
	if err != nil || !found || state.IsBefore(declaredAt) {
		return nil, err
	}

	location, found, err := declaredClassesTable.Get(s.txn.reader, classHash)
	if err != nil {
		return nil, err
	}
	if !found {
		classMarker, err := s.txn.Marker(core.ClassMarker)
		if err != nil {
			return nil, err
		}
		// Classes are written behind state diffs, the body may not be there yet.
		if state.IsAfter(classMarker) {
			return nil, nil
		}
		return nil, inconsistency("class %s declared at block %d is missing below class marker %d",
			&classHash, declaredAt, classMarker)
	}

	class, err := s.txn.files.ContractClass(location)
	if err != nil {
		return nil, errors.Wrapf(err, "read class %s", &classHash)
	}
	return class, nil
}

// DeprecatedClassDefinitionAt returns the deprecated class if its body was stored by state,
// or nil. Deprecated classes can be deployed without being declared, so the body row
// decides and not the declaration index.
func (s *StateReader) DeprecatedClassDefinitionAt(state core.StateNumber, classHash felt.ClassHash) (*core.DeprecatedClass, error) {
	indexed, found, err := deprecatedDeclaredClassesTable.Get(s.txn.reader, classHash)
	if err != nil || !found || state.IsBefore(indexed.Block) {
		return nil, err
	}
	class, err := s.txn.files.DeprecatedContractClass(indexed.Location)
	if err != nil {
		return nil, errors.Wrapf(err, "read deprecated class %s", &classHash)
	}
	return class, nil
}

// AppendStateDiff stores diff as the state changes of block. block must be the State marker.
// On error the transaction must be discarded.
func (t *WriteTxn) AppendStateDiff(block core.BlockNumber, diff *core.StateDiff) error {
	defer observe(t.storage.metrics.AppendStateDiff, time.Now())

	if err := t.checkMarker(core.StateMarker, block); err != nil {
		return err
	}

	if err := t.writeDeployedContracts(block, diff); err != nil {
		return errors.Wrap(err, "write deployed contracts")
	}
	if err := t.writeStorageDiffs(block, diff); err != nil {
		return errors.Wrap(err, "write storage diffs")
	}
	if err := t.writeNonces(block, diff); err != nil {
		return errors.Wrap(err, "write nonces")
	}
	if err := t.writeDeclaredClasses(block, diff); err != nil {
		return errors.Wrap(err, "write declared classes")
	}
	if err := t.writeDeprecatedDeclaredClasses(block, diff); err != nil {
		return errors.Wrap(err, "write deprecated declared classes")
	}

	location, err := t.files.AppendStateDiff(diff)
	if err != nil {
		return errors.Wrap(err, "append state diff body")
	}
	if err = stateDiffsTable.Insert(t.batch, block, location); err != nil {
		return err
	}
	if err = t.setFileOffset(core.ThinStateDiffOffset, location); err != nil {
		return err
	}

	if err = t.advanceMarker(core.StateMarker, block); err != nil {
		return err
	}
	if err = t.catchUpCompiledClassMarker(); err != nil {
		return err
	}

	t.storage.log.Debugw("Appended state diff", "block", block, "entries", diff.Length())
	return nil
}

func (t *WriteTxn) writeDeployedContracts(block core.BlockNumber, diff *core.StateDiff) error {
	for address, classHash := range diff.DeployedContracts.All() {
		if err := deployedContractsTable.Insert(t.batch, addressAtBlock{First: address, Second: block}, classHash); err != nil {
			return err
		}
		// A contract deployed without a nonce starts at zero, so that reads at later blocks
		// find a nonce row.
		_, hasNonce, err := predecessor(t.reader, noncesTable, address, block)
		if err != nil {
			return err
		}
		if !hasNonce {
			if err := noncesTable.Insert(t.batch, addressAtBlock{First: address, Second: block}, felt.Zero); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *WriteTxn) writeStorageDiffs(block core.BlockNumber, diff *core.StateDiff) error {
	for address, entries := range diff.StorageDiffs.All() {
		for key, value := range entries.All() {
			slot := slotAtBlock{First: storageSlot{First: address, Second: key}, Second: block}
			if err := contractStorageTable.Upsert(t.batch, slot, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *WriteTxn) writeNonces(block core.BlockNumber, diff *core.StateDiff) error {
	for address, nonce := range diff.Nonces.All() {
		if err := noncesTable.Upsert(t.batch, addressAtBlock{First: address, Second: block}, nonce); err != nil {
			return err
		}
	}
	return nil
}

func (t *WriteTxn) writeDeclaredClasses(block core.BlockNumber, diff *core.StateDiff) error {
	for classHash, compiledClassHash := range diff.DeclaredClasses.All() {
		if err := declaredClassesBlockTable.Insert(t.batch, classHash, block); err != nil {
			return errors.Wrapf(err, "class %s", &classHash)
		}
		key := classHashAtBlock{First: classHash, Second: block}
		if err := compiledClassHashTable.Insert(t.batch, key, compiledClassHash); err != nil {
			return errors.Wrapf(err, "compiled class hash of %s", &classHash)
		}
	}
	return nil
}

// writeDeprecatedDeclaredClasses keeps the block of the first declaration. Deprecated
// classes can be declared again later.
func (t *WriteTxn) writeDeprecatedDeclaredClasses(block core.BlockNumber, diff *core.StateDiff) error {
	for _, classHash := range diff.DeprecatedDeclaredClasses {
		declared, err := deprecatedDeclaredClassesBlockTable.Has(t.batch, classHash)
		if err != nil {
			return err
		}
		if declared {
			continue
		}
		if err := deprecatedDeclaredClassesBlockTable.Insert(t.batch, classHash, block); err != nil {
			return err
		}
	}
	return nil
}

// catchUpCompiledClassMarker moves the CompiledClass marker past the blocks that declared
// no Sierra classes, up to the State marker.
func (t *WriteTxn) catchUpCompiledClassMarker() error {
	stateMarker, err := t.Marker(core.StateMarker)
	if err != nil {
		return err
	}
	marker, err := t.Marker(core.CompiledClassMarker)
	if err != nil {
		return err
	}

	start := marker
	for ; marker < stateMarker; marker++ {
		diff, err := t.StateDiff(marker)
		if err != nil {
			return err
		}
		if diff == nil {
			return inconsistency("state diff of block %d is missing below state marker %d", marker, stateMarker)
		}
		if diff.DeclaredClasses.Len() != 0 {
			break
		}
	}
	if marker == start {
		return nil
	}
	return t.setMarker(core.CompiledClassMarker, marker)
}

// RevertStateDiff removes the state diff of block. Only the last stored block can be
// reverted: for any other block it returns nil and changes nothing.
func (t *WriteTxn) RevertStateDiff(block core.BlockNumber) (*core.RevertedStateDiff, error) {
	defer observe(t.storage.metrics.RevertStateDiff, time.Now())

	stateMarker, err := t.Marker(core.StateMarker)
	if err != nil {
		return nil, err
	}
	if block.Next() != stateMarker {
		t.storage.log.Debugw("Skipping state diff revert of a block that is not the last one",
			"block", block, "stateMarker", stateMarker)
		t.storage.metrics.Reverts.WithLabelValues("noop").Inc()
		return nil, nil
	}

	location, found, err := stateDiffsTable.Get(t.batch, block)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, inconsistency("state diff of block %d is missing below state marker %d", block, stateMarker)
	}
	diff, err := t.files.StateDiff(location)
	if err != nil {
		return nil, errors.Wrapf(err, "read state diff of block %d", block)
	}

	if err = t.rollBackMarkers(block); err != nil {
		return nil, err
	}

	reverted := &core.RevertedStateDiff{
		StateDiff:                *diff,
		DeletedClasses:           make(map[felt.ClassHash]*core.SierraClass),
		DeletedDeprecatedClasses: make(map[felt.ClassHash]*core.DeprecatedClass),
		DeletedCompiledClasses:   make(map[felt.ClassHash]*core.CasmClass),
	}

	steps := []struct {
		name string
		fn   func(core.BlockNumber, *core.StateDiff, *core.RevertedStateDiff) error
	}{
		{"declared classes", t.deleteDeclaredClasses},
		{"deprecated declared classes", t.deleteDeprecatedDeclaredClasses},
		{"deprecated class bodies", t.deleteDeprecatedClassBodies},
		{"compiled classes", t.deleteCompiledClasses},
		{"deployed contracts", t.deleteDeployedContracts},
		{"storage diffs", t.deleteStorageDiffs},
		{"nonces", t.deleteNonces},
		{"compiled class hashes", t.deleteCompiledClassHashes},
	}
	for _, step := range steps {
		if err = step.fn(block, diff, reverted); err != nil {
			return nil, errors.Wrapf(err, "revert %s of block %d", step.name, block)
		}
	}
	// The diff bytes stay in the blob file, snapshots opened before the revert still read them.
	if err = stateDiffsTable.Delete(t.batch, block); err != nil {
		return nil, err
	}

	t.storage.metrics.Reverts.WithLabelValues("reverted").Inc()
	t.storage.log.Debugw("Reverted state diff", "block", block, "entries", diff.Length())
	return reverted, nil
}

// rollBackMarkers moves the State marker back to block, and the class markers that had
// already passed it.
func (t *WriteTxn) rollBackMarkers(block core.BlockNumber) error {
	if err := t.setMarker(core.StateMarker, block); err != nil {
		return err
	}
	for _, kind := range []core.MarkerKind{core.ClassMarker, core.CompiledClassMarker} {
		marker, err := t.Marker(kind)
		if err != nil {
			return err
		}
		if marker == block.Next() {
			if err := t.setMarker(kind, block); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *WriteTxn) deleteDeclaredClasses(_ core.BlockNumber, diff *core.StateDiff, reverted *core.RevertedStateDiff) error {
	for _, classHash := range diff.DeclaredClasses.Keys() {
		if err := declaredClassesBlockTable.Delete(t.batch, classHash); err != nil {
			return err
		}
		reverted.DeletedClassHashes = append(reverted.DeletedClassHashes, classHash)

		location, found, err := declaredClassesTable.Get(t.batch, classHash)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		class, err := t.files.ContractClass(location)
		if err != nil {
			return err
		}
		if err := declaredClassesTable.Delete(t.batch, classHash); err != nil {
			return err
		}
		reverted.DeletedClasses[classHash] = class
	}
	return nil
}

func (t *WriteTxn) deleteDeprecatedDeclaredClasses(block core.BlockNumber, diff *core.StateDiff,
	reverted *core.RevertedStateDiff,
) error {
	for _, classHash := range diff.DeprecatedDeclaredClasses {
		declaredAt, found, err := deprecatedDeclaredClassesBlockTable.Get(t.batch, classHash)
		if err != nil {
			return err
		}
		if !found {
			return inconsistency("deprecated class %s of block %d has no declaration block", &classHash, block)
		}
		if declaredAt > block {
			return inconsistency("deprecated class %s of block %d is recorded as declared at block %d",
				&classHash, block, declaredAt)
		}
		// Declared again after its first declaration, which stays.
		if declaredAt < block {
			continue
		}
		if err := deprecatedDeclaredClassesBlockTable.Delete(t.batch, classHash); err != nil {
			return err
		}
		reverted.DeletedDeprecatedClassHashes = append(reverted.DeletedDeprecatedClassHashes, classHash)
	}
	return nil
}

// deleteDeprecatedClassBodies removes the deprecated bodies written for block. A body
// can be written for a class that is only deployed in the block.
func (t *WriteTxn) deleteDeprecatedClassBodies(block core.BlockNumber, diff *core.StateDiff,
	reverted *core.RevertedStateDiff,
) error {
	candidates := make([]felt.ClassHash, 0, len(diff.DeprecatedDeclaredClasses)+diff.DeployedContracts.Len())
	candidates = append(candidates, diff.DeprecatedDeclaredClasses...)
	candidates = append(candidates, diff.DeployedContracts.Values()...)

	seen := make(map[felt.ClassHash]struct{}, len(candidates))
	for _, classHash := range candidates {
		if _, ok := seen[classHash]; ok {
			continue
		}
		seen[classHash] = struct{}{}

		indexed, found, err := deprecatedDeclaredClassesTable.Get(t.batch, classHash)
		if err != nil {
			return err
		}
		if !found || indexed.Block != block {
			continue
		}
		class, err := t.files.DeprecatedContractClass(indexed.Location)
		if err != nil {
			return err
		}
		if err := deprecatedDeclaredClassesTable.Delete(t.batch, classHash); err != nil {
			return err
		}
		reverted.DeletedDeprecatedClasses[classHash] = class
	}
	return nil
}

// deleteCompiledClasses stops at the first class without a CASM, CASMs are written in
// declaration order.
func (t *WriteTxn) deleteCompiledClasses(_ core.BlockNumber, diff *core.StateDiff, reverted *core.RevertedStateDiff) error {
	for _, classHash := range diff.DeclaredClasses.Keys() {
		location, found, err := casmsTable.Get(t.batch, classHash)
		if err != nil {
			return err
		}
		if !found {
			return nil
		}
		casm, err := t.files.Casm(location)
		if err != nil {
			return err
		}
		if err := casmsTable.Delete(t.batch, classHash); err != nil {
			return err
		}
		reverted.DeletedCompiledClasses[classHash] = casm
	}
	return nil
}

func (t *WriteTxn) deleteDeployedContracts(block core.BlockNumber, diff *core.StateDiff, _ *core.RevertedStateDiff) error {
	for _, address := range diff.DeployedContracts.Keys() {
		key := addressAtBlock{First: address, Second: block}
		if err := deployedContractsTable.Delete(t.batch, key); err != nil {
			return err
		}
		_, hadNonce, err := predecessor(t.reader, noncesTable, address, block)
		if err != nil {
			return err
		}
		if !hadNonce {
			if err := noncesTable.Delete(t.batch, key); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *WriteTxn) deleteStorageDiffs(block core.BlockNumber, diff *core.StateDiff, _ *core.RevertedStateDiff) error {
	for address, entries := range diff.StorageDiffs.All() {
		for _, key := range entries.Keys() {
			slot := slotAtBlock{First: storageSlot{First: address, Second: key}, Second: block}
			if err := contractStorageTable.Delete(t.batch, slot); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *WriteTxn) deleteNonces(block core.BlockNumber, diff *core.StateDiff, _ *core.RevertedStateDiff) error {
	for _, address := range diff.Nonces.Keys() {
		if err := noncesTable.Delete(t.batch, addressAtBlock{First: address, Second: block}); err != nil {
			return err
		}
	}
	return nil
}

func (t *WriteTxn) deleteCompiledClassHashes(block core.BlockNumber, diff *core.StateDiff, _ *core.RevertedStateDiff) error {
	for _, classHash := range diff.DeclaredClasses.Keys() {
		if err := compiledClassHashTable.Delete(t.batch, classHashAtBlock{First: classHash, Second: block}); err != nil {
			return err
		}
	}
	return nil
}
