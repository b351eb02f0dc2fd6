package storage

import (
	"time"

	"github.com/NethermindEth/statedb/core"
	"github.com/NethermindEth/statedb/core/felt"
	"github.com/pkg/errors"
)

type ClassEntry struct {
	Hash  felt.ClassHash
	Class *core.SierraClass
}

type DeprecatedClassEntry struct {
	Hash  felt.ClassHash
	Class *core.DeprecatedClass
}

func (t *ReadTxn) ClassMarker() (core.BlockNumber, error) {
	return t.Marker(core.ClassMarker)
}

func (t *ReadTxn) CompiledClassMarker() (core.BlockNumber, error) {
	return t.Marker(core.CompiledClassMarker)
}

// Class returns the body of a Sierra class regardless of the state it was declared in, or nil.
func (t *ReadTxn) Class(classHash felt.ClassHash) (*core.SierraClass, error) {
	location, found, err := declaredClassesTable.Get(t.reader, classHash)
	if err != nil || !found {
		return nil, err
	}
	return t.files.ContractClass(location)
}

func (t *ReadTxn) DeprecatedClass(classHash felt.ClassHash) (*core.DeprecatedClass, error) {
	indexed, found, err := deprecatedDeclaredClassesTable.Get(t.reader, classHash)
	if err != nil || !found {
		return nil, err
	}
	return t.files.DeprecatedContractClass(indexed.Location)
}

func (t *ReadTxn) Casm(classHash felt.ClassHash) (*core.CasmClass, error) {
	location, found, err := casmsTable.Get(t.reader, classHash)
	if err != nil || !found {
		return nil, err
	}
	return t.files.Casm(location)
}

func (t *ReadTxn) HasCasm(classHash felt.ClassHash) (bool, error) {
	return casmsTable.Has(t.reader, classHash)
}

// AppendClasses stores the class bodies of block. Bodies are written behind the state
// diffs: block must be the Class marker and its state diff must be stored.
func (t *WriteTxn) AppendClasses(block core.BlockNumber, classes []ClassEntry, deprecated []DeprecatedClassEntry) error {
	defer observe(t.storage.metrics.AppendClasses, time.Now())

	if err := t.checkMarker(core.ClassMarker, block); err != nil {
		return err
	}
	stateMarker, err := t.StateMarker()
	if err != nil {
		return err
	}
	if block >= stateMarker {
		return &ClassMarkerAheadOfStateError{ClassMarker: block, StateMarker: stateMarker}
	}

	for _, entry := range classes {
		location, err := t.files.AppendContractClass(entry.Class)
		if err != nil {
			return errors.Wrapf(err, "append class %s", &entry.Hash)
		}
		if err = declaredClassesTable.Insert(t.batch, entry.Hash, location); err != nil {
			return errors.Wrapf(err, "class %s", &entry.Hash)
		}
		if err = t.setFileOffset(core.ContractClassOffset, location); err != nil {
			return err
		}
	}

	for _, entry := range deprecated {
		if err := t.writeDeprecatedClass(block, entry); err != nil {
			return errors.Wrapf(err, "deprecated class %s", &entry.Hash)
		}
	}

	if err = t.setMarker(core.ClassMarker, block.Next()); err != nil {
		return err
	}
	t.storage.log.Debugw("Appended classes", "block", block, "classes", len(classes), "deprecated", len(deprecated))
	return nil
}

// writeDeprecatedClass keeps the body written by the first declaration of the class.
func (t *WriteTxn) writeDeprecatedClass(block core.BlockNumber, entry DeprecatedClassEntry) error {
	indexed, found, err := deprecatedDeclaredClassesTable.Get(t.batch, entry.Hash)
	if err != nil {
		return err
	}
	if found {
		if indexed.Block > block {
			return inconsistency("deprecated class %s is stored for block %d, after block %d",
				&entry.Hash, indexed.Block, block)
		}
		return nil
	}

	location, err := t.files.AppendDeprecatedContractClass(entry.Class)
	if err != nil {
		return err
	}
	indexed = core.IndexedDeprecatedContractClass{Block: block, Location: location}
	if err = deprecatedDeclaredClassesTable.Insert(t.batch, entry.Hash, indexed); err != nil {
		return err
	}
	return t.setFileOffset(core.DeprecatedContractClassOffset, location)
}

// AppendCasm stores the compiled form of a declared Sierra class and moves the
// CompiledClass marker past every block whose classes all have their CASM.
func (t *WriteTxn) AppendCasm(classHash felt.ClassHash, casm *core.CasmClass) error {
	defer observe(t.storage.metrics.AppendCasm, time.Now())

	location, err := t.files.AppendCasm(casm)
	if err != nil {
		return errors.Wrapf(err, "append casm of %s", &classHash)
	}
	if err = casmsTable.Insert(t.batch, classHash, location); err != nil {
		return errors.Wrapf(err, "casm of %s", &classHash)
	}
	if err = t.setFileOffset(core.CasmOffset, location); err != nil {
		return err
	}
	return t.advanceCompiledClassMarker()
}

func (t *WriteTxn) advanceCompiledClassMarker() error {
	stateMarker, err := t.StateMarker()
	if err != nil {
		return err
	}
	marker, err := t.CompiledClassMarker()
	if err != nil {
		return err
	}

	start := marker
	for ; marker < stateMarker; marker++ {
		complete, err := t.hasAllCasms(marker)
		if err != nil {
			return err
		}
		if !complete {
			break
		}
	}
	if marker == start {
		return nil
	}
	return t.setMarker(core.CompiledClassMarker, marker)
}

func (t *WriteTxn) hasAllCasms(block core.BlockNumber) (bool, error) {
	diff, err := t.StateDiff(block)
	if err != nil {
		return false, err
	}
	if diff == nil {
		return false, inconsistency("state diff of block %d is missing below the state marker", block)
	}
	for _, classHash := range diff.DeclaredClasses.Keys() {
		found, err := casmsTable.Has(t.batch, classHash)
		if err != nil || !found {
			return false, err
		}
	}
	return true, nil
}
