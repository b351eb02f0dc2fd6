package core

import (
	"github.com/NethermindEth/statedb/core/felt"
	"github.com/NethermindEth/statedb/utils"
)

// StateDiff is the set of state changes introduced by a single block. Every map keeps
// the order in which its entries were added, which is also the order they are persisted in.
type StateDiff struct {
	DeployedContracts utils.OrderedMap[felt.Address, felt.ClassHash]
	StorageDiffs      utils.OrderedMap[felt.Address, utils.OrderedMap[felt.StorageKey, felt.Felt]]
	// Sierra classes declared in the block with the compiled class hash they commit to.
	DeclaredClasses           utils.OrderedMap[felt.ClassHash, felt.CasmClassHash]
	DeprecatedDeclaredClasses []felt.ClassHash
	Nonces                    utils.OrderedMap[felt.Address, felt.Felt]
}

func (d *StateDiff) IsEmpty() bool {
	return d.DeployedContracts.Len() == 0 &&
		d.StorageDiffs.Len() == 0 &&
		d.DeclaredClasses.Len() == 0 &&
		len(d.DeprecatedDeclaredClasses) == 0 &&
		d.Nonces.Len() == 0
}

// SetStorage records a storage write, creating the contract's entry on first use.
func (d *StateDiff) SetStorage(addr felt.Address, key felt.StorageKey, value felt.Felt) {
	diffs, _ := d.StorageDiffs.Get(addr)
	diffs.Set(key, value)
	d.StorageDiffs.Set(addr, diffs)
}

// Length counts the state entries of the diff.
func (d *StateDiff) Length() int {
	n := d.DeployedContracts.Len() + d.DeclaredClasses.Len() +
		len(d.DeprecatedDeclaredClasses) + d.Nonces.Len()
	for _, diffs := range d.StorageDiffs.All() {
		n += diffs.Len()
	}
	return n
}

// RevertedStateDiff is what a revert removed from storage.
type RevertedStateDiff struct {
	StateDiff StateDiff
	// Sierra classes whose declaration was reverted, in declaration order.
	DeletedClassHashes []felt.ClassHash
	// Bodies of the reverted Sierra classes that had been stored.
	DeletedClasses map[felt.ClassHash]*SierraClass
	// Deprecated classes whose declaration was reverted, in declaration order.
	DeletedDeprecatedClassHashes []felt.ClassHash
	DeletedDeprecatedClasses     map[felt.ClassHash]*DeprecatedClass
	DeletedCompiledClasses       map[felt.ClassHash]*CasmClass
}
