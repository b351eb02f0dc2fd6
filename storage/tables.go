package storage

import (
	"github.com/NethermindEth/statedb/core"
	"github.com/NethermindEth/statedb/core/felt"
	"github.com/NethermindEth/statedb/db"
	"github.com/NethermindEth/statedb/db/typed"
	"github.com/NethermindEth/statedb/encoder"
)

// Versioned keys end with the block number so that all versions of one entity are
// adjacent and sorted by block.
type (
	addressAtBlock   = encoder.Pair[felt.Address, core.BlockNumber]
	classHashAtBlock = encoder.Pair[felt.ClassHash, core.BlockNumber]
	storageSlot      = encoder.Pair[felt.Address, felt.StorageKey]
	slotAtBlock      = encoder.Pair[storageSlot, core.BlockNumber]
)

var (
	addressAtBlockSerializer   = encoder.PairOf(core.AddressSerializer, core.BlockNumberSerializer)
	classHashAtBlockSerializer = encoder.PairOf(core.ClassHashSerializer, core.BlockNumberSerializer)
	slotAtBlockSerializer      = encoder.PairOf(
		encoder.PairOf(core.AddressSerializer, core.StorageKeySerializer),
		core.BlockNumberSerializer,
	)
	locationSerializer = encoder.VersionZero(core.LocationInFileSerializer)
)

var (
	markersTable     = typed.NewBucket(db.Markers, core.MarkerKindSerializer, core.BlockNumberSerializer)
	fileOffsetsTable = typed.NewBucket(db.FileOffsets, core.OffsetKindSerializer, encoder.Uint64)
	stateDiffsTable  = typed.NewBucket(db.StateDiffs, core.BlockNumberSerializer, locationSerializer)

	deployedContractsTable = typed.NewBucket(db.DeployedContracts,
		addressAtBlockSerializer, encoder.VersionZero(core.ClassHashSerializer))
	contractStorageTable = typed.NewBucket(db.ContractStorage,
		slotAtBlockSerializer, core.FeltSerializer)
	noncesTable = typed.NewBucket(db.Nonces,
		addressAtBlockSerializer, encoder.VersionZero(core.FeltSerializer))
	compiledClassHashTable = typed.NewBucket(db.CompiledClassHash,
		classHashAtBlockSerializer, encoder.VersionZero(core.CasmClassHashSerializer))

	declaredClassesBlockTable           = typed.NewBucket(db.DeclaredClassesBlock, core.ClassHashSerializer, core.BlockNumberSerializer)
	deprecatedDeclaredClassesBlockTable = typed.NewBucket(db.DeprecatedDeclaredClassesBlock, core.ClassHashSerializer, core.BlockNumberSerializer)

	declaredClassesTable           = typed.NewBucket(db.DeclaredClasses, core.ClassHashSerializer, locationSerializer)
	deprecatedDeclaredClassesTable = typed.NewBucket(db.DeprecatedDeclaredClasses,
		core.ClassHashSerializer, encoder.VersionZero(core.IndexedDeprecatedContractClassSerializer))
	casmsTable = typed.NewBucket(db.Casms, core.ClassHashSerializer, locationSerializer)

	transactionMetadataTable = typed.NewBucket(db.TransactionMetadata,
		core.TransactionIndexSerializer, encoder.VersionZero(core.TransactionMetadataSerializer))
	transactionHashToIdxTable = typed.NewBucket(db.TransactionHashToIdx,
		core.TransactionHashSerializer, core.TransactionIndexSerializer)

	storageVersionTable = typed.NewBucket(db.StorageVersion, encoder.String, core.VersionSerializer)
)
