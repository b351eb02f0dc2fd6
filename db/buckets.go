package db

import "slices"

// Bucket is the one byte key prefix that separates tables sharing the key space.
type Bucket byte

const (
	Markers Bucket = iota
	FileOffsets
	StateDiffs
	DeployedContracts
	ContractStorage
	Nonces
	CompiledClassHash
	DeclaredClassesBlock
	DeprecatedDeclaredClassesBlock
	DeclaredClasses
	DeprecatedDeclaredClasses
	Casms
	TransactionMetadata
	TransactionHashToIdx
	StorageVersion
	numBuckets
)

var bucketNames = [...]string{
	"markers",
	"file_offsets",
	"state_diffs",
	"deployed_contracts",
	"contract_storage",
	"nonces",
	"compiled_class_hash",
	"declared_classes_block",
	"deprecated_declared_classes_block",
	"declared_classes",
	"deprecated_declared_classes",
	"casms",
	"transaction_metadata",
	"transaction_hash_to_idx",
	"storage_version",
}

func (b Bucket) String() string {
	if b < numBuckets {
		return bucketNames[b]
	}
	return "unknown"
}

// Buckets lists every bucket in prefix order.
func Buckets() []Bucket {
	res := make([]Bucket, numBuckets)
	for i := range res {
		res[i] = Bucket(i)
	}
	return res
}

// Key flattens a prefix and series of byte arrays into a single []byte.
func (b Bucket) Key(key ...[]byte) []byte {
	size := 1
	for _, k := range key {
		size += len(k)
	}
	res := make([]byte, 1, size)
	res[0] = byte(b)
	for _, k := range key {
		res = append(res, k...)
	}
	return res
}

// UpperBound returns the smallest key greater than every key prefixed by prefix, or nil
// if there is none.
func UpperBound(prefix []byte) []byte {
	ub := slices.Clone(prefix)
	for i := len(ub) - 1; i >= 0; i-- {
		ub[i]++
		if ub[i] != 0 {
			return ub[:i+1]
		}
	}
	return nil
}
