package core

import (
	"encoding/json"

	"github.com/NethermindEth/statedb/core/felt"
)

type EntryPointType uint8

const (
	Constructor EntryPointType = iota
	External
	L1Handler
)

func (t EntryPointType) String() string {
	switch t {
	case Constructor:
		return "CONSTRUCTOR"
	case External:
		return "EXTERNAL"
	case L1Handler:
		return "L1_HANDLER"
	default:
		return "UNKNOWN"
	}
}

// SierraEntryPoint is an entry point of a Sierra class.
type SierraEntryPoint struct {
	// Index of the function in the Sierra program.
	FunctionIdx uint64
	Selector    felt.Felt
}

type SierraEntryPointsByType struct {
	Constructor []SierraEntryPoint
	External    []SierraEntryPoint
	L1Handler   []SierraEntryPoint
}

// SierraClass is a Cairo 1 contract class as declared on chain.
type SierraClass struct {
	Program              []felt.Felt
	ContractClassVersion string
	EntryPoints          SierraEntryPointsByType
	// The ABI as the JSON string it was declared with.
	Abi string
}

// DeprecatedEntryPoint is an entry point of a Cairo 0 class.
type DeprecatedEntryPoint struct {
	Selector felt.Felt
	Offset   uint64
}

// DeprecatedClass is a Cairo 0 contract class.
type DeprecatedClass struct {
	// Nil when the class was declared without an ABI.
	Abi         []AbiEntry
	Program     Program
	EntryPoints map[EntryPointType][]DeprecatedEntryPoint
}

// Program is the compiled Cairo 0 program. Its members are kept as the JSON documents
// they were declared with.
type Program struct {
	Attributes       json.RawMessage
	Builtins         json.RawMessage
	CompilerVersion  json.RawMessage
	Data             json.RawMessage
	DebugInfo        json.RawMessage
	Hints            json.RawMessage
	Identifiers      json.RawMessage
	MainScope        json.RawMessage
	Prime            json.RawMessage
	ReferenceManager json.RawMessage
}

type AbiEntryKind uint8

const (
	AbiEvent AbiEntryKind = iota
	AbiFunction
	AbiConstructor
	AbiL1Handler
	AbiStruct
)

// AbiEntry is one entry of a Cairo 0 ABI. Kind selects which of the pointers is set:
// Event for AbiEvent, Struct for AbiStruct and Function for the other kinds.
type AbiEntry struct {
	Kind     AbiEntryKind
	Event    *EventAbiEntry
	Function *FunctionAbiEntry
	Struct   *StructAbiEntry
}

type TypedParameter struct {
	Name string
	Type string
}

type EventAbiEntry struct {
	Data []TypedParameter
	Keys []TypedParameter
	Name string
}

type FunctionAbiEntry struct {
	Name    string
	Inputs  []TypedParameter
	Outputs []TypedParameter
	// View is the only state mutability a Cairo 0 function can declare.
	View bool
}

type StructMember struct {
	Name   string
	Offset uint64
	Type   string
}

type StructAbiEntry struct {
	Members []StructMember
	Name    string
	Size    uint64
}

// IndexedDeprecatedContractClass records where a deprecated class body is stored and the
// block that first declared it.
type IndexedDeprecatedContractClass struct {
	Block    BlockNumber
	Location LocationInFile
}

// LocationInFile addresses a value in a blob file.
type LocationInFile struct {
	Offset uint64
	Len    uint64
}

// NextOffset is the first byte after the value.
func (l LocationInFile) NextOffset() uint64 {
	return l.Offset + l.Len
}
