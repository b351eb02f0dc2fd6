package core

import "math/big"

// CasmClass is the compiled form of a Sierra class.
type CasmClass struct {
	Prime                  *big.Int
	CompilerVersion        string
	Bytecode               []*big.Int
	BytecodeSegmentLengths *NestedIntList
	// Hints by program counter. Each hint is kept in its JSON encoding.
	Hints         []CasmHints
	PythonicHints []CasmPythonicHints
	EntryPoints   CasmEntryPointsByType
}

type CasmHints struct {
	PC    uint64
	Hints [][]byte
}

type CasmPythonicHints struct {
	PC    uint64
	Hints []string
}

type CasmEntryPoint struct {
	Selector *big.Int
	Offset   uint64
	Builtins []string
}

type CasmEntryPointsByType struct {
	External    []CasmEntryPoint
	L1Handler   []CasmEntryPoint
	Constructor []CasmEntryPoint
}

// NestedIntList is either a leaf holding a length or a node holding nested lists.
type NestedIntList struct {
	IsLeaf   bool
	Leaf     uint64
	Children []NestedIntList
}

// Total sums the leaves of the list.
func (l *NestedIntList) Total() uint64 {
	if l.IsLeaf {
		return l.Leaf
	}
	var total uint64
	for i := range l.Children {
		total += l.Children[i].Total()
	}
	return total
}
