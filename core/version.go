package core

import "fmt"

// Version is the version of a storage layout. Minor versions are backward compatible.
type Version struct {
	Major uint32
	Minor uint32
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// MarkerKind names a persisted progress marker. A marker holds the first block whose
// data of that kind is not stored yet.
type MarkerKind uint8

const (
	HeaderMarker MarkerKind = iota
	BodyMarker
	EventMarker
	StateMarker
	ClassMarker
	CompiledClassMarker
	BaseLayerBlockMarker
	ClassManagerBlockMarker
	CompilerBackwardCompatibilityMarker
	numMarkerKinds
)

// MarkerKinds lists every marker kind in tag order.
func MarkerKinds() []MarkerKind {
	kinds := make([]MarkerKind, numMarkerKinds)
	for i := range kinds {
		kinds[i] = MarkerKind(i)
	}
	return kinds
}

func (m MarkerKind) String() string {
	switch m {
	case HeaderMarker:
		return "Header"
	case BodyMarker:
		return "Body"
	case EventMarker:
		return "Event"
	case StateMarker:
		return "State"
	case ClassMarker:
		return "Class"
	case CompiledClassMarker:
		return "CompiledClass"
	case BaseLayerBlockMarker:
		return "BaseLayerBlock"
	case ClassManagerBlockMarker:
		return "ClassManagerBlock"
	case CompilerBackwardCompatibilityMarker:
		return "CompilerBackwardCompatibility"
	default:
		return fmt.Sprintf("MarkerKind(%d)", m)
	}
}

// OffsetKind names a blob file whose next free offset is persisted.
type OffsetKind uint8

const (
	ThinStateDiffOffset OffsetKind = iota
	ContractClassOffset
	CasmOffset
	DeprecatedContractClassOffset
	TransactionOutputOffset
	TransactionOffset
	numOffsetKinds
)

func OffsetKinds() []OffsetKind {
	kinds := make([]OffsetKind, numOffsetKinds)
	for i := range kinds {
		kinds[i] = OffsetKind(i)
	}
	return kinds
}

func (o OffsetKind) String() string {
	switch o {
	case ThinStateDiffOffset:
		return "ThinStateDiff"
	case ContractClassOffset:
		return "ContractClass"
	case CasmOffset:
		return "Casm"
	case DeprecatedContractClassOffset:
		return "DeprecatedContractClass"
	case TransactionOutputOffset:
		return "TransactionOutput"
	case TransactionOffset:
		return "Transaction"
	default:
		return fmt.Sprintf("OffsetKind(%d)", o)
	}
}
