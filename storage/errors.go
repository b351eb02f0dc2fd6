package storage

import (
	"fmt"

	"github.com/NethermindEth/statedb/core"
)

// MarkerMismatchError is returned when a block is appended out of order.
type MarkerMismatchError struct {
	Kind     core.MarkerKind
	Expected core.BlockNumber
	Found    core.BlockNumber
}

func (e *MarkerMismatchError) Error() string {
	return fmt.Sprintf("%s marker mismatch: expected block %d, found %d", e.Kind, e.Expected, e.Found)
}

// DBInconsistencyError reports tables that disagree with each other.
type DBInconsistencyError struct {
	Msg string
}

func (e *DBInconsistencyError) Error() string {
	return "database inconsistency: " + e.Msg
}

func inconsistency(format string, args ...any) error {
	return &DBInconsistencyError{Msg: fmt.Sprintf(format, args...)}
}

// ClassMarkerAheadOfStateError is returned when classes are appended for a block whose
// state diff is not stored yet.
type ClassMarkerAheadOfStateError struct {
	ClassMarker core.BlockNumber
	StateMarker core.BlockNumber
}

func (e *ClassMarkerAheadOfStateError) Error() string {
	return fmt.Sprintf("class marker %d is not below state marker %d", e.ClassMarker, e.StateMarker)
}

// StorageVersionError is returned when the stored layout cannot be read by this binary.
type StorageVersionError struct {
	Stored  core.Version
	Current core.Version
}

func (e *StorageVersionError) Error() string {
	return fmt.Sprintf("storage version %s is incompatible with version %s", e.Stored, e.Current)
}
