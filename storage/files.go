package storage

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/NethermindEth/statedb/blob"
	"github.com/NethermindEth/statedb/core"
	"github.com/NethermindEth/statedb/encoder"
	"github.com/NethermindEth/statedb/utils"
)

// FileHandlers stores the large values of the state in blob files, one file per
// core.OffsetKind. Appended values become durable on Flush and are only referenced once
// the write transaction that recorded their location commits.
//
//go:generate mockgen -destination=../mocks/mock_file_handlers.go -package=mocks github.com/NethermindEth/statedb/storage FileHandlers
type FileHandlers interface {
	AppendStateDiff(diff *core.StateDiff) (core.LocationInFile, error)
	StateDiff(location core.LocationInFile) (*core.StateDiff, error)
	AppendContractClass(class *core.SierraClass) (core.LocationInFile, error)
	ContractClass(location core.LocationInFile) (*core.SierraClass, error)
	AppendCasm(casm *core.CasmClass) (core.LocationInFile, error)
	Casm(location core.LocationInFile) (*core.CasmClass, error)
	AppendDeprecatedContractClass(class *core.DeprecatedClass) (core.LocationInFile, error)
	DeprecatedContractClass(location core.LocationInFile) (*core.DeprecatedClass, error)
	AppendTransaction(tx core.Transaction) (core.LocationInFile, error)
	Transaction(location core.LocationInFile) (core.Transaction, error)
	AppendTransactionOutput(output core.TransactionOutput) (core.LocationInFile, error)
	TransactionOutput(location core.LocationInFile) (core.TransactionOutput, error)
	// Flush makes every appended value durable.
	Flush() error
	// Reset moves the append position of each file back to the given offsets.
	Reset(offsets map[core.OffsetKind]uint64)
	Close() error
}

var fileNames = map[core.OffsetKind]string{
	core.ThinStateDiffOffset:           "thin_state_diff.dat",
	core.ContractClassOffset:           "contract_class.dat",
	core.CasmOffset:                    "casm.dat",
	core.DeprecatedContractClassOffset: "deprecated_contract_class.dat",
	core.TransactionOutputOffset:       "transaction_output.dat",
	core.TransactionOffset:             "transaction.dat",
}

// Files is the blob file backed FileHandlers.
type Files struct {
	files map[core.OffsetKind]*blob.File
}

var _ FileHandlers = (*Files)(nil)

// OpenFiles opens one blob file per offset kind under dir, positioned at the given offsets.
func OpenFiles(dir string, config blob.Config, offsets map[core.OffsetKind]uint64, log utils.SimpleLogger) (*Files, error) {
	files := &Files{files: make(map[core.OffsetKind]*blob.File, len(fileNames))}
	for _, kind := range core.OffsetKinds() {
		f, err := blob.Open(filepath.Join(dir, fileNames[kind]), config, offsets[kind], log)
		if err != nil {
			return nil, utils.RunAndWrapOnError(files.Close, fmt.Errorf("open %s file: %w", kind, err))
		}
		files.files[kind] = f
	}
	return files, nil
}

func appendValue[T any](f *blob.File, s encoder.Serializer[T], value T) (core.LocationInFile, error) {
	data, err := encoder.Marshal(s, value)
	if err != nil {
		return core.LocationInFile{}, err
	}
	return f.Append(data)
}

func readValue[T any](f *blob.File, s encoder.Serializer[T], location core.LocationInFile) (T, error) {
	data, err := f.Read(location)
	if err != nil {
		var zero T
		return zero, err
	}
	return encoder.Unmarshal(s, data)
}

func readPtr[T any](f *blob.File, s encoder.Serializer[T], location core.LocationInFile) (*T, error) {
	value, err := readValue(f, s, location)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func (f *Files) AppendStateDiff(diff *core.StateDiff) (core.LocationInFile, error) {
	return appendValue(f.files[core.ThinStateDiffOffset], core.StateDiffSerializer, *diff)
}

func (f *Files) StateDiff(location core.LocationInFile) (*core.StateDiff, error) {
	return readPtr(f.files[core.ThinStateDiffOffset], core.StateDiffSerializer, location)
}

func (f *Files) AppendContractClass(class *core.SierraClass) (core.LocationInFile, error) {
	return appendValue(f.files[core.ContractClassOffset], core.SierraClassSerializer, *class)
}

func (f *Files) ContractClass(location core.LocationInFile) (*core.SierraClass, error) {
	return readPtr(f.files[core.ContractClassOffset], core.SierraClassSerializer, location)
}

func (f *Files) AppendCasm(casm *core.CasmClass) (core.LocationInFile, error) {
	return appendValue(f.files[core.CasmOffset], core.CasmClassSerializer, *casm)
}

func (f *Files) Casm(location core.LocationInFile) (*core.CasmClass, error) {
	return readPtr(f.files[core.CasmOffset], core.CasmClassSerializer, location)
}

func (f *Files) AppendDeprecatedContractClass(class *core.DeprecatedClass) (core.LocationInFile, error) {
	return appendValue(f.files[core.DeprecatedContractClassOffset], core.DeprecatedClassSerializer, *class)
}

func (f *Files) DeprecatedContractClass(location core.LocationInFile) (*core.DeprecatedClass, error) {
	return readPtr(f.files[core.DeprecatedContractClassOffset], core.DeprecatedClassSerializer, location)
}

func (f *Files) AppendTransaction(tx core.Transaction) (core.LocationInFile, error) {
	return appendValue(f.files[core.TransactionOffset], core.TransactionSerializer, tx)
}

func (f *Files) Transaction(location core.LocationInFile) (core.Transaction, error) {
	return readValue(f.files[core.TransactionOffset], core.TransactionSerializer, location)
}

func (f *Files) AppendTransactionOutput(output core.TransactionOutput) (core.LocationInFile, error) {
	return appendValue(f.files[core.TransactionOutputOffset], core.TransactionOutputSerializer, output)
}

func (f *Files) TransactionOutput(location core.LocationInFile) (core.TransactionOutput, error) {
	return readValue(f.files[core.TransactionOutputOffset], core.TransactionOutputSerializer, location)
}

func (f *Files) Flush() error {
	var err error
	for _, kind := range core.OffsetKinds() {
		err = errors.Join(err, f.files[kind].Flush())
	}
	return err
}

func (f *Files) Reset(offsets map[core.OffsetKind]uint64) {
	for kind, file := range f.files {
		file.SetOffset(offsets[kind])
	}
}

func (f *Files) Close() error {
	var err error
	for _, file := range f.files {
		err = errors.Join(err, file.Close())
	}
	return err
}
