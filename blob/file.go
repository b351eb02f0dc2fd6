// Package blob stores large immutable values in append-only memory mapped files.
package blob

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/NethermindEth/statedb/core"
	"github.com/NethermindEth/statedb/utils"
	"github.com/edsrzf/mmap-go"
)

var (
	ErrFileFull    = errors.New("blob file reached its maximum size")
	ErrOutOfRange  = errors.New("location is past the written part of the file")
	ErrFileMissing = errors.New("blob file does not exist")
	ErrClosed      = errors.New("blob file closed")
)

type Config struct {
	// MinSize is the initial size of a new file.
	MinSize uint64 `mapstructure:"min-size" validate:"gt=0"`
	// MaxSize bounds the growth of the file.
	MaxSize uint64 `mapstructure:"max-size" validate:"gtefield=MinSize"`
	// GrowthStep is added to the file size whenever an append does not fit.
	GrowthStep uint64 `mapstructure:"growth-step" validate:"gt=0"`
	// EnforceFileExists makes Open fail instead of creating a missing file.
	EnforceFileExists bool `mapstructure:"enforce-file-exists"`
}

func DefaultConfig() Config {
	return Config{
		MinSize:    1 << 20, // 1MB
		MaxSize:    1 << 40, // 1TB
		GrowthStep: 1 << 26, // 64MB
	}
}

// File is an append-only mapped file. Appends are serialized by the caller's write transaction,
// reads may run concurrently with them.
type File struct {
	mu     sync.RWMutex
	file   *os.File
	data   mmap.MMap
	size   uint64
	offset uint64
	config Config
	log    utils.SimpleLogger
}

// Open maps the file at path. offset is the first free byte, as persisted by the caller.
func Open(path string, config Config, offset uint64, log utils.SimpleLogger) (*File, error) {
	flags := os.O_RDWR
	if !config.EnforceFileExists {
		flags |= os.O_CREATE
	}
	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileMissing, path)
		}
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		return nil, utils.RunAndWrapOnError(f.Close, err)
	}
	size := max(uint64(info.Size()), config.MinSize)
	if offset > size {
		return nil, utils.RunAndWrapOnError(f.Close, fmt.Errorf("offset %d is past the end of %s (%d bytes)", offset, path, size))
	}

	file := &File{
		file:   f,
		offset: offset,
		config: config,
		log:    log,
	}
	if err := file.remap(size); err != nil {
		return nil, utils.RunAndWrapOnError(f.Close, err)
	}
	return file, nil
}

// remap resizes the file to size and maps it again. Callers hold the write lock.
func (f *File) remap(size uint64) error {
	if f.data != nil {
		if err := f.data.Unmap(); err != nil {
			return err
		}
		f.data = nil
	}
	if err := f.file.Truncate(int64(size)); err != nil {
		return err
	}
	data, err := mmap.MapRegion(f.file, int(size), mmap.RDWR, 0, 0)
	if err != nil {
		return err
	}
	f.data = data
	f.size = size
	return nil
}

// Append copies value to the end of the file and returns where it was written.
func (f *File) Append(value []byte) (core.LocationInFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.data == nil {
		return core.LocationInFile{}, ErrClosed
	}

	end := f.offset + uint64(len(value))
	if end > f.size {
		newSize := f.size
		for newSize < end {
			newSize += f.config.GrowthStep
		}
		if newSize > f.config.MaxSize {
			return core.LocationInFile{}, fmt.Errorf("%w: need %d bytes, max %d", ErrFileFull, newSize, f.config.MaxSize)
		}
		f.log.Debugw("Growing blob file", "file", f.file.Name(), "from", f.size, "to", newSize)
		if err := f.remap(newSize); err != nil {
			return core.LocationInFile{}, err
		}
	}

	location := core.LocationInFile{Offset: f.offset, Len: uint64(len(value))}
	copy(f.data[f.offset:end], value)
	f.offset = end
	return location, nil
}

// Read returns a copy of the value at location.
func (f *File) Read(location core.LocationInFile) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.data == nil {
		return nil, ErrClosed
	}
	if location.NextOffset() > f.offset || location.NextOffset() < location.Offset {
		return nil, fmt.Errorf("%w: %+v, written %d", ErrOutOfRange, location, f.offset)
	}

	value := make([]byte, location.Len)
	copy(value, f.data[location.Offset:location.NextOffset()])
	return value, nil
}

// Offset is the first free byte.
func (f *File) Offset() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.offset
}

// SetOffset moves the append position back, the bytes after it are overwritten by the next append.
func (f *File) SetOffset(offset uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offset = min(offset, f.size)
}

// Flush writes the mapped pages to disk.
func (f *File) Flush() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.data == nil {
		return ErrClosed
	}
	return f.data.Flush()
}

func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.data == nil {
		return ErrClosed
	}
	err := f.data.Flush()
	if unmapErr := f.data.Unmap(); unmapErr != nil {
		err = errors.Join(err, unmapErr)
	}
	f.data = nil
	return errors.Join(err, f.file.Close())
}
