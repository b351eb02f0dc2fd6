package db

import "io"

// KeyValueReader reads from a data store.
type KeyValueReader interface {
	// Has checks if a key exists in the data store
	Has(key []byte) (bool, error)
	// Get passes the value of key to cb. The value is only valid inside cb.
	// Returns ErrKeyNotFound when the key does not exist.
	Get(key []byte, cb func(value []byte) error) error
}

// KeyValueWriter writes to a data store.
type KeyValueWriter interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

// Iterable produces iterators over a data store.
type Iterable interface {
	// NewIterator iterates over the keys greater than or equal to lowerBound. With
	// withUpperBound set, iteration stops at the first key that does not start with lowerBound.
	NewIterator(lowerBound []byte, withUpperBound bool) (Iterator, error)
}

// Snapshot is a read-only view of the database at the time it was taken.
type Snapshot interface {
	KeyValueReader
	Iterable
	io.Closer
}

type Snapshotter interface {
	NewSnapshot() Snapshot
}

// Batch gathers changes in memory and applies them atomically on Write.
// Close discards the changes that were not written.
type Batch interface {
	KeyValueWriter
	// Size is the number of key and value bytes written to the batch.
	Size() int
	Write() error
	io.Closer
}

// IndexedBatch is a Batch that can read its own writes on top of the database.
// At most one indexed batch is open at a time: NewIndexedBatch blocks until the
// previous one is written or closed.
type IndexedBatch interface {
	Batch
	KeyValueReader
	Iterable
}

type IndexedBatcher interface {
	NewIndexedBatch() IndexedBatch
}

type Helper interface {
	// Update runs fn in an indexed batch and writes it if fn succeeds.
	Update(fn func(IndexedBatch) error) error
	// View runs fn on a snapshot.
	View(fn func(Snapshot) error) error
	// Impl returns the underlying engine.
	Impl() any
}

type Listener interface {
	WithListener(listener EventListener) KeyValueStore
}

// KeyValueStore is an ordered key-value engine.
type KeyValueStore interface {
	KeyValueReader
	KeyValueWriter
	IndexedBatcher
	Snapshotter
	Iterable
	Helper
	Listener
	io.Closer
}
