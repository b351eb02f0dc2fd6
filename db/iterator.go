package db

import "io"

// Iterator walks key/value pairs in ascending key order. Key and Value are only valid
// until the iterator moves. It must be closed after use and cannot be used concurrently.
type Iterator interface {
	io.Closer

	// Valid returns true if the iterator is positioned at a valid key/value pair.
	Valid() bool

	// First moves the iterator to the first key/value pair.
	First() bool

	// Last moves the iterator to the last key/value pair.
	Last() bool

	// Prev moves the iterator to the previous key/value pair.
	Prev() bool

	// Next moves the iterator to the next key/value pair. On a freshly created iterator
	// it moves to the first pair.
	Next() bool

	Key() []byte

	Value() ([]byte, error)

	// Seek moves to the first key greater than or equal to key.
	Seek(key []byte) bool
}
