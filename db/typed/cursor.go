package typed

import "github.com/NethermindEth/statedb/db"

// Cursor walks the entries of one bucket in key order.
type Cursor[K, V any] struct {
	bucket Bucket[K, V]
	iter   db.Iterator
	// pastEnd is set when a lower bound seek found no entry, the next Prev lands on the last entry.
	pastEnd bool
}

// Entry is the result of a cursor move. Ok is false when the cursor ran off the bucket.
type Entry[K, V any] struct {
	Key   K
	Value V
	Ok    bool
}

// LowerBound moves to the first entry whose key is greater than or equal to key.
func (c *Cursor[K, V]) LowerBound(key K) (Entry[K, V], error) {
	rawKey, err := c.bucket.RawKey(key)
	if err != nil {
		return Entry[K, V]{}, err
	}
	found := c.iter.Seek(rawKey)
	c.pastEnd = !found
	return c.current(found)
}

// Prev moves to the previous entry.
func (c *Cursor[K, V]) Prev() (Entry[K, V], error) {
	var ok bool
	if c.pastEnd {
		c.pastEnd = false
		ok = c.iter.Last()
	} else {
		ok = c.iter.Prev()
	}
	return c.current(ok)
}

// Next moves to the next entry, or to the first one on a fresh cursor.
func (c *Cursor[K, V]) Next() (Entry[K, V], error) {
	c.pastEnd = false
	return c.current(c.iter.Next())
}

func (c *Cursor[K, V]) First() (Entry[K, V], error) {
	c.pastEnd = false
	return c.current(c.iter.First())
}

func (c *Cursor[K, V]) Last() (Entry[K, V], error) {
	c.pastEnd = false
	return c.current(c.iter.Last())
}

func (c *Cursor[K, V]) Close() error {
	return c.iter.Close()
}

func (c *Cursor[K, V]) current(ok bool) (Entry[K, V], error) {
	if !ok || !c.iter.Valid() {
		return Entry[K, V]{}, nil
	}
	key, value, err := c.bucket.decodeEntry(c.iter)
	if err != nil {
		return Entry[K, V]{}, err
	}
	return Entry[K, V]{Key: key, Value: value, Ok: true}, nil
}
