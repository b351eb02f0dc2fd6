package pebble

import (
	"time"

	"github.com/NethermindEth/statedb/db"
	"github.com/cockroachdb/pebble"
)

var _ db.Iterator = (*iterator)(nil)

type iterator struct {
	iter       *pebble.Iterator
	positioned bool
	listener   db.EventListener
}

// Valid : see db.Iterator.Valid
func (i *iterator) Valid() bool {
	return i.iter.Valid()
}

// Key : see db.Iterator.Key
func (i *iterator) Key() []byte {
	return i.iter.Key()
}

// Value : see db.Iterator.Value
func (i *iterator) Value() ([]byte, error) {
	defer i.listener.OnIO(false, time.Now())
	return i.iter.ValueAndErr()
}

// First : see db.Iterator.First
func (i *iterator) First() bool {
	i.positioned = true
	return i.iter.First()
}

// Last : see db.Iterator.Last
func (i *iterator) Last() bool {
	i.positioned = true
	return i.iter.Last()
}

// Next : see db.Iterator.Next
func (i *iterator) Next() bool {
	if !i.positioned {
		return i.First()
	}
	return i.iter.Next()
}

// Prev : see db.Iterator.Prev
func (i *iterator) Prev() bool {
	if !i.positioned {
		return i.Last()
	}
	return i.iter.Prev()
}

// Seek : see db.Iterator.Seek
func (i *iterator) Seek(key []byte) bool {
	i.positioned = true
	return i.iter.SeekGE(key)
}

// Close : see db.Iterator.Close
func (i *iterator) Close() error {
	return i.iter.Close()
}
