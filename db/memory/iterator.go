package memory

import (
	"bytes"
	"sort"
	"time"

	"github.com/NethermindEth/statedb/db"
)

var _ db.Iterator = (*iterator)(nil)

// iterator walks a sorted copy of the keys. curInd is -1 before the first key and len(keys) after the last.
type iterator struct {
	curInd     int
	positioned bool
	keys       []string
	values     [][]byte
	listener   db.EventListener
	closed     bool
}

func newIterator(entries map[string][]byte, lowerBound []byte, withUpperBound bool, listener db.EventListener) *iterator {
	keys, values := sortedRange(entries, lowerBound, withUpperBound)
	return &iterator{
		curInd:   -1,
		keys:     keys,
		values:   values,
		listener: listener,
	}
}

func (i *iterator) Valid() bool {
	return !i.closed && i.curInd >= 0 && i.curInd < len(i.keys)
}

func (i *iterator) First() bool {
	i.positioned = true
	i.curInd = 0
	return i.Valid()
}

func (i *iterator) Last() bool {
	i.positioned = true
	i.curInd = len(i.keys) - 1
	return i.Valid()
}

func (i *iterator) Next() bool {
	if !i.positioned {
		return i.First()
	}
	if i.curInd < len(i.keys) {
		i.curInd++
	}
	return i.Valid()
}

func (i *iterator) Prev() bool {
	if !i.positioned {
		return i.Last()
	}
	if i.curInd >= 0 {
		i.curInd--
	}
	return i.Valid()
}

func (i *iterator) Key() []byte {
	if !i.Valid() {
		return nil
	}
	return []byte(i.keys[i.curInd])
}

func (i *iterator) Value() ([]byte, error) {
	if i.closed {
		return nil, db.ErrClosed
	}
	if !i.Valid() {
		return nil, db.ErrKeyNotFound
	}
	defer i.listener.OnIO(false, time.Now())
	return bytes.Clone(i.values[i.curInd]), nil
}

// Seek moves to the first key greater than or equal to key.
func (i *iterator) Seek(key []byte) bool {
	i.positioned = true
	target := string(key)
	i.curInd = sort.SearchStrings(i.keys, target)
	return i.Valid()
}

func (i *iterator) Close() error {
	if i.closed {
		return db.ErrClosed
	}
	i.closed = true
	i.keys = nil
	i.values = nil
	return nil
}
