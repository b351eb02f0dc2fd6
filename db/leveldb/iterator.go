package leveldb

import (
	"time"

	"github.com/NethermindEth/statedb/db"
	"github.com/syndtr/goleveldb/leveldb/iterator"
)

var _ db.Iterator = (*ldbIterator)(nil)

type ldbIterator struct {
	iter       iterator.Iterator
	positioned bool
	listener   db.EventListener
}

func newIterator(iter iterator.Iterator, listener db.EventListener) *ldbIterator {
	return &ldbIterator{iter: iter, listener: listener}
}

func (i *ldbIterator) Valid() bool { return i.iter.Valid() }
func (i *ldbIterator) Key() []byte { return i.iter.Key() }

func (i *ldbIterator) First() bool {
	i.positioned = true
	return i.iter.First()
}

func (i *ldbIterator) Last() bool {
	i.positioned = true
	return i.iter.Last()
}

func (i *ldbIterator) Seek(key []byte) bool {
	i.positioned = true
	return i.iter.Seek(key)
}

// Next moves to the first key on a fresh iterator.
func (i *ldbIterator) Next() bool {
	i.positioned = true
	return i.iter.Next()
}

// Prev moves to the last key on a fresh iterator. goleveldb would report exhaustion instead.
func (i *ldbIterator) Prev() bool {
	if !i.positioned {
		return i.Last()
	}
	return i.iter.Prev()
}

func (i *ldbIterator) Value() ([]byte, error) {
	defer i.listener.OnIO(false, time.Now())
	return i.iter.Value(), i.iter.Error()
}

func (i *ldbIterator) Close() error {
	i.iter.Release()
	return i.iter.Error()
}
