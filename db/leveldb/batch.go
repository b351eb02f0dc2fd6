package leveldb

import (
	"time"

	"github.com/NethermindEth/statedb/db"
	"github.com/syndtr/goleveldb/leveldb"
)

var _ db.IndexedBatch = (*batch)(nil)

type batch struct {
	txn      *leveldb.Transaction
	size     int
	listener db.EventListener
}

func (b *batch) Has(key []byte) (bool, error) {
	if b.txn == nil {
		return false, db.ErrClosed
	}
	defer b.listener.OnIO(false, time.Now())
	return b.txn.Has(key, nil)
}

func (b *batch) Get(key []byte, cb func(value []byte) error) error {
	if b.txn == nil {
		return db.ErrClosed
	}
	defer b.listener.OnIO(false, time.Now())
	return get(b.txn.Get, key, cb)
}

func (b *batch) NewIterator(lowerBound []byte, withUpperBound bool) (db.Iterator, error) {
	if b.txn == nil {
		return nil, db.ErrClosed
	}
	return newIterator(b.txn.NewIterator(iterRange(lowerBound, withUpperBound), nil), b.listener), nil
}

func (b *batch) Put(key, value []byte) error {
	if b.txn == nil {
		return db.ErrClosed
	}
	defer b.listener.OnIO(true, time.Now())
	if err := b.txn.Put(key, value, nil); err != nil {
		return err
	}
	b.size += len(key) + len(value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	if b.txn == nil {
		return db.ErrClosed
	}
	defer b.listener.OnIO(true, time.Now())
	if err := b.txn.Delete(key, nil); err != nil {
		return err
	}
	b.size += len(key)
	return nil
}

func (b *batch) Size() int {
	return b.size
}

// Write commits the transaction. A failed commit leaves the database untouched.
func (b *batch) Write() error {
	if b.txn == nil {
		return db.ErrClosed
	}
	defer b.listener.OnCommit(time.Now())

	txn := b.txn
	b.txn = nil
	if err := txn.Commit(); err != nil {
		txn.Discard()
		return err
	}
	return nil
}

func (b *batch) Close() error {
	if b.txn == nil {
		return db.ErrClosed
	}
	b.txn.Discard()
	b.txn = nil
	return nil
}
