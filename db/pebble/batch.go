package pebble

import (
	"errors"
	"time"

	"github.com/NethermindEth/statedb/db"
	"github.com/cockroachdb/pebble"
)

var _ db.IndexedBatch = (*batch)(nil)

type batch struct {
	batch    *pebble.Batch
	db       *DB
	size     int // size of the batch in bytes
	listener db.EventListener
}

func newBatch(dbBatch *pebble.Batch, db *DB, listener db.EventListener) *batch {
	return &batch{
		batch:    dbBatch,
		db:       db,
		listener: listener,
	}
}

// Delete : see db.KeyValueWriter.Delete
func (b *batch) Delete(key []byte) error {
	if b.batch == nil {
		return pebble.ErrClosed
	}
	defer b.listener.OnIO(true, time.Now())

	if err := b.batch.Delete(key, pebble.Sync); err != nil {
		return err
	}
	b.size += len(key)
	return nil
}

func (b *batch) Get(key []byte, cb func(value []byte) error) error {
	if b.batch == nil {
		return pebble.ErrClosed
	}
	defer b.listener.OnIO(false, time.Now())

	val, closer, err := b.batch.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return db.ErrKeyNotFound
		}
		return err
	}

	if err := cb(val); err != nil {
		_ = closer.Close()
		return err
	}

	return closer.Close()
}

func (b *batch) Has(key []byte) (bool, error) {
	if b.batch == nil {
		return false, pebble.ErrClosed
	}
	defer b.listener.OnIO(false, time.Now())

	_, closer, err := b.batch.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	return true, closer.Close()
}

func (b *batch) NewIterator(lowerBound []byte, withUpperBound bool) (db.Iterator, error) {
	if b.batch == nil {
		return nil, pebble.ErrClosed
	}

	iter, err := b.batch.NewIter(iterOptions(lowerBound, withUpperBound))
	if err != nil {
		return nil, err
	}

	return &iterator{iter: iter, listener: b.listener}, nil
}

func (b *batch) Put(key, value []byte) error {
	if b.batch == nil {
		return pebble.ErrClosed
	}
	defer b.listener.OnIO(true, time.Now())

	if err := b.batch.Set(key, value, pebble.Sync); err != nil {
		return err
	}
	b.size += len(key) + len(value)
	return nil
}

func (b *batch) Size() int {
	return b.size
}

func (b *batch) Write() error {
	if b.batch == nil {
		return pebble.ErrClosed
	}
	defer b.listener.OnCommit(time.Now())

	b.db.closeLock.RLock()
	closed := b.db.closed
	b.db.closeLock.RUnlock()
	if closed {
		_ = b.Close()
		return pebble.ErrClosed
	}

	if err := b.batch.Commit(pebble.Sync); err != nil {
		_ = b.Close()
		return err
	}

	return b.Close()
}

// Close discards the batch and releases the write lock.
func (b *batch) Close() error {
	if b.batch == nil {
		return pebble.ErrClosed
	}

	err := b.batch.Close()
	b.db.wMutex.Unlock()

	// Clear all the fields to prevent any further use of the batch.
	*b = batch{}
	return err
}
