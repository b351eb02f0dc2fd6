package memory

import (
	"maps"
	"slices"
	"time"

	"github.com/NethermindEth/statedb/db"
)

var _ db.IndexedBatch = (*batch)(nil)

type batch struct {
	db *Database
	// Writes are kept in order and replayed on Write, writeMap serves reads of the batch's own writes.
	writes   []keyValue
	writeMap map[string]keyValue
	size     int
	closed   bool
}

type keyValue struct {
	key    string
	value  []byte
	delete bool
}

func newBatch(db *Database) *batch {
	return &batch{
		db:       db,
		writeMap: make(map[string]keyValue),
	}
}

func (b *batch) Get(key []byte, cb func(value []byte) error) error {
	if b.closed {
		return db.ErrClosed
	}
	if val, ok := b.writeMap[string(key)]; ok {
		if val.delete {
			return db.ErrKeyNotFound
		}
		return cb(val.value)
	}
	return b.db.Get(key, cb)
}

func (b *batch) Has(key []byte) (bool, error) {
	if b.closed {
		return false, db.ErrClosed
	}
	if val, ok := b.writeMap[string(key)]; ok {
		return !val.delete, nil
	}
	return b.db.Has(key)
}

// NewIterator iterates over the database overlaid with the batch's writes at the time of the call.
func (b *batch) NewIterator(lowerBound []byte, withUpperBound bool) (db.Iterator, error) {
	if b.closed {
		return nil, db.ErrClosed
	}

	b.db.lock.RLock()
	if b.db.db == nil {
		b.db.lock.RUnlock()
		return nil, db.ErrClosed
	}
	merged := maps.Clone(b.db.db)
	b.db.lock.RUnlock()

	for _, kv := range b.writeMap {
		if kv.delete {
			delete(merged, kv.key)
		} else {
			merged[kv.key] = kv.value
		}
	}
	return newIterator(merged, lowerBound, withUpperBound, b.db.listener), nil
}

func (b *batch) Put(key, value []byte) error {
	if b.closed {
		return db.ErrClosed
	}
	defer b.db.listener.OnIO(true, time.Now())

	kv := keyValue{key: string(key), value: slices.Clone(value)}
	b.writes = append(b.writes, kv)
	b.writeMap[kv.key] = kv
	b.size += len(key) + len(value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	if b.closed {
		return db.ErrClosed
	}
	defer b.db.listener.OnIO(true, time.Now())

	kv := keyValue{key: string(key), delete: true}
	b.writes = append(b.writes, kv)
	b.writeMap[kv.key] = kv
	b.size += len(key)
	return nil
}

func (b *batch) Size() int {
	return b.size
}

func (b *batch) Write() error {
	if b.closed {
		return db.ErrClosed
	}
	defer b.db.listener.OnCommit(time.Now())
	defer b.release()

	b.db.lock.Lock()
	defer b.db.lock.Unlock()

	if b.db.db == nil {
		return db.ErrClosed
	}

	for _, write := range b.writes {
		if write.delete {
			delete(b.db.db, write.key)
		} else {
			b.db.db[write.key] = write.value
		}
	}
	return nil
}

// Close discards the pending writes.
func (b *batch) Close() error {
	if b.closed {
		return db.ErrClosed
	}
	b.release()
	return nil
}

func (b *batch) release() {
	b.closed = true
	b.writes = nil
	b.writeMap = nil
	b.size = 0
	b.db.wMutex.Unlock()
}
