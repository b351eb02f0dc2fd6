package memory

import (
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/NethermindEth/statedb/db"
	"github.com/NethermindEth/statedb/utils"
)

var _ db.KeyValueStore = (*Database)(nil)

// Represents an in-memory key-value store.
// It is thread-safe and admits one indexed batch at a time.
type Database struct {
	db       map[string][]byte
	lock     sync.RWMutex
	wMutex   sync.Mutex
	listener db.EventListener
}

func New() *Database {
	return &Database{
		db:       make(map[string][]byte),
		listener: &db.SelectiveListener{},
	}
}

func (d *Database) Has(key []byte) (bool, error) {
	defer d.listener.OnIO(false, time.Now())
	d.lock.RLock()
	defer d.lock.RUnlock()

	if d.db == nil {
		return false, db.ErrClosed
	}

	_, ok := d.db[string(key)]
	return ok, nil
}

func (d *Database) Get(key []byte, cb func(value []byte) error) error {
	defer d.listener.OnIO(false, time.Now())
	d.lock.RLock()
	defer d.lock.RUnlock()

	if d.db == nil {
		return db.ErrClosed
	}

	val, ok := d.db[string(key)]
	if !ok {
		return db.ErrKeyNotFound
	}

	return cb(val)
}

func (d *Database) Put(key, value []byte) error {
	d.wMutex.Lock()
	defer d.wMutex.Unlock()
	defer d.listener.OnIO(true, time.Now())
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.db == nil {
		return db.ErrClosed
	}

	d.db[string(key)] = slices.Clone(value)
	return nil
}

func (d *Database) Delete(key []byte) error {
	d.wMutex.Lock()
	defer d.wMutex.Unlock()
	defer d.listener.OnIO(true, time.Now())
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.db == nil {
		return db.ErrClosed
	}

	delete(d.db, string(key))
	return nil
}

func (d *Database) Close() error {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.db == nil {
		return db.ErrClosed
	}
	d.db = nil
	return nil
}

// NewIndexedBatch blocks until no other batch is open.
func (d *Database) NewIndexedBatch() db.IndexedBatch {
	d.wMutex.Lock()
	return newBatch(d)
}

func (d *Database) NewIterator(lowerBound []byte, withUpperBound bool) (db.Iterator, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()

	if d.db == nil {
		return nil, db.ErrClosed
	}
	return newIterator(d.db, lowerBound, withUpperBound, d.listener), nil
}

func (d *Database) NewSnapshot() db.Snapshot {
	d.lock.RLock()
	defer d.lock.RUnlock()

	return &snapshot{db: cloneEntries(d.db), listener: d.listener}
}

func (d *Database) Update(fn func(db.IndexedBatch) error) error {
	batch := d.NewIndexedBatch()
	if err := fn(batch); err != nil {
		return utils.RunAndWrapOnError(batch.Close, err)
	}
	return batch.Write()
}

func (d *Database) View(fn func(db.Snapshot) error) error {
	snap := d.NewSnapshot()
	return utils.RunAndWrapOnError(snap.Close, fn(snap))
}

func (d *Database) WithListener(listener db.EventListener) db.KeyValueStore {
	d.listener = listener
	return d
}

func (d *Database) Impl() any {
	return d.db
}

func cloneEntries(entries map[string][]byte) map[string][]byte {
	if entries == nil {
		return nil
	}
	cp := make(map[string][]byte, len(entries))
	for k, v := range entries {
		cp[k] = slices.Clone(v)
	}
	return cp
}

// sortedRange returns the keys within [lowerBound, UpperBound(lowerBound)) in byte order.
func sortedRange(entries map[string][]byte, lowerBound []byte, withUpperBound bool) ([]string, [][]byte) {
	var (
		lb   = string(lowerBound)
		ub   string
		keys = make([]string, 0, len(entries))
	)
	if withUpperBound {
		if upper := db.UpperBound(lowerBound); upper != nil {
			ub = string(upper)
		} else {
			withUpperBound = false
		}
	}

	for k := range entries {
		if k >= lb && (!withUpperBound || k < ub) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	vals := make([][]byte, len(keys))
	for i, k := range keys {
		vals[i] = entries[k]
	}
	return keys, vals
}
