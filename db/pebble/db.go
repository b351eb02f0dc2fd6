package pebble

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/NethermindEth/statedb/db"
	"github.com/NethermindEth/statedb/utils"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

var _ db.KeyValueStore = (*DB)(nil)

type DB struct {
	pebble   *pebble.DB
	wMutex   *sync.Mutex
	listener db.EventListener

	closeLock sync.RWMutex
	closed    bool
}

// New opens a new database at the given path
func New(path string, opts ...Option) (*DB, error) {
	options := &pebble.Options{}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	return newPebble(path, options)
}

// NewMem opens a new in-memory database
func NewMem() (*DB, error) {
	return newPebble("", &pebble.Options{
		FS: vfs.NewMem(),
	})
}

// NewMemTest opens a new in-memory database that is closed when the test ends
func NewMemTest(t testing.TB) *DB {
	t.Helper()
	memDB, err := NewMem()
	if err != nil {
		t.Fatalf("create in-memory db: %v", err)
	}
	t.Cleanup(func() {
		if err := memDB.Close(); err != nil && !errors.Is(err, pebble.ErrClosed) {
			t.Errorf("close in-memory db: %v", err)
		}
	})
	return memDB
}

func newPebble(path string, options *pebble.Options) (*DB, error) {
	pDB, err := pebble.Open(path, options)
	if err != nil {
		return nil, err
	}
	return &DB{pebble: pDB, wMutex: new(sync.Mutex), listener: &db.SelectiveListener{}}, nil
}

// WithListener registers an EventListener
func (d *DB) WithListener(listener db.EventListener) db.KeyValueStore {
	d.listener = listener
	return d
}

func (d *DB) Has(key []byte) (bool, error) {
	defer d.listener.OnIO(false, time.Now())

	_, closer, err := d.pebble.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, closer.Close()
}

func (d *DB) Get(key []byte, cb func(value []byte) error) error {
	defer d.listener.OnIO(false, time.Now())

	val, closer, err := d.pebble.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return db.ErrKeyNotFound
		}
		return err
	}
	return utils.RunAndWrapOnError(closer.Close, cb(val))
}

// Put writes outside of any batch. It waits for a running indexed batch to finish.
func (d *DB) Put(key, value []byte) error {
	d.wMutex.Lock()
	defer d.wMutex.Unlock()
	defer d.listener.OnIO(true, time.Now())

	return d.pebble.Set(key, value, pebble.Sync)
}

func (d *DB) Delete(key []byte) error {
	d.wMutex.Lock()
	defer d.wMutex.Unlock()
	defer d.listener.OnIO(true, time.Now())

	return d.pebble.Delete(key, pebble.Sync)
}

// NewIndexedBatch takes the write lock, it is released when the batch is written or closed.
func (d *DB) NewIndexedBatch() db.IndexedBatch {
	d.wMutex.Lock()
	return newBatch(d.pebble.NewIndexedBatch(), d, d.listener)
}

func (d *DB) NewSnapshot() db.Snapshot {
	return newSnapshot(d.pebble, d.listener)
}

func (d *DB) NewIterator(lowerBound []byte, withUpperBound bool) (db.Iterator, error) {
	iter, err := d.pebble.NewIter(iterOptions(lowerBound, withUpperBound))
	if err != nil {
		return nil, err
	}
	return &iterator{iter: iter, listener: d.listener}, nil
}

// Update : see db.Helper.Update
func (d *DB) Update(fn func(db.IndexedBatch) error) error {
	batch := d.NewIndexedBatch()
	defer closeBatchOnPanic(batch)
	if err := fn(batch); err != nil {
		return utils.RunAndWrapOnError(batch.Close, err)
	}
	return batch.Write()
}

// View : see db.Helper.View
func (d *DB) View(fn func(db.Snapshot) error) error {
	snap := d.NewSnapshot()
	return utils.RunAndWrapOnError(snap.Close, fn(snap))
}

// Impl : see db.Helper.Impl
func (d *DB) Impl() any {
	return d.pebble
}

// Close : see io.Closer.Close
func (d *DB) Close() error {
	d.closeLock.Lock()
	defer d.closeLock.Unlock()

	if d.closed {
		return pebble.ErrClosed
	}
	d.closed = true
	return d.pebble.Close()
}

func iterOptions(lowerBound []byte, withUpperBound bool) *pebble.IterOptions {
	opts := &pebble.IterOptions{LowerBound: lowerBound}
	if withUpperBound {
		opts.UpperBound = db.UpperBound(lowerBound)
	}
	return opts
}

func closeBatchOnPanic(batch db.Batch) {
	if p := recover(); p != nil {
		_ = batch.Close()
		panic(p)
	}
}
