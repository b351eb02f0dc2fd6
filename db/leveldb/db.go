package leveldb

import (
	"errors"
	"testing"
	"time"

	"github.com/NethermindEth/statedb/db"
	"github.com/NethermindEth/statedb/utils"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var _ db.KeyValueStore = (*DB)(nil)

// DB adapts a goleveldb database. Indexed batches are leveldb transactions, so at most
// one of them is open at a time and plain writes wait for it.
type DB struct {
	ldb      *leveldb.DB
	listener db.EventListener
}

// New opens a new database at the given path
func New(path string, opts ...Option) (*DB, error) {
	options := &opt.Options{}
	for _, o := range opts {
		o(options)
	}
	ldb, err := leveldb.OpenFile(path, options)
	if err != nil {
		return nil, err
	}
	return wrap(ldb), nil
}

// NewMem opens a database backed by memory storage
func NewMem() (*DB, error) {
	ldb, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return wrap(ldb), nil
}

// NewMemTest opens a memory backed database that is closed when the test ends
func NewMemTest(t testing.TB) *DB {
	t.Helper()
	memDB, err := NewMem()
	if err != nil {
		t.Fatalf("create in-memory leveldb: %v", err)
	}
	t.Cleanup(func() {
		if err := memDB.Close(); err != nil && !errors.Is(err, leveldb.ErrClosed) {
			t.Errorf("close in-memory leveldb: %v", err)
		}
	})
	return memDB
}

func wrap(ldb *leveldb.DB) *DB {
	return &DB{ldb: ldb, listener: &db.SelectiveListener{}}
}

func (d *DB) WithListener(listener db.EventListener) db.KeyValueStore {
	d.listener = listener
	return d
}

func (d *DB) Has(key []byte) (bool, error) {
	defer d.listener.OnIO(false, time.Now())
	return d.ldb.Has(key, nil)
}

func (d *DB) Get(key []byte, cb func(value []byte) error) error {
	defer d.listener.OnIO(false, time.Now())
	return get(d.ldb.Get, key, cb)
}

func (d *DB) Put(key, value []byte) error {
	defer d.listener.OnIO(true, time.Now())
	return d.ldb.Put(key, value, &opt.WriteOptions{Sync: true})
}

func (d *DB) Delete(key []byte) error {
	defer d.listener.OnIO(true, time.Now())
	return d.ldb.Delete(key, &opt.WriteOptions{Sync: true})
}

func (d *DB) NewIterator(lowerBound []byte, withUpperBound bool) (db.Iterator, error) {
	return newIterator(d.ldb.NewIterator(iterRange(lowerBound, withUpperBound), nil), d.listener), nil
}

// NewIndexedBatch opens a leveldb transaction, blocking while another one is open.
// It panics if the database is closed.
func (d *DB) NewIndexedBatch() db.IndexedBatch {
	txn, err := d.ldb.OpenTransaction()
	if err != nil {
		panic(err)
	}
	return &batch{txn: txn, listener: d.listener}
}

// NewSnapshot panics if the database is closed.
func (d *DB) NewSnapshot() db.Snapshot {
	snap, err := d.ldb.GetSnapshot()
	if err != nil {
		panic(err)
	}
	return &snapshot{snap: snap, listener: d.listener}
}

func (d *DB) Update(fn func(db.IndexedBatch) error) error {
	b := d.NewIndexedBatch()
	if err := fn(b); err != nil {
		return utils.RunAndWrapOnError(b.Close, err)
	}
	return b.Write()
}

func (d *DB) View(fn func(db.Snapshot) error) error {
	snap := d.NewSnapshot()
	return utils.RunAndWrapOnError(snap.Close, fn(snap))
}

func (d *DB) Impl() any {
	return d.ldb
}

func (d *DB) Close() error {
	return d.ldb.Close()
}

func iterRange(lowerBound []byte, withUpperBound bool) *util.Range {
	r := &util.Range{Start: lowerBound}
	if withUpperBound {
		r.Limit = db.UpperBound(lowerBound)
	}
	return r
}

func get(getFn func([]byte, *opt.ReadOptions) ([]byte, error), key []byte, cb func([]byte) error) error {
	val, err := getFn(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return db.ErrKeyNotFound
		}
		return err
	}
	return cb(val)
}
