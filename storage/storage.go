// Package storage keeps the state of the chain per block: every state diff is appended as
// a new version of the entities it touches, so that any past state can be read back and
// the latest block can be reverted.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/NethermindEth/statedb/core"
	"github.com/NethermindEth/statedb/db"
	"github.com/NethermindEth/statedb/db/leveldb"
	"github.com/NethermindEth/statedb/db/memory"
	"github.com/NethermindEth/statedb/db/pebble"
	"github.com/NethermindEth/statedb/metrics"
	"github.com/NethermindEth/statedb/utils"
	"github.com/pkg/errors"
)

var ErrTxnDone = errors.New("transaction already committed or discarded")

const blobDir = "blobs"

type Storage struct {
	db      db.KeyValueStore
	files   FileHandlers
	log     utils.SimpleLogger
	metrics *metrics.Storage
	// writeMu is held by the open write transaction, from BeginWrite until the blob
	// offsets are settled by Commit or Discard.
	writeMu sync.Mutex
}

type options struct {
	metrics  *metrics.Storage
	listener db.EventListener
	version  core.Version
}

type Option func(*options)

func WithMetrics(m *metrics.Storage) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithDBListener attaches listener to the database opened by Open.
func WithDBListener(listener db.EventListener) Option {
	return func(o *options) {
		o.listener = listener
	}
}

// WithVersion overrides the layout version this binary writes.
func WithVersion(version core.Version) Option {
	return func(o *options) {
		o.version = version
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		metrics: metrics.NewStorage(metrics.VoidFactory()),
		version: CurrentVersion,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Open opens the database and the blob files described by config.
func Open(config *Config, log utils.Logger, opts ...Option) (*Storage, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid storage config")
	}
	o := newOptions(opts)

	database, err := openDB(config, log)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", config.Engine)
	}
	if o.listener != nil {
		database = database.WithListener(o.listener)
	}

	offsets, err := readOffsets(database)
	if err != nil {
		return nil, utils.RunAndWrapOnError(database.Close, err)
	}

	dir := filepath.Join(config.Path, blobDir)
	if err = os.MkdirAll(dir, 0o700); err != nil {
		return nil, utils.RunAndWrapOnError(database.Close, err)
	}
	files, err := OpenFiles(dir, config.Blob, offsets, log)
	if err != nil {
		return nil, utils.RunAndWrapOnError(database.Close, err)
	}

	s, err := New(database, files, log, opts...)
	if err != nil {
		return nil, utils.RunAndWrapOnError(database.Close, utils.RunAndWrapOnError(files.Close, err))
	}
	return s, nil
}

func openDB(config *Config, log utils.Logger) (db.KeyValueStore, error) {
	switch config.Engine {
	case EnginePebble:
		return pebble.New(config.Path,
			pebble.WithCacheSize(config.CacheSizeMB),
			pebble.WithMaxOpenFiles(config.MaxOpenFiles),
			pebble.WithLogger(log),
		)
	case EngineLevelDB:
		return leveldb.New(config.Path,
			leveldb.WithCacheSize(config.CacheSizeMB),
			leveldb.WithMaxOpenFiles(config.MaxOpenFiles),
		)
	case EngineMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown engine %q", config.Engine)
	}
}

// New takes ownership of database and files. It checks the storage version and records
// it on first use.
func New(database db.KeyValueStore, files FileHandlers, log utils.SimpleLogger, opts ...Option) (*Storage, error) {
	o := newOptions(opts)
	s := &Storage{
		db:      database,
		files:   files,
		log:     log,
		metrics: o.metrics,
	}

	if err := s.Update(func(txn *WriteTxn) error {
		return txn.checkVersion(o.version)
	}); err != nil {
		return nil, err
	}

	if err := s.View(func(txn *ReadTxn) error {
		for _, kind := range core.MarkerKinds() {
			block, err := txn.Marker(kind)
			if err != nil {
				return err
			}
			s.metrics.Markers.WithLabelValues(kind.String()).Set(float64(block))
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Storage) Close() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return utils.RunAndWrapOnError(s.db.Close, s.files.Close())
}

// DB exposes the underlying database, for tools that inspect raw tables.
func (s *Storage) DB() db.KeyValueStore {
	return s.db
}

// BeginRead opens a read transaction over a consistent snapshot. It must be closed.
func (s *Storage) BeginRead() *ReadTxn {
	snapshot := s.db.NewSnapshot()
	return &ReadTxn{
		reader:  snapshot,
		files:   s.files,
		release: snapshot.Close,
	}
}

// BeginWrite opens the write transaction, waiting for the previous one to finish. It must
// be committed or discarded.
func (s *Storage) BeginWrite() *WriteTxn {
	s.writeMu.Lock()
	batch := s.db.NewIndexedBatch()
	return &WriteTxn{
		ReadTxn: ReadTxn{
			reader: batch,
			files:  s.files,
		},
		storage: s,
		batch:   batch,
		markers: make(map[core.MarkerKind]core.BlockNumber),
	}
}

// View runs fn in a read transaction.
func (s *Storage) View(fn func(txn *ReadTxn) error) error {
	txn := s.BeginRead()
	return utils.RunAndWrapOnError(txn.Close, fn(txn))
}

// Update runs fn in a write transaction, committing it when fn succeeds.
func (s *Storage) Update(fn func(txn *WriteTxn) error) error {
	txn := s.BeginWrite()
	defer func() {
		if p := recover(); p != nil {
			_ = txn.Discard()
			panic(p)
		}
	}()

	if err := fn(txn); err != nil {
		return utils.RunAndWrapOnError(txn.Discard, err)
	}
	return txn.Commit()
}

type reader interface {
	db.KeyValueReader
	db.Iterable
}

type ReadTxn struct {
	reader  reader
	files   FileHandlers
	release func() error
}

func (t *ReadTxn) Close() error {
	if t.release == nil {
		return nil
	}
	release := t.release
	t.release = nil
	return release()
}

// Marker returns the first block whose data of the given kind is not stored.
func (t *ReadTxn) Marker(kind core.MarkerKind) (core.BlockNumber, error) {
	block, _, err := markersTable.Get(t.reader, kind)
	return block, err
}

// FileOffset returns the persisted end of the blob file of the given kind.
func (t *ReadTxn) FileOffset(kind core.OffsetKind) (uint64, error) {
	offset, _, err := fileOffsetsTable.Get(t.reader, kind)
	return offset, err
}

// WriteTxn is the single write transaction. All table changes are buffered in one indexed
// batch and applied atomically by Commit.
type WriteTxn struct {
	ReadTxn
	storage *Storage
	batch   db.IndexedBatch
	// markers changed by this transaction, published to metrics on commit.
	markers map[core.MarkerKind]core.BlockNumber
	done    bool
}

// Commit makes the blob files durable and then writes the batch.
func (t *WriteTxn) Commit() error {
	if t.done {
		return ErrTxnDone
	}
	t.done = true
	defer t.storage.writeMu.Unlock()

	if err := t.files.Flush(); err != nil {
		err = utils.RunAndWrapOnError(t.batch.Close, errors.Wrap(err, "flush blob files"))
		return utils.RunAndWrapOnError(t.resetFiles, err)
	}
	if err := t.batch.Write(); err != nil {
		return utils.RunAndWrapOnError(t.resetFiles, errors.Wrap(err, "write batch"))
	}

	for kind, block := range t.markers {
		t.storage.metrics.Markers.WithLabelValues(kind.String()).Set(float64(block))
	}
	return nil
}

// Discard drops every change of the transaction. The blob bytes it appended are
// overwritten by the next writer. Discarding a finished transaction does nothing.
func (t *WriteTxn) Discard() error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.storage.writeMu.Unlock()
	return utils.RunAndWrapOnError(t.resetFiles, t.batch.Close())
}

// resetFiles moves the blob files back to the committed offsets.
func (t *WriteTxn) resetFiles() error {
	offsets, err := readOffsets(t.storage.db)
	if err != nil {
		return errors.Wrap(err, "read file offsets")
	}
	t.files.Reset(offsets)
	return nil
}

func readOffsets(r db.KeyValueReader) (map[core.OffsetKind]uint64, error) {
	offsets := make(map[core.OffsetKind]uint64)
	for _, kind := range core.OffsetKinds() {
		offset, _, err := fileOffsetsTable.Get(r, kind)
		if err != nil {
			return nil, err
		}
		offsets[kind] = offset
	}
	return offsets, nil
}

func (t *WriteTxn) setMarker(kind core.MarkerKind, block core.BlockNumber) error {
	if err := markersTable.Upsert(t.batch, kind, block); err != nil {
		return errors.Wrapf(err, "set %s marker", kind)
	}
	t.markers[kind] = block
	return nil
}

// advanceMarker moves the marker of kind from block to the next block.
func (t *WriteTxn) advanceMarker(kind core.MarkerKind, block core.BlockNumber) error {
	if err := t.checkMarker(kind, block); err != nil {
		return err
	}
	return t.setMarker(kind, block.Next())
}

func (t *WriteTxn) checkMarker(kind core.MarkerKind, block core.BlockNumber) error {
	marker, err := t.Marker(kind)
	if err != nil {
		return err
	}
	if marker != block {
		return &MarkerMismatchError{Kind: kind, Expected: marker, Found: block}
	}
	return nil
}

func (t *WriteTxn) setFileOffset(kind core.OffsetKind, location core.LocationInFile) error {
	return fileOffsetsTable.Upsert(t.batch, kind, location.NextOffset())
}

func observe(h metrics.Histogram, start time.Time) {
	h.Observe(time.Since(start).Seconds())
}
