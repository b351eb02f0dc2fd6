package leveldb

import (
	"time"

	"github.com/NethermindEth/statedb/db"
	"github.com/syndtr/goleveldb/leveldb"
)

var _ db.Snapshot = (*snapshot)(nil)

type snapshot struct {
	snap     *leveldb.Snapshot
	listener db.EventListener
}

func (s *snapshot) Has(key []byte) (bool, error) {
	defer s.listener.OnIO(false, time.Now())
	return s.snap.Has(key, nil)
}

func (s *snapshot) Get(key []byte, cb func(value []byte) error) error {
	defer s.listener.OnIO(false, time.Now())
	return get(s.snap.Get, key, cb)
}

func (s *snapshot) NewIterator(lowerBound []byte, withUpperBound bool) (db.Iterator, error) {
	return newIterator(s.snap.NewIterator(iterRange(lowerBound, withUpperBound), nil), s.listener), nil
}

func (s *snapshot) Close() error {
	s.snap.Release()
	return nil
}
