package memory

import (
	"time"

	"github.com/NethermindEth/statedb/db"
)

var _ db.Snapshot = (*snapshot)(nil)

// snapshot is a private copy of the entries taken when it was created.
type snapshot struct {
	db       map[string][]byte
	listener db.EventListener
}

func (s *snapshot) Has(key []byte) (bool, error) {
	defer s.listener.OnIO(false, time.Now())
	if s.db == nil {
		return false, db.ErrClosed
	}
	_, ok := s.db[string(key)]
	return ok, nil
}

func (s *snapshot) Get(key []byte, cb func(value []byte) error) error {
	defer s.listener.OnIO(false, time.Now())
	if s.db == nil {
		return db.ErrClosed
	}
	val, ok := s.db[string(key)]
	if !ok {
		return db.ErrKeyNotFound
	}
	return cb(val)
}

func (s *snapshot) NewIterator(lowerBound []byte, withUpperBound bool) (db.Iterator, error) {
	if s.db == nil {
		return nil, db.ErrClosed
	}
	return newIterator(s.db, lowerBound, withUpperBound, s.listener), nil
}

func (s *snapshot) Close() error {
	s.db = nil
	return nil
}
