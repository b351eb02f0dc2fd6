// Package typed binds a db.Bucket to key and value serializers.
package typed

import (
	"errors"
	"fmt"

	"github.com/NethermindEth/statedb/db"
	"github.com/NethermindEth/statedb/encoder"
)

var ErrKeyAlreadyExists = errors.New("key already exists")

// DecodeError reports a stored key or value that could not be decoded.
type DecodeError struct {
	Table string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("table %s: %v", e.Table, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ReadWriter is satisfied by db.IndexedBatch.
type ReadWriter interface {
	db.KeyValueReader
	db.KeyValueWriter
}

type Bucket[K, V any] struct {
	db.Bucket
	key   encoder.Serializer[K]
	value encoder.Serializer[V]
}

func NewBucket[K, V any](bucket db.Bucket, key encoder.Serializer[K], value encoder.Serializer[V]) Bucket[K, V] {
	return Bucket[K, V]{Bucket: bucket, key: key, value: value}
}

// Name is the bucket name, used in errors and logs.
func (t Bucket[K, V]) Name() string {
	return t.Bucket.String()
}

// RawKey returns the prefixed database key of key.
func (t Bucket[K, V]) RawKey(key K) ([]byte, error) {
	encoded, err := encoder.Marshal(t.key, key)
	if err != nil {
		return nil, fmt.Errorf("encode %s key: %w", t.Name(), err)
	}
	return t.Key(encoded), nil
}

// Get returns the value stored under key. A missing key is (zero, false, nil).
func (t Bucket[K, V]) Get(r db.KeyValueReader, key K) (V, bool, error) {
	var value V
	rawKey, err := t.RawKey(key)
	if err != nil {
		return value, false, err
	}

	err = r.Get(rawKey, func(data []byte) error {
		decoded, err := encoder.Unmarshal(t.value, data)
		if err != nil {
			return &DecodeError{Table: t.Name(), Err: err}
		}
		value = decoded
		return nil
	})
	if errors.Is(err, db.ErrKeyNotFound) {
		return value, false, nil
	}
	if err != nil {
		return value, false, err
	}
	return value, true, nil
}

func (t Bucket[K, V]) Has(r db.KeyValueReader, key K) (bool, error) {
	rawKey, err := t.RawKey(key)
	if err != nil {
		return false, err
	}
	return r.Has(rawKey)
}

// Insert writes value under key and fails with ErrKeyAlreadyExists if the key is present.
func (t Bucket[K, V]) Insert(rw ReadWriter, key K, value V) error {
	rawKey, err := t.RawKey(key)
	if err != nil {
		return err
	}
	exists, err := rw.Has(rawKey)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%s: %w", t.Name(), ErrKeyAlreadyExists)
	}
	return t.put(rw, rawKey, value)
}

// Upsert writes value under key, replacing any previous value.
func (t Bucket[K, V]) Upsert(w db.KeyValueWriter, key K, value V) error {
	rawKey, err := t.RawKey(key)
	if err != nil {
		return err
	}
	return t.put(w, rawKey, value)
}

func (t Bucket[K, V]) Delete(w db.KeyValueWriter, key K) error {
	rawKey, err := t.RawKey(key)
	if err != nil {
		return err
	}
	return w.Delete(rawKey)
}

func (t Bucket[K, V]) put(w db.KeyValueWriter, rawKey []byte, value V) error {
	encoded, err := encoder.Marshal(t.value, value)
	if err != nil {
		return fmt.Errorf("encode %s value: %w", t.Name(), err)
	}
	return w.Put(rawKey, encoded)
}

// Cursor opens a cursor over the entries of the bucket. It must be closed after use.
func (t Bucket[K, V]) Cursor(it db.Iterable) (*Cursor[K, V], error) {
	iter, err := it.NewIterator(t.Key(), true)
	if err != nil {
		return nil, err
	}
	return &Cursor[K, V]{bucket: t, iter: iter}, nil
}

func (t Bucket[K, V]) decodeEntry(iter db.Iterator) (K, V, error) {
	var (
		key   K
		value V
	)
	rawKey := iter.Key()
	decodedKey, err := encoder.Unmarshal(t.key, rawKey[len(t.Key()):])
	if err != nil {
		return key, value, &DecodeError{Table: t.Name(), Err: err}
	}

	data, err := iter.Value()
	if err != nil {
		return key, value, err
	}
	decodedValue, err := encoder.Unmarshal(t.value, data)
	if err != nil {
		return key, value, &DecodeError{Table: t.Name(), Err: err}
	}
	return decodedKey, decodedValue, nil
}
