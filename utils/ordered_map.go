package utils

import (
	"cmp"
	"iter"
	"slices"
)

func OrderMap[K cmp.Ordered, T any](m map[K]T) iter.Seq2[K, T] {
	// 1. collect keys
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	// 2. sort them
	slices.Sort(keys)
	return func(yield func(K, T) bool) {
		// 3. because keys are sorted now, we can iterate over them in order
		for _, k := range keys {
			if !yield(k, m[k]) {
				return
			}
		}
	}
}

// OrderedMap is a map that remembers the order in which keys were first inserted.
// The zero value is an empty map ready to use. It is not safe for concurrent writes.
type OrderedMap[K comparable, V any] struct {
	index  map[K]int // position of the key in keys and values
	keys   []K
	values []V
}

// Set inserts or overwrites the value of key. Overwriting keeps the original position.
func (m *OrderedMap[K, V]) Set(key K, value V) {
	if pos, ok := m.index[key]; ok {
		m.values[pos] = value
		return
	}
	if m.index == nil {
		m.index = make(map[K]int)
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, key)
	m.values = append(m.values, value)
}

// Insert adds key only if it is not present yet and reports whether it did.
func (m *OrderedMap[K, V]) Insert(key K, value V) bool {
	if m.Has(key) {
		return false
	}
	m.Set(key, value)
	return true
}

func (m *OrderedMap[K, V]) Get(key K) (V, bool) {
	if pos, ok := m.index[key]; ok {
		return m.values[pos], true
	}
	var zero V
	return zero, false
}

func (m *OrderedMap[K, V]) Has(key K) bool {
	_, ok := m.index[key]
	return ok
}

func (m *OrderedMap[K, V]) Len() int {
	return len(m.keys)
}

// All iterates over the entries in insertion order.
func (m *OrderedMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i, k := range m.keys {
			if !yield(k, m.values[i]) {
				return
			}
		}
	}
}

// Keys returns the keys in insertion order. The slice must not be modified.
func (m *OrderedMap[K, V]) Keys() []K {
	return m.keys
}

// Values returns the values in insertion order. The slice must not be modified.
func (m *OrderedMap[K, V]) Values() []V {
	return m.values
}
