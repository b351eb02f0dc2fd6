package encoder

import (
	"cmp"

	"github.com/NethermindEth/statedb/utils"
)

type codec[T any] struct {
	enc func(*Writer, T)
	dec func(*Reader) T
}

func (c codec[T]) Encode(w *Writer, v T) { c.enc(w, v) }
func (c codec[T]) Decode(r *Reader) T    { return c.dec(r) }

// New builds a Serializer from an encode and a decode function.
func New[T any](enc func(*Writer, T), dec func(*Reader) T) Serializer[T] {
	return codec[T]{enc: enc, dec: dec}
}

var (
	Uint8 = New(
		func(w *Writer, v uint8) { w.Uint8(v) },
		func(r *Reader) uint8 { return r.Uint8() },
	)
	Uint32 = New(
		func(w *Writer, v uint32) { w.Uint32(v) },
		func(r *Reader) uint32 { return r.Uint32() },
	)
	Uint64 = New(
		func(w *Writer, v uint64) { w.Uint64(v) },
		func(r *Reader) uint64 { return r.Uint64() },
	)
	Bool = New(
		func(w *Writer, v bool) { w.Bool(v) },
		func(r *Reader) bool { return r.Bool() },
	)
	Bytes = New(
		func(w *Writer, v []byte) { w.ByteSlice(v) },
		func(r *Reader) []byte { return r.ByteSlice() },
	)
	String = New(
		func(w *Writer, v string) { w.Text(v) },
		func(r *Reader) string { return r.Text() },
	)
	// Unit encodes nothing, for tables that only care about key presence.
	Unit = New(
		func(*Writer, struct{}) {},
		func(*Reader) struct{} { return struct{}{} },
	)
)

// Tag encodes a field-less enum as one byte. Values at or above count fail to decode.
func Tag[T ~uint8](count int) Serializer[T] {
	return New(
		func(w *Writer, v T) {
			if int(v) >= count {
				panic("encoder: unknown enum value")
			}
			w.Uint8(uint8(v))
		},
		func(r *Reader) T {
			tag := r.Uint8()
			if r.err == nil && int(tag) >= count {
				r.Failf("unknown tag %d", tag)
				return 0
			}
			return T(tag)
		},
	)
}

// Option encodes a nil pointer as 0 and a present value as 1 followed by the value.
func Option[T any](s Serializer[T]) Serializer[*T] {
	return New(
		func(w *Writer, v *T) {
			if v == nil {
				w.Uint8(0)
				return
			}
			w.Uint8(1)
			s.Encode(w, *v)
		},
		func(r *Reader) *T {
			switch tag := r.Uint8(); {
			case r.err != nil:
				return nil
			case tag == 0:
				return nil
			case tag == 1:
				v := s.Decode(r)
				if r.err != nil {
					return nil
				}
				return &v
			default:
				r.Failf("unknown option tag %d", tag)
				return nil
			}
		},
	)
}

// Slice encodes a varint count followed by the elements.
func Slice[T any](s Serializer[T]) Serializer[[]T] {
	return New(
		func(w *Writer, v []T) {
			w.Uvarint(uint64(len(v)))
			for _, e := range v {
				s.Encode(w, e)
			}
		},
		func(r *Reader) []T {
			n := r.Uvarint()
			if r.err != nil || n == 0 {
				return nil
			}
			res := make([]T, 0, min(n, uint64(r.Remaining())))
			for range n {
				e := s.Decode(r)
				if r.err != nil {
					return nil
				}
				res = append(res, e)
			}
			return res
		},
	)
}

// OrderedMap encodes a varint count followed by the entries in insertion order.
// Decoding a repeated key fails.
func OrderedMap[K comparable, V any](ks Serializer[K], vs Serializer[V]) Serializer[utils.OrderedMap[K, V]] {
	return New(
		func(w *Writer, m utils.OrderedMap[K, V]) {
			w.Uvarint(uint64(m.Len()))
			for k, v := range m.All() {
				ks.Encode(w, k)
				vs.Encode(w, v)
			}
		},
		func(r *Reader) utils.OrderedMap[K, V] {
			var m utils.OrderedMap[K, V]
			n := r.Uvarint()
			for range n {
				k := ks.Decode(r)
				v := vs.Decode(r)
				if r.err != nil {
					return utils.OrderedMap[K, V]{}
				}
				if !m.Insert(k, v) {
					r.Failf("duplicate map key %v", k)
					return utils.OrderedMap[K, V]{}
				}
			}
			return m
		},
	)
}

// Map encodes a Go map in ascending key order so that equal maps encode equally.
// Decoding a repeated key fails.
func Map[K cmp.Ordered, V any](ks Serializer[K], vs Serializer[V]) Serializer[map[K]V] {
	return New(
		func(w *Writer, m map[K]V) {
			w.Uvarint(uint64(len(m)))
			for k, v := range utils.OrderMap(m) {
				ks.Encode(w, k)
				vs.Encode(w, v)
			}
		},
		func(r *Reader) map[K]V {
			n := r.Uvarint()
			if r.err != nil || n == 0 {
				return nil
			}
			m := make(map[K]V, min(n, uint64(r.Remaining())))
			for range n {
				k := ks.Decode(r)
				v := vs.Decode(r)
				if r.err != nil {
					return nil
				}
				if _, ok := m[k]; ok {
					r.Failf("duplicate map key %v", k)
					return nil
				}
				m[k] = v
			}
			return m
		},
	)
}

type Pair[A, B any] struct {
	First  A
	Second B
}

// PairOf encodes both members back to back.
func PairOf[A, B any](as Serializer[A], bs Serializer[B]) Serializer[Pair[A, B]] {
	return New(
		func(w *Writer, p Pair[A, B]) {
			as.Encode(w, p.First)
			bs.Encode(w, p.Second)
		},
		func(r *Reader) Pair[A, B] {
			return Pair[A, B]{First: as.Decode(r), Second: bs.Decode(r)}
		},
	)
}

// VersionZero prefixes the value with version byte 0. Any other version fails to decode.
func VersionZero[T any](s Serializer[T]) Serializer[T] {
	return New(
		func(w *Writer, v T) {
			w.Uint8(0)
			s.Encode(w, v)
		},
		func(r *Reader) T {
			if version := r.Uint8(); r.err == nil && version != 0 {
				r.Failf("unsupported value version %d", version)
			}
			if r.err != nil {
				var zero T
				return zero
			}
			return s.Decode(r)
		},
	)
}
