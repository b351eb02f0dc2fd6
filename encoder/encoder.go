// Package encoder implements the binary format used for every value persisted by statedb.
//
// Integers are fixed width big-endian, lengths and counts are unsigned LEB128 varints,
// optional values and enums carry a one byte tag. Large values can be zstd compressed
// either always or only past a size threshold.
package encoder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"testing"
	"unicode/utf8"

	"github.com/multiformats/go-varint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ErrMalformed is wrapped by every decoding failure.
var ErrMalformed = errors.New("malformed encoding")

// Serializer is the encoding rule of a single type.
type Serializer[T any] interface {
	Encode(w *Writer, v T)
	Decode(r *Reader) T
}

// Writer accumulates encoded bytes. The first error is kept and later writes are ignored.
type Writer struct {
	buf []byte
	err error
}

func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

func (w *Writer) Bytes() []byte { return w.buf }
func (w *Writer) Len() int      { return len(w.buf) }
func (w *Writer) Err() error    { return w.err }

// Fail records err unless an earlier error was recorded.
func (w *Writer) Fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

// Write appends raw bytes with no length prefix.
func (w *Writer) Write(p []byte) {
	if w.err != nil {
		return
	}
	w.buf = append(w.buf, p...)
}

func (w *Writer) Uint8(v uint8) {
	w.Write([]byte{v})
}

func (w *Writer) Bool(v bool) {
	if v {
		w.Uint8(1)
	} else {
		w.Uint8(0)
	}
}

func (w *Writer) Uint32(v uint32) {
	if w.err != nil {
		return
	}
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

func (w *Writer) Uint64(v uint64) {
	if w.err != nil {
		return
	}
	w.buf = binary.BigEndian.AppendUint64(w.buf, v)
}

func (w *Writer) Uvarint(v uint64) {
	w.Write(varint.ToUvarint(v))
}

// ByteSlice writes a varint length followed by p.
func (w *Writer) ByteSlice(p []byte) {
	w.Uvarint(uint64(len(p)))
	w.Write(p)
}

func (w *Writer) Text(s string) {
	w.Uvarint(uint64(len(s)))
	w.Write([]byte(s))
}

// Reader consumes an encoded byte slice. The first error is kept and every later read
// returns zero values.
type Reader struct {
	data []byte
	pos  int
	err  error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) Err() error     { return r.err }
func (r *Reader) Remaining() int { return len(r.data) - r.pos }

// Failf records a malformed input error unless an earlier error was recorded.
func (r *Reader) Failf(format string, args ...any) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
	}
}

// Read returns the next n bytes without copying them.
func (r *Reader) Read(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.Remaining() {
		r.Failf("need %d bytes, %d left", n, r.Remaining())
		return nil
	}
	p := r.data[r.pos : r.pos+n]
	r.pos += n
	return p
}

// ReadByte implements io.ByteReader for varint decoding.
func (r *Reader) ReadByte() (byte, error) {
	p := r.Read(1)
	if p == nil {
		return 0, r.err
	}
	return p[0], nil
}

func (r *Reader) Uint8() uint8 {
	p := r.Read(1)
	if p == nil {
		return 0
	}
	return p[0]
}

// Bool treats every non-zero byte as true.
func (r *Reader) Bool() bool {
	return r.Uint8() != 0
}

func (r *Reader) Uint32() uint32 {
	p := r.Read(4)
	if p == nil {
		return 0
	}
	return binary.BigEndian.Uint32(p)
}

func (r *Reader) Uint64() uint64 {
	p := r.Read(8)
	if p == nil {
		return 0
	}
	return binary.BigEndian.Uint64(p)
}

func (r *Reader) Uvarint() uint64 {
	if r.err != nil {
		return 0
	}
	v, err := varint.ReadUvarint(r)
	if err != nil {
		r.Failf("varint: %v", err)
		return 0
	}
	return v
}

// Len reads a varint length and checks it against the remaining input, so a corrupt
// prefix cannot trigger a huge allocation.
func (r *Reader) Len() int {
	n := r.Uvarint()
	if r.err != nil {
		return 0
	}
	if n > uint64(r.Remaining()) {
		r.Failf("length %d exceeds the %d remaining bytes", n, r.Remaining())
		return 0
	}
	return int(n)
}

// ByteSlice reads a varint length followed by that many bytes. The result is a copy.
func (r *Reader) ByteSlice() []byte {
	p := r.Read(r.Len())
	if p == nil {
		return nil
	}
	return append([]byte{}, p...)
}

func (r *Reader) Text() string {
	p := r.Read(r.Len())
	if p == nil {
		return ""
	}
	if !utf8.Valid(p) {
		r.Failf("invalid utf-8 string")
		return ""
	}
	return string(p)
}

// Marshal encodes v with s.
func Marshal[T any](s Serializer[T], v T) ([]byte, error) {
	w := NewWriter(64)
	s.Encode(w, v)
	if w.err != nil {
		return nil, w.err
	}
	return w.buf, nil
}

// Unmarshal decodes a value from data with s. Trailing bytes are ignored.
func Unmarshal[T any](s Serializer[T], data []byte) (T, error) {
	r := NewReader(data)
	v := s.Decode(r)
	if r.err != nil {
		var zero T
		return zero, r.err
	}
	return v, nil
}

// TestSymmetry checks that a value survives an encode/decode round trip
func TestSymmetry[T any](t *testing.T, s Serializer[T], value T) {
	t.Helper()
	encoded, err := Marshal(s, value)
	require.NoError(t, err)

	decoded, err := Unmarshal(s, encoded)
	require.NoError(t, err)
	assert.Equal(t, value, decoded)
}
