package encoder

import (
	"fmt"
	"sync/atomic"

	"github.com/NethermindEth/statedb/utils"
	"github.com/klauspost/compress/zstd"
)

const (
	// MaxDecompressedSize bounds the buffer a decompression may allocate.
	MaxDecompressedSize = 1 << 28 // 256 MiB
	// CompressionThreshold is the size above which conditionally compressed values are compressed.
	CompressionThreshold = 384
)

// IsCompressed tags conditionally compressed values.
type IsCompressed uint8

const (
	NotCompressed IsCompressed = iota
	Compressed
)

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder

	logger atomic.Pointer[utils.SimpleLogger]
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		panic(err)
	}
	zstdDecoder, err = zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(0),
		zstd.WithDecoderMaxMemory(MaxDecompressedSize),
	)
	if err != nil {
		panic(err)
	}
	SetLogger(utils.NewNopZapLogger())
}

// SetLogger replaces the logger used to report oversized values.
func SetLogger(l utils.SimpleLogger) {
	logger.Store(&l)
}

func currentLogger() utils.SimpleLogger {
	return *logger.Load()
}

// Compress returns the zstd frame of data. Safe for concurrent use.
func Compress(data []byte) []byte {
	return zstdEncoder.EncodeAll(data, make([]byte, 0, len(data)/2+16))
}

// Decompress inflates a zstd frame, refusing frames larger than MaxDecompressedSize.
func Decompress(data []byte) ([]byte, error) {
	res, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress: %v", ErrMalformed, err)
	}
	return res, nil
}

func checkSize(name string, size int) {
	if size > MaxDecompressedSize {
		currentLogger().Warnw("Serialized value is too large and will fail to deserialize",
			"type", name, "size", size)
	}
}

func encodeInner[T any](s Serializer[T], v T) ([]byte, error) {
	inner := NewWriter(CompressionThreshold)
	s.Encode(inner, v)
	return inner.buf, inner.err
}

func decodeInner[T any](r *Reader, s Serializer[T], data []byte) T {
	inner := NewReader(data)
	v := s.Decode(inner)
	if inner.err != nil {
		r.err = inner.err
		var zero T
		return zero
	}
	return v
}

// Compressing encodes v into a scratch buffer and writes its zstd frame as a byte sequence.
func Compressing[T any](name string, s Serializer[T]) Serializer[T] {
	return New(
		func(w *Writer, v T) {
			raw, err := encodeInner(s, v)
			if err != nil {
				w.Fail(err)
				return
			}
			checkSize(name, len(raw))
			w.ByteSlice(Compress(raw))
		},
		func(r *Reader) T {
			var zero T
			compressed := r.ByteSlice()
			if r.err != nil {
				return zero
			}
			raw, err := Decompress(compressed)
			if err != nil {
				r.err = err
				return zero
			}
			return decodeInner(r, s, raw)
		},
	)
}

// ConditionallyCompressing compresses the encoding of v only when it is longer than
// CompressionThreshold. An IsCompressed tag precedes the byte sequence.
func ConditionallyCompressing[T any](name string, s Serializer[T]) Serializer[T] {
	return New(
		func(w *Writer, v T) {
			raw, err := encodeInner(s, v)
			if err != nil {
				w.Fail(err)
				return
			}
			if len(raw) <= CompressionThreshold {
				w.Uint8(uint8(NotCompressed))
				w.ByteSlice(raw)
				return
			}
			checkSize(name, len(raw))
			w.Uint8(uint8(Compressed))
			w.ByteSlice(Compress(raw))
		},
		func(r *Reader) T {
			var zero T
			tag := IsCompressedSerializer.Decode(r)
			data := r.ByteSlice()
			if r.err != nil {
				return zero
			}
			if tag == Compressed {
				raw, err := Decompress(data)
				if err != nil {
					r.err = err
					return zero
				}
				data = raw
			}
			return decodeInner(r, s, data)
		},
	)
}

var IsCompressedSerializer = Tag[IsCompressed](2)
