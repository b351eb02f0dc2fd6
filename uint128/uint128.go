package uint128

import (
	"encoding/binary"
	"errors"
	"math/big"
	"strings"
)

var errOverflow = errors.New("value does not fit in 128 bits")

// Int is an unsigned 128 bit integer stored as {low, high} 64 bit words.
type Int [2]uint64

func FromUint64(v uint64) Int {
	return Int{0: v}
}

func (i *Int) Lo() uint64 { return i[0] }
func (i *Int) Hi() uint64 { return i[1] }

// Bytes returns the 16 byte big-endian representation.
func (i *Int) Bytes() []byte {
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], i[1])
	binary.BigEndian.PutUint64(b[8:], i[0])
	return b[:]
}

// SetBytes sets i from a big-endian slice of at most 16 bytes.
func (i *Int) SetBytes(b []byte) (*Int, error) {
	if len(b) > 16 {
		return i, errOverflow
	}
	var buf [16]byte
	copy(buf[16-len(b):], b)
	i[1] = binary.BigEndian.Uint64(buf[:8])
	i[0] = binary.BigEndian.Uint64(buf[8:])
	return i, nil
}

func (i *Int) BigInt(res *big.Int) *big.Int {
	return res.SetBytes(i.Bytes())
}

// SetString parses a 0x-prefixed hex string.
func (i *Int) SetString(s string) (*Int, error) {
	hex, ok := strings.CutPrefix(s, "0x")
	if !ok || hex == "" {
		return i, errors.New("expected 0x-prefixed hex string: " + s)
	}
	v, ok := new(big.Int).SetString(hex, 16)
	if !ok {
		return i, errors.New("invalid hex string: " + s)
	}
	if v.BitLen() > 128 {
		return i, errOverflow
	}
	return i.SetBytes(v.Bytes())
}

func (i *Int) String() string {
	return "0x" + i.BigInt(new(big.Int)).Text(16)
}

func (i *Int) Equal(x *Int) bool {
	return *i == *x
}

func (i *Int) UnmarshalJSON(data []byte) error {
	_, err := i.SetString(strings.Trim(string(data), `"`))
	return err
}

func (i *Int) MarshalJSON() ([]byte, error) {
	return []byte(`"` + i.String() + `"`), nil
}

func (i *Int) UnmarshalText(text []byte) error {
	_, err := i.SetString(string(text))
	return err
}

func (i *Int) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}
