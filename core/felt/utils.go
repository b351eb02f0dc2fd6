package felt

import "github.com/consensys/gnark-crypto/ecc/stark-curve/fp"

// FeltLike is satisfied by Felt and every named type defined on it.
type FeltLike interface {
	~struct{ val fp.Element }
}

func IsZero[F FeltLike](v F) bool {
	f := Felt(v)
	return f.IsZero()
}

func Equal[F FeltLike](a, b F) bool {
	fa := Felt(a)
	fb := Felt(b)
	return fa.Equal(&fb)
}

// Compare orders felt-like values by their regular form.
func Compare[F FeltLike](a, b F) int {
	fa := Felt(a)
	fb := Felt(b)
	return fa.Cmp(&fb)
}

func FromUint64[F FeltLike](v uint64) F {
	var f Felt
	f.SetUint64(v)
	return F(f)
}
