package utils

import "github.com/NethermindEth/statedb/core/felt"

func HexToFelt(hex string) *felt.Felt {
	// We know our test hex values are valid, so we'll ignore the potential error
	f, _ := new(felt.Felt).SetString(hex)
	return f
}

// HexTo converts a hex string into any felt based type.
func HexTo[F felt.FeltLike](hex string) F {
	return F(*HexToFelt(hex))
}
