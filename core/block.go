package core

import (
	"math"
	"strconv"

	"github.com/NethermindEth/statedb/core/felt"
)

// BlockNumber is the height of a block. It is persisted in 4 bytes, so only values that
// fit in a uint32 can be stored.
type BlockNumber uint64

func (b BlockNumber) Next() BlockNumber {
	return b + 1
}

// Prev returns the previous block number and false for the genesis block.
func (b BlockNumber) Prev() (BlockNumber, bool) {
	if b == 0 {
		return 0, false
	}
	return b - 1, true
}

func (b BlockNumber) String() string {
	return strconv.FormatUint(uint64(b), 10)
}

// MaxBlockNumber is the largest block number the storage can represent.
const MaxBlockNumber BlockNumber = math.MaxUint32

// StateNumber identifies the state between two blocks. StateNumber(n) is the state right
// after block n-1 was applied and right before block n is applied.
type StateNumber uint64

func RightAfterBlock(b BlockNumber) StateNumber {
	return StateNumber(b.Next())
}

func RightBeforeBlock(b BlockNumber) StateNumber {
	return StateNumber(b)
}

// BlockAfter is the first block whose changes are not reflected in the state.
func (s StateNumber) BlockAfter() BlockNumber {
	return BlockNumber(s)
}

// IsBefore reports whether block b is not reflected in the state.
func (s StateNumber) IsBefore(b BlockNumber) bool {
	return BlockNumber(s) <= b
}

// IsAfter reports whether block b is reflected in the state.
func (s StateNumber) IsAfter(b BlockNumber) bool {
	return !s.IsBefore(b)
}

// TransactionOffsetInBlock is the position of a transaction within its block. It is
// persisted in 3 bytes.
type TransactionOffsetInBlock uint64

const MaxTransactionOffset TransactionOffsetInBlock = 1<<24 - 1

// TransactionIndex locates a transaction in the chain.
type TransactionIndex struct {
	Block  BlockNumber
	Offset TransactionOffsetInBlock
}

// BlockBody holds the transactions of a block with their outputs and hashes, aligned by
// position.
type BlockBody struct {
	Transactions []Transaction
	Outputs      []TransactionOutput
	Hashes       []felt.TransactionHash
}

func (b *BlockBody) Len() int {
	return len(b.Transactions)
}
