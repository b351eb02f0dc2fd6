package storage_test

import (
	"testing"

	"github.com/NethermindEth/statedb/core"
	"github.com/NethermindEth/statedb/core/felt"
	"github.com/NethermindEth/statedb/storage"
	"github.com/NethermindEth/statedb/uint128"
	"github.com/NethermindEth/statedb/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBody(block core.BlockNumber, n int) *core.BlockBody {
	body := new(core.BlockBody)
	for i := range n {
		seed := uint64(block)*100 + uint64(i)
		body.Transactions = append(body.Transactions, &core.InvokeTransactionV1{
			MaxFee:        uint128.FromUint64(seed),
			Signature:     []felt.Felt{feltOf(seed)},
			Nonce:         feltOf(uint64(i)),
			SenderAddress: addr0,
			Calldata:      []felt.Felt{feltOf(1), feltOf(2)},
		})
		body.Outputs = append(body.Outputs, &core.InvokeTransactionOutput{
			ReceiptCommon: core.ReceiptCommon{
				ActualFee: uint128.FromUint64(seed * 2),
				Events:    []core.Event{{From: addr1, Keys: []felt.Felt{feltOf(seed)}}},
				ExecutionResources: core.ExecutionResources{
					Steps: seed,
				},
			},
		})
		body.Hashes = append(body.Hashes, utils.HexTo[felt.TransactionHash]("0x"+core.BlockNumber(seed).String()))
	}
	return body
}

func requireSameBody(t *testing.T, want, got *core.BlockBody) {
	t.Helper()
	require.Equal(t, want.Len(), got.Len())
	require.Equal(t, want.Hashes, got.Hashes)
	for i := range want.Transactions {
		requireSameEncoding(t, core.TransactionSerializer, want.Transactions[i], got.Transactions[i])
		requireSameEncoding(t, core.TransactionOutputSerializer, want.Outputs[i], got.Outputs[i])
	}
}

func appendBody(t *testing.T, s *storage.Storage, block core.BlockNumber, body *core.BlockBody) {
	t.Helper()
	require.NoError(t, s.Update(func(txn *storage.WriteTxn) error {
		return txn.AppendBody(block, body)
	}))
}

func TestAppendBody(t *testing.T) {
	s := newTestStorage(t)

	bodies := []*core.BlockBody{testBody(0, 3), testBody(1, 0), testBody(2, 2)}
	for i, body := range bodies {
		appendBody(t, s, core.BlockNumber(i), body)
	}
	assert.Equal(t, core.BlockNumber(3), marker(t, s, core.BodyMarker))

	require.NoError(t, s.View(func(txn *storage.ReadTxn) error {
		for i, body := range bodies {
			block := core.BlockNumber(i)
			txs, hashes, err := txn.BlockTransactions(block)
			require.NoError(t, err)
			require.Len(t, txs, body.Len())

			for offset, hash := range body.Hashes {
				assert.Equal(t, hash, hashes[offset])

				idx, found, err := txn.TransactionIdxByHash(hash)
				require.NoError(t, err)
				require.True(t, found)
				assert.Equal(t, core.TransactionIndex{Block: block, Offset: core.TransactionOffsetInBlock(offset)}, idx)

				tx, err := txn.Transaction(idx)
				require.NoError(t, err)
				requireSameEncoding(t, core.TransactionSerializer, body.Transactions[offset], tx)
				requireSameEncoding(t, core.TransactionSerializer, body.Transactions[offset], txs[offset])

				output, err := txn.TransactionOutput(idx)
				require.NoError(t, err)
				requireSameEncoding(t, core.TransactionOutputSerializer, body.Outputs[offset], output)
			}
		}

		tx, err := txn.Transaction(core.TransactionIndex{Block: 0, Offset: 3})
		require.NoError(t, err)
		assert.Nil(t, tx)

		_, found, err := txn.TransactionIdxByHash(utils.HexTo[felt.TransactionHash]("0xdead"))
		require.NoError(t, err)
		assert.False(t, found)
		return nil
	}))
}

func TestAppendBodyErrors(t *testing.T) {
	s := newTestStorage(t)

	t.Run("marker mismatch", func(t *testing.T) {
		err := s.Update(func(txn *storage.WriteTxn) error {
			return txn.AppendBody(1, testBody(1, 1))
		})
		var mismatch *storage.MarkerMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, storage.MarkerMismatchError{Kind: core.BodyMarker, Expected: 0, Found: 1}, *mismatch)
	})

	t.Run("misaligned outputs", func(t *testing.T) {
		body := testBody(0, 2)
		body.Outputs = body.Outputs[:1]
		err := s.Update(func(txn *storage.WriteTxn) error {
			return txn.AppendBody(0, body)
		})
		require.ErrorContains(t, err, "2 transactions, 1 outputs and 2 hashes")
	})

	t.Run("duplicate hash", func(t *testing.T) {
		body := testBody(0, 2)
		body.Hashes[1] = body.Hashes[0]
		err := s.Update(func(txn *storage.WriteTxn) error {
			return txn.AppendBody(0, body)
		})
		require.Error(t, err)
	})

	assert.Equal(t, core.BlockNumber(0), marker(t, s, core.BodyMarker))
}

func TestRevertBody(t *testing.T) {
	s := newTestStorage(t)

	first, second := testBody(0, 2), testBody(1, 3)
	appendBody(t, s, 0, first)
	appendBody(t, s, 1, second)

	revert := func(block core.BlockNumber) *core.BlockBody {
		var body *core.BlockBody
		require.NoError(t, s.Update(func(txn *storage.WriteTxn) error {
			var err error
			body, err = txn.RevertBody(block)
			return err
		}))
		return body
	}

	assert.Nil(t, revert(0))
	assert.Equal(t, core.BlockNumber(2), marker(t, s, core.BodyMarker))

	requireSameBody(t, second, revert(1))
	assert.Equal(t, core.BlockNumber(1), marker(t, s, core.BodyMarker))

	require.NoError(t, s.View(func(txn *storage.ReadTxn) error {
		for _, hash := range second.Hashes {
			_, found, err := txn.TransactionIdxByHash(hash)
			require.NoError(t, err)
			assert.False(t, found)
		}
		txs, _, err := txn.BlockTransactions(1)
		require.NoError(t, err)
		assert.Empty(t, txs)

		txs, _, err = txn.BlockTransactions(0)
		require.NoError(t, err)
		assert.Len(t, txs, 2)
		return nil
	}))

	// the reverted block can be stored again
	appendBody(t, s, 1, second)
	assert.Equal(t, core.BlockNumber(2), marker(t, s, core.BodyMarker))
}
