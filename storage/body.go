package storage

import (
	"fmt"
	"time"

	"github.com/NethermindEth/statedb/core"
	"github.com/NethermindEth/statedb/core/felt"
	"github.com/NethermindEth/statedb/utils"
	"github.com/pkg/errors"
)

func (t *ReadTxn) BodyMarker() (core.BlockNumber, error) {
	return t.Marker(core.BodyMarker)
}

// Transaction returns the transaction at idx, or nil.
func (t *ReadTxn) Transaction(idx core.TransactionIndex) (core.Transaction, error) {
	metadata, found, err := transactionMetadataTable.Get(t.reader, idx)
	if err != nil || !found {
		return nil, err
	}
	return t.files.Transaction(metadata.Location)
}

// TransactionOutput returns the output of the transaction at idx, or nil.
func (t *ReadTxn) TransactionOutput(idx core.TransactionIndex) (core.TransactionOutput, error) {
	metadata, found, err := transactionMetadataTable.Get(t.reader, idx)
	if err != nil || !found {
		return nil, err
	}
	return t.files.TransactionOutput(metadata.OutputLocation)
}

func (t *ReadTxn) TransactionIdxByHash(hash felt.TransactionHash) (core.TransactionIndex, bool, error) {
	return transactionHashToIdxTable.Get(t.reader, hash)
}

// blockMetadata lists the metadata rows of block in offset order.
func (t *ReadTxn) blockMetadata(block core.BlockNumber) ([]core.TransactionIndex, []core.TransactionMetadata, error) {
	cursor, err := transactionMetadataTable.Cursor(t.reader)
	if err != nil {
		return nil, nil, err
	}

	var (
		indices  []core.TransactionIndex
		metadata []core.TransactionMetadata
	)
	err = func() error {
		entry, err := cursor.LowerBound(core.TransactionIndex{Block: block})
		for ; err == nil && entry.Ok && entry.Key.Block == block; entry, err = cursor.Next() {
			indices = append(indices, entry.Key)
			metadata = append(metadata, entry.Value)
		}
		return err
	}()
	if err = utils.RunAndWrapOnError(cursor.Close, err); err != nil {
		return nil, nil, err
	}
	return indices, metadata, nil
}

// BlockTransactions returns the transactions of block with their hashes.
func (t *ReadTxn) BlockTransactions(block core.BlockNumber) ([]core.Transaction, []felt.TransactionHash, error) {
	_, metadata, err := t.blockMetadata(block)
	if err != nil {
		return nil, nil, err
	}

	txs := make([]core.Transaction, 0, len(metadata))
	hashes := make([]felt.TransactionHash, 0, len(metadata))
	for _, m := range metadata {
		tx, err := t.files.Transaction(m.Location)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "read transaction %s", &m.Hash)
		}
		txs = append(txs, tx)
		hashes = append(hashes, m.Hash)
	}
	return txs, hashes, nil
}

// AppendBody stores the transactions and outputs of block. block must be the Body marker.
func (t *WriteTxn) AppendBody(block core.BlockNumber, body *core.BlockBody) error {
	defer observe(t.storage.metrics.AppendBody, time.Now())

	if err := t.checkMarker(core.BodyMarker, block); err != nil {
		return err
	}
	if len(body.Outputs) != body.Len() || len(body.Hashes) != body.Len() {
		return fmt.Errorf("block %d has %d transactions, %d outputs and %d hashes",
			block, body.Len(), len(body.Outputs), len(body.Hashes))
	}
	if body.Len() > int(core.MaxTransactionOffset)+1 {
		return fmt.Errorf("block %d has %d transactions, more than a block can index", block, body.Len())
	}

	for i, tx := range body.Transactions {
		idx := core.TransactionIndex{Block: block, Offset: core.TransactionOffsetInBlock(i)}
		if err := t.writeTransaction(idx, tx, body.Outputs[i], body.Hashes[i]); err != nil {
			return errors.Wrapf(err, "transaction %d of block %d", i, block)
		}
	}

	if err := t.setMarker(core.BodyMarker, block.Next()); err != nil {
		return err
	}
	t.storage.log.Debugw("Appended block body", "block", block, "transactions", body.Len())
	return nil
}

func (t *WriteTxn) writeTransaction(idx core.TransactionIndex, tx core.Transaction, output core.TransactionOutput,
	hash felt.TransactionHash,
) error {
	txLocation, err := t.files.AppendTransaction(tx)
	if err != nil {
		return err
	}
	if err = t.setFileOffset(core.TransactionOffset, txLocation); err != nil {
		return err
	}
	outputLocation, err := t.files.AppendTransactionOutput(output)
	if err != nil {
		return err
	}
	if err = t.setFileOffset(core.TransactionOutputOffset, outputLocation); err != nil {
		return err
	}

	metadata := core.TransactionMetadata{Hash: hash, Location: txLocation, OutputLocation: outputLocation}
	if err = transactionMetadataTable.Insert(t.batch, idx, metadata); err != nil {
		return err
	}
	return transactionHashToIdxTable.Insert(t.batch, hash, idx)
}

// RevertBody removes the body of block and returns it. Only the last stored body can be
// reverted: for any other block it returns nil and changes nothing.
func (t *WriteTxn) RevertBody(block core.BlockNumber) (*core.BlockBody, error) {
	marker, err := t.BodyMarker()
	if err != nil {
		return nil, err
	}
	if block.Next() != marker {
		t.storage.log.Debugw("Skipping body revert of a block that is not the last one", "block", block, "bodyMarker", marker)
		return nil, nil
	}

	indices, metadata, err := t.blockMetadata(block)
	if err != nil {
		return nil, err
	}

	body := &core.BlockBody{
		Transactions: make([]core.Transaction, 0, len(metadata)),
		Outputs:      make([]core.TransactionOutput, 0, len(metadata)),
		Hashes:       make([]felt.TransactionHash, 0, len(metadata)),
	}
	for i, m := range metadata {
		tx, err := t.files.Transaction(m.Location)
		if err != nil {
			return nil, err
		}
		output, err := t.files.TransactionOutput(m.OutputLocation)
		if err != nil {
			return nil, err
		}
		if err = transactionMetadataTable.Delete(t.batch, indices[i]); err != nil {
			return nil, err
		}
		if err = transactionHashToIdxTable.Delete(t.batch, m.Hash); err != nil {
			return nil, err
		}
		body.Transactions = append(body.Transactions, tx)
		body.Outputs = append(body.Outputs, output)
		body.Hashes = append(body.Hashes, m.Hash)
	}

	if err = t.setMarker(core.BodyMarker, block); err != nil {
		return nil, err
	}
	t.storage.log.Debugw("Reverted block body", "block", block, "transactions", body.Len())
	return body, nil
}
