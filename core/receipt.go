package core

import (
	"github.com/NethermindEth/statedb/core/felt"
	"github.com/NethermindEth/statedb/uint128"
	"github.com/ethereum/go-ethereum/common"
)

type Event struct {
	From felt.Address
	Keys []felt.Felt
	Data []felt.Felt
}

// MessageToL1 is a message sent from a contract to an L1 address.
type MessageToL1 struct {
	To      common.Address
	Payload []felt.Felt
	From    felt.Address
}

type Builtin uint8

const (
	RangeCheck Builtin = iota
	Pedersen
	Poseidon
	EcOp
	Ecdsa
	Bitwise
	Keccak
	SegmentArena
	AddMod
	MulMod
	RangeCheck96
)

var builtinNames = [...]string{
	"range_check", "pedersen", "poseidon", "ec_op", "ecdsa", "bitwise",
	"keccak", "segment_arena", "add_mod", "mul_mod", "range_check96",
}

func (b Builtin) String() string {
	if int(b) < len(builtinNames) {
		return builtinNames[b]
	}
	return "unknown"
}

type GasVector struct {
	L1Gas     uint64
	L1DataGas uint64
	L2Gas     uint64
}

type ExecutionResources struct {
	Steps                  uint64
	BuiltinInstanceCounter map[Builtin]uint64
	MemoryHoles            uint64
	DataAvailability       GasVector
	TotalGasConsumed       GasVector
}

// ExecutionStatus is the outcome of a transaction. RevertReason is only meaningful when
// Reverted is set.
type ExecutionStatus struct {
	Reverted     bool
	RevertReason string
}

// TransactionOutput is the execution result of a stored transaction.
type TransactionOutput interface {
	Type() TransactionType
	Receipt() *ReceiptCommon
}

// ReceiptCommon holds the fields every transaction output has.
type ReceiptCommon struct {
	ActualFee          uint128.Int
	MessagesSent       []MessageToL1
	Events             []Event
	ExecutionStatus    ExecutionStatus
	ExecutionResources ExecutionResources
}

type DeclareTransactionOutput struct {
	ReceiptCommon
}

func (*DeclareTransactionOutput) Type() TransactionType     { return TxnDeclare }
func (o *DeclareTransactionOutput) Receipt() *ReceiptCommon { return &o.ReceiptCommon }

type DeployTransactionOutput struct {
	ReceiptCommon
	ContractAddress felt.Address
}

func (*DeployTransactionOutput) Type() TransactionType     { return TxnDeploy }
func (o *DeployTransactionOutput) Receipt() *ReceiptCommon { return &o.ReceiptCommon }

type DeployAccountTransactionOutput struct {
	ReceiptCommon
	ContractAddress felt.Address
}

func (*DeployAccountTransactionOutput) Type() TransactionType     { return TxnDeployAccount }
func (o *DeployAccountTransactionOutput) Receipt() *ReceiptCommon { return &o.ReceiptCommon }

type InvokeTransactionOutput struct {
	ReceiptCommon
}

func (*InvokeTransactionOutput) Type() TransactionType     { return TxnInvoke }
func (o *InvokeTransactionOutput) Receipt() *ReceiptCommon { return &o.ReceiptCommon }

type L1HandlerTransactionOutput struct {
	ReceiptCommon
}

func (*L1HandlerTransactionOutput) Type() TransactionType     { return TxnL1Handler }
func (o *L1HandlerTransactionOutput) Receipt() *ReceiptCommon { return &o.ReceiptCommon }
