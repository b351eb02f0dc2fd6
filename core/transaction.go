package core

import (
	"github.com/NethermindEth/statedb/core/felt"
	"github.com/NethermindEth/statedb/uint128"
)

type TransactionType uint8

const (
	TxnDeclare TransactionType = iota
	TxnDeploy
	TxnDeployAccount
	TxnInvoke
	TxnL1Handler
)

func (t TransactionType) String() string {
	switch t {
	case TxnDeclare:
		return "DECLARE"
	case TxnDeploy:
		return "DEPLOY"
	case TxnDeployAccount:
		return "DEPLOY_ACCOUNT"
	case TxnInvoke:
		return "INVOKE"
	case TxnL1Handler:
		return "L1_HANDLER"
	default:
		return "UNKNOWN"
	}
}

// Transaction is implemented by every transaction version this package stores.
type Transaction interface {
	Type() TransactionType
	// Version is the transaction version within its type.
	Version() uint8
}

type DataAvailabilityMode uint8

const (
	DAModeL1 DataAvailabilityMode = iota
	DAModeL2
)

type ResourceBounds struct {
	MaxAmount       uint64
	MaxPricePerUnit uint128.Int
}

// ValidResourceBounds holds the fee bounds of a V3 transaction. Older V3 transactions
// bound only L1 gas, in which case AllResources is false and the other bounds are unset.
type ValidResourceBounds struct {
	AllResources bool
	L1Gas        ResourceBounds
	L2Gas        ResourceBounds
	L1DataGas    ResourceBounds
}

// DeclareTransactionV0V1 is the body shared by declare transactions V0 and V1.
type DeclareTransactionV0V1 struct {
	MaxFee        uint128.Int
	Signature     []felt.Felt
	Nonce         felt.Felt
	ClassHash     felt.ClassHash
	SenderAddress felt.Address
}

type DeclareTransactionV0 struct {
	DeclareTransactionV0V1
}

func (*DeclareTransactionV0) Type() TransactionType { return TxnDeclare }
func (*DeclareTransactionV0) Version() uint8        { return 0 }

type DeclareTransactionV1 struct {
	DeclareTransactionV0V1
}

func (*DeclareTransactionV1) Type() TransactionType { return TxnDeclare }
func (*DeclareTransactionV1) Version() uint8        { return 1 }

type DeclareTransactionV2 struct {
	MaxFee            uint128.Int
	Signature         []felt.Felt
	Nonce             felt.Felt
	ClassHash         felt.ClassHash
	CompiledClassHash felt.CasmClassHash
	SenderAddress     felt.Address
}

func (*DeclareTransactionV2) Type() TransactionType { return TxnDeclare }
func (*DeclareTransactionV2) Version() uint8        { return 2 }

type DeclareTransactionV3 struct {
	ResourceBounds        ValidResourceBounds
	Tip                   uint64
	Signature             []felt.Felt
	Nonce                 felt.Felt
	ClassHash             felt.ClassHash
	CompiledClassHash     felt.CasmClassHash
	SenderAddress         felt.Address
	NonceDAMode           DataAvailabilityMode
	FeeDAMode             DataAvailabilityMode
	PaymasterData         []felt.Felt
	AccountDeploymentData []felt.Felt
}

func (*DeclareTransactionV3) Type() TransactionType { return TxnDeclare }
func (*DeclareTransactionV3) Version() uint8        { return 3 }

type DeployTransaction struct {
	// The version field as it was set by the sender.
	TxVersion           felt.Felt
	ClassHash           felt.ClassHash
	ContractAddressSalt felt.Felt
	ConstructorCalldata []felt.Felt
}

func (*DeployTransaction) Type() TransactionType { return TxnDeploy }
func (*DeployTransaction) Version() uint8        { return 0 }

type DeployAccountTransactionV1 struct {
	MaxFee              uint128.Int
	Signature           []felt.Felt
	Nonce               felt.Felt
	ClassHash           felt.ClassHash
	ContractAddressSalt felt.Felt
	ConstructorCalldata []felt.Felt
}

func (*DeployAccountTransactionV1) Type() TransactionType { return TxnDeployAccount }
func (*DeployAccountTransactionV1) Version() uint8        { return 1 }

type DeployAccountTransactionV3 struct {
	ResourceBounds      ValidResourceBounds
	Tip                 uint64
	Signature           []felt.Felt
	Nonce               felt.Felt
	ClassHash           felt.ClassHash
	ContractAddressSalt felt.Felt
	ConstructorCalldata []felt.Felt
	NonceDAMode         DataAvailabilityMode
	FeeDAMode           DataAvailabilityMode
	PaymasterData       []felt.Felt
}

func (*DeployAccountTransactionV3) Type() TransactionType { return TxnDeployAccount }
func (*DeployAccountTransactionV3) Version() uint8        { return 3 }

type InvokeTransactionV0 struct {
	MaxFee             uint128.Int
	Signature          []felt.Felt
	ContractAddress    felt.Address
	EntryPointSelector felt.Felt
	Calldata           []felt.Felt
}

func (*InvokeTransactionV0) Type() TransactionType { return TxnInvoke }
func (*InvokeTransactionV0) Version() uint8        { return 0 }

type InvokeTransactionV1 struct {
	MaxFee        uint128.Int
	Signature     []felt.Felt
	Nonce         felt.Felt
	SenderAddress felt.Address
	Calldata      []felt.Felt
}

func (*InvokeTransactionV1) Type() TransactionType { return TxnInvoke }
func (*InvokeTransactionV1) Version() uint8        { return 1 }

type InvokeTransactionV3 struct {
	ResourceBounds        ValidResourceBounds
	Tip                   uint64
	Signature             []felt.Felt
	Nonce                 felt.Felt
	SenderAddress         felt.Address
	Calldata              []felt.Felt
	NonceDAMode           DataAvailabilityMode
	FeeDAMode             DataAvailabilityMode
	PaymasterData         []felt.Felt
	AccountDeploymentData []felt.Felt
}

func (*InvokeTransactionV3) Type() TransactionType { return TxnInvoke }
func (*InvokeTransactionV3) Version() uint8        { return 3 }

type L1HandlerTransaction struct {
	TxVersion          felt.Felt
	Nonce              felt.Felt
	ContractAddress    felt.Address
	EntryPointSelector felt.Felt
	Calldata           []felt.Felt
}

func (*L1HandlerTransaction) Type() TransactionType { return TxnL1Handler }
func (*L1HandlerTransaction) Version() uint8        { return 0 }

// TransactionMetadata indexes a stored transaction and its output.
type TransactionMetadata struct {
	Hash           felt.TransactionHash
	Location       LocationInFile
	OutputLocation LocationInFile
}
