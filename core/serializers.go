package core

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/NethermindEth/statedb/core/felt"
	"github.com/NethermindEth/statedb/encoder"
	"github.com/NethermindEth/statedb/uint128"
	"github.com/ethereum/go-ethereum/common"
)

// FeltLikeSerializer stores felts as 32 big-endian bytes. Values outside the field are rejected.
func FeltLikeSerializer[F felt.FeltLike]() encoder.Serializer[F] {
	return encoder.New(
		func(w *encoder.Writer, v F) {
			f := felt.Felt(v)
			b := f.Bytes()
			w.Write(b[:])
		},
		func(r *encoder.Reader) F {
			var f felt.Felt
			b := r.Read(felt.Bytes)
			if b == nil {
				return F(f)
			}
			if err := f.SetBytesCanonical(b); err != nil {
				r.Failf("felt: %v", err)
			}
			return F(f)
		},
	)
}

var (
	FeltSerializer            = FeltLikeSerializer[felt.Felt]()
	AddressSerializer         = FeltLikeSerializer[felt.Address]()
	StorageKeySerializer      = FeltLikeSerializer[felt.StorageKey]()
	ClassHashSerializer       = FeltLikeSerializer[felt.ClassHash]()
	CasmClassHashSerializer   = FeltLikeSerializer[felt.CasmClassHash]()
	TransactionHashSerializer = FeltLikeSerializer[felt.TransactionHash]()

	feltSlice = encoder.Slice(FeltSerializer)
)

var Uint128Serializer = encoder.New(
	func(w *encoder.Writer, v uint128.Int) { w.Write(v.Bytes()) },
	func(r *encoder.Reader) uint128.Int {
		var v uint128.Int
		if b := r.Read(16); b != nil {
			_, _ = v.SetBytes(b)
		}
		return v
	},
)

// BigIntSerializer stores the minimal big-endian magnitude of a non-negative integer.
var BigIntSerializer = encoder.New(
	func(w *encoder.Writer, v *big.Int) {
		if v == nil {
			w.ByteSlice(nil)
			return
		}
		w.ByteSlice(v.Bytes())
	},
	func(r *encoder.Reader) *big.Int {
		return new(big.Int).SetBytes(r.ByteSlice())
	},
)

var EthAddressSerializer = encoder.New(
	func(w *encoder.Writer, v common.Address) { w.Write(v[:]) },
	func(r *encoder.Reader) common.Address {
		return common.BytesToAddress(r.Read(common.AddressLength))
	},
)

// JSONSerializer stores a JSON document as a byte sequence. A nil document is stored as null.
var JSONSerializer = encoder.New(
	func(w *encoder.Writer, v json.RawMessage) {
		if v == nil {
			v = json.RawMessage("null")
		}
		w.ByteSlice(v)
	},
	func(r *encoder.Reader) json.RawMessage {
		b := r.ByteSlice()
		if r.Err() != nil {
			return nil
		}
		if !json.Valid(b) {
			r.Failf("invalid json document")
			return nil
		}
		if string(b) == "null" {
			return nil
		}
		return b
	},
)

// BlockNumberSerializer stores block numbers in 4 bytes. Encoding a larger block number panics.
var BlockNumberSerializer = encoder.New(
	func(w *encoder.Writer, b BlockNumber) {
		if b > MaxBlockNumber {
			panic(fmt.Sprintf("block number %d does not fit in 32 bits", b))
		}
		w.Uint32(uint32(b))
	},
	func(r *encoder.Reader) BlockNumber { return BlockNumber(r.Uint32()) },
)

// TransactionOffsetSerializer stores the low 3 bytes of the offset.
var TransactionOffsetSerializer = encoder.New(
	func(w *encoder.Writer, o TransactionOffsetInBlock) {
		if o > MaxTransactionOffset {
			panic(fmt.Sprintf("transaction offset %d does not fit in 24 bits", o))
		}
		w.Write([]byte{byte(o >> 16), byte(o >> 8), byte(o)})
	},
	func(r *encoder.Reader) TransactionOffsetInBlock {
		b := r.Read(3)
		if b == nil {
			return 0
		}
		return TransactionOffsetInBlock(b[0])<<16 | TransactionOffsetInBlock(b[1])<<8 | TransactionOffsetInBlock(b[2])
	},
)

var TransactionIndexSerializer = encoder.New(
	func(w *encoder.Writer, idx TransactionIndex) {
		BlockNumberSerializer.Encode(w, idx.Block)
		TransactionOffsetSerializer.Encode(w, idx.Offset)
	},
	func(r *encoder.Reader) TransactionIndex {
		return TransactionIndex{
			Block:  BlockNumberSerializer.Decode(r),
			Offset: TransactionOffsetSerializer.Decode(r),
		}
	},
)

var LocationInFileSerializer = encoder.New(
	func(w *encoder.Writer, l LocationInFile) {
		w.Uint64(l.Offset)
		w.Uint64(l.Len)
	},
	func(r *encoder.Reader) LocationInFile {
		return LocationInFile{Offset: r.Uint64(), Len: r.Uint64()}
	},
)

var IndexedDeprecatedContractClassSerializer = encoder.New(
	func(w *encoder.Writer, c IndexedDeprecatedContractClass) {
		BlockNumberSerializer.Encode(w, c.Block)
		LocationInFileSerializer.Encode(w, c.Location)
	},
	func(r *encoder.Reader) IndexedDeprecatedContractClass {
		return IndexedDeprecatedContractClass{
			Block:    BlockNumberSerializer.Decode(r),
			Location: LocationInFileSerializer.Decode(r),
		}
	},
)

var TransactionMetadataSerializer = encoder.New(
	func(w *encoder.Writer, m TransactionMetadata) {
		TransactionHashSerializer.Encode(w, m.Hash)
		LocationInFileSerializer.Encode(w, m.Location)
		LocationInFileSerializer.Encode(w, m.OutputLocation)
	},
	func(r *encoder.Reader) TransactionMetadata {
		return TransactionMetadata{
			Hash:           TransactionHashSerializer.Decode(r),
			Location:       LocationInFileSerializer.Decode(r),
			OutputLocation: LocationInFileSerializer.Decode(r),
		}
	},
)

var VersionSerializer = encoder.New(
	func(w *encoder.Writer, v Version) {
		w.Uint32(v.Major)
		w.Uint32(v.Minor)
	},
	func(r *encoder.Reader) Version {
		return Version{Major: r.Uint32(), Minor: r.Uint32()}
	},
)

var (
	MarkerKindSerializer = encoder.Tag[MarkerKind](int(numMarkerKinds))
	OffsetKindSerializer = encoder.Tag[OffsetKind](int(numOffsetKinds))
)

// StateDiffSerializer compresses all five parts of the diff together.
var StateDiffSerializer = encoder.Compressing("StateDiff", encoder.New(
	func(w *encoder.Writer, d StateDiff) {
		deployedContracts.Encode(w, d.DeployedContracts)
		storageDiffs.Encode(w, d.StorageDiffs)
		declaredClasses.Encode(w, d.DeclaredClasses)
		encoder.Slice(ClassHashSerializer).Encode(w, d.DeprecatedDeclaredClasses)
		nonces.Encode(w, d.Nonces)
	},
	func(r *encoder.Reader) StateDiff {
		return StateDiff{
			DeployedContracts:         deployedContracts.Decode(r),
			StorageDiffs:              storageDiffs.Decode(r),
			DeclaredClasses:           declaredClasses.Decode(r),
			DeprecatedDeclaredClasses: encoder.Slice(ClassHashSerializer).Decode(r),
			Nonces:                    nonces.Decode(r),
		}
	},
))

var (
	deployedContracts = encoder.OrderedMap(AddressSerializer, ClassHashSerializer)
	storageDiffs      = encoder.OrderedMap(AddressSerializer, encoder.OrderedMap(StorageKeySerializer, FeltSerializer))
	declaredClasses   = encoder.OrderedMap(ClassHashSerializer, CasmClassHashSerializer)
	nonces            = encoder.OrderedMap(AddressSerializer, FeltSerializer)
)

var (
	sierraEntryPoint = encoder.New(
		func(w *encoder.Writer, e SierraEntryPoint) {
			w.Uint64(e.FunctionIdx)
			FeltSerializer.Encode(w, e.Selector)
		},
		func(r *encoder.Reader) SierraEntryPoint {
			return SierraEntryPoint{FunctionIdx: r.Uint64(), Selector: FeltSerializer.Decode(r)}
		},
	)
	sierraEntryPoints = encoder.Slice(sierraEntryPoint)
	sierraProgram     = encoder.Compressing("SierraProgram", feltSlice)
	sierraAbi         = encoder.Compressing("SierraAbi", encoder.String)
)

// SierraClassSerializer compresses the program and the ABI separately.
var SierraClassSerializer = encoder.New(
	func(w *encoder.Writer, c SierraClass) {
		sierraProgram.Encode(w, c.Program)
		w.Text(c.ContractClassVersion)
		sierraEntryPoints.Encode(w, c.EntryPoints.Constructor)
		sierraEntryPoints.Encode(w, c.EntryPoints.External)
		sierraEntryPoints.Encode(w, c.EntryPoints.L1Handler)
		sierraAbi.Encode(w, c.Abi)
	},
	func(r *encoder.Reader) SierraClass {
		return SierraClass{
			Program:              sierraProgram.Decode(r),
			ContractClassVersion: r.Text(),
			EntryPoints: SierraEntryPointsByType{
				Constructor: sierraEntryPoints.Decode(r),
				External:    sierraEntryPoints.Decode(r),
				L1Handler:   sierraEntryPoints.Decode(r),
			},
			Abi: sierraAbi.Decode(r),
		}
	},
)

// singleVariant is an enum with exactly one variant, stored as tag 0.
var singleVariant = encoder.New(
	func(w *encoder.Writer, _ struct{}) { w.Uint8(0) },
	func(r *encoder.Reader) struct{} {
		if tag := r.Uint8(); r.Err() == nil && tag != 0 {
			r.Failf("unknown tag %d", tag)
		}
		return struct{}{}
	},
)

var (
	typedParameters = encoder.Slice(encoder.New(
		func(w *encoder.Writer, p TypedParameter) {
			w.Text(p.Name)
			w.Text(p.Type)
		},
		func(r *encoder.Reader) TypedParameter {
			return TypedParameter{Name: r.Text(), Type: r.Text()}
		},
	))

	eventAbiEntry = encoder.New(
		func(w *encoder.Writer, e *EventAbiEntry) {
			typedParameters.Encode(w, e.Data)
			typedParameters.Encode(w, e.Keys)
			w.Text(e.Name)
			singleVariant.Encode(w, struct{}{})
		},
		func(r *encoder.Reader) *EventAbiEntry {
			e := &EventAbiEntry{Data: typedParameters.Decode(r), Keys: typedParameters.Decode(r), Name: r.Text()}
			singleVariant.Decode(r)
			return e
		},
	)

	viewMutability = encoder.Option(singleVariant)

	functionAbiEntry = encoder.New(
		func(w *encoder.Writer, f *FunctionAbiEntry) {
			w.Text(f.Name)
			typedParameters.Encode(w, f.Inputs)
			typedParameters.Encode(w, f.Outputs)
			if f.View {
				viewMutability.Encode(w, &struct{}{})
			} else {
				viewMutability.Encode(w, nil)
			}
		},
		func(r *encoder.Reader) *FunctionAbiEntry {
			return &FunctionAbiEntry{
				Name:    r.Text(),
				Inputs:  typedParameters.Decode(r),
				Outputs: typedParameters.Decode(r),
				View:    viewMutability.Decode(r) != nil,
			}
		},
	)

	structMembers = encoder.Slice(encoder.New(
		func(w *encoder.Writer, m StructMember) {
			w.Text(m.Name)
			w.Uint64(m.Offset)
			w.Text(m.Type)
		},
		func(r *encoder.Reader) StructMember {
			return StructMember{Name: r.Text(), Offset: r.Uint64(), Type: r.Text()}
		},
	))

	structAbiEntry = encoder.New(
		func(w *encoder.Writer, s *StructAbiEntry) {
			structMembers.Encode(w, s.Members)
			w.Text(s.Name)
			w.Uint64(s.Size)
			singleVariant.Encode(w, struct{}{})
		},
		func(r *encoder.Reader) *StructAbiEntry {
			s := &StructAbiEntry{Members: structMembers.Decode(r), Name: r.Text(), Size: r.Uint64()}
			singleVariant.Decode(r)
			return s
		},
	)

	abiEntryKind = encoder.Tag[AbiEntryKind](int(AbiStruct) + 1)

	abiEntry = encoder.New(
		func(w *encoder.Writer, e AbiEntry) {
			abiEntryKind.Encode(w, e.Kind)
			switch e.Kind {
			case AbiEvent:
				eventAbiEntry.Encode(w, e.Event)
			case AbiStruct:
				structAbiEntry.Encode(w, e.Struct)
			default:
				functionAbiEntry.Encode(w, e.Function)
			}
		},
		func(r *encoder.Reader) AbiEntry {
			e := AbiEntry{Kind: abiEntryKind.Decode(r)}
			if r.Err() != nil {
				return AbiEntry{}
			}
			switch e.Kind {
			case AbiEvent:
				e.Event = eventAbiEntry.Decode(r)
			case AbiStruct:
				e.Struct = structAbiEntry.Decode(r)
			default:
				e.Function = functionAbiEntry.Decode(r)
			}
			return e
		},
	)
	abi = encoder.Option(encoder.Slice(abiEntry))

	program = encoder.New(
		func(w *encoder.Writer, p Program) {
			for _, doc := range []json.RawMessage{
				p.Attributes, p.Builtins, p.CompilerVersion, p.Data, p.DebugInfo,
				p.Hints, p.Identifiers, p.MainScope, p.Prime, p.ReferenceManager,
			} {
				JSONSerializer.Encode(w, doc)
			}
		},
		func(r *encoder.Reader) Program {
			return Program{
				Attributes:       JSONSerializer.Decode(r),
				Builtins:         JSONSerializer.Decode(r),
				CompilerVersion:  JSONSerializer.Decode(r),
				Data:             JSONSerializer.Decode(r),
				DebugInfo:        JSONSerializer.Decode(r),
				Hints:            JSONSerializer.Decode(r),
				Identifiers:      JSONSerializer.Decode(r),
				MainScope:        JSONSerializer.Decode(r),
				Prime:            JSONSerializer.Decode(r),
				ReferenceManager: JSONSerializer.Decode(r),
			}
		},
	)

	abiAndProgram = encoder.Compressing("DeprecatedContractClass", encoder.PairOf(abi, program))

	deprecatedEntryPoints = encoder.Map(
		encoder.Tag[EntryPointType](int(L1Handler)+1),
		encoder.Slice(encoder.New(
			func(w *encoder.Writer, e DeprecatedEntryPoint) {
				FeltSerializer.Encode(w, e.Selector)
				w.Uint64(e.Offset)
			},
			func(r *encoder.Reader) DeprecatedEntryPoint {
				return DeprecatedEntryPoint{Selector: FeltSerializer.Decode(r), Offset: r.Uint64()}
			},
		)),
	)
)

// DeprecatedClassSerializer compresses the ABI and the program together. Entry points are
// stored uncompressed after them.
var DeprecatedClassSerializer = encoder.New(
	func(w *encoder.Writer, c DeprecatedClass) {
		var abiPtr *[]AbiEntry
		if c.Abi != nil {
			abiPtr = &c.Abi
		}
		abiAndProgram.Encode(w, encoder.Pair[*[]AbiEntry, Program]{First: abiPtr, Second: c.Program})
		deprecatedEntryPoints.Encode(w, c.EntryPoints)
	},
	func(r *encoder.Reader) DeprecatedClass {
		p := abiAndProgram.Decode(r)
		c := DeprecatedClass{Program: p.Second, EntryPoints: deprecatedEntryPoints.Decode(r)}
		if p.First != nil {
			c.Abi = *p.First
			if c.Abi == nil {
				c.Abi = []AbiEntry{}
			}
		}
		return c
	},
)

func encodeNestedIntList(w *encoder.Writer, l NestedIntList) {
	if l.IsLeaf {
		w.Uint8(0)
		w.Uint64(l.Leaf)
		return
	}
	w.Uint8(1)
	w.Uvarint(uint64(len(l.Children)))
	for _, child := range l.Children {
		encodeNestedIntList(w, child)
	}
}

func decodeNestedIntList(r *encoder.Reader) NestedIntList {
	switch tag := r.Uint8(); {
	case r.Err() != nil:
		return NestedIntList{}
	case tag == 0:
		return NestedIntList{IsLeaf: true, Leaf: r.Uint64()}
	case tag == 1:
		n := r.Uvarint()
		var l NestedIntList
		for range n {
			child := decodeNestedIntList(r)
			if r.Err() != nil {
				return NestedIntList{}
			}
			l.Children = append(l.Children, child)
		}
		return l
	default:
		r.Failf("unknown nested int list tag %d", tag)
		return NestedIntList{}
	}
}

var NestedIntListSerializer = encoder.New(encodeNestedIntList, decodeNestedIntList)

var (
	casmHints = encoder.Slice(encoder.New(
		func(w *encoder.Writer, h CasmHints) {
			w.Uint64(h.PC)
			encoder.Slice(encoder.Bytes).Encode(w, h.Hints)
		},
		func(r *encoder.Reader) CasmHints {
			return CasmHints{PC: r.Uint64(), Hints: encoder.Slice(encoder.Bytes).Decode(r)}
		},
	))

	pythonicHints = encoder.Option(encoder.Slice(encoder.New(
		func(w *encoder.Writer, h CasmPythonicHints) {
			w.Uint64(h.PC)
			encoder.Slice(encoder.String).Encode(w, h.Hints)
		},
		func(r *encoder.Reader) CasmPythonicHints {
			return CasmPythonicHints{PC: r.Uint64(), Hints: encoder.Slice(encoder.String).Decode(r)}
		},
	)))

	casmEntryPoints = encoder.Slice(encoder.New(
		func(w *encoder.Writer, e CasmEntryPoint) {
			BigIntSerializer.Encode(w, e.Selector)
			w.Uint64(e.Offset)
			encoder.Slice(encoder.String).Encode(w, e.Builtins)
		},
		func(r *encoder.Reader) CasmEntryPoint {
			return CasmEntryPoint{
				Selector: BigIntSerializer.Decode(r),
				Offset:   r.Uint64(),
				Builtins: encoder.Slice(encoder.String).Decode(r),
			}
		},
	))

	segmentLengths = encoder.Option(NestedIntListSerializer)
)

// CasmClassSerializer compresses the whole compiled class.
var CasmClassSerializer = encoder.Compressing("CasmClass", encoder.New(
	func(w *encoder.Writer, c CasmClass) {
		BigIntSerializer.Encode(w, c.Prime)
		w.Text(c.CompilerVersion)
		encoder.Slice(BigIntSerializer).Encode(w, c.Bytecode)
		segmentLengths.Encode(w, c.BytecodeSegmentLengths)
		casmHints.Encode(w, c.Hints)
		var pythonic *[]CasmPythonicHints
		if c.PythonicHints != nil {
			pythonic = &c.PythonicHints
		}
		pythonicHints.Encode(w, pythonic)
		casmEntryPoints.Encode(w, c.EntryPoints.External)
		casmEntryPoints.Encode(w, c.EntryPoints.L1Handler)
		casmEntryPoints.Encode(w, c.EntryPoints.Constructor)
	},
	func(r *encoder.Reader) CasmClass {
		c := CasmClass{
			Prime:                  BigIntSerializer.Decode(r),
			CompilerVersion:        r.Text(),
			Bytecode:               encoder.Slice(BigIntSerializer).Decode(r),
			BytecodeSegmentLengths: segmentLengths.Decode(r),
			Hints:                  casmHints.Decode(r),
		}
		if pythonic := pythonicHints.Decode(r); pythonic != nil {
			c.PythonicHints = *pythonic
			if c.PythonicHints == nil {
				c.PythonicHints = []CasmPythonicHints{}
			}
		}
		c.EntryPoints = CasmEntryPointsByType{
			External:    casmEntryPoints.Decode(r),
			L1Handler:   casmEntryPoints.Decode(r),
			Constructor: casmEntryPoints.Decode(r),
		}
		return c
	},
))

var (
	daMode = encoder.Tag[DataAvailabilityMode](int(DAModeL2) + 1)

	resourceBounds = encoder.New(
		func(w *encoder.Writer, b ResourceBounds) {
			w.Uint64(b.MaxAmount)
			Uint128Serializer.Encode(w, b.MaxPricePerUnit)
		},
		func(r *encoder.Reader) ResourceBounds {
			return ResourceBounds{MaxAmount: r.Uint64(), MaxPricePerUnit: Uint128Serializer.Decode(r)}
		},
	)

	validResourceBounds = encoder.New(
		func(w *encoder.Writer, b ValidResourceBounds) {
			w.Bool(b.AllResources)
			resourceBounds.Encode(w, b.L1Gas)
			if b.AllResources {
				resourceBounds.Encode(w, b.L2Gas)
				resourceBounds.Encode(w, b.L1DataGas)
			}
		},
		func(r *encoder.Reader) ValidResourceBounds {
			var b ValidResourceBounds
			switch tag := r.Uint8(); {
			case r.Err() != nil:
			case tag == 0:
				b.L1Gas = resourceBounds.Decode(r)
			case tag == 1:
				b.AllResources = true
				b.L1Gas = resourceBounds.Decode(r)
				b.L2Gas = resourceBounds.Decode(r)
				b.L1DataGas = resourceBounds.Decode(r)
			default:
				r.Failf("unknown resource bounds tag %d", tag)
			}
			return b
		},
	)

	declareV0V1 = encoder.New(
		func(w *encoder.Writer, tx DeclareTransactionV0V1) {
			Uint128Serializer.Encode(w, tx.MaxFee)
			feltSlice.Encode(w, tx.Signature)
			FeltSerializer.Encode(w, tx.Nonce)
			ClassHashSerializer.Encode(w, tx.ClassHash)
			AddressSerializer.Encode(w, tx.SenderAddress)
		},
		func(r *encoder.Reader) DeclareTransactionV0V1 {
			return DeclareTransactionV0V1{
				MaxFee:        Uint128Serializer.Decode(r),
				Signature:     feltSlice.Decode(r),
				Nonce:         FeltSerializer.Decode(r),
				ClassHash:     ClassHashSerializer.Decode(r),
				SenderAddress: AddressSerializer.Decode(r),
			}
		},
	)

	declareV2 = encoder.New(
		func(w *encoder.Writer, tx *DeclareTransactionV2) {
			Uint128Serializer.Encode(w, tx.MaxFee)
			feltSlice.Encode(w, tx.Signature)
			FeltSerializer.Encode(w, tx.Nonce)
			ClassHashSerializer.Encode(w, tx.ClassHash)
			CasmClassHashSerializer.Encode(w, tx.CompiledClassHash)
			AddressSerializer.Encode(w, tx.SenderAddress)
		},
		func(r *encoder.Reader) *DeclareTransactionV2 {
			return &DeclareTransactionV2{
				MaxFee:            Uint128Serializer.Decode(r),
				Signature:         feltSlice.Decode(r),
				Nonce:             FeltSerializer.Decode(r),
				ClassHash:         ClassHashSerializer.Decode(r),
				CompiledClassHash: CasmClassHashSerializer.Decode(r),
				SenderAddress:     AddressSerializer.Decode(r),
			}
		},
	)

	declareV3 = encoder.New(
		func(w *encoder.Writer, tx *DeclareTransactionV3) {
			validResourceBounds.Encode(w, tx.ResourceBounds)
			w.Uint64(tx.Tip)
			feltSlice.Encode(w, tx.Signature)
			FeltSerializer.Encode(w, tx.Nonce)
			ClassHashSerializer.Encode(w, tx.ClassHash)
			CasmClassHashSerializer.Encode(w, tx.CompiledClassHash)
			AddressSerializer.Encode(w, tx.SenderAddress)
			daMode.Encode(w, tx.NonceDAMode)
			daMode.Encode(w, tx.FeeDAMode)
			feltSlice.Encode(w, tx.PaymasterData)
			feltSlice.Encode(w, tx.AccountDeploymentData)
		},
		func(r *encoder.Reader) *DeclareTransactionV3 {
			return &DeclareTransactionV3{
				ResourceBounds:        validResourceBounds.Decode(r),
				Tip:                   r.Uint64(),
				Signature:             feltSlice.Decode(r),
				Nonce:                 FeltSerializer.Decode(r),
				ClassHash:             ClassHashSerializer.Decode(r),
				CompiledClassHash:     CasmClassHashSerializer.Decode(r),
				SenderAddress:         AddressSerializer.Decode(r),
				NonceDAMode:           daMode.Decode(r),
				FeeDAMode:             daMode.Decode(r),
				PaymasterData:         feltSlice.Decode(r),
				AccountDeploymentData: feltSlice.Decode(r),
			}
		},
	)

	deploy = encoder.ConditionallyCompressing("DeployTransaction", encoder.New(
		func(w *encoder.Writer, tx *DeployTransaction) {
			FeltSerializer.Encode(w, tx.TxVersion)
			ClassHashSerializer.Encode(w, tx.ClassHash)
			FeltSerializer.Encode(w, tx.ContractAddressSalt)
			feltSlice.Encode(w, tx.ConstructorCalldata)
		},
		func(r *encoder.Reader) *DeployTransaction {
			return &DeployTransaction{
				TxVersion:           FeltSerializer.Decode(r),
				ClassHash:           ClassHashSerializer.Decode(r),
				ContractAddressSalt: FeltSerializer.Decode(r),
				ConstructorCalldata: feltSlice.Decode(r),
			}
		},
	))

	deployAccountV1 = encoder.ConditionallyCompressing("DeployAccountTransactionV1", encoder.New(
		func(w *encoder.Writer, tx *DeployAccountTransactionV1) {
			Uint128Serializer.Encode(w, tx.MaxFee)
			feltSlice.Encode(w, tx.Signature)
			FeltSerializer.Encode(w, tx.Nonce)
			ClassHashSerializer.Encode(w, tx.ClassHash)
			FeltSerializer.Encode(w, tx.ContractAddressSalt)
			feltSlice.Encode(w, tx.ConstructorCalldata)
		},
		func(r *encoder.Reader) *DeployAccountTransactionV1 {
			return &DeployAccountTransactionV1{
				MaxFee:              Uint128Serializer.Decode(r),
				Signature:           feltSlice.Decode(r),
				Nonce:               FeltSerializer.Decode(r),
				ClassHash:           ClassHashSerializer.Decode(r),
				ContractAddressSalt: FeltSerializer.Decode(r),
				ConstructorCalldata: feltSlice.Decode(r),
			}
		},
	))

	deployAccountV3 = encoder.ConditionallyCompressing("DeployAccountTransactionV3", encoder.New(
		func(w *encoder.Writer, tx *DeployAccountTransactionV3) {
			validResourceBounds.Encode(w, tx.ResourceBounds)
			w.Uint64(tx.Tip)
			feltSlice.Encode(w, tx.Signature)
			FeltSerializer.Encode(w, tx.Nonce)
			ClassHashSerializer.Encode(w, tx.ClassHash)
			FeltSerializer.Encode(w, tx.ContractAddressSalt)
			feltSlice.Encode(w, tx.ConstructorCalldata)
			daMode.Encode(w, tx.NonceDAMode)
			daMode.Encode(w, tx.FeeDAMode)
			feltSlice.Encode(w, tx.PaymasterData)
		},
		func(r *encoder.Reader) *DeployAccountTransactionV3 {
			return &DeployAccountTransactionV3{
				ResourceBounds:      validResourceBounds.Decode(r),
				Tip:                 r.Uint64(),
				Signature:           feltSlice.Decode(r),
				Nonce:               FeltSerializer.Decode(r),
				ClassHash:           ClassHashSerializer.Decode(r),
				ContractAddressSalt: FeltSerializer.Decode(r),
				ConstructorCalldata: feltSlice.Decode(r),
				NonceDAMode:         daMode.Decode(r),
				FeeDAMode:           daMode.Decode(r),
				PaymasterData:       feltSlice.Decode(r),
			}
		},
	))

	invokeV0 = encoder.ConditionallyCompressing("InvokeTransactionV0", encoder.New(
		func(w *encoder.Writer, tx *InvokeTransactionV0) {
			Uint128Serializer.Encode(w, tx.MaxFee)
			feltSlice.Encode(w, tx.Signature)
			AddressSerializer.Encode(w, tx.ContractAddress)
			FeltSerializer.Encode(w, tx.EntryPointSelector)
			feltSlice.Encode(w, tx.Calldata)
		},
		func(r *encoder.Reader) *InvokeTransactionV0 {
			return &InvokeTransactionV0{
				MaxFee:             Uint128Serializer.Decode(r),
				Signature:          feltSlice.Decode(r),
				ContractAddress:    AddressSerializer.Decode(r),
				EntryPointSelector: FeltSerializer.Decode(r),
				Calldata:           feltSlice.Decode(r),
			}
		},
	))

	invokeV1 = encoder.ConditionallyCompressing("InvokeTransactionV1", encoder.New(
		func(w *encoder.Writer, tx *InvokeTransactionV1) {
			Uint128Serializer.Encode(w, tx.MaxFee)
			feltSlice.Encode(w, tx.Signature)
			FeltSerializer.Encode(w, tx.Nonce)
			AddressSerializer.Encode(w, tx.SenderAddress)
			feltSlice.Encode(w, tx.Calldata)
		},
		func(r *encoder.Reader) *InvokeTransactionV1 {
			return &InvokeTransactionV1{
				MaxFee:        Uint128Serializer.Decode(r),
				Signature:     feltSlice.Decode(r),
				Nonce:         FeltSerializer.Decode(r),
				SenderAddress: AddressSerializer.Decode(r),
				Calldata:      feltSlice.Decode(r),
			}
		},
	))

	invokeV3 = encoder.ConditionallyCompressing("InvokeTransactionV3", encoder.New(
		func(w *encoder.Writer, tx *InvokeTransactionV3) {
			validResourceBounds.Encode(w, tx.ResourceBounds)
			w.Uint64(tx.Tip)
			feltSlice.Encode(w, tx.Signature)
			FeltSerializer.Encode(w, tx.Nonce)
			AddressSerializer.Encode(w, tx.SenderAddress)
			feltSlice.Encode(w, tx.Calldata)
			daMode.Encode(w, tx.NonceDAMode)
			daMode.Encode(w, tx.FeeDAMode)
			feltSlice.Encode(w, tx.PaymasterData)
			feltSlice.Encode(w, tx.AccountDeploymentData)
		},
		func(r *encoder.Reader) *InvokeTransactionV3 {
			return &InvokeTransactionV3{
				ResourceBounds:        validResourceBounds.Decode(r),
				Tip:                   r.Uint64(),
				Signature:             feltSlice.Decode(r),
				Nonce:                 FeltSerializer.Decode(r),
				SenderAddress:         AddressSerializer.Decode(r),
				Calldata:              feltSlice.Decode(r),
				NonceDAMode:           daMode.Decode(r),
				FeeDAMode:             daMode.Decode(r),
				PaymasterData:         feltSlice.Decode(r),
				AccountDeploymentData: feltSlice.Decode(r),
			}
		},
	))

	l1Handler = encoder.ConditionallyCompressing("L1HandlerTransaction", encoder.New(
		func(w *encoder.Writer, tx *L1HandlerTransaction) {
			FeltSerializer.Encode(w, tx.TxVersion)
			FeltSerializer.Encode(w, tx.Nonce)
			AddressSerializer.Encode(w, tx.ContractAddress)
			FeltSerializer.Encode(w, tx.EntryPointSelector)
			feltSlice.Encode(w, tx.Calldata)
		},
		func(r *encoder.Reader) *L1HandlerTransaction {
			return &L1HandlerTransaction{
				TxVersion:          FeltSerializer.Decode(r),
				Nonce:              FeltSerializer.Decode(r),
				ContractAddress:    AddressSerializer.Decode(r),
				EntryPointSelector: FeltSerializer.Decode(r),
				Calldata:           feltSlice.Decode(r),
			}
		},
	))

	transactionType = encoder.Tag[TransactionType](int(TxnL1Handler) + 1)
)

// TransactionSerializer stores the transaction type tag, then the version tag for types
// that have versions, then the transaction itself.
var TransactionSerializer = encoder.New(encodeTransaction, decodeTransaction)

func encodeTransaction(w *encoder.Writer, tx Transaction) {
	transactionType.Encode(w, tx.Type())
	switch tx := tx.(type) {
	case *DeclareTransactionV0:
		w.Uint8(0)
		declareV0V1.Encode(w, tx.DeclareTransactionV0V1)
	case *DeclareTransactionV1:
		w.Uint8(1)
		declareV0V1.Encode(w, tx.DeclareTransactionV0V1)
	case *DeclareTransactionV2:
		w.Uint8(2)
		declareV2.Encode(w, tx)
	case *DeclareTransactionV3:
		w.Uint8(3)
		declareV3.Encode(w, tx)
	case *DeployTransaction:
		deploy.Encode(w, tx)
	case *DeployAccountTransactionV1:
		w.Uint8(0)
		deployAccountV1.Encode(w, tx)
	case *DeployAccountTransactionV3:
		w.Uint8(1)
		deployAccountV3.Encode(w, tx)
	case *InvokeTransactionV0:
		w.Uint8(0)
		invokeV0.Encode(w, tx)
	case *InvokeTransactionV1:
		w.Uint8(1)
		invokeV1.Encode(w, tx)
	case *InvokeTransactionV3:
		w.Uint8(2)
		invokeV3.Encode(w, tx)
	case *L1HandlerTransaction:
		l1Handler.Encode(w, tx)
	default:
		panic(fmt.Sprintf("unknown transaction %T", tx))
	}
}

func decodeTransaction(r *encoder.Reader) Transaction {
	txType := transactionType.Decode(r)
	if r.Err() != nil {
		return nil
	}

	var tx Transaction
	switch txType {
	case TxnDeploy:
		tx = deploy.Decode(r)
	case TxnL1Handler:
		tx = l1Handler.Decode(r)
	default:
		version := r.Uint8()
		if r.Err() != nil {
			return nil
		}
		tx = decodeVersionedTransaction(r, txType, version)
	}
	if r.Err() != nil {
		return nil
	}
	return tx
}

func decodeVersionedTransaction(r *encoder.Reader, txType TransactionType, version uint8) Transaction {
	switch {
	case txType == TxnDeclare && version == 0:
		return &DeclareTransactionV0{declareV0V1.Decode(r)}
	case txType == TxnDeclare && version == 1:
		return &DeclareTransactionV1{declareV0V1.Decode(r)}
	case txType == TxnDeclare && version == 2:
		return declareV2.Decode(r)
	case txType == TxnDeclare && version == 3:
		return declareV3.Decode(r)
	case txType == TxnDeployAccount && version == 0:
		return deployAccountV1.Decode(r)
	case txType == TxnDeployAccount && version == 1:
		return deployAccountV3.Decode(r)
	case txType == TxnInvoke && version == 0:
		return invokeV0.Decode(r)
	case txType == TxnInvoke && version == 1:
		return invokeV1.Decode(r)
	case txType == TxnInvoke && version == 2:
		return invokeV3.Decode(r)
	default:
		r.Failf("unknown %s transaction version tag %d", txType, version)
		return nil
	}
}

var (
	messagesToL1 = encoder.Slice(encoder.New(
		func(w *encoder.Writer, m MessageToL1) {
			EthAddressSerializer.Encode(w, m.To)
			feltSlice.Encode(w, m.Payload)
			AddressSerializer.Encode(w, m.From)
		},
		func(r *encoder.Reader) MessageToL1 {
			return MessageToL1{
				To:      EthAddressSerializer.Decode(r),
				Payload: feltSlice.Decode(r),
				From:    AddressSerializer.Decode(r),
			}
		},
	))

	events = encoder.Slice(encoder.New(
		func(w *encoder.Writer, e Event) {
			AddressSerializer.Encode(w, e.From)
			feltSlice.Encode(w, e.Keys)
			feltSlice.Encode(w, e.Data)
		},
		func(r *encoder.Reader) Event {
			return Event{From: AddressSerializer.Decode(r), Keys: feltSlice.Decode(r), Data: feltSlice.Decode(r)}
		},
	))

	executionStatus = encoder.New(
		func(w *encoder.Writer, s ExecutionStatus) {
			w.Bool(s.Reverted)
			if s.Reverted {
				w.Text(s.RevertReason)
			}
		},
		func(r *encoder.Reader) ExecutionStatus {
			switch tag := r.Uint8(); {
			case r.Err() != nil:
				return ExecutionStatus{}
			case tag == 0:
				return ExecutionStatus{}
			case tag == 1:
				return ExecutionStatus{Reverted: true, RevertReason: r.Text()}
			default:
				r.Failf("unknown execution status tag %d", tag)
				return ExecutionStatus{}
			}
		},
	)

	gasVector = encoder.New(
		func(w *encoder.Writer, g GasVector) {
			w.Uint64(g.L1Gas)
			w.Uint64(g.L1DataGas)
			w.Uint64(g.L2Gas)
		},
		func(r *encoder.Reader) GasVector {
			return GasVector{L1Gas: r.Uint64(), L1DataGas: r.Uint64(), L2Gas: r.Uint64()}
		},
	)

	builtinCounter = encoder.Map(encoder.Tag[Builtin](int(RangeCheck96)+1), encoder.Uint64)

	executionResources = encoder.New(
		func(w *encoder.Writer, e ExecutionResources) {
			w.Uint64(e.Steps)
			builtinCounter.Encode(w, e.BuiltinInstanceCounter)
			w.Uint64(e.MemoryHoles)
			gasVector.Encode(w, e.DataAvailability)
			gasVector.Encode(w, e.TotalGasConsumed)
		},
		func(r *encoder.Reader) ExecutionResources {
			return ExecutionResources{
				Steps:                  r.Uint64(),
				BuiltinInstanceCounter: builtinCounter.Decode(r),
				MemoryHoles:            r.Uint64(),
				DataAvailability:       gasVector.Decode(r),
				TotalGasConsumed:       gasVector.Decode(r),
			}
		},
	)

	plainOutput = encoder.ConditionallyCompressing("TransactionOutput", encoder.New(
		func(w *encoder.Writer, o ReceiptCommon) {
			Uint128Serializer.Encode(w, o.ActualFee)
			messagesToL1.Encode(w, o.MessagesSent)
			events.Encode(w, o.Events)
			executionStatus.Encode(w, o.ExecutionStatus)
			executionResources.Encode(w, o.ExecutionResources)
		},
		func(r *encoder.Reader) ReceiptCommon {
			return ReceiptCommon{
				ActualFee:          Uint128Serializer.Decode(r),
				MessagesSent:       messagesToL1.Decode(r),
				Events:             events.Decode(r),
				ExecutionStatus:    executionStatus.Decode(r),
				ExecutionResources: executionResources.Decode(r),
			}
		},
	))

	// Deploy outputs carry the deployed address between the events and the status.
	deployOutput = encoder.ConditionallyCompressing("DeployTransactionOutput", encoder.New(
		func(w *encoder.Writer, o encoder.Pair[ReceiptCommon, felt.Address]) {
			Uint128Serializer.Encode(w, o.First.ActualFee)
			messagesToL1.Encode(w, o.First.MessagesSent)
			events.Encode(w, o.First.Events)
			AddressSerializer.Encode(w, o.Second)
			executionStatus.Encode(w, o.First.ExecutionStatus)
			executionResources.Encode(w, o.First.ExecutionResources)
		},
		func(r *encoder.Reader) encoder.Pair[ReceiptCommon, felt.Address] {
			var o encoder.Pair[ReceiptCommon, felt.Address]
			o.First.ActualFee = Uint128Serializer.Decode(r)
			o.First.MessagesSent = messagesToL1.Decode(r)
			o.First.Events = events.Decode(r)
			o.Second = AddressSerializer.Decode(r)
			o.First.ExecutionStatus = executionStatus.Decode(r)
			o.First.ExecutionResources = executionResources.Decode(r)
			return o
		},
	))
)

// TransactionOutputSerializer stores the transaction type tag followed by the output.
var TransactionOutputSerializer = encoder.New(encodeTransactionOutput, decodeTransactionOutput)

func encodeTransactionOutput(w *encoder.Writer, o TransactionOutput) {
	transactionType.Encode(w, o.Type())
	switch o := o.(type) {
	case *DeployTransactionOutput:
		deployOutput.Encode(w, encoder.Pair[ReceiptCommon, felt.Address]{First: o.ReceiptCommon, Second: o.ContractAddress})
	case *DeployAccountTransactionOutput:
		deployOutput.Encode(w, encoder.Pair[ReceiptCommon, felt.Address]{First: o.ReceiptCommon, Second: o.ContractAddress})
	default:
		plainOutput.Encode(w, *o.Receipt())
	}
}

func decodeTransactionOutput(r *encoder.Reader) TransactionOutput {
	txType := transactionType.Decode(r)
	if r.Err() != nil {
		return nil
	}

	var out TransactionOutput
	switch txType {
	case TxnDeploy, TxnDeployAccount:
		o := deployOutput.Decode(r)
		if txType == TxnDeploy {
			out = &DeployTransactionOutput{ReceiptCommon: o.First, ContractAddress: o.Second}
		} else {
			out = &DeployAccountTransactionOutput{ReceiptCommon: o.First, ContractAddress: o.Second}
		}
	case TxnDeclare:
		out = &DeclareTransactionOutput{plainOutput.Decode(r)}
	case TxnInvoke:
		out = &InvokeTransactionOutput{plainOutput.Decode(r)}
	case TxnL1Handler:
		out = &L1HandlerTransactionOutput{plainOutput.Decode(r)}
	}
	if r.Err() != nil {
		return nil
	}
	return out
}
