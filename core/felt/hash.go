package felt

type Hash Felt

func (h *Hash) Bytes() [32]byte {
	return (*Felt)(h).Bytes()
}

func (h *Hash) String() string {
	return (*Felt)(h).String()
}

type ClassHash Hash

func (h *ClassHash) String() string {
	return (*Hash)(h).String()
}

func (h *ClassHash) UnmarshalText(text []byte) error {
	return (*Felt)(h).UnmarshalText(text)
}

func (h *ClassHash) MarshalText() ([]byte, error) {
	return (*Felt)(h).MarshalText()
}

// CasmClassHash is the compiled class hash a Sierra class commits to.
type CasmClassHash ClassHash

func (h *CasmClassHash) String() string {
	return (*ClassHash)(h).String()
}

func (h *CasmClassHash) UnmarshalText(text []byte) error {
	return (*Felt)(h).UnmarshalText(text)
}

func (h *CasmClassHash) MarshalText() ([]byte, error) {
	return (*Felt)(h).MarshalText()
}

type TransactionHash Hash

func (h *TransactionHash) String() string {
	return (*Hash)(h).String()
}

func (h *TransactionHash) UnmarshalText(text []byte) error {
	return (*Felt)(h).UnmarshalText(text)
}

func (h *TransactionHash) MarshalText() ([]byte, error) {
	return (*Felt)(h).MarshalText()
}
