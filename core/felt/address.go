package felt

type Address Felt

func (a *Address) Bytes() [32]byte {
	return (*Felt)(a).Bytes()
}

func (a *Address) String() string {
	return (*Felt)(a).String()
}

func (a *Address) UnmarshalText(text []byte) error {
	return (*Felt)(a).UnmarshalText(text)
}

func (a *Address) MarshalText() ([]byte, error) {
	return (*Felt)(a).MarshalText()
}

func (a *Address) IsZero() bool {
	return (*Felt)(a).IsZero()
}

func (a *Address) Equal(b *Address) bool {
	return (*Felt)(a).Equal((*Felt)(b))
}

// StorageKey addresses a single slot of a contract's storage.
type StorageKey Felt

func (k *StorageKey) String() string {
	return (*Felt)(k).String()
}

func (k *StorageKey) UnmarshalText(text []byte) error {
	return (*Felt)(k).UnmarshalText(text)
}

func (k *StorageKey) MarshalText() ([]byte, error) {
	return (*Felt)(k).MarshalText()
}
