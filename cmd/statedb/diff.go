package main

import (
	"encoding"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/NethermindEth/statedb/core"
	"github.com/NethermindEth/statedb/core/felt"
	"gopkg.in/yaml.v3"
)

// diffYAML is the file format of a state diff. Entries are lists so the order of the
// file is the order the diff is persisted in.
type diffYAML struct {
	DeployedContracts         []deployedContractYAML `yaml:"deployed_contracts,omitempty"`
	StorageDiffs              []storageDiffYAML      `yaml:"storage_diffs,omitempty"`
	DeclaredClasses           []declaredClassYAML    `yaml:"declared_classes,omitempty"`
	DeprecatedDeclaredClasses []string               `yaml:"deprecated_declared_classes,omitempty"`
	Nonces                    []nonceYAML            `yaml:"nonces,omitempty"`
}

type deployedContractYAML struct {
	Address   string `yaml:"address"`
	ClassHash string `yaml:"class_hash"`
}

type storageDiffYAML struct {
	Address string             `yaml:"address"`
	Entries []storageEntryYAML `yaml:"entries"`
}

type storageEntryYAML struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

type declaredClassYAML struct {
	ClassHash         string `yaml:"class_hash"`
	CompiledClassHash string `yaml:"compiled_class_hash"`
}

type nonceYAML struct {
	Address string `yaml:"address"`
	Nonce   string `yaml:"nonce"`
}

type revertedYAML struct {
	StateDiff                diffYAML `yaml:"state_diff"`
	DeletedClasses           []string `yaml:"deleted_classes,omitempty"`
	DeletedDeprecatedClasses []string `yaml:"deleted_deprecated_classes,omitempty"`
	DeletedCompiledClasses   []string `yaml:"deleted_compiled_classes,omitempty"`
}

func parseHex[T any, PT interface {
	*T
	encoding.TextUnmarshaler
}](s string) (T, error) {
	var v T
	if err := PT(&v).UnmarshalText([]byte(s)); err != nil {
		return v, fmt.Errorf("parse %q: %w", s, err)
	}
	return v, nil
}

func toYAML(diff *core.StateDiff) diffYAML {
	var out diffYAML
	for addr, classHash := range diff.DeployedContracts.All() {
		out.DeployedContracts = append(out.DeployedContracts, deployedContractYAML{
			Address:   addr.String(),
			ClassHash: classHash.String(),
		})
	}
	for addr, diffs := range diff.StorageDiffs.All() {
		entry := storageDiffYAML{Address: addr.String()}
		for key, value := range diffs.All() {
			entry.Entries = append(entry.Entries, storageEntryYAML{Key: key.String(), Value: value.String()})
		}
		out.StorageDiffs = append(out.StorageDiffs, entry)
	}
	for classHash, casmHash := range diff.DeclaredClasses.All() {
		out.DeclaredClasses = append(out.DeclaredClasses, declaredClassYAML{
			ClassHash:         classHash.String(),
			CompiledClassHash: casmHash.String(),
		})
	}
	for _, classHash := range diff.DeprecatedDeclaredClasses {
		out.DeprecatedDeclaredClasses = append(out.DeprecatedDeclaredClasses, classHash.String())
	}
	for addr, nonce := range diff.Nonces.All() {
		out.Nonces = append(out.Nonces, nonceYAML{Address: addr.String(), Nonce: nonce.String()})
	}
	return out
}

func (d *diffYAML) stateDiff() (*core.StateDiff, error) {
	diff := new(core.StateDiff)
	for _, entry := range d.DeployedContracts {
		addr, err := parseHex[felt.Address](entry.Address)
		if err != nil {
			return nil, err
		}
		classHash, err := parseHex[felt.ClassHash](entry.ClassHash)
		if err != nil {
			return nil, err
		}
		diff.DeployedContracts.Set(addr, classHash)
	}
	for _, entry := range d.StorageDiffs {
		addr, err := parseHex[felt.Address](entry.Address)
		if err != nil {
			return nil, err
		}
		for _, kv := range entry.Entries {
			key, err := parseHex[felt.StorageKey](kv.Key)
			if err != nil {
				return nil, err
			}
			value, err := parseHex[felt.Felt](kv.Value)
			if err != nil {
				return nil, err
			}
			diff.SetStorage(addr, key, value)
		}
	}
	for _, entry := range d.DeclaredClasses {
		classHash, err := parseHex[felt.ClassHash](entry.ClassHash)
		if err != nil {
			return nil, err
		}
		casmHash, err := parseHex[felt.CasmClassHash](entry.CompiledClassHash)
		if err != nil {
			return nil, err
		}
		diff.DeclaredClasses.Set(classHash, casmHash)
	}
	for _, s := range d.DeprecatedDeclaredClasses {
		classHash, err := parseHex[felt.ClassHash](s)
		if err != nil {
			return nil, err
		}
		diff.DeprecatedDeclaredClasses = append(diff.DeprecatedDeclaredClasses, classHash)
	}
	for _, entry := range d.Nonces {
		addr, err := parseHex[felt.Address](entry.Address)
		if err != nil {
			return nil, err
		}
		nonce, err := parseHex[felt.Felt](entry.Nonce)
		if err != nil {
			return nil, err
		}
		diff.Nonces.Set(addr, nonce)
	}
	return diff, nil
}

func readDiffFile(path string) (*core.StateDiff, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var d diffYAML
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err = decoder.Decode(&d); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return d.stateDiff()
}

func toRevertedYAML(reverted *core.RevertedStateDiff) revertedYAML {
	out := revertedYAML{StateDiff: toYAML(&reverted.StateDiff)}
	for _, classHash := range reverted.DeletedClassHashes {
		if _, ok := reverted.DeletedClasses[classHash]; ok {
			out.DeletedClasses = append(out.DeletedClasses, classHash.String())
		}
		if _, ok := reverted.DeletedCompiledClasses[classHash]; ok {
			out.DeletedCompiledClasses = append(out.DeletedCompiledClasses, classHash.String())
		}
	}
	for _, classHash := range reverted.DeletedDeprecatedClassHashes {
		out.DeletedDeprecatedClasses = append(out.DeletedDeprecatedClasses, classHash.String())
	}
	return out
}

func writeYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}
