// Package artifact reads and writes compiled contract artifacts.
//
// The native format is the truffle-contract layout: a contract name and one
// record (ABI, unlinked bytecode, address, links) per network id. Bare ABI
// arrays, single-network records and Hardhat/Foundry artifacts are accepted
// and mapped onto the "default" network. Files ending in .yaml or .yml are
// read as YAML.
package artifact

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultNetwork is the record key used when an artifact has no per-network
// layout.
const DefaultNetwork = "default"

//go:embed RightsContractFactory.json
var rightsContractFactoryJSON []byte

// ErrEmpty is returned for empty artifact files.
var ErrEmpty = errors.New("artifact is empty")

// Default returns a fresh copy of the embedded RightsContractFactory
// artifact.
func Default() *Artifact {
	a, err := Parse(rightsContractFactoryJSON, "RightsContractFactory")
	if err != nil {
		panic(fmt.Sprintf("embedded artifact: %v", err))
	}
	return a
}

// LoadFile reads an artifact from path. The contract name falls back to the
// file's base name.
func LoadFile(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read artifact file: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.TrimSuffix(name, ".sol")

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	a, err := Parse(data, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return json.Marshal(doc)
}

// Parse detects the artifact layout and decodes it. name is used when the
// data does not carry a contract name.
func Parse(data []byte, name string) (*Artifact, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	if data[0] == '[' {
		var entries ABI
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("invalid ABI JSON: %w", err)
		}
		return finish(&Artifact{
			ContractName: name,
			Networks:     map[string]Record{DefaultNetwork: {ABI: entries}},
		})
	}

	var probe struct {
		ContractName   string                     `json:"contract_name"`
		ContractName2  string                     `json:"contractName"`
		GeneratedWith  string                     `json:"generated_with"`
		Networks       map[string]json.RawMessage `json:"networks"`
		ABI            ABI                        `json:"abi"`
		UnlinkedBinary string                     `json:"unlinked_binary"`
		Bytecode       json.RawMessage            `json:"bytecode"`
		Address        string                     `json:"address"`
		UpdatedAt      int64                      `json:"updated_at"`
		Links          map[string]string          `json:"links"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("invalid artifact JSON: %w", err)
	}

	a := &Artifact{
		ContractName:  firstNonEmpty(probe.ContractName, probe.ContractName2, name),
		GeneratedWith: probe.GeneratedWith,
		Networks:      map[string]Record{},
	}

	binary := probe.UnlinkedBinary
	if binary == "" && len(probe.Bytecode) > 0 {
		bc, err := extractBytecodeHex(probe.Bytecode)
		if err != nil {
			return nil, err
		}
		binary = bc
	}

	if len(probe.ABI) == 0 && len(probe.Networks) > 0 {
		// Per-network records, each carrying its own ABI.
		for id, raw := range probe.Networks {
			var rec Record
			if err := json.Unmarshal(raw, &rec); err != nil {
				return nil, fmt.Errorf("network %q: %w", id, err)
			}
			a.Networks[id] = rec
		}
		return finish(a)
	}

	if len(probe.ABI) == 0 {
		return nil, fmt.Errorf("%w: no \"abi\" and no \"networks\"", ErrInvalidABI)
	}

	base := Record{
		ABI:            probe.ABI,
		UnlinkedBinary: binary,
		Address:        probe.Address,
		UpdatedAt:      probe.UpdatedAt,
		Links:          probe.Links,
	}
	a.Networks[DefaultNetwork] = base

	// Shared ABI with per-network addresses (truffle 4+ build output).
	for id, raw := range probe.Networks {
		var dep struct {
			Address string            `json:"address"`
			TxHash  string            `json:"transactionHash"`
			Links   map[string]string `json:"links"`
		}
		if err := json.Unmarshal(raw, &dep); err != nil {
			return nil, fmt.Errorf("network %q: %w", id, err)
		}
		rec := base.Clone()
		rec.Address = dep.Address
		rec.TxHash = dep.TxHash
		if len(dep.Links) > 0 {
			rec.Links = dep.Links
		}
		a.Networks[id] = rec
	}
	return finish(a)
}

func finish(a *Artifact) (*Artifact, error) {
	for id, rec := range a.Networks {
		if err := rec.ABI.Validate(); err != nil {
			return nil, fmt.Errorf("network %q: %w", id, err)
		}
		if rec.Links == nil {
			rec.Links = map[string]string{}
			a.Networks[id] = rec
		}
	}
	return a, nil
}

// extractBytecodeHex handles the two common artifact formats:
//   - Hardhat:  "bytecode": "0x608060..."
//   - Foundry:  "bytecode": {"object": "0x608060..."}
func extractBytecodeHex(raw json.RawMessage) (string, error) {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return strings.TrimSpace(str), nil
	}

	var obj struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Object != "" {
		return strings.TrimSpace(obj.Object), nil
	}

	return "", fmt.Errorf("bytecode field is neither a hex string nor a {\"object\":\"0x...\"} object")
}

// Marshal encodes a in the truffle-contract layout.
func Marshal(a *Artifact) ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
