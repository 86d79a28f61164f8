package artifact

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"
)

// ErrInvalidABI is returned when an interface description fails validation.
var ErrInvalidABI = errors.New("invalid ABI")

// ABIParam is a parameter in an ABI entry.
type ABIParam struct {
	Name         string     `json:"name" yaml:"name"`
	Type         string     `json:"type" yaml:"type"`
	Indexed      bool       `json:"indexed,omitempty" yaml:"indexed,omitempty"`
	InternalType string     `json:"internalType,omitempty" yaml:"internalType,omitempty"`
	Components   []ABIParam `json:"components,omitempty" yaml:"components,omitempty"`
}

// ABIEntry is one ABI entry (function, event, constructor, fallback).
// Old compilers mark read-only functions with Constant; newer ones use
// StateMutability. Both are honored.
type ABIEntry struct {
	Type            string     `json:"type" yaml:"type"`
	Name            string     `json:"name,omitempty" yaml:"name,omitempty"`
	Inputs          []ABIParam `json:"inputs" yaml:"inputs"`
	Outputs         []ABIParam `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Constant        bool       `json:"constant,omitempty" yaml:"constant,omitempty"`
	Payable         bool       `json:"payable,omitempty" yaml:"payable,omitempty"`
	StateMutability string     `json:"stateMutability,omitempty" yaml:"stateMutability,omitempty"`
	Anonymous       bool       `json:"anonymous,omitempty" yaml:"anonymous,omitempty"`
}

// Kind returns the entry type, defaulting to "function" as the ABI format
// allows.
func (e ABIEntry) Kind() string {
	if e.Type == "" {
		return "function"
	}
	return e.Type
}

// IsReadFunction reports whether calling the function cannot change state.
func (e ABIEntry) IsReadFunction() bool {
	return e.Kind() == "function" &&
		(e.Constant || e.StateMutability == "view" || e.StateMutability == "pure")
}

// IsWriteFunction reports whether the function must be sent as a
// transaction.
func (e ABIEntry) IsWriteFunction() bool {
	return e.Kind() == "function" && !e.IsReadFunction()
}

// Signature returns the canonical signature, e.g. "getContractAddr(bytes32)".
func (e ABIEntry) Signature() string {
	types := make([]string, len(e.Inputs))
	for i, p := range e.Inputs {
		types[i] = p.canonicalType()
	}
	return e.Name + "(" + strings.Join(types, ",") + ")"
}

// Selector returns the 4-byte function selector as 0x-prefixed hex.
func (e ABIEntry) Selector() string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(e.Signature()))
	return "0x" + hex.EncodeToString(h.Sum(nil)[:4])
}

// Topic returns the event topic hash.
func (e ABIEntry) Topic() common.Hash {
	return crypto.Keccak256Hash([]byte(e.Signature()))
}

func (p ABIParam) canonicalType() string {
	if !strings.HasPrefix(p.Type, "tuple") {
		return p.Type
	}
	inner := make([]string, len(p.Components))
	for i, c := range p.Components {
		inner[i] = c.canonicalType()
	}
	return "(" + strings.Join(inner, ",") + ")" + strings.TrimPrefix(p.Type, "tuple")
}

// ABI is an interface description: the ordered list of entries.
type ABI []ABIEntry

// Functions returns the function entries in declaration order.
func (a ABI) Functions() []ABIEntry { return a.filter("function") }

// Events returns the event entries in declaration order.
func (a ABI) Events() []ABIEntry { return a.filter("event") }

// Constructor returns the constructor entry, or nil when the contract has
// the implicit no-argument constructor.
func (a ABI) Constructor() *ABIEntry {
	for i := range a {
		if a[i].Kind() == "constructor" {
			return &a[i]
		}
	}
	return nil
}

func (a ABI) filter(kind string) []ABIEntry {
	var out []ABIEntry
	for _, e := range a {
		if e.Kind() == kind {
			out = append(out, e)
		}
	}
	return out
}

// Validate checks that every function and event has a name.
func (a ABI) Validate() error {
	for i, e := range a {
		switch e.Kind() {
		case "function", "event":
			if e.Name == "" {
				return fmt.Errorf("%w: %s entry %d has no name", ErrInvalidABI, e.Kind(), i)
			}
		}
	}
	return nil
}

// Parse converts the description into a go-ethereum ABI for encoding and
// decoding.
func (a ABI) Parse() (abi.ABI, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return abi.ABI{}, err
	}
	parsed, err := abi.JSON(strings.NewReader(string(data)))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("%w: %v", ErrInvalidABI, err)
	}
	return parsed, nil
}
