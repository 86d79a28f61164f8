package artifact

import (
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
)

// Record is the deployment data for one network: interface description,
// bytecode with library placeholders, deployed address and library links.
type Record struct {
	ABI            ABI               `json:"abi" yaml:"abi"`
	UnlinkedBinary string            `json:"unlinked_binary,omitempty" yaml:"unlinked_binary,omitempty"`
	Address        string            `json:"address,omitempty" yaml:"address,omitempty"`
	TxHash         string            `json:"transactionHash,omitempty" yaml:"transactionHash,omitempty"`
	UpdatedAt      int64             `json:"updated_at,omitempty" yaml:"updated_at,omitempty"` // unix ms
	Links          map[string]string `json:"links,omitempty" yaml:"links,omitempty"`
}

// IsEmpty reports whether the record carries no deployment data at all.
func (r Record) IsEmpty() bool {
	return len(r.ABI) == 0 && r.UnlinkedBinary == "" && r.Address == "" && len(r.Links) == 0
}

// Clone returns a copy that shares no maps or slices with r.
func (r Record) Clone() Record {
	out := r
	out.ABI = append(ABI(nil), r.ABI...)
	out.Links = make(map[string]string, len(r.Links))
	for k, v := range r.Links {
		out.Links[k] = v
	}
	return out
}

// Updated returns UpdatedAt as a time, or the zero time when unset.
func (r Record) Updated() time.Time {
	if r.UpdatedAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(r.UpdatedAt)
}

// Artifact is a compiled contract with one deployment record per network.
type Artifact struct {
	ContractName  string            `json:"contract_name" yaml:"contract_name"`
	GeneratedWith string            `json:"generated_with,omitempty" yaml:"generated_with,omitempty"`
	Networks      map[string]Record `json:"networks" yaml:"networks"`
}

// NetworkIDs returns the network keys in sorted order.
func (a *Artifact) NetworkIDs() []string {
	ids := lo.Keys(a.Networks)
	sort.Strings(ids)
	return ids
}

// Network returns the record for id.
func (a *Artifact) Network(id string) (Record, bool) {
	r, ok := a.Networks[id]
	return r, ok
}

// RecordDeployment stores base under network id with the freshly deployed
// address, deploying transaction and timestamp filled in.
func (a *Artifact) RecordDeployment(id string, base Record, addr common.Address, tx common.Hash, at time.Time) Record {
	if a.Networks == nil {
		a.Networks = map[string]Record{}
	}
	rec := base.Clone()
	rec.Address = addr.Hex()
	rec.TxHash = tx.Hex()
	rec.UpdatedAt = at.UnixMilli()
	a.Networks[id] = rec
	return rec
}
