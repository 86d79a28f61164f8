package contract

import (
	"context"
	"fmt"
	"time"

	"github.com/bcamacho/RightsContract/internal/artifact"
	"github.com/bcamacho/RightsContract/internal/linker"
	"github.com/ethereum/go-ethereum/common"
)

// mainnetAliases are the record keys tried, in order, when the node reports
// network "1".
var mainnetAliases = []string{"1", "live", "default"}

// SetNetwork selects the record for network id and pins it. An id with no
// record selects an empty one; it is not an error.
func (f *Factory) SetNetwork(id string) {
	rec, _ := f.artifact.Network(id)
	f.record = rec.Clone()
	f.links = make(map[string]common.Address, len(f.record.Links))
	for name, addr := range f.record.Links {
		f.links[name] = common.HexToAddress(addr)
	}
	f.linkedEvents = nil
	f.networkID = id
}

// CheckNetwork selects the record matching the provider's network unless a
// network is already pinned.
func (f *Factory) CheckNetwork(ctx context.Context) error {
	if f.networkID != "" {
		return nil
	}
	if f.provider == nil {
		return ErrNoProvider
	}
	id, err := f.provider.NetworkID(ctx)
	if err != nil {
		return fmt.Errorf("%s: detecting network: %w", f.name, err)
	}
	if id == "1" {
		for _, alias := range mainnetAliases {
			if _, ok := f.artifact.Network(alias); ok {
				id = alias
				break
			}
		}
	}
	if _, ok := f.artifact.Network(id); !ok {
		return fmt.Errorf("%s error: %w '%s'", f.name, ErrUnknownNetwork, id)
	}
	f.logger.Debug("network selected", "contract", f.name, "network", id)
	f.SetNetwork(id)
	return nil
}

// NetworkID returns the pinned network, or "" while unpinned.
func (f *Factory) NetworkID() string { return f.networkID }

// Networks returns the network ids the artifact has records for, sorted.
func (f *Factory) Networks() []string { return f.artifact.NetworkIDs() }

// Link records addr as the deployed address of library name. Linking the
// same name again replaces the address.
func (f *Factory) Link(name string, addr common.Address) {
	f.links[name] = addr
}

// LinkAll links every library in links.
func (f *Factory) LinkAll(links map[string]common.Address) {
	for name, addr := range links {
		f.Link(name, addr)
	}
}

// LinkLibrary links a deployed library factory by its name and address, and
// merges the library's events so instances can decode logs it emits.
func (f *Factory) LinkLibrary(lib *Factory) error {
	if lib.Address() == "" {
		return fmt.Errorf("cannot link %s: %w", lib.Name(), ErrNotDeployed)
	}
	f.Link(lib.Name(), common.HexToAddress(lib.Address()))
	f.linkedEvents = append(f.linkedEvents, lib.ABI().Events()...)
	return nil
}

// Links returns a copy of the current library links.
func (f *Factory) Links() map[string]common.Address {
	out := make(map[string]common.Address, len(f.links))
	for name, addr := range f.links {
		out[name] = addr
	}
	return out
}

// Binary returns the bytecode with every linked library's placeholders
// replaced by its address.
func (f *Factory) Binary() string {
	return linker.Resolve(f.record.UnlinkedBinary, f.links)
}

// Unresolved lists libraries the bytecode still needs after linking.
func (f *Factory) Unresolved() []string {
	return linker.Unresolved(f.Binary())
}

// RecordDeployment writes inst's address into the artifact under the active
// network (or "default" while unpinned), keeping the current links, and makes
// it the active record.
func (f *Factory) RecordDeployment(inst *Instance, at time.Time) artifact.Record {
	id := f.networkID
	if id == "" {
		id = artifact.DefaultNetwork
	}
	base := f.record.Clone()
	for name, addr := range f.links {
		base.Links[name] = addr.Hex()
	}
	rec := f.artifact.RecordDeployment(id, base, inst.Address(), inst.TransactionHash(), at)
	f.record = rec.Clone()
	return rec
}

// RecordLinks writes the current library links into the artifact record of
// the active network (or "default" while unpinned) without touching the
// deployed address.
func (f *Factory) RecordLinks() artifact.Record {
	id := f.networkID
	if id == "" {
		id = artifact.DefaultNetwork
	}
	rec := f.record.Clone()
	for name, addr := range f.links {
		rec.Links[name] = addr.Hex()
	}
	if f.artifact.Networks == nil {
		f.artifact.Networks = map[string]artifact.Record{}
	}
	f.artifact.Networks[id] = rec
	f.record = rec.Clone()
	return rec
}
