package chain

import (
	"errors"
	"strings"
)

// ErrNetworkNotFound is returned when a network is not in the registry.
var ErrNetworkNotFound = errors.New("network not found")

// Network describes a well-known network id.
type Network struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Testnet     bool   `json:"testnet"`
	Explorer    string `json:"explorer,omitempty"`
}

// Registry maps network ids and names to metadata.
type Registry struct {
	networks []Network
	byName   map[string]*Network
	byID     map[string]*Network
}

// NewRegistry returns the registry of well-known networks.
func NewRegistry() *Registry {
	networks := knownNetworks()
	r := &Registry{
		networks: networks,
		byName:   make(map[string]*Network, len(networks)),
		byID:     make(map[string]*Network, len(networks)),
	}
	for i := range r.networks {
		n := &r.networks[i]
		r.byName[n.Name] = n
		r.byID[n.ID] = n
	}
	return r
}

// All returns every network in the registry.
func (r *Registry) All() []Network {
	return r.networks
}

// GetByName finds a network by slug ("mainnet", "sepolia").
func (r *Registry) GetByName(name string) (*Network, error) {
	n, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, ErrNetworkNotFound
	}
	return n, nil
}

// GetByID finds a network by its net_version id.
func (r *Registry) GetByID(id string) (*Network, error) {
	n, ok := r.byID[id]
	if !ok {
		return nil, ErrNetworkNotFound
	}
	return n, nil
}

// Describe returns a display name for an artifact network key. Aliases such
// as "default" and "live" are returned unchanged.
func (r *Registry) Describe(id string) string {
	if n, err := r.GetByID(id); err == nil {
		return n.DisplayName
	}
	return id
}

// ResolveID turns a network name or id into an id. Unknown values are
// returned as given so artifact keys like "default" keep working.
func (r *Registry) ResolveID(nameOrID string) string {
	if n, err := r.GetByName(nameOrID); err == nil {
		return n.ID
	}
	return nameOrID
}

func knownNetworks() []Network {
	return []Network{
		{ID: "1", Name: "mainnet", DisplayName: "Ethereum Mainnet", Explorer: "https://etherscan.io"},
		{ID: "2", Name: "morden", DisplayName: "Morden", Testnet: true},
		{ID: "3", Name: "ropsten", DisplayName: "Ropsten", Testnet: true},
		{ID: "4", Name: "rinkeby", DisplayName: "Rinkeby", Testnet: true},
		{ID: "5", Name: "goerli", DisplayName: "Goerli", Testnet: true},
		{ID: "42", Name: "kovan", DisplayName: "Kovan", Testnet: true},
		{ID: "1337", Name: "dev", DisplayName: "Local dev chain", Testnet: true},
		{ID: "5777", Name: "ganache", DisplayName: "Ganache", Testnet: true},
		{ID: "17000", Name: "holesky", DisplayName: "Holesky", Testnet: true, Explorer: "https://holesky.etherscan.io"},
		{ID: "11155111", Name: "sepolia", DisplayName: "Sepolia", Testnet: true, Explorer: "https://sepolia.etherscan.io"},
	}
}
