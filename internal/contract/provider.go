package contract

import (
	"context"

	"github.com/bcamacho/RightsContract/internal/chain"
	"github.com/bcamacho/RightsContract/internal/confirm"
	"github.com/ethereum/go-ethereum/common"
)

// Provider is the node connection a factory and its instances talk to.
// *chain.EVMClient implements it.
type Provider interface {
	Call(ctx context.Context, msg chain.CallMsg) ([]byte, error)
	SendTransaction(ctx context.Context, msg chain.CallMsg) (common.Hash, error)
	EstimateGas(ctx context.Context, msg chain.CallMsg) (uint64, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*chain.Receipt, error)
	NetworkID(ctx context.Context) (string, error)
	// Deploy may report more than once; only an update carrying an address
	// means the contract exists. opts override the provider's own receipt
	// polling settings for this deployment.
	Deploy(ctx context.Context, msg chain.CallMsg, opts ...confirm.Option) (<-chan chain.DeployUpdate, error)
	FilterLogs(ctx context.Context, f chain.LogFilter) ([]chain.Log, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

var _ Provider = (*chain.EVMClient)(nil)
