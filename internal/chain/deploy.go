package chain

import (
	"context"
	"fmt"

	"github.com/bcamacho/RightsContract/internal/confirm"
)

// Deploy submits a contract creation and reports progress on the returned
// channel. The first update carries only the transaction hash. Once the
// receipt is mined and code is present at the new address a second update
// carries the address; failures after submission arrive as an update with
// Err set. The channel is closed after the last update. opts are applied
// after the client's confirmation settings.
func (c *EVMClient) Deploy(ctx context.Context, msg CallMsg, opts ...confirm.Option) (<-chan DeployUpdate, error) {
	msg.To = nil
	hash, err := c.SendTransaction(ctx, msg)
	if err != nil {
		return nil, err
	}

	updates := make(chan DeployUpdate, 2)
	updates <- DeployUpdate{TxHash: hash}

	go func() {
		defer close(updates)

		receipt, err := c.Poller(opts...).Wait(ctx, hash)
		if err != nil {
			updates <- DeployUpdate{TxHash: hash, Err: err}
			return
		}
		if receipt.ContractAddress == nil {
			updates <- DeployUpdate{TxHash: hash, Receipt: receipt, Err: ErrNoContractAddress}
			return
		}
		addr := *receipt.ContractAddress
		code, err := c.CodeAt(ctx, addr)
		if err != nil {
			updates <- DeployUpdate{TxHash: hash, Receipt: receipt, Err: fmt.Errorf("checking code at %s: %w", addr.Hex(), err)}
			return
		}
		if len(code) == 0 {
			updates <- DeployUpdate{TxHash: hash, Receipt: receipt, Err: ErrEmptyCode}
			return
		}
		c.logger.Info("contract mined", "address", addr.Hex(), "tx", hash.Hex(), "block", uint64(receipt.BlockNumber))
		updates <- DeployUpdate{TxHash: hash, Address: addr, Receipt: receipt}
	}()

	return updates, nil
}
