package chain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// CallMsg carries the parameters of a call, a transaction or a gas estimate.
// A nil To means contract creation.
type CallMsg struct {
	From     *common.Address
	To       *common.Address
	Gas      uint64
	GasPrice *big.Int
	Value    *big.Int
	Data     []byte
	Nonce    *uint64
}

// toArg renders the message as a JSON-RPC transaction object, leaving out
// unset fields so the node fills them in.
func (m CallMsg) toArg() map[string]interface{} {
	arg := map[string]interface{}{}
	if m.From != nil {
		arg["from"] = *m.From
	}
	if m.To != nil {
		arg["to"] = *m.To
	}
	if m.Gas != 0 {
		arg["gas"] = hexutil.Uint64(m.Gas)
	}
	if m.GasPrice != nil {
		arg["gasPrice"] = (*hexutil.Big)(m.GasPrice)
	}
	if m.Value != nil {
		arg["value"] = (*hexutil.Big)(m.Value)
	}
	if len(m.Data) > 0 {
		arg["data"] = hexutil.Bytes(m.Data)
	}
	if m.Nonce != nil {
		arg["nonce"] = hexutil.Uint64(*m.Nonce)
	}
	return arg
}

// Receipt is a mined transaction receipt.
type Receipt struct {
	TxHash            common.Hash     `json:"transactionHash"`
	BlockHash         common.Hash     `json:"blockHash"`
	BlockNumber       hexutil.Uint64  `json:"blockNumber"`
	GasUsed           hexutil.Uint64  `json:"gasUsed"`
	CumulativeGasUsed hexutil.Uint64  `json:"cumulativeGasUsed"`
	Status            *hexutil.Uint64 `json:"status"` // absent before Byzantium
	ContractAddress   *common.Address `json:"contractAddress"`
	Logs              []Log           `json:"logs"`
}

// Succeeded reports whether execution did not revert. Receipts without a
// status field count as successful.
func (r *Receipt) Succeeded() bool {
	return r.Status == nil || *r.Status == 1
}

// Log is an event log entry.
type Log struct {
	Address     common.Address `json:"address"`
	Topics      []common.Hash  `json:"topics"`
	Data        hexutil.Bytes  `json:"data"`
	BlockNumber hexutil.Uint64 `json:"blockNumber"`
	TxHash      common.Hash    `json:"transactionHash"`
	LogIndex    hexutil.Uint   `json:"logIndex"`
	Removed     bool           `json:"removed"`
}

// LogFilter selects logs for eth_getLogs. A nil FromBlock means "earliest",
// a nil ToBlock means "latest". Each Topics position is an OR-set; an empty
// position matches anything.
type LogFilter struct {
	Addresses []common.Address
	Topics    [][]common.Hash
	FromBlock *big.Int
	ToBlock   *big.Int
}

func (f LogFilter) toArg() map[string]interface{} {
	arg := map[string]interface{}{
		"fromBlock": blockArg(f.FromBlock, "earliest"),
		"toBlock":   blockArg(f.ToBlock, "latest"),
	}
	switch len(f.Addresses) {
	case 0:
	case 1:
		arg["address"] = f.Addresses[0]
	default:
		arg["address"] = f.Addresses
	}
	if len(f.Topics) > 0 {
		topics := make([]interface{}, len(f.Topics))
		for i, set := range f.Topics {
			switch len(set) {
			case 0:
				topics[i] = nil
			case 1:
				topics[i] = set[0]
			default:
				topics[i] = set
			}
		}
		arg["topics"] = topics
	}
	return arg
}

func blockArg(n *big.Int, fallback string) string {
	if n == nil {
		return fallback
	}
	return hexutil.EncodeBig(n)
}

// DeployUpdate is one notification from Deploy. The first update carries
// only the transaction hash; the final one carries the contract address or
// an error.
type DeployUpdate struct {
	TxHash  common.Hash
	Address common.Address
	Receipt *Receipt
	Err     error
}
