package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/bcamacho/RightsContract/internal/confirm"
	"github.com/bcamacho/RightsContract/internal/logging"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	// ErrNoContractAddress is returned when a deployment receipt names no
	// contract.
	ErrNoContractAddress = errors.New("receipt has no contract address")
	// ErrEmptyCode is returned when a deployment was mined but left no code
	// at the new address.
	ErrEmptyCode = errors.New("the contract code couldn't be stored, please check your gas amount")
)

// EVMClient is a JSON-RPC client for EVM nodes. Transactions are sent with
// eth_sendTransaction, so the node holds and unlocks the sender's keys.
type EVMClient struct {
	rpc         *rpc.Client
	url         string
	logger      *slog.Logger
	headers     map[string]string
	confirmOpts []confirm.Option
}

// Option configures an EVMClient.
type Option func(*EVMClient)

// WithBearerToken sends an Authorization header on every request.
func WithBearerToken(token string) Option {
	return func(c *EVMClient) {
		if token != "" {
			c.headers["Authorization"] = "Bearer " + token
		}
	}
}

// WithHeader sends an extra HTTP header on every request.
func WithHeader(key, value string) Option {
	return func(c *EVMClient) { c.headers[key] = value }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *EVMClient) { c.logger = l }
}

// WithConfirmation sets the receipt polling used by Deploy.
func WithConfirmation(interval, timeout time.Duration) Option {
	return func(c *EVMClient) {
		c.confirmOpts = append(c.confirmOpts, confirm.WithInterval(interval), confirm.WithTimeout(timeout))
	}
}

// WithObserver receives confirmation state changes for deployments.
func WithObserver(fn func(confirm.Transition)) Option {
	return func(c *EVMClient) { c.confirmOpts = append(c.confirmOpts, confirm.OnState(fn)) }
}

// Dial connects to the node at url.
func Dial(ctx context.Context, url string, opts ...Option) (*EVMClient, error) {
	c := &EVMClient{url: url, headers: map[string]string{}}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrDiscard(c.logger)

	var rpcOpts []rpc.ClientOption
	for k, v := range c.headers {
		rpcOpts = append(rpcOpts, rpc.WithHeader(k, v))
	}
	client, err := rpc.DialOptions(ctx, url, rpcOpts...)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	c.rpc = client
	c.confirmOpts = append(c.confirmOpts, confirm.WithLogger(c.logger))
	return c, nil
}

// URL returns the endpoint the client was dialed with.
func (c *EVMClient) URL() string { return c.url }

// Close releases the underlying connection.
func (c *EVMClient) Close() { c.rpc.Close() }

// Call executes msg against the latest state without creating a transaction.
func (c *EVMClient) Call(ctx context.Context, msg CallMsg) ([]byte, error) {
	var out hexutil.Bytes
	if err := c.call(ctx, &out, "eth_call", msg.toArg(), "latest"); err != nil {
		return nil, err
	}
	return out, nil
}

// SendTransaction submits msg for the node to sign and returns its hash.
func (c *EVMClient) SendTransaction(ctx context.Context, msg CallMsg) (common.Hash, error) {
	var hash common.Hash
	if err := c.call(ctx, &hash, "eth_sendTransaction", msg.toArg()); err != nil {
		return common.Hash{}, err
	}
	c.logger.Debug("transaction submitted", "tx", hash.Hex())
	return hash, nil
}

// EstimateGas returns the gas msg is expected to use.
func (c *EVMClient) EstimateGas(ctx context.Context, msg CallMsg) (uint64, error) {
	var gas hexutil.Uint64
	if err := c.call(ctx, &gas, "eth_estimateGas", msg.toArg()); err != nil {
		return 0, err
	}
	return uint64(gas), nil
}

// TransactionReceipt returns the receipt for hash, or nil while the
// transaction is still pending.
func (c *EVMClient) TransactionReceipt(ctx context.Context, hash common.Hash) (*Receipt, error) {
	var raw json.RawMessage
	if err := c.call(ctx, &raw, "eth_getTransactionReceipt", hash); err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var r Receipt
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("parsing receipt: %w", err)
	}
	return &r, nil
}

// NetworkID returns the node's network id (net_version).
func (c *EVMClient) NetworkID(ctx context.Context) (string, error) {
	var id string
	if err := c.call(ctx, &id, "net_version"); err != nil {
		return "", err
	}
	return id, nil
}

// ChainID returns the EIP-155 chain id.
func (c *EVMClient) ChainID(ctx context.Context) (*big.Int, error) {
	var id hexutil.Big
	if err := c.call(ctx, &id, "eth_chainId"); err != nil {
		return nil, err
	}
	return id.ToInt(), nil
}

// BlockNumber returns the latest block number.
func (c *EVMClient) BlockNumber(ctx context.Context) (uint64, error) {
	var n hexutil.Uint64
	if err := c.call(ctx, &n, "eth_blockNumber"); err != nil {
		return 0, err
	}
	return uint64(n), nil
}

// CodeAt returns the runtime code at addr.
func (c *EVMClient) CodeAt(ctx context.Context, addr common.Address) ([]byte, error) {
	var code hexutil.Bytes
	if err := c.call(ctx, &code, "eth_getCode", addr, "latest"); err != nil {
		return nil, err
	}
	return code, nil
}

// BalanceAt returns the wei balance of addr.
func (c *EVMClient) BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error) {
	var bal hexutil.Big
	if err := c.call(ctx, &bal, "eth_getBalance", addr, "latest"); err != nil {
		return nil, err
	}
	return bal.ToInt(), nil
}

// SuggestGasPrice returns the node's legacy gas price.
func (c *EVMClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	var price hexutil.Big
	if err := c.call(ctx, &price, "eth_gasPrice"); err != nil {
		return nil, err
	}
	return price.ToInt(), nil
}

// FilterLogs returns the logs matching f.
func (c *EVMClient) FilterLogs(ctx context.Context, f LogFilter) ([]Log, error) {
	var logs []Log
	if err := c.call(ctx, &logs, "eth_getLogs", f.toArg()); err != nil {
		return nil, err
	}
	return logs, nil
}

// Poller returns a receipt poller configured with the client's confirmation
// settings.
func (c *EVMClient) Poller(extra ...confirm.Option) *confirm.Poller[Receipt] {
	opts := append(append([]confirm.Option{}, c.confirmOpts...), extra...)
	return confirm.New[Receipt](c.TransactionReceipt, opts...)
}

// Ping reports round-trip latency and the latest block.
func (c *EVMClient) Ping(ctx context.Context) (latency time.Duration, blockNum uint64, err error) {
	start := time.Now()
	blockNum, err = c.BlockNumber(ctx)
	return time.Since(start), blockNum, err
}

func (c *EVMClient) call(ctx context.Context, result interface{}, method string, params ...interface{}) error {
	c.logger.Debug("rpc", "method", method)
	if err := c.rpc.CallContext(ctx, result, method, params...); err != nil {
		var rpcErr rpc.Error
		if errors.As(err, &rpcErr) {
			return fmt.Errorf("%s: RPC error %d: %w", method, rpcErr.ErrorCode(), err)
		}
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

// WeiToETH formats a wei amount with 18 decimals.
func WeiToETH(wei *big.Int) string {
	return formatUnits(wei, 18)
}

// WeiToGwei converts wei to gwei for display.
func WeiToGwei(wei *big.Int) float64 {
	if wei == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e9)).Float64()
	return f
}

func formatUnits(raw *big.Int, decimals int) string {
	if raw == nil {
		raw = new(big.Int)
	}
	if decimals <= 0 {
		return raw.String()
	}
	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(new(big.Int).Abs(raw), divisor, new(big.Int))
	digits := frac.String()
	digits = strings.Repeat("0", decimals-len(digits)) + digits
	sign := ""
	if raw.Sign() < 0 {
		sign = "-"
	}
	return sign + whole.String() + "." + digits
}
