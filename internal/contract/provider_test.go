package contract

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bcamacho/RightsContract/internal/artifact"
	"github.com/bcamacho/RightsContract/internal/chain"
	"github.com/bcamacho/RightsContract/internal/confirm"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

const (
	factoryAddr = "0x565e8ebcb79db5359afb4d55dcbe04b422474e0a"
	senderAddr  = "0x1111111111111111111111111111111111111111"
	otherAddr   = "0x2222222222222222222222222222222222222222"
	txHashHex   = "0xabababababababababababababababababababababababababababababababab"
)

// fakeProvider records every call and answers from canned values.
type fakeProvider struct {
	mu sync.Mutex

	networkID  string
	networkErr error

	callResult []byte
	callErr    error
	sendHash   common.Hash
	sendErr    error
	gas        uint64
	gasErr     error

	// receipts are returned in order; the last one repeats.
	receipts   []*chain.Receipt
	receiptErr error

	deployUpdates []chain.DeployUpdate
	deployErr     error
	deployHold    bool
	// deployPoller is built from the options the last Deploy received.
	deployPoller *confirm.Poller[chain.Receipt]

	logs    []chain.Log
	logsErr error
	// heads are returned in order; the last one repeats.
	heads []uint64

	calls   []string
	msgs    []chain.CallMsg
	filters []chain.LogFilter
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		networkID: "1",
		sendHash:  common.HexToHash(txHashHex),
		gas:       21000,
	}
}

func (p *fakeProvider) record(method string, msg *chain.CallMsg) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, method)
	if msg != nil {
		p.msgs = append(p.msgs, *msg)
	}
}

func (p *fakeProvider) Call(_ context.Context, msg chain.CallMsg) ([]byte, error) {
	p.record("Call", &msg)
	return p.callResult, p.callErr
}

func (p *fakeProvider) SendTransaction(_ context.Context, msg chain.CallMsg) (common.Hash, error) {
	p.record("SendTransaction", &msg)
	if p.sendErr != nil {
		return common.Hash{}, p.sendErr
	}
	return p.sendHash, nil
}

func (p *fakeProvider) EstimateGas(_ context.Context, msg chain.CallMsg) (uint64, error) {
	p.record("EstimateGas", &msg)
	return p.gas, p.gasErr
}

func (p *fakeProvider) TransactionReceipt(_ context.Context, _ common.Hash) (*chain.Receipt, error) {
	p.record("TransactionReceipt", nil)
	if p.receiptErr != nil {
		return nil, p.receiptErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.receipts) == 0 {
		return nil, nil
	}
	r := p.receipts[0]
	if len(p.receipts) > 1 {
		p.receipts = p.receipts[1:]
	}
	return r, nil
}

func (p *fakeProvider) NetworkID(_ context.Context) (string, error) {
	p.record("NetworkID", nil)
	return p.networkID, p.networkErr
}

func (p *fakeProvider) Deploy(ctx context.Context, msg chain.CallMsg, opts ...confirm.Option) (<-chan chain.DeployUpdate, error) {
	p.record("Deploy", &msg)
	p.mu.Lock()
	p.deployPoller = confirm.New[chain.Receipt](nil, opts...)
	p.mu.Unlock()
	if p.deployErr != nil {
		return nil, p.deployErr
	}
	ch := make(chan chain.DeployUpdate, len(p.deployUpdates))
	for _, u := range p.deployUpdates {
		ch <- u
	}
	if !p.deployHold {
		close(ch)
	}
	return ch, nil
}

func (p *fakeProvider) FilterLogs(_ context.Context, f chain.LogFilter) ([]chain.Log, error) {
	p.record("FilterLogs", nil)
	p.mu.Lock()
	p.filters = append(p.filters, f)
	p.mu.Unlock()
	return p.logs, p.logsErr
}

func (p *fakeProvider) BlockNumber(_ context.Context) (uint64, error) {
	p.record("BlockNumber", nil)
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.heads) == 0 {
		return 0, nil
	}
	h := p.heads[0]
	if len(p.heads) > 1 {
		p.heads = p.heads[1:]
	}
	return h, nil
}

func (p *fakeProvider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *fakeProvider) LastMsg(t *testing.T) chain.CallMsg {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.msgs, "no message recorded")
	return p.msgs[len(p.msgs)-1]
}

func (p *fakeProvider) count(method string) int {
	n := 0
	for _, c := range p.Calls() {
		if c == method {
			n++
		}
	}
	return n
}

// newTestFactory returns the embedded factory wired to p with fast polling.
func newTestFactory(t *testing.T, p Provider, opts ...Option) *Factory {
	t.Helper()
	base := []Option{
		WithPollInterval(time.Millisecond),
		WithSyncTimeout(time.Second),
	}
	if p != nil {
		base = append(base, WithProvider(p))
	}
	return Default(append(base, opts...)...)
}

// deployedInstance returns the embedded contract bound at its recorded
// address.
func deployedInstance(t *testing.T, p Provider, opts ...Option) *Instance {
	t.Helper()
	inst, err := newTestFactory(t, p, opts...).Deployed()
	require.NoError(t, err)
	return inst
}

// parseArtifact builds a single-network artifact from an ABI and binary.
func parseArtifact(t *testing.T, name, abiJSON, binary string) *artifact.Artifact {
	t.Helper()
	data := `{"contract_name":"` + name + `","networks":{"default":{"abi":` + abiJSON + `,"unlinked_binary":"` + binary + `"}}}`
	a, err := artifact.Parse([]byte(data), name)
	require.NoError(t, err)
	return a
}

func word(b []byte) []byte {
	return common.LeftPadBytes(b, 32)
}
