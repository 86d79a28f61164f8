package cmd

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/bcamacho/RightsContract/internal/config"
	"github.com/bcamacho/RightsContract/internal/logging"
	"github.com/bcamacho/RightsContract/internal/secrets"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

const (
	factoryAddr = "0x565e8ebcb79db5359afb4d55dcbe04b422474e0a"
	senderAddr  = "0x2222222222222222222222222222222222222222"
	createdAddr = "0x3333333333333333333333333333333333333333"
	txHash      = "0xabababababababababababababababababababababababababababababababab"
	blockHash   = "0xcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcd"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// ---------------------------------------------------------------------------
// JSON-RPC node
// ---------------------------------------------------------------------------

type rpcCall struct {
	Method string
	Params []json.RawMessage
	Header http.Header
}

// node is a JSON-RPC test server. A response value may be a
// func(n int) interface{} returning the result for the n-th call (from 1) to
// that method.
type node struct {
	*httptest.Server
	mu    sync.Mutex
	calls []rpcCall
}

func (n *node) Calls(method string) []rpcCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []rpcCall
	for _, c := range n.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func newNode(t *testing.T, responses map[string]interface{}) *node {
	t.Helper()
	n := &node{}
	counts := map[string]int{}
	n.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
			ID     json.RawMessage   `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		n.mu.Lock()
		n.calls = append(n.calls, rpcCall{Method: req.Method, Params: req.Params, Header: r.Header.Clone()})
		counts[req.Method]++
		count := counts[req.Method]
		n.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		result, ok := responses[req.Method]
		if !ok {
			json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
				"jsonrpc": "2.0",
				"id":      req.ID,
				"error":   map[string]interface{}{"code": -32601, "message": "method not found"},
			})
			return
		}
		if fn, isFn := result.(func(int) interface{}); isFn {
			result = fn(count)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		})
	}))
	t.Cleanup(n.Close)
	return n
}

// param decodes the first parameter of a recorded call as a JSON object.
func param(t *testing.T, c rpcCall) map[string]string {
	t.Helper()
	require.NotEmpty(t, c.Params)
	var out map[string]string
	require.NoError(t, json.Unmarshal(c.Params[0], &out))
	return out
}

// ---------------------------------------------------------------------------
// CLI harness
// ---------------------------------------------------------------------------

type harness struct {
	t     *testing.T
	dir   string
	ring  keyring.Keyring
	stdin string
}

// newHarness isolates the process environment and returns a harness running
// commands against a fresh working directory.
func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, k := range config.Keys() {
		t.Setenv(config.EnvName(k.Key), "")
	}
	t.Setenv(secrets.EnvToken, "")
	t.Setenv(logging.EnvLevel, "")
	return &harness{t: t, dir: t.TempDir(), ring: keyring.NewArrayKeyring(nil)}
}

func (h *harness) env() env {
	return env{
		openTokens: func(string) (*secrets.Store, error) { return secrets.NewStore(h.ring), nil },
		isTerminal: func(io.Writer) bool { return false },
		now:        func() time.Time { return fixedNow },
	}
}

// run executes the CLI and returns what it wrote to stdout and stderr.
func (h *harness) run(args ...string) (string, string, error) {
	h.t.Helper()
	root := newRootCmd(h.env())
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(h.stdin))
	root.SetArgs(append([]string{"--dir=" + h.dir}, args...))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// runJSON runs the CLI with --json and decodes stdout into v.
func (h *harness) runJSON(v any, args ...string) {
	h.t.Helper()
	out, stderr, err := h.run(append(args, "--json")...)
	require.NoError(h.t, err, "stderr: %s", stderr)
	require.NoError(h.t, json.Unmarshal([]byte(out), v), "stdout: %s", out)
}

// ---------------------------------------------------------------------------
// ABI helpers
// ---------------------------------------------------------------------------

func selector(sig string) string {
	return hex.EncodeToString(crypto.Keccak256([]byte(sig))[:4])
}

func topic(sig string) string {
	return crypto.Keccak256Hash([]byte(sig)).Hex()
}

// word right-pads text to a 32-byte hex word, the way bytes32 arguments are
// encoded.
func word(text string) string {
	var b [32]byte
	copy(b[:], text)
	return hex.EncodeToString(b[:])
}

// addrWord left-pads an address to a 32-byte hex word.
func addrWord(addr string) string {
	return strings.Repeat("0", 24) + strings.TrimPrefix(strings.ToLower(addr), "0x")
}

func createdLog(name, addr string) map[string]interface{} {
	return map[string]interface{}{
		"address":         factoryAddr,
		"topics":          []string{topic("RightsContractCreated(bytes32,address)"), "0x" + word(name), "0x" + addrWord(addr)},
		"data":            "0x",
		"blockNumber":     "0x5",
		"transactionHash": txHash,
		"logIndex":        "0x0",
		"removed":         false,
	}
}

func receipt(logs ...map[string]interface{}) map[string]interface{} {
	if logs == nil {
		logs = []map[string]interface{}{}
	}
	return map[string]interface{}{
		"transactionHash":   txHash,
		"blockHash":         blockHash,
		"blockNumber":       "0x5",
		"gasUsed":           "0x5208",
		"cumulativeGasUsed": "0x5208",
		"status":            "0x1",
		"contractAddress":   nil,
		"logs":              logs,
	}
}
