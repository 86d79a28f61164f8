package cmd

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bcamacho/RightsContract/internal/artifact"
	"github.com/bcamacho/RightsContract/internal/config"
	"github.com/bcamacho/RightsContract/internal/contract"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checksum(addr string) string { return common.HexToAddress(addr).Hex() }

// ---------------------------------------------------------------------------
// Offline commands
// ---------------------------------------------------------------------------

func TestABIListsEntries(t *testing.T) {
	h := newHarness(t)
	var rows []abiRow
	h.runJSON(&rows, "abi")

	bySig := map[string]abiRow{}
	for _, r := range rows {
		bySig[r.Signature] = r
	}
	initiate := bySig["initiateContract(bytes32)"]
	assert.Equal(t, "function", initiate.Kind)
	assert.Equal(t, "0x"+selector("initiateContract(bytes32)"), initiate.Selector)
	assert.Equal(t, "nonpayable", initiate.Mutability)

	get := bySig["getContractAddr(bytes32)"]
	assert.Equal(t, "view", get.Mutability)
	assert.Equal(t, "address", get.Outputs)

	ev := bySig["RightsContractCreated(bytes32,address)"]
	assert.Equal(t, "event", ev.Kind)
	assert.Equal(t, topic("RightsContractCreated(bytes32,address)"), ev.Topic)

	assert.Equal(t, "constructor", bySig["constructor()"].Kind)
}

func TestRequestBuildsTransaction(t *testing.T) {
	h := newHarness(t)
	var req requestJSON
	h.runJSON(&req, "request", "getContractAddr", "my-song", "--from", senderAddr, "--value", "1gwei")

	assert.Equal(t, checksum(factoryAddr), req.To)
	assert.Equal(t, checksum(senderAddr), req.From)
	assert.Equal(t, "0x3b9aca00", req.Value)
	assert.Equal(t, "0x"+selector("getContractAddr(bytes32)")+word("my-song"), req.Data)
}

func TestRequestDataOnlyUsesConfigDefaults(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("config", "set", "from", senderAddr)
	require.NoError(t, err)

	out, _, err := h.run("request", "removeContract", "old", "--data-only")
	require.NoError(t, err)
	assert.Equal(t, "0x"+selector("removeContract(bytes32)")+word("old"), strings.TrimSpace(out))

	var req requestJSON
	h.runJSON(&req, "request", "remove")
	assert.Equal(t, checksum(senderAddr), req.From)
}

func TestRequestRejectsBadArguments(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("request", "getContractAddr")
	assert.ErrorIs(t, err, contract.ErrArgumentCount)

	_, _, err = h.run("request", "nope")
	assert.ErrorIs(t, err, contract.ErrUnknownMethod)
}

func TestNetworksListsRecords(t *testing.T) {
	h := newHarness(t)
	var rows []networkRow
	h.runJSON(&rows, "networks")

	require.Len(t, rows, 1)
	assert.Equal(t, "default", rows[0].ID)
	assert.True(t, rows[0].Active)
	assert.Equal(t, factoryAddr, strings.ToLower(rows[0].Address))
}

func TestNetworksKnown(t *testing.T) {
	h := newHarness(t)
	out, _, err := h.run("networks", "--known")
	require.NoError(t, err)
	assert.Contains(t, out, "mainnet")
	assert.Contains(t, out, "ropsten")
}

func TestLinkSavesLinks(t *testing.T) {
	h := newHarness(t)
	lib := "0x1111111111111111111111111111111111111111"

	var res struct {
		Links    map[string]string `json:"links"`
		Artifact string            `json:"artifact"`
	}
	h.runJSON(&res, "link", "RightsLib", lib)
	assert.Equal(t, checksum(lib), res.Links["RightsLib"])
	assert.Equal(t, filepath.Join(h.dir, "build", "contracts", "RightsContractFactory.json"), res.Artifact)

	saved, err := artifact.LoadFile(res.Artifact)
	require.NoError(t, err)
	rec, ok := saved.Network(artifact.DefaultNetwork)
	require.True(t, ok)
	assert.Equal(t, checksum(lib), rec.Links["RightsLib"])
	assert.Equal(t, factoryAddr, strings.ToLower(rec.Address), "linking keeps the address")

	// The saved copy is picked up by later runs.
	var rows []networkRow
	h.runJSON(&rows, "networks")
	require.Len(t, rows, 1)
	assert.Equal(t, checksum(lib), rows[0].Links["RightsLib"])
}

func TestLinkRejectsBadAddress(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("link", "RightsLib", "0x12")
	assert.ErrorIs(t, err, contract.ErrInvalidAddress)
}

func TestInfoOffline(t *testing.T) {
	h := newHarness(t)
	var rep infoReport
	h.runJSON(&rep, "info")
	assert.Equal(t, "RightsContractFactory", rep.Contract)
	assert.Equal(t, "default", rep.Network)
	assert.Contains(t, rep.Methods, "creator()")
	assert.Contains(t, rep.Events, "RightsContractCreated(bytes32,address)")
	assert.Nil(t, rep.Node)
}

func TestInfoProbesNode(t *testing.T) {
	h := newHarness(t)
	n := newNode(t, map[string]interface{}{
		"net_version":     "1",
		"eth_blockNumber": "0x10",
		"eth_getCode":     "0x6060",
	})
	var rep infoReport
	h.runJSON(&rep, "info", "--rpc-url", n.URL)
	require.NotNil(t, rep.Node)
	assert.Empty(t, rep.Node.Error)
	assert.Equal(t, "1", rep.Node.NetworkID)
	assert.Equal(t, uint64(16), rep.Node.Block)
	require.NotNil(t, rep.Node.HasCode)
	assert.True(t, *rep.Node.HasCode)
}

func TestInfoReportsNodeErrors(t *testing.T) {
	h := newHarness(t)
	n := newNode(t, map[string]interface{}{})
	var rep infoReport
	h.runJSON(&rep, "info", "--rpc-url", n.URL)
	require.NotNil(t, rep.Node)
	assert.Contains(t, rep.Node.Error, "method not found")
}

// ---------------------------------------------------------------------------
// Node commands
// ---------------------------------------------------------------------------

func TestCallNeedsRPC(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("call", "creator")
	assert.ErrorIs(t, err, errNoRPC)
}

func TestCallDecodesOutputs(t *testing.T) {
	h := newHarness(t)
	n := newNode(t, map[string]interface{}{
		"net_version": "1",
		"eth_call":    "0x" + addrWord(createdAddr),
	})

	out, _, err := h.run("call", "getContractAddr", "my-song", "--rpc-url", n.URL)
	require.NoError(t, err)
	assert.Equal(t, checksum(createdAddr), strings.TrimSpace(out))

	calls := n.Calls("eth_call")
	require.Len(t, calls, 1)
	p := param(t, calls[0])
	assert.Equal(t, factoryAddr, strings.ToLower(p["to"]))
	assert.Equal(t, "0x"+selector("getContractAddr(bytes32)")+word("my-song"), p["data"])
}

func TestCallRequiresMethodWithoutTerminal(t *testing.T) {
	h := newHarness(t)
	n := newNode(t, map[string]interface{}{"net_version": "1"})
	_, _, err := h.run("call", "--rpc-url", n.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "method name required")
}

func TestCallUnknownNetwork(t *testing.T) {
	h := newHarness(t)
	n := newNode(t, map[string]interface{}{"net_version": "77"})
	_, _, err := h.run("call", "creator", "--rpc-url", n.URL)
	assert.ErrorIs(t, err, contract.ErrUnknownNetwork)
}

func TestCallAtAddress(t *testing.T) {
	h := newHarness(t)
	n := newNode(t, map[string]interface{}{"eth_call": "0x" + addrWord(senderAddr)})

	var res struct {
		Contract string   `json:"contract"`
		Result   []string `json:"result"`
	}
	h.runJSON(&res, "call", "creator", "--rpc-url", n.URL, "--network", "default", "--address", createdAddr)
	assert.Equal(t, checksum(createdAddr), res.Contract)
	assert.Equal(t, []string{checksum(senderAddr)}, res.Result)
	assert.Empty(t, n.Calls("net_version"), "a pinned network is not detected")
}

func TestSendWaitsForReceipt(t *testing.T) {
	h := newHarness(t)
	n := newNode(t, map[string]interface{}{
		"net_version":         "1",
		"eth_sendTransaction": txHash,
		"eth_getTransactionReceipt": func(call int) interface{} {
			if call == 1 {
				return nil
			}
			return receipt(createdLog("my-song", createdAddr))
		},
	})

	var res sendResult
	h.runJSON(&res, "send", "initiateContract", "my-song",
		"--rpc-url", n.URL, "--from", senderAddr, "--gas", "90000", "--poll-interval", "5ms")

	assert.Equal(t, txHash, res.TxHash)
	assert.True(t, res.Mined)
	assert.Equal(t, uint64(5), res.Block)
	assert.Equal(t, uint64(21000), res.GasUsed)
	assert.Equal(t, "success", res.Status)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "RightsContractCreated", res.Events[0].Event)
	assert.Equal(t, checksum(createdAddr), res.Events[0].Args["_addr"])

	sent := param(t, n.Calls("eth_sendTransaction")[0])
	assert.Equal(t, senderAddr, strings.ToLower(sent["from"]))
	assert.Equal(t, "0x15f90", sent["gas"])
	assert.Equal(t, "0x"+selector("initiateContract(bytes32)")+word("my-song"), sent["data"])
	assert.Len(t, n.Calls("eth_getTransactionReceipt"), 2)
}

func TestSendNoWait(t *testing.T) {
	h := newHarness(t)
	n := newNode(t, map[string]interface{}{
		"net_version":         "1",
		"eth_sendTransaction": txHash,
	})

	out, _, err := h.run("send", "remove", "--rpc-url", n.URL, "--no-wait")
	require.NoError(t, err)
	assert.Equal(t, txHash, strings.TrimSpace(out))
	assert.Empty(t, n.Calls("eth_getTransactionReceipt"))
}

func TestSendReportsRevert(t *testing.T) {
	h := newHarness(t)
	reverted := receipt()
	reverted["status"] = "0x0"
	n := newNode(t, map[string]interface{}{
		"net_version":               "1",
		"eth_sendTransaction":       txHash,
		"eth_getTransactionReceipt": reverted,
	})

	var res sendResult
	h.runJSON(&res, "send", "removeContract", "x", "--rpc-url", n.URL, "--poll-interval", "5ms")
	assert.Equal(t, "reverted", res.Status)
}

func TestSendTimesOut(t *testing.T) {
	h := newHarness(t)
	n := newNode(t, map[string]interface{}{
		"net_version":               "1",
		"eth_sendTransaction":       txHash,
		"eth_getTransactionReceipt": nil,
	})

	_, stderr, err := h.run("send", "remove", "--rpc-url", n.URL, "--poll-interval", "5ms", "--timeout", "20ms")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wasn't processed")
	assert.Contains(t, stderr, txHash)
}

func TestEstimate(t *testing.T) {
	h := newHarness(t)
	n := newNode(t, map[string]interface{}{
		"net_version":     "1",
		"eth_estimateGas": "0x5208",
	})
	out, _, err := h.run("estimate", "initiateContract", "x", "--rpc-url", n.URL)
	require.NoError(t, err)
	assert.Equal(t, "21000", strings.TrimSpace(out))
}

func TestEventsFilter(t *testing.T) {
	h := newHarness(t)
	n := newNode(t, map[string]interface{}{
		"net_version": "1",
		"eth_getLogs": []interface{}{createdLog("my-song", createdAddr)},
	})

	var events []eventSummary
	h.runJSON(&events, "events", "RightsContractCreated", "--match", "_name=my-song", "--from-block", "1", "--rpc-url", n.URL)
	require.Len(t, events, 1)
	assert.Equal(t, "RightsContractCreated", events[0].Event)
	assert.Equal(t, uint64(5), events[0].Block)
	assert.Equal(t, "0x"+word("my-song"), events[0].Args["_name"])

	var filter struct {
		FromBlock string `json:"fromBlock"`
		Topics    []any  `json:"topics"`
	}
	require.NoError(t, json.Unmarshal(n.Calls("eth_getLogs")[0].Params[0], &filter))
	assert.Equal(t, "0x1", filter.FromBlock)
	require.Len(t, filter.Topics, 2)
	assert.Equal(t, topic("RightsContractCreated(bytes32,address)"), filter.Topics[0])
	assert.Equal(t, "0x"+word("my-song"), filter.Topics[1])
}

func TestEventsMatchNeedsName(t *testing.T) {
	h := newHarness(t)
	n := newNode(t, map[string]interface{}{"net_version": "1"})
	_, _, err := h.run("events", "--match", "_name=x", "--rpc-url", n.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs an event name")
}

func TestReceipt(t *testing.T) {
	h := newHarness(t)
	n := newNode(t, map[string]interface{}{
		"net_version":               "1",
		"eth_getTransactionReceipt": receipt(createdLog("a", createdAddr)),
	})
	var res sendResult
	h.runJSON(&res, "receipt", txHash, "--rpc-url", n.URL)
	assert.True(t, res.Mined)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "RightsContractCreated", res.Events[0].Event)
}

func TestReceiptNotMined(t *testing.T) {
	h := newHarness(t)
	n := newNode(t, map[string]interface{}{
		"net_version":               "1",
		"eth_getTransactionReceipt": nil,
	})
	_, _, err := h.run("receipt", txHash, "--rpc-url", n.URL)
	assert.ErrorIs(t, err, errNotMined)

	_, _, err = h.run("receipt", "0x1234", "--rpc-url", n.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid transaction hash")
}

func TestDeploySeedsNewNetwork(t *testing.T) {
	h := newHarness(t)
	deployed := receipt()
	deployed["contractAddress"] = createdAddr
	n := newNode(t, map[string]interface{}{
		"net_version":               "1337",
		"eth_sendTransaction":       txHash,
		"eth_getTransactionReceipt": deployed,
		"eth_getCode":               "0x6060",
	})

	var res map[string]string
	h.runJSON(&res, "deploy", "--rpc-url", n.URL, "--from", senderAddr, "--poll-interval", "5ms")
	assert.Equal(t, checksum(createdAddr), res["address"])
	assert.Equal(t, txHash, res["transactionHash"])

	sent := param(t, n.Calls("eth_sendTransaction")[0])
	assert.Empty(t, sent["to"])
	assert.True(t, strings.HasPrefix(sent["data"], "0x6060"), "creation code is sent")

	saved, err := artifact.LoadFile(res["artifact"])
	require.NoError(t, err)
	rec, ok := saved.Network("1337")
	require.True(t, ok)
	assert.Equal(t, checksum(createdAddr), rec.Address)
	assert.Equal(t, fixedNow.UnixMilli(), rec.UpdatedAt)
	def, _ := saved.Network(artifact.DefaultNetwork)
	assert.Equal(t, factoryAddr, strings.ToLower(def.Address), "other records are untouched")
}

func TestDeployNoSave(t *testing.T) {
	h := newHarness(t)
	deployed := receipt()
	deployed["contractAddress"] = createdAddr
	n := newNode(t, map[string]interface{}{
		"eth_sendTransaction":       txHash,
		"eth_getTransactionReceipt": deployed,
		"eth_getCode":               "0x6060",
	})

	out, _, err := h.run("deploy", "--rpc-url", n.URL, "--network", "default", "--poll-interval", "5ms", "--no-save")
	require.NoError(t, err)
	assert.Equal(t, checksum(createdAddr), strings.TrimSpace(out))
	assert.NoFileExists(t, filepath.Join(h.dir, "build", "contracts", "RightsContractFactory.json"))
}

func TestDeployNeedsLinks(t *testing.T) {
	h := newHarness(t)
	art := artifact.Default()
	rec := art.Networks[artifact.DefaultNetwork]
	rec.UnlinkedBinary = "0x6060__MathLib_______________________________6060"
	art.Networks[artifact.DefaultNetwork] = rec
	path := filepath.Join(h.dir, "Linked.json")
	require.NoError(t, artifact.WriteFile(path, art))

	n := newNode(t, map[string]interface{}{})
	_, _, err := h.run("deploy", "--rpc-url", n.URL, "--network", "default", "--artifact", "Linked.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MathLib")
	assert.Empty(t, n.Calls("eth_sendTransaction"))
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

func TestConfigSetShowUnset(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("config", "set", "rpc_url", "http://127.0.0.1:8545")
	require.NoError(t, err)

	var settings map[string]any
	h.runJSON(&settings, "config", "show")
	assert.Equal(t, "http://127.0.0.1:8545", settings["rpc_url"])

	_, _, err = h.run("config", "unset", "rpc_url")
	require.NoError(t, err)
	settings = nil
	h.runJSON(&settings, "config", "show")
	assert.Empty(t, settings["rpc_url"])

	_, _, err = h.run("config", "set", "colour", "blue")
	assert.ErrorIs(t, err, config.ErrUnknownKey)
}

func TestConfigKeys(t *testing.T) {
	h := newHarness(t)
	out, _, err := h.run("config", "keys")
	require.NoError(t, err)
	assert.Contains(t, out, "RIGHTS_RPC_URL")
	assert.Contains(t, out, "auth_ref")
}

func TestAuthTokenIsSentAsBearer(t *testing.T) {
	h := newHarness(t)
	h.stdin = "s3cret-token\n"
	_, _, err := h.run("auth", "set", "node", "--use")
	require.NoError(t, err)

	var refs []string
	h.runJSON(&refs, "auth", "ls")
	assert.Equal(t, []string{"rights.node"}, refs)

	n := newNode(t, map[string]interface{}{
		"net_version": "1",
		"eth_call":    "0x" + addrWord(senderAddr),
	})
	_, _, err = h.run("call", "creator", "--rpc-url", n.URL)
	require.NoError(t, err)
	calls := n.Calls("eth_call")
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer s3cret-token", calls[0].Header.Get("Authorization"))

	_, _, err = h.run("auth", "rm", "node")
	require.NoError(t, err)
	refs = nil
	h.runJSON(&refs, "auth", "ls")
	assert.Empty(t, refs)
}

func TestAuthUseUnknown(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("auth", "use", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rights.missing")
}

func TestEnvTokenOverridesKeyring(t *testing.T) {
	h := newHarness(t)
	t.Setenv("RIGHTS_RPC_TOKEN", "from-env")
	n := newNode(t, map[string]interface{}{
		"net_version": "1",
		"eth_call":    "0x" + addrWord(senderAddr),
	})
	_, _, err := h.run("call", "creator", "--rpc-url", n.URL, "--auth-ref", "rights.absent")
	require.NoError(t, err)
	assert.Equal(t, "Bearer from-env", n.Calls("eth_call")[0].Header.Get("Authorization"))
}

func TestHelpSkipsSetup(t *testing.T) {
	h := newHarness(t)
	// An invalid setting would fail setup.
	t.Setenv(config.EnvName(config.KeyPollInterval), "-1s")
	out, _, err := h.run("help")
	require.NoError(t, err)
	assert.Contains(t, out, "deploy")

	_, _, err = h.run("abi")
	require.Error(t, err)
}

func TestExecuteContextCancelled(t *testing.T) {
	h := newHarness(t)
	n := newNode(t, map[string]interface{}{
		"net_version":               "1",
		"eth_sendTransaction":       txHash,
		"eth_getTransactionReceipt": nil,
	})
	root := newRootCmd(h.env())
	root.SetArgs([]string{"--dir=" + h.dir, "send", "remove", "--rpc-url", n.URL, "--poll-interval", "5ms"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := root.ExecuteContext(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
