package contract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bcamacho/RightsContract/internal/artifact"
	"github.com/bcamacho/RightsContract/internal/linker"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// multiNetwork returns an artifact with one record per id, each deployed at
// an address derived from its position.
func multiNetwork(t *testing.T, ids ...string) *artifact.Artifact {
	t.Helper()
	a := &artifact.Artifact{ContractName: "Multi", Networks: map[string]artifact.Record{}}
	for i, id := range ids {
		a.Networks[id] = artifact.Record{
			Address: fmt.Sprintf("0x%040x", i+1),
			Links:   map[string]string{},
		}
	}
	return a
}

// ---------------------------------------------------------------------------
// SetNetwork
// ---------------------------------------------------------------------------

func TestSetNetworkSelectsRecord(t *testing.T) {
	a := multiNetwork(t, "3", "42")
	f := NewFactory("", a)
	f.SetNetwork("42")
	assert.Equal(t, "42", f.NetworkID())
	assert.Equal(t, a.Networks["42"].Address, f.Address())
}

func TestSetNetworkUnknownIsEmpty(t *testing.T) {
	f := Default()
	f.SetNetwork("999")
	assert.Equal(t, "999", f.NetworkID())
	assert.Empty(t, f.Address())
	assert.Empty(t, f.ABI())
	assert.Empty(t, f.UnlinkedBinary())
	assert.NotNil(t, f.Links())
	assert.Empty(t, f.Links())
	assert.True(t, f.UpdatedAt().IsZero())
}

func TestSetNetworkCopiesLinks(t *testing.T) {
	a := multiNetwork(t, "3")
	rec := a.Networks["3"]
	rec.Links = map[string]string{"MathLib": otherAddr}
	a.Networks["3"] = rec

	f := NewFactory("", a)
	f.SetNetwork("3")
	assert.Equal(t, map[string]common.Address{"MathLib": common.HexToAddress(otherAddr)}, f.Links())

	f.Link("MathLib", common.HexToAddress(senderAddr))
	assert.Equal(t, otherAddr, a.Networks["3"].Links["MathLib"], "artifact must not change")
}

// ---------------------------------------------------------------------------
// CheckNetwork
// ---------------------------------------------------------------------------

func TestCheckNetworkPinnedSkipsProvider(t *testing.T) {
	p := newFakeProvider()
	f := newTestFactory(t, p)
	f.SetNetwork("default")
	require.NoError(t, f.CheckNetwork(context.Background()))
	assert.Empty(t, p.Calls())
}

func TestCheckNetworkRequiresProvider(t *testing.T) {
	assert.ErrorIs(t, Default().CheckNetwork(context.Background()), ErrNoProvider)
}

func TestCheckNetworkMainnetAliases(t *testing.T) {
	tests := []struct {
		name     string
		networks []string
		want     string
	}{
		{"exact id wins", []string{"1", "live", "default"}, "1"},
		{"live before default", []string{"live", "default"}, "live"},
		{"default fallback", []string{"default"}, "default"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFakeProvider()
			p.networkID = "1"
			f := NewFactory("", multiNetwork(t, tt.networks...), WithProvider(p))

			require.NoError(t, f.CheckNetwork(context.Background()))
			assert.Equal(t, tt.want, f.NetworkID())
			assert.Equal(t, f.Artifact().Networks[tt.want].Address, f.Address())
		})
	}
}

func TestCheckNetworkAliasesOnlyMainnet(t *testing.T) {
	p := newFakeProvider()
	p.networkID = "3"
	f := newTestFactory(t, p)

	err := f.CheckNetwork(context.Background())
	assert.ErrorIs(t, err, ErrUnknownNetwork)
	assert.EqualError(t, err, "RightsContractFactory error: can't find artifacts for network id '3'")
	assert.Equal(t, "", f.NetworkID(), "failed detection leaves the network unpinned")
}

func TestCheckNetworkDetectsOnce(t *testing.T) {
	p := newFakeProvider()
	p.networkID = "42"
	f := NewFactory("", multiNetwork(t, "42"), WithProvider(p))

	require.NoError(t, f.CheckNetwork(context.Background()))
	require.NoError(t, f.CheckNetwork(context.Background()))
	assert.Equal(t, 1, p.count("NetworkID"))
}

func TestCheckNetworkTransportError(t *testing.T) {
	boom := errors.New("dial tcp: connection refused")
	p := newFakeProvider()
	p.networkErr = boom
	err := newTestFactory(t, p).CheckNetwork(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsConfigError(err))
}

// ---------------------------------------------------------------------------
// Linking
// ---------------------------------------------------------------------------

func linkedArtifact(t *testing.T) *artifact.Artifact {
	binary := "0x6060" + linker.Placeholder("MathLib") + "5b" + linker.Placeholder("MathLib") +
		linker.HashedPlaceholder("contracts/Str.sol:StringLib")
	return parseArtifact(t, "Needy", `[]`, binary)
}

func TestLinkResolvesEveryOccurrence(t *testing.T) {
	f := NewFactory("", linkedArtifact(t))
	assert.Equal(t, []string{"$" + linker.HashedPlaceholder("contracts/Str.sol:StringLib")[3:37] + "$", "MathLib"}, f.Unresolved())

	math := common.HexToAddress(otherAddr)
	f.Link("MathLib", math)
	bin := f.Binary()
	assert.Equal(t, 2, strings.Count(bin, otherAddr[2:]))
	assert.NotContains(t, bin, "MathLib")
	assert.Len(t, f.Unresolved(), 1)

	f.LinkAll(map[string]common.Address{"contracts/Str.sol:StringLib": common.HexToAddress(senderAddr)})
	assert.Empty(t, f.Unresolved())
	assert.Equal(t, "0x6060"+otherAddr[2:]+"5b"+otherAddr[2:]+senderAddr[2:], f.Binary())
	assert.Equal(t, linkedArtifact(t).Networks["default"].UnlinkedBinary, f.UnlinkedBinary())
}

func TestLinkedDeploymentProceeds(t *testing.T) {
	p := newFakeProvider()
	f := NewFactory("", linkedArtifact(t), WithProvider(p))
	f.LinkAll(map[string]common.Address{
		"MathLib":                     common.HexToAddress(otherAddr),
		"contracts/Str.sol:StringLib": common.HexToAddress(senderAddr),
	})
	_, err := f.New(context.Background())
	require.Error(t, err, "stream has no address")
	assert.False(t, IsConfigError(err))
	assert.Equal(t, []string{"Deploy"}, p.Calls())
}

func TestLinksReturnsCopy(t *testing.T) {
	f := Default()
	f.Link("MathLib", common.HexToAddress(otherAddr))
	links := f.Links()
	delete(links, "MathLib")
	assert.Contains(t, f.Links(), "MathLib")
}

func TestLinkLibrary(t *testing.T) {
	const libABI = `[{"type":"event","name":"Computed","anonymous":false,"inputs":[{"name":"value","type":"uint256","indexed":false}]}]`
	lib := NewFactory("MathLib", parseArtifact(t, "MathLib", libABI, "0x00"))

	f := Default()
	err := f.LinkLibrary(lib)
	assert.ErrorIs(t, err, ErrNotDeployed)

	lib.Artifact().Networks["default"] = artifact.Record{
		ABI:     lib.ABI(),
		Address: otherAddr,
		Links:   map[string]string{},
	}
	lib.SetNetwork("default")
	require.NoError(t, f.LinkLibrary(lib))
	assert.Equal(t, common.HexToAddress(otherAddr), f.Links()["MathLib"])

	inst, err := f.Deployed()
	require.NoError(t, err)
	assert.Equal(t, []string{"Computed", "RightsContractCreated"}, inst.Events())
}

// ---------------------------------------------------------------------------
// RecordDeployment
// ---------------------------------------------------------------------------

func TestRecordDeployment(t *testing.T) {
	f := Default()
	f.Link("MathLib", common.HexToAddress(senderAddr))
	inst, err := f.At(otherAddr)
	require.NoError(t, err)
	inst.txHash = common.HexToHash(txHashHex)

	at := time.UnixMilli(1700000000000)
	rec := f.RecordDeployment(inst, at)
	assert.Equal(t, common.HexToAddress(otherAddr).Hex(), rec.Address)
	assert.Equal(t, txHashHex, rec.TxHash)
	assert.Equal(t, int64(1700000000000), rec.UpdatedAt)
	assert.Equal(t, common.HexToAddress(senderAddr).Hex(), rec.Links["MathLib"])

	assert.Equal(t, rec.Address, f.Artifact().Networks["default"].Address)
	assert.Equal(t, rec.Address, f.Address())
	assert.Equal(t, at, f.UpdatedAt())
}

func TestRecordDeploymentPinnedNetwork(t *testing.T) {
	f := Default()
	f.SetNetwork("42")
	inst, err := f.At(otherAddr)
	require.NoError(t, err)

	f.RecordDeployment(inst, time.UnixMilli(1))
	assert.Equal(t, []string{"42", "default"}, f.Networks())
	assert.Equal(t, factoryAddr, f.Artifact().Networks["default"].Address)
}

func TestRecordLinksKeepsAddress(t *testing.T) {
	f := Default()
	f.Link("MathLib", common.HexToAddress(senderAddr))

	rec := f.RecordLinks()
	assert.Equal(t, factoryAddr, rec.Address)
	assert.Equal(t, common.HexToAddress(senderAddr).Hex(), f.Artifact().Networks["default"].Links["MathLib"])

	// A fresh view of the same network picks the stored link up again.
	again := f.WithNetwork("default")
	assert.Equal(t, common.HexToAddress(senderAddr), again.Links()["MathLib"])
}
