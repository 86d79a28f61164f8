package artifact

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Default
// ---------------------------------------------------------------------------

func TestDefaultArtifact(t *testing.T) {
	a := Default()
	assert.Equal(t, "RightsContractFactory", a.ContractName)
	assert.Equal(t, "3.1.2", a.GeneratedWith)
	assert.Equal(t, []string{"default"}, a.NetworkIDs())

	rec := a.Networks[DefaultNetwork]
	assert.Equal(t, "0x565e8ebcb79db5359afb4d55dcbe04b422474e0a", rec.Address)
	assert.Equal(t, int64(1471550263101), rec.UpdatedAt)
	assert.Equal(t, time.UnixMilli(1471550263101), rec.Updated())
	assert.NotNil(t, rec.Links)
	assert.Empty(t, rec.Links)
	assert.True(t, len(rec.UnlinkedBinary) > 2)
	assert.Equal(t, "0x6060", rec.UnlinkedBinary[:6])
}

func TestDefaultReturnsFreshCopy(t *testing.T) {
	a := Default()
	a.Networks["default"] = Record{}
	assert.False(t, Default().Networks["default"].IsEmpty())
}

// ---------------------------------------------------------------------------
// Parse: layout detection
// ---------------------------------------------------------------------------

const abiJSON = `[{"constant":true,"inputs":[],"name":"creator","outputs":[{"name":"","type":"address"}],"type":"function"}]`

func TestParseRawABI(t *testing.T) {
	a, err := Parse([]byte(abiJSON), "Creator")
	require.NoError(t, err)
	assert.Equal(t, "Creator", a.ContractName)
	rec := a.Networks[DefaultNetwork]
	require.Len(t, rec.ABI, 1)
	assert.True(t, rec.ABI[0].IsReadFunction())
	assert.Empty(t, rec.UnlinkedBinary)
}

func TestParseSingleRecord(t *testing.T) {
	data := `{"abi":` + abiJSON + `,"unlinked_binary":"0x6060","address":"0x01","links":{"MathLib":"0x02"}}`
	a, err := Parse([]byte(data), "X")
	require.NoError(t, err)
	rec := a.Networks[DefaultNetwork]
	assert.Equal(t, "0x6060", rec.UnlinkedBinary)
	assert.Equal(t, "0x01", rec.Address)
	assert.Equal(t, map[string]string{"MathLib": "0x02"}, rec.Links)
}

func TestParseHardhatArtifact(t *testing.T) {
	data := `{"contractName":"Token","abi":` + abiJSON + `,"bytecode":"0x6080"}`
	a, err := Parse([]byte(data), "fallback")
	require.NoError(t, err)
	assert.Equal(t, "Token", a.ContractName)
	assert.Equal(t, "0x6080", a.Networks[DefaultNetwork].UnlinkedBinary)
}

func TestParseFoundryArtifact(t *testing.T) {
	data := `{"abi":` + abiJSON + `,"bytecode":{"object":"0x6080","linkReferences":{}}}`
	a, err := Parse([]byte(data), "Token")
	require.NoError(t, err)
	assert.Equal(t, "0x6080", a.Networks[DefaultNetwork].UnlinkedBinary)
}

func TestParseSharedABIWithNetworks(t *testing.T) {
	data := `{"contractName":"Token","abi":` + abiJSON + `,"bytecode":"0x6080",
		"networks":{"3":{"address":"0x03","transactionHash":"0xaa"},"42":{"address":"0x2a","links":{"L":"0x09"}}}}`
	a, err := Parse([]byte(data), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "42", "default"}, a.NetworkIDs())
	assert.Equal(t, "0x03", a.Networks["3"].Address)
	assert.Equal(t, "0xaa", a.Networks["3"].TxHash)
	assert.Equal(t, "0x6080", a.Networks["42"].UnlinkedBinary)
	assert.Equal(t, map[string]string{"L": "0x09"}, a.Networks["42"].Links)
	assert.Empty(t, a.Networks["3"].Links)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", "   "},
		{"not json", "{abi"},
		{"object without abi", `{"foo":1}`},
		{"bad bytecode", `{"abi":` + abiJSON + `,"bytecode":42}`},
		{"nameless function", `[{"type":"function","inputs":[]}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), "X")
			assert.Error(t, err)
		})
	}
}

// ---------------------------------------------------------------------------
// LoadFile
// ---------------------------------------------------------------------------

func TestLoadFileJSONUsesBaseName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "MathLib.sol.json")
	require.NoError(t, os.WriteFile(path, []byte(abiJSON), 0o600))

	a, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "MathLib", a.ContractName)
}

func TestLoadFileYAML(t *testing.T) {
	doc := `contract_name: Registry
networks:
  "3":
    address: "0x0000000000000000000000000000000000000003"
    unlinked_binary: "0x6060"
    abi:
      - type: function
        name: owner
        constant: true
        inputs: []
        outputs:
          - name: ""
            type: address
`
	path := filepath.Join(t.TempDir(), "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	a, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Registry", a.ContractName)
	rec := a.Networks["3"]
	require.Len(t, rec.ABI, 1)
	assert.True(t, rec.ABI[0].IsReadFunction())
	assert.Equal(t, "0x6060", rec.UnlinkedBinary)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// ---------------------------------------------------------------------------
// Records
// ---------------------------------------------------------------------------

func TestRecordClone(t *testing.T) {
	r := Record{ABI: ABI{{Type: "function", Name: "f"}}, Links: map[string]string{"L": "0x1"}}
	c := r.Clone()
	c.Links["L"] = "0x2"
	c.ABI[0].Name = "g"
	assert.Equal(t, "0x1", r.Links["L"])
	assert.Equal(t, "f", r.ABI[0].Name)
}

func TestRecordDeployment(t *testing.T) {
	a := Default()
	base := a.Networks[DefaultNetwork]
	addr := common.HexToAddress("0x00000000000000000000000000000000000000cc")
	tx := common.HexToHash("0x01")
	at := time.UnixMilli(1700000000000)

	rec := a.RecordDeployment("3", base, addr, tx, at)
	assert.Equal(t, addr.Hex(), rec.Address)
	assert.Equal(t, int64(1700000000000), rec.UpdatedAt)
	assert.Equal(t, rec, a.Networks["3"])
	assert.Equal(t, base.UnlinkedBinary, rec.UnlinkedBinary)
	assert.NotEqual(t, addr.Hex(), a.Networks[DefaultNetwork].Address, "base record untouched")
}
