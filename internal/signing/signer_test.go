package signing

import (
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aquaquote/internal/chainscfg"
)

const testPrivateKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func testRegistry(t *testing.T) *chainscfg.Registry {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SIGNING_KEY_8453", testPrivateKey)
	t.Setenv("PRICING_URL", "https://pricing.example")
	t.Setenv("STRATEGY_URL", "https://strategy.example")

	path := filepath.Join(dir, "chains.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"8453": {
			"name": "base",
			"rpcUrl": "https://rpc.example",
			"aqua": "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E",
			"executor": "0xB31f66AA3C1e785363F0875A1B74E27b85FD66c7",
			"signingKeyEnv": "SIGNING_KEY_8453",
			"executorFeeBps": 25
		}
	}`), 0o600))

	reg, err := chainscfg.Load(path)
	require.NoError(t, err)
	return reg
}

func TestSignProducesRecoverableSignature(t *testing.T) {
	reg := testRegistry(t)
	signer := New(reg)

	chain, err := reg.Get(8453)
	require.NoError(t, err)

	payload := Payload{
		ChainID:      8453,
		Executor:     chain.ExecutorAddress,
		Maker:        chain.MakerAddress,
		TokenIn:      common.HexToAddress("0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E"),
		TokenOut:     common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
		AmountIn:     big.NewInt(1000000),
		AmountOut:    big.NewInt(999000),
		StrategyHash: common.HexToHash("0xabc"),
		Nonce:        big.NewInt(0),
		Expiry:       big.NewInt(1736000000),
	}

	result, err := signer.Sign(payload)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Signature, "0x"))

	sigBytes := common.FromHex(result.Signature)
	require.Len(t, sigBytes, 65)

	domainSeparator, err := result.TypedData.HashStruct("EIP712Domain", result.TypedData.Domain.Map())
	require.NoError(t, err)
	messageHash, err := result.TypedData.HashStruct("Quote", result.TypedData.Message)
	require.NoError(t, err)
	digest := crypto.Keccak256([]byte{0x19, 0x01}, domainSeparator, messageHash)

	recoverable := make([]byte, 65)
	copy(recoverable, sigBytes)
	recoverable[64] -= 27
	pubKey, err := crypto.SigToPub(digest, recoverable)
	require.NoError(t, err)
	assert.Equal(t, chain.MakerAddress, crypto.PubkeyToAddress(*pubKey))
}

func TestSignUnknownChainFails(t *testing.T) {
	reg := testRegistry(t)
	signer := New(reg)

	_, err := signer.Sign(Payload{ChainID: 999, AmountIn: big.NewInt(0), AmountOut: big.NewInt(0), Nonce: big.NewInt(0), Expiry: big.NewInt(0)})
	assert.Error(t, err)
}
