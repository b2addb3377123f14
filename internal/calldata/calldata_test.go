package calldata

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAndDecodeFillRoundTrips(t *testing.T) {
	executor := common.HexToAddress("0xB31f66AA3C1e785363F0875A1B74E27b85FD66c7")
	q := FillQuote{
		Maker:        common.HexToAddress("0x1111111111111111111111111111111111111111"),
		TokenIn:      common.HexToAddress("0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E"),
		TokenOut:     common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
		AmountIn:     big.NewInt(1000000),
		AmountOut:    big.NewInt(999000),
		StrategyHash: common.HexToHash("0xabc123"),
		Nonce:        big.NewInt(7),
		Expiry:       big.NewInt(1736000000),
	}
	sig := []byte{1, 2, 3, 4, 5}
	minOut := big.NewInt(998000)

	tx, err := BuildFill(executor, q, sig, minOut)
	require.NoError(t, err)
	assert.Equal(t, executor, tx.To)
	assert.Equal(t, "0", tx.Value)

	decodedQ, decodedSig, decodedMinOut, err := DecodeFill(tx.Data)
	require.NoError(t, err)
	assert.Equal(t, q.Maker, decodedQ.Maker)
	assert.Equal(t, q.TokenIn, decodedQ.TokenIn)
	assert.Equal(t, q.TokenOut, decodedQ.TokenOut)
	assert.Equal(t, 0, q.AmountIn.Cmp(decodedQ.AmountIn))
	assert.Equal(t, 0, q.AmountOut.Cmp(decodedQ.AmountOut))
	assert.Equal(t, q.StrategyHash, decodedQ.StrategyHash)
	assert.Equal(t, 0, q.Nonce.Cmp(decodedQ.Nonce))
	assert.Equal(t, 0, q.Expiry.Cmp(decodedQ.Expiry))
	assert.Equal(t, sig, decodedSig)
	assert.Equal(t, 0, minOut.Cmp(decodedMinOut))
}

func TestDecodeFillRejectsGarbageData(t *testing.T) {
	_, _, _, err := DecodeFill([]byte{0xde, 0xad, 0xbe, 0xef})
	assert.Error(t, err)
}
