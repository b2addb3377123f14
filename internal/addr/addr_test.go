package addr

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestChecksum(t *testing.T) {
	t.Run("valid address checksums", func(t *testing.T) {
		got, err := Checksum("0xb97ef9ef8734c71904d8002f8b6bc66dd9c48a6e")
		assert.NoError(t, err)
		assert.Equal(t, common.HexToAddress("0xb97ef9ef8734c71904d8002f8b6bc66dd9c48a6e"), got)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		_, err := Checksum("not-an-address")
		assert.Error(t, err)
	})
}

func TestCanon(t *testing.T) {
	a := common.HexToAddress("0xB31f66AA3C1e785363F0875A1B74E27b85FD66c7")
	b := common.HexToAddress("0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E")

	t0, t1, aIs0 := Canon(a, b)
	t0r, t1r, bIs0 := Canon(b, a)

	assert.Equal(t, t0, t0r, "canon(a,b) must equal canon(b,a) on token0")
	assert.Equal(t, t1, t1r, "canon(a,b) must equal canon(b,a) on token1")
	assert.True(t, aIs0)
	assert.False(t, bIs0)

	// idempotence: canonicalizing an already-canonical pair is a no-op
	t0again, t1again, _ := Canon(t0, t1)
	assert.Equal(t, t0, t0again)
	assert.Equal(t, t1, t1again)
}
