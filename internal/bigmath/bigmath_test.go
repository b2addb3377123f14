package bigmath

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeUint(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantOk  bool
	}{
		{"350000000", "350000000", true},
		{"350000000.999", "350000000", true},
		{"", "0", true},
		{"-5", "0", true},
		{"-5.5", "0", true},
		{"0", "0", true},
		{"abc", "", false},
		{"12.3.4", "", false},
	}

	for _, c := range cases {
		got, ok := NormalizeUint(c.in)
		assert.Equal(t, c.wantOk, ok, "input %q", c.in)
		if c.wantOk {
			assert.Equal(t, c.want, got.String(), "input %q", c.in)
		}
	}
}

func TestClampBps(t *testing.T) {
	assert.Equal(t, 0, ClampBps(-1))
	assert.Equal(t, 9999, ClampBps(10000))
	assert.Equal(t, 25, ClampBps(25))
}

func TestGrossFromNet(t *testing.T) {
	t.Run("zero fee returns net unchanged", func(t *testing.T) {
		net := big.NewInt(350000000)
		got := GrossFromNet(net, 0)
		assert.Equal(t, net.String(), got.String())
	})

	t.Run("S2 executor-fee scaling", func(t *testing.T) {
		net := big.NewInt(350000000)
		got := GrossFromNet(net, 25)
		assert.Equal(t, "350877193", got.String())
	})

	t.Run("zero net stays zero regardless of fee", func(t *testing.T) {
		got := GrossFromNet(big.NewInt(0), 500)
		assert.Equal(t, "0", got.String())
	})

	t.Run("invariant 3: floor(gross*(10000-fee)/10000) >= net for any fee up to f", func(t *testing.T) {
		net := big.NewInt(123456789)
		for fee := 0; fee <= 9999; fee += 137 {
			gross := GrossFromNet(net, fee)
			back := new(big.Int).Mul(gross, big.NewInt(int64(10000-fee)))
			back.Div(back, big.NewInt(10000))
			assert.True(t, back.Cmp(net) >= 0, "fee=%d gross=%s back=%s net=%s", fee, gross, back, net)
		}
	})
}

func TestNormalizeExpiry(t *testing.T) {
	assert.Equal(t, int64(1736000000), NormalizeExpiry(big.NewInt(1736000000000)))
	assert.Equal(t, int64(1736000000), NormalizeExpiry(big.NewInt(1736000000)))
	assert.Equal(t, int64(0), NormalizeExpiry(big.NewInt(-5)))
	assert.Equal(t, int64(0), NormalizeExpiry(big.NewInt(0)))
}
