// Package addr collects the pure address-handling helpers shared across
// the pipeline: checksum validation and canonical pair ordering.
package addr

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Checksum validates that s is a well-formed 20-byte hex address and
// returns it in EIP-55 checksummed form. Addresses that aren't valid hex of
// the right length are rejected rather than silently coerced.
func Checksum(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%q is not a valid 20-byte hex address", s)
	}
	return common.HexToAddress(s), nil
}

// Canon returns (token0, token1, aWasToken0) for a pair of addresses,
// ordering them by lowercase hex so that canon(a, b) == canon(b, a) up to
// the aWasToken0 flag. It is pure and idempotent: running it twice on its
// own output reproduces the same ordering.
func Canon(a, b common.Address) (token0, token1 common.Address, aWasToken0 bool) {
	al := strings.ToLower(a.Hex())
	bl := strings.ToLower(b.Hex())
	if al <= bl {
		return a, b, true
	}
	return b, a, false
}
