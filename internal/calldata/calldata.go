// Package calldata assembles and decodes the executor's fill(...) calldata
// (§4.I step 14 / §6 "on-chain contract").
package calldata

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"aquaquote/internal/abiutil"
	"aquaquote/internal/apperr"
)

// FillQuote mirrors the executor's Quote tuple field order exactly.
type FillQuote struct {
	Maker        common.Address
	TokenIn      common.Address
	TokenOut     common.Address
	AmountIn     *big.Int
	AmountOut    *big.Int
	StrategyHash [32]byte
	Nonce        *big.Int
	Expiry       *big.Int
}

// Transaction is the {to, data, value} tuple a response carries.
type Transaction struct {
	To    common.Address
	Data  []byte
	Value string
}

// BuildFill ABI-encodes a call to fill(q, sig, minAmountOutNet).
func BuildFill(executor common.Address, q FillQuote, signature []byte, minAmountOutNet *big.Int) (*Transaction, error) {
	fill := abiutil.ExecutorFill()

	data, err := fill.Pack("fill", q, signature, minAmountOutNet)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "packing fill calldata", err)
	}

	return &Transaction{To: executor, Data: data, Value: "0"}, nil
}

// DecodeFill is the reverse of BuildFill: it reads back the Quote tuple,
// signature, and minAmountOutNet encoded in calldata produced by a fill
// call. Used to verify the round trip holds (calldata decodes to exactly
// what was signed).
func DecodeFill(data []byte) (FillQuote, []byte, *big.Int, error) {
	fill := abiutil.ExecutorFill()

	if len(data) < 4 {
		return FillQuote{}, nil, nil, fmt.Errorf("calldata too short: %d bytes", len(data))
	}
	method, err := fill.MethodById(data[:4])
	if err != nil {
		return FillQuote{}, nil, nil, fmt.Errorf("unrecognized calldata selector: %w", err)
	}

	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return FillQuote{}, nil, nil, fmt.Errorf("unpacking fill calldata: %w", err)
	}
	if len(args) != 3 {
		return FillQuote{}, nil, nil, fmt.Errorf("expected 3 fill arguments, got %d", len(args))
	}

	// The tuple unpacks into an anonymous struct generated by the ABI
	// package's reflection; ConvertType copies it into FillQuote
	// positionally, field order matching the tuple's component order.
	q, ok := abi.ConvertType(args[0], FillQuote{}).(FillQuote)
	if !ok {
		return FillQuote{}, nil, nil, fmt.Errorf("unexpected tuple shape for fill argument q")
	}
	sig, ok := args[1].([]byte)
	if !ok {
		return FillQuote{}, nil, nil, fmt.Errorf("unexpected type for fill argument sig")
	}
	minOut, ok := args[2].(*big.Int)
	if !ok {
		return FillQuote{}, nil, nil, fmt.Errorf("unexpected type for fill argument minAmountOutNet")
	}

	return q, sig, minOut, nil
}
