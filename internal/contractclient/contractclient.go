// Package contractclient is a thin read-only JSON-RPC contract caller,
// adapted from the teacher's ContractClient: it packs a method call, issues
// it as an eth_call, and unpacks the result. This service never sends
// transactions (its only on-chain calls are eth_call reads of ERC-20 token
// metadata) so Send/ParseReceipt have no place here.
package contractclient

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Caller is the subset of bind.ContractCaller / ethclient.Client this
// package needs, kept narrow so tests can fake it without a live node.
type Caller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Client wraps one contract address + ABI pair on a single chain.
type Client struct {
	caller  Caller
	address common.Address
	abi     abi.ABI
}

// New returns a Client bound to address using abi for encoding/decoding.
func New(caller Caller, address common.Address, contractABI abi.ABI) *Client {
	return &Client{caller: caller, address: address, abi: contractABI}
}

func (c *Client) Address() common.Address { return c.address }

// Call packs method(args...), issues an eth_call against the bound
// address, and unpacks the result into the ABI's declared output types.
func (c *Client) Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	input, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", method, err)
	}

	output, err := c.caller.CallContract(ctx, ethereum.CallMsg{
		To:   &c.address,
		Data: input,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("calling %s on %s: %w", method, c.address.Hex(), err)
	}

	result, err := c.abi.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("unpacking %s: %w", method, err)
	}
	return result, nil
}
