// Package abiutil loads and builds the ABI fragments this service needs,
// adapted from the teacher's util.LoadABI helper. Rather than shipping
// Hardhat artifact JSON files on disk for the handful of methods this
// service actually calls (ERC20 metadata reads, the executor's fill), the
// fragments are declared inline as ABI JSON and parsed on each call to
// ERC20Metadata or ExecutorFill.
package abiutil

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// erc20MetadataABI covers only the two read methods the token metadata
// cache needs.
const erc20MetadataABI = `[
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"type":"function"}
]`

// executorFillABI covers the single method the calldata assembler packs,
// matching the signature in §4.I step 14 / §6 "On-chain contract".
const executorFillABI = `[{
	"name":"fill",
	"type":"function",
	"inputs":[
		{"name":"q","type":"tuple","components":[
			{"name":"maker","type":"address"},
			{"name":"tokenIn","type":"address"},
			{"name":"tokenOut","type":"address"},
			{"name":"amountIn","type":"uint256"},
			{"name":"amountOut","type":"uint256"},
			{"name":"strategyHash","type":"bytes32"},
			{"name":"nonce","type":"uint256"},
			{"name":"expiry","type":"uint256"}
		]},
		{"name":"sig","type":"bytes"},
		{"name":"minAmountOutNet","type":"uint256"}
	],
	"outputs":[]
}]`

// ERC20Metadata returns the parsed decimals()/symbol() ABI.
func ERC20Metadata() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(erc20MetadataABI))
	if err != nil {
		panic(fmt.Sprintf("abiutil: invalid embedded ERC20 metadata ABI: %v", err))
	}
	return parsed
}

// ExecutorFill returns the parsed fill(...) ABI used by the calldata
// assembler.
func ExecutorFill() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(executorFillABI))
	if err != nil {
		panic(fmt.Sprintf("abiutil: invalid embedded executor ABI: %v", err))
	}
	return parsed
}

// Load reads an arbitrary ABI JSON file from disk, for operators who want
// to point the service at a generated artifact instead of the embedded
// fragments above (e.g. a non-standard ERC20 or a newer executor version).
func Load(path string) (abi.ABI, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("reading ABI file %s: %w", path, err)
	}
	parsed, err := abi.JSON(strings.NewReader(string(data)))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parsing ABI file %s: %w", path, err)
	}
	return parsed, nil
}
