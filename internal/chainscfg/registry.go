// Package chainscfg implements the Chains Registry (component A): it loads
// per-chain configuration from a JSON file, resolves each chain's signing
// key from the environment, and derives the maker address from it.
package chainscfg

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"aquaquote/internal/apperr"
)

// fileEntry is one element of the chains JSON map, as read from disk.
type fileEntry struct {
	Name           string `json:"name"`
	RPCURL         string `json:"rpcUrl"`
	Aqua           string `json:"aqua"`
	Executor       string `json:"executor"`
	SigningKeyEnv  string `json:"signingKeyEnv"`
	ExecutorFeeBps *int   `json:"executorFeeBps,omitempty"`
}

// Chain is the resolved, in-memory chain record. SigningKey is deliberately
// unexported-by-convention (callers should use Record for anything that
// crosses the process boundary) but it is a public field because package
// signing needs it; never log or marshal a Chain directly.
type Chain struct {
	ChainID         int
	Name            string
	RPCURL          string
	ExecutorAddress common.Address
	AquaAddress     common.Address
	MakerAddress    common.Address
	SigningKey      *ecdsa.PrivateKey
	PricingURL      string
	StrategyURL     string
	ExecutorFeeBps  int
}

// Record is the secret-stripped view of a Chain, safe to render over HTTP.
type Record struct {
	ChainID         int            `json:"chainId"`
	Name            string         `json:"name"`
	ExecutorAddress common.Address `json:"executorAddress"`
	AquaAddress     common.Address `json:"aquaAddress"`
	MakerAddress    common.Address `json:"makerAddress"`
	ExecutorFeeBps  int            `json:"executorFeeBps"`
}

func (c Chain) Record() Record {
	return Record{
		ChainID:         c.ChainID,
		Name:            c.Name,
		ExecutorAddress: c.ExecutorAddress,
		AquaAddress:     c.AquaAddress,
		MakerAddress:    c.MakerAddress,
		ExecutorFeeBps:  c.ExecutorFeeBps,
	}
}

// Registry is the read-only, in-memory chain configuration store.
type Registry struct {
	chains map[int]Chain
}

// Load reads the chains JSON file at path, resolving each entry's signing
// key from the environment variable it names and the global pricing/
// strategy URLs from PRICING_URL/STRATEGY_URL.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading chains config %s: %w", path, err)
	}

	var raw map[string]fileEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing chains config %s: %w", path, err)
	}

	pricingURL := os.Getenv("PRICING_URL")
	strategyURL := os.Getenv("STRATEGY_URL")

	chains := make(map[int]Chain, len(raw))
	for idStr, entry := range raw {
		var chainID int
		if _, err := fmt.Sscanf(idStr, "%d", &chainID); err != nil {
			return nil, fmt.Errorf("chains config key %q is not a chain id: %w", idStr, err)
		}

		keyHex := os.Getenv(entry.SigningKeyEnv)
		if keyHex == "" {
			return nil, fmt.Errorf("chain %d: env var %s is not set", chainID, entry.SigningKeyEnv)
		}
		signingKey, err := crypto.HexToECDSA(trimHexPrefix(keyHex))
		if err != nil {
			return nil, fmt.Errorf("chain %d: invalid signing key in %s: %w", chainID, entry.SigningKeyEnv, err)
		}
		makerAddr := crypto.PubkeyToAddress(signingKey.PublicKey)

		executorAddr, err := mustChecksum(entry.Executor)
		if err != nil {
			return nil, fmt.Errorf("chain %d: executor address: %w", chainID, err)
		}
		aquaAddr, err := mustChecksum(entry.Aqua)
		if err != nil {
			return nil, fmt.Errorf("chain %d: aqua address: %w", chainID, err)
		}

		feeBps := 0
		if entry.ExecutorFeeBps != nil {
			feeBps = *entry.ExecutorFeeBps
		}
		if feeBps < 0 || feeBps > 9999 {
			return nil, fmt.Errorf("chain %d: executorFeeBps %d out of range [0,9999]", chainID, feeBps)
		}

		chains[chainID] = Chain{
			ChainID:         chainID,
			Name:            entry.Name,
			RPCURL:          entry.RPCURL,
			ExecutorAddress: executorAddr,
			AquaAddress:     aquaAddr,
			MakerAddress:    makerAddr,
			SigningKey:      signingKey,
			PricingURL:      pricingURL,
			StrategyURL:     strategyURL,
			ExecutorFeeBps:  feeBps,
		}
	}

	return &Registry{chains: chains}, nil
}

// Get returns the resolved chain record, or CHAIN_NOT_SUPPORTED.
func (r *Registry) Get(chainID int) (Chain, error) {
	c, ok := r.chains[chainID]
	if !ok {
		return Chain{}, apperr.New(apperr.ChainNotSupported, fmt.Sprintf("chain %d is not configured", chainID))
	}
	return c, nil
}

// List returns every configured chain with secrets stripped.
func (r *Registry) List() []Record {
	out := make([]Record, 0, len(r.chains))
	for _, c := range r.chains {
		out = append(out, c.Record())
	}
	return out
}

func mustChecksum(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%q is not a valid address", s)
	}
	return common.HexToAddress(s), nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
