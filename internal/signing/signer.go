// Package signing implements the Signer (component H): produces an
// EIP-712 typed-data signature over a quote, using the chain's signing key.
package signing

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"golang.org/x/sync/singleflight"

	"aquaquote/internal/apperr"
	"aquaquote/internal/chainscfg"
)

// Payload is the Quote type instance to sign. Field order and ABI types
// must byte-match the executor contract's type hash — see Sign.
type Payload struct {
	ChainID      int
	Executor     common.Address
	Maker        common.Address
	TokenIn      common.Address
	TokenOut     common.Address
	AmountIn     *big.Int
	AmountOut    *big.Int
	StrategyHash common.Hash
	Nonce        *big.Int
	Expiry       *big.Int
}

// Result carries the signed typed data alongside the raw signature, since
// the quote response returns both.
type Result struct {
	TypedData apitypes.TypedData
	Signature string
}

// Signer caches one signing identity per chainId. Initialization is
// single-flight per chain; reads are concurrent (§5 "the signer cache ...
// initialization is single-flight per key, reads are concurrent").
type Signer struct {
	registry *chainscfg.Registry

	mu    sync.RWMutex
	cache map[int]chainscfg.Chain

	group singleflight.Group
}

func New(registry *chainscfg.Registry) *Signer {
	return &Signer{
		registry: registry,
		cache:    make(map[int]chainscfg.Chain),
	}
}

func (s *Signer) resolveChain(chainID int) (chainscfg.Chain, error) {
	s.mu.RLock()
	chain, ok := s.cache[chainID]
	s.mu.RUnlock()
	if ok {
		return chain, nil
	}

	key := fmt.Sprintf("%d", chainID)
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		s.mu.RLock()
		if existing, ok := s.cache[chainID]; ok {
			s.mu.RUnlock()
			return existing, nil
		}
		s.mu.RUnlock()

		resolved, err := s.registry.Get(chainID)
		if err != nil {
			return chainscfg.Chain{}, err
		}

		s.mu.Lock()
		s.cache[chainID] = resolved
		s.mu.Unlock()
		return resolved, nil
	})
	if err != nil {
		return chainscfg.Chain{}, err
	}
	return v.(chainscfg.Chain), nil
}

// Sign builds the EIP-712 typed data for payload and signs it with the
// chain's signing key. The domain and type ordering are load-bearing: they
// must match the executor's own domain separator and type hash byte for
// byte or every fill reverts.
func (s *Signer) Sign(payload Payload) (*Result, error) {
	chain, err := s.resolveChain(payload.ChainID)
	if err != nil {
		return nil, err
	}

	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"Quote": {
				{Name: "maker", Type: "address"},
				{Name: "tokenIn", Type: "address"},
				{Name: "tokenOut", Type: "address"},
				{Name: "amountIn", Type: "uint256"},
				{Name: "amountOut", Type: "uint256"},
				{Name: "strategyHash", Type: "bytes32"},
				{Name: "nonce", Type: "uint256"},
				{Name: "expiry", Type: "uint256"},
			},
		},
		PrimaryType: "Quote",
		Domain: apitypes.TypedDataDomain{
			Name:              "AquaQuoteExecutor",
			Version:           "1",
			ChainId:           math.NewHexOrDecimal256(int64(payload.ChainID)),
			VerifyingContract: payload.Executor.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"maker":        payload.Maker.Hex(),
			"tokenIn":      payload.TokenIn.Hex(),
			"tokenOut":     payload.TokenOut.Hex(),
			"amountIn":     payload.AmountIn.String(),
			"amountOut":    payload.AmountOut.String(),
			"strategyHash": payload.StrategyHash.Hex(),
			"nonce":        payload.Nonce.String(),
			"expiry":       payload.Expiry.String(),
		},
	}

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "hashing EIP-712 domain", err)
	}
	messageHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "hashing EIP-712 message", err)
	}

	digest := crypto.Keccak256(
		[]byte{0x19, 0x01},
		domainSeparator,
		messageHash,
	)

	sig, err := crypto.Sign(digest, chain.SigningKey)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "signing quote", err)
	}
	// crypto.Sign returns v in [0,1]; EIP-712/ecrecover conventions expect
	// v in [27,28] in the 65th byte.
	sig[64] += 27

	return &Result{
		TypedData: typedData,
		Signature: hexutil.Encode(sig),
	}, nil
}
