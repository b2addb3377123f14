package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"

	"aquaquote/internal/addr"
	"aquaquote/internal/apperr"
	"aquaquote/internal/bigmath"
	"aquaquote/internal/calldata"
	"aquaquote/internal/chainscfg"
	"aquaquote/internal/intent"
	"aquaquote/internal/nonce"
	"aquaquote/internal/pairs"
	"aquaquote/internal/pricing"
	"aquaquote/internal/signing"
	"aquaquote/internal/strategies"
	"aquaquote/internal/tokens"
)

// PriceRequest is the getPrice/createQuote shared input.
type PriceRequest struct {
	ChainID    int
	SellToken  string
	BuyToken   string
	SellAmount string
}

// QuoteRequest is createQuote's input: a PriceRequest plus taker/recipient.
type QuoteRequest struct {
	PriceRequest
	Taker     string
	Recipient string
}

// PriceResult is getPrice's response.
type PriceResult struct {
	ChainID    int
	SellToken  common.Address
	BuyToken   common.Address
	SellAmount string
	BuyAmount  string
	Pricing    *pricing.Snapshot
}

// StrategySummary is the {id, version, hash} triple returned in responses.
type StrategySummary struct {
	ID      string
	Version int
	Hash    string
}

// PricingSummary is the subset of a snapshot's provenance returned in
// responses.
type PricingSummary struct {
	AsOfMs          int64
	ConfidenceScore float64
	Stale           bool
	SourcesUsed     []string
}

// QuoteResult is createQuote's response.
type QuoteResult struct {
	QuoteID    string
	ChainID    int
	Maker      common.Address
	Taker      common.Address
	Recipient  common.Address
	Executor   common.Address
	Strategy   StrategySummary
	SellToken  common.Address
	BuyToken   common.Address
	SellAmount string
	BuyAmount  string
	FeeBps     int
	FeeAmount  string
	Expiry     int64
	Nonce      string
	TypedData  json.RawMessage
	Signature  string
	Tx         calldata.Transaction
	Pricing    PricingSummary
}

// Orchestrator composes components A-H behind getPrice/createQuote/
// getQuoteById, per §4.I.
type Orchestrator struct {
	registry    *chainscfg.Registry
	chainState  *strategies.Store
	pairs       *pairs.Store
	tokens      *tokens.Cache
	pricing     *pricing.Client
	intent      *intent.Client
	nonce       *nonce.Allocator
	signer      *signing.Signer
	store       *Store
}

func New(
	registry *chainscfg.Registry,
	chainState *strategies.Store,
	pairStore *pairs.Store,
	tokenCache *tokens.Cache,
	pricingClient *pricing.Client,
	intentClient *intent.Client,
	nonceAllocator *nonce.Allocator,
	signer *signing.Signer,
	store *Store,
) *Orchestrator {
	return &Orchestrator{
		registry:   registry,
		chainState: chainState,
		pairs:      pairStore,
		tokens:     tokenCache,
		pricing:    pricingClient,
		intent:     intentClient,
		nonce:      nonceAllocator,
		signer:     signer,
		store:      store,
	}
}

// GetPrice implements the indicative price path: §4.I steps 1-6.
func (o *Orchestrator) GetPrice(ctx context.Context, req PriceRequest) (*PriceResult, *chainscfg.Chain, *pairs.Record, error) {
	chain, err := o.registry.Get(req.ChainID)
	if err != nil {
		return nil, nil, nil, err
	}

	state, err := o.chainState.GetChainState(req.ChainID)
	if err != nil {
		return nil, nil, nil, err
	}
	if state.Paused {
		return nil, nil, nil, apperr.New(apperr.ChainPaused, fmt.Sprintf("chain %d is paused", req.ChainID))
	}

	pairRec, err := o.pairs.EnsureEnabled(req.ChainID, req.SellToken, req.BuyToken)
	if err != nil {
		return nil, nil, nil, err
	}

	sellAddr, err := addr.Checksum(req.SellToken)
	if err != nil {
		return nil, nil, nil, apperr.Wrap(apperr.InvalidRequest, "sellToken is not a valid address", err)
	}
	buyAddr, err := addr.Checksum(req.BuyToken)
	if err != nil {
		return nil, nil, nil, apperr.Wrap(apperr.InvalidRequest, "buyToken is not a valid address", err)
	}

	if _, _, err := o.tokens.EnsureBoth(ctx, req.ChainID, sellAddr, buyAddr); err != nil {
		return nil, nil, nil, err
	}

	sellAmount, ok := bigmath.NormalizeUint(req.SellAmount)
	if !ok {
		return nil, nil, nil, apperr.New(apperr.InvalidAmount, "sellAmount is not a valid unsigned integer")
	}

	snapshot, err := o.pricing.RequestDepth(ctx, chain.PricingURL, pricing.DepthRequest{
		ChainID:    req.ChainID,
		SellToken:  sellAddr.Hex(),
		BuyToken:   buyAddr.Hex(),
		SellAmount: sellAmount.String(),
	})
	if err != nil {
		return nil, nil, nil, err
	}

	result := &PriceResult{
		ChainID:    req.ChainID,
		SellToken:  sellAddr,
		BuyToken:   buyAddr,
		SellAmount: sellAmount.String(),
		BuyAmount:  snapshot.BuyAmountOrZero(),
		Pricing:    snapshot,
	}
	return result, &chain, pairRec, nil
}

// CreateQuote implements the firm quote path: §4.I steps 1-15. Any failure
// before nonce allocation (step 11) leaves no side effect; failures at
// steps 13-15 leave an allocated nonce burned with no Quote Record.
func (o *Orchestrator) CreateQuote(ctx context.Context, req QuoteRequest) (*QuoteResult, error) {
	priced, chain, _, err := o.GetPrice(ctx, req.PriceRequest)
	if err != nil {
		return nil, err
	}

	taker, err := addr.Checksum(req.Taker)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidRequest, "taker is not a valid address", err)
	}
	recipient := taker
	if req.Recipient != "" {
		recipient, err = addr.Checksum(req.Recipient)
		if err != nil {
			return nil, apperr.Wrap(apperr.InvalidRequest, "recipient is not a valid address", err)
		}
	}

	strategy, err := o.chainState.GetActiveStrategy(req.ChainID)
	if err != nil {
		return nil, err
	}

	intentResp, err := o.intent.RequestIntent(ctx, chain.StrategyURL, intent.Request{
		ChainID:    req.ChainID,
		Maker:      chain.MakerAddress.Hex(),
		Executor:   chain.ExecutorAddress.Hex(),
		Taker:      taker.Hex(),
		SellToken:  priced.SellToken.Hex(),
		BuyToken:   priced.BuyToken.Hex(),
		SellAmount: priced.SellAmount,
		Recipient:  recipient.Hex(),
		Pricing:    priced.Pricing,
		Strategy: intent.StrategyRef{
			ID:      strategy.ID,
			Version: strategy.Version,
			Hash:    strategy.Hash,
			Params:  strategy.Params,
		},
	})
	if err != nil {
		return nil, err
	}

	netOut, ok := bigmath.NormalizeUint(intentResp.BuyAmount)
	if !ok {
		return nil, apperr.New(apperr.InvalidAmount, "strategy returned a non-numeric buyAmount")
	}
	// feeBps is the strategy's informational fee figure, stored alongside
	// the quote but never used to compute the signed/gross amount: the
	// gross-out math only needs to compensate for the executor's on-chain
	// skim, which is a chain-config constant, not anything the strategy
	// reports.
	feeBps := bigmath.ClampBps(intentResp.FeeBps)
	executorFeeBps := bigmath.ClampBps(chain.ExecutorFeeBps)
	grossOut := bigmath.GrossFromNet(netOut, executorFeeBps)

	expiryRaw, ok := parseExpiry(intentResp.Expiry)
	if !ok {
		return nil, apperr.New(apperr.InvalidAmount, "strategy returned a non-numeric expiry")
	}
	expiry := bigmath.NormalizeExpiry(expiryRaw)

	// Step 11: allocate the nonce. This commits regardless of what happens
	// downstream.
	nonceStr, err := o.nonce.Allocate(req.ChainID, chain.MakerAddress.Hex())
	if err != nil {
		return nil, err
	}
	nonceInt, _ := new(big.Int).SetString(nonceStr, 10)

	quoteID := uuid.NewString()

	sellAmountInt, _ := new(big.Int).SetString(priced.SellAmount, 10)
	strategyHash := parseHash(strategy.Hash)

	signResult, err := o.signer.Sign(signing.Payload{
		ChainID:      req.ChainID,
		Executor:     chain.ExecutorAddress,
		Maker:        chain.MakerAddress,
		TokenIn:      priced.SellToken,
		TokenOut:     priced.BuyToken,
		AmountIn:     sellAmountInt,
		AmountOut:    grossOut,
		StrategyHash: strategyHash,
		Nonce:        nonceInt,
		Expiry:       big.NewInt(expiry),
	})
	if err != nil {
		return nil, err
	}

	sigBytes := common.FromHex(signResult.Signature)
	tx, err := calldata.BuildFill(chain.ExecutorAddress, calldata.FillQuote{
		Maker:        chain.MakerAddress,
		TokenIn:      priced.SellToken,
		TokenOut:     priced.BuyToken,
		AmountIn:     sellAmountInt,
		AmountOut:    grossOut,
		StrategyHash: strategyHash,
		Nonce:        nonceInt,
		Expiry:       big.NewInt(expiry),
	}, sigBytes, netOut)
	if err != nil {
		return nil, err
	}

	typedDataJSON, err := json.Marshal(signResult.TypedData)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "encoding typed data", err)
	}
	sourcesJSON, err := json.Marshal(intentResp.Pricing.SourcesUsed)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "encoding pricing sources", err)
	}

	rec := &Record{
		QuoteID:           quoteID,
		ChainID:           req.ChainID,
		Maker:             chain.MakerAddress.Hex(),
		Taker:             taker.Hex(),
		Recipient:         recipient.Hex(),
		Executor:          chain.ExecutorAddress.Hex(),
		StrategyID:        strategy.ID,
		StrategyVersion:   strategy.Version,
		StrategyHash:      strategy.Hash,
		SellToken:         priced.SellToken.Hex(),
		BuyToken:          priced.BuyToken.Hex(),
		SellAmount:        priced.SellAmount,
		BuyAmount:         netOut.String(),
		FeeBps:            feeBps,
		FeeAmount:         intentResp.FeeAmount,
		Nonce:             nonceStr,
		Expiry:            expiry,
		TypedData:         typedDataJSON,
		Signature:         signResult.Signature,
		TxTo:              tx.To.Hex(),
		TxData:            hexutil.Encode(tx.Data),
		TxValue:           tx.Value,
		Status:            StatusIssued,
		PricingAsOfMs:     intentResp.Pricing.AsOfMs,
		PricingConfidence: intentResp.Pricing.ConfidenceScore,
		PricingStale:      intentResp.Pricing.Stale,
		PricingSources:    sourcesJSON,
	}
	if err := o.store.Insert(rec); err != nil {
		return nil, err
	}

	return &QuoteResult{
		QuoteID:    quoteID,
		ChainID:    req.ChainID,
		Maker:      chain.MakerAddress,
		Taker:      taker,
		Recipient:  recipient,
		Executor:   chain.ExecutorAddress,
		Strategy:   StrategySummary{ID: strategy.ID, Version: strategy.Version, Hash: strategy.Hash},
		SellToken:  priced.SellToken,
		BuyToken:   priced.BuyToken,
		SellAmount: priced.SellAmount,
		BuyAmount:  netOut.String(),
		FeeBps:     feeBps,
		FeeAmount:  intentResp.FeeAmount,
		Expiry:     expiry,
		Nonce:      nonceStr,
		TypedData:  typedDataJSON,
		Signature:  signResult.Signature,
		Tx:         *tx,
		Pricing: PricingSummary{
			AsOfMs:          intentResp.Pricing.AsOfMs,
			ConfidenceScore: intentResp.Pricing.ConfidenceScore,
			Stale:           intentResp.Pricing.Stale,
			SourcesUsed:     intentResp.Pricing.SourcesUsed,
		},
	}, nil
}

// GetQuoteByID returns the persisted record verbatim.
func (o *Orchestrator) GetQuoteByID(quoteID string) (*Record, error) {
	return o.store.FindByID(quoteID)
}

// parseExpiry accepts the strategy intent's expiry field as either a JSON
// number or a numeric string.
func parseExpiry(raw json.RawMessage) (*big.Int, bool) {
	var asNumber json.Number
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		n, ok := new(big.Int).SetString(asNumber.String(), 10)
		return n, ok
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		n, ok := new(big.Int).SetString(asString, 10)
		return n, ok
	}
	return nil, false
}

func parseHash(s string) [32]byte {
	var out [32]byte
	b := common.FromHex(s)
	copy(out[32-len(b):], b)
	return out
}
