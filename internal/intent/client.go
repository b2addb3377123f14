// Package intent implements the Strategy Client (component F): POSTs
// intent requests to the external strategy service under a per-request
// timeout.
package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"aquaquote/internal/pricing"

	"aquaquote/internal/apperr"
)

// requestsPerSecond bounds how fast this process calls the strategy
// service, independent of how many concurrent quote requests are in flight.
const requestsPerSecond = 20

// StrategyRef identifies the strategy the request is evaluated against.
type StrategyRef struct {
	ID      string          `json:"id"`
	Version int             `json:"version"`
	Hash    string          `json:"hash"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Request is the payload POSTed to {strategyUrl}/intent.
type Request struct {
	ChainID    int               `json:"chainId"`
	Maker      string            `json:"maker"`
	Executor   string            `json:"executor"`
	Taker      string            `json:"taker"`
	SellToken  string            `json:"sellToken"`
	BuyToken   string            `json:"buyToken"`
	SellAmount string            `json:"sellAmount"`
	Recipient  string            `json:"recipient"`
	Pricing    *pricing.Snapshot `json:"pricingSnapshot"`
	Strategy   StrategyRef       `json:"strategy"`
}

// PricingEcho is the subset of pricing provenance the strategy service
// echoes back alongside its intent.
type PricingEcho struct {
	AsOfMs          int64    `json:"asOfMs"`
	ConfidenceScore float64  `json:"confidenceScore"`
	Stale           bool     `json:"stale"`
	SourcesUsed     []string `json:"sourcesUsed"`
}

// Intent is the strategy service's response.
type Intent struct {
	Strategy  StrategyEcho    `json:"strategy"`
	BuyAmount string          `json:"buyAmount"`
	FeeBps    int             `json:"feeBps"`
	FeeAmount string          `json:"feeAmount"`
	Expiry    json.RawMessage `json:"expiry"`
	Pricing   PricingEcho     `json:"pricing"`
}

// StrategyEcho is the strategy identity echoed back in an Intent.
type StrategyEcho struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
	Hash    string `json:"hash"`
}

// Client requests strategy intents over HTTP.
type Client struct {
	http    *http.Client
	timeout time.Duration
	limiter *rate.Limiter
}

func New(timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{},
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

// RequestIntent POSTs to {strategyUrl}/intent. Any network, status, or
// decode failure surfaces as STRATEGY_UPSTREAM_FAILED.
func (c *Client) RequestIntent(ctx context.Context, strategyURL string, req Request) (*Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperr.Wrap(apperr.StrategyUpstreamFailed, "waiting for strategy rate limiter", err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "encoding intent request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strategyURL+"/intent", bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Wrap(apperr.StrategyUpstreamFailed, "building intent request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, apperr.Wrap(apperr.StrategyUpstreamFailed, "calling strategy service", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.StrategyUpstreamFailed, "reading strategy response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.New(apperr.StrategyUpstreamFailed, fmt.Sprintf("strategy service returned HTTP %d", resp.StatusCode))
	}

	var out Intent
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, apperr.Wrap(apperr.StrategyUpstreamFailed, "decoding strategy response", err)
	}
	return &out, nil
}
