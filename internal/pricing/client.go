// Package pricing implements the Pricing Client (component E): POSTs depth
// requests to the external pricing service under a per-request timeout.
package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"aquaquote/internal/apperr"
)

// requestsPerSecond bounds how fast this process calls the pricing service,
// independent of how many concurrent quote requests are in flight.
const requestsPerSecond = 20

// DepthPoint is one point on the venue's depth curve.
type DepthPoint struct {
	AmountInRaw  string       `json:"amountInRaw"`
	AmountOutRaw string       `json:"amountOutRaw"`
	Price        string       `json:"price"`
	ImpactBps    int          `json:"impactBps"`
	Provenance   []Provenance `json:"provenance"`
}

// Provenance names the venue (and optional fee tier) a depth point came from.
type Provenance struct {
	Venue   string `json:"venue"`
	FeeTier *string `json:"feeTier,omitempty"`
}

// Snapshot is the pricing service's response, decoded tolerant of the
// upstream sending provenance as a scalar, null, or missing entirely.
type Snapshot struct {
	AsOfMs          int64        `json:"asOfMs"`
	BlockNumber     *int64       `json:"blockNumber,omitempty"`
	MidPrice        string       `json:"midPrice"`
	DepthPoints     []DepthPoint `json:"depthPoints"`
	SourcesUsed     []string     `json:"sourcesUsed"`
	LatencyMs       int          `json:"latencyMs"`
	ConfidenceScore float64      `json:"confidenceScore"`
	Stale           bool         `json:"stale"`
	ReasonCodes     []string     `json:"reasonCodes"`
}

// DepthRequest is the payload POSTed to {pricingUrl}/depth.
type DepthRequest struct {
	ChainID    int    `json:"chainId"`
	SellToken  string `json:"sellToken"`
	BuyToken   string `json:"buyToken"`
	SellAmount string `json:"sellAmount"`
}

// Client requests depth snapshots over HTTP.
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

// RequestDepth POSTs to {pricingUrl}/depth and decodes the snapshot. Any
// network, status, or decode failure surfaces as PRICING_UPSTREAM_FAILED.
func (c *Client) RequestDepth(ctx context.Context, pricingURL string, req DepthRequest) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperr.Wrap(apperr.PricingUpstreamFailed, "waiting for pricing rate limiter", err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "encoding depth request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, pricingURL+"/depth", bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Wrap(apperr.PricingUpstreamFailed, "building depth request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, apperr.Wrap(apperr.PricingUpstreamFailed, "calling pricing service", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.PricingUpstreamFailed, "reading pricing response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.New(apperr.PricingUpstreamFailed, fmt.Sprintf("pricing service returned HTTP %d", resp.StatusCode))
	}

	var raw rawSnapshot
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, apperr.Wrap(apperr.PricingUpstreamFailed, "decoding pricing response", err)
	}
	return raw.normalize(), nil
}

// rawSnapshot mirrors Snapshot but leaves each DepthPoint's provenance as
// raw JSON, since upstream may send a scalar, null, or omit it entirely.
type rawSnapshot struct {
	AsOfMs          int64    `json:"asOfMs"`
	BlockNumber     *int64   `json:"blockNumber,omitempty"`
	MidPrice        string   `json:"midPrice"`
	DepthPoints     []rawDepthPoint `json:"depthPoints"`
	SourcesUsed     []string `json:"sourcesUsed"`
	LatencyMs       int      `json:"latencyMs"`
	ConfidenceScore float64  `json:"confidenceScore"`
	Stale           bool     `json:"stale"`
	ReasonCodes     []string `json:"reasonCodes"`
}

type rawDepthPoint struct {
	AmountInRaw  string          `json:"amountInRaw"`
	AmountOutRaw string          `json:"amountOutRaw"`
	Price        string          `json:"price"`
	ImpactBps    int             `json:"impactBps"`
	Provenance   json.RawMessage `json:"provenance"`
}

func (r rawSnapshot) normalize() *Snapshot {
	points := make([]DepthPoint, len(r.DepthPoints))
	for i, p := range r.DepthPoints {
		points[i] = DepthPoint{
			AmountInRaw:  p.AmountInRaw,
			AmountOutRaw: p.AmountOutRaw,
			Price:        p.Price,
			ImpactBps:    p.ImpactBps,
			Provenance:   normalizeProvenance(p.Provenance),
		}
	}
	return &Snapshot{
		AsOfMs:          r.AsOfMs,
		BlockNumber:     r.BlockNumber,
		MidPrice:        r.MidPrice,
		DepthPoints:     points,
		SourcesUsed:     r.SourcesUsed,
		LatencyMs:       r.LatencyMs,
		ConfidenceScore: r.ConfidenceScore,
		Stale:           r.Stale,
		ReasonCodes:     r.ReasonCodes,
	}
}

// normalizeProvenance tolerates upstream sending provenance as an array (the
// documented shape), a single object, or null/missing.
func normalizeProvenance(raw json.RawMessage) []Provenance {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var asArray []Provenance
	if err := json.Unmarshal(raw, &asArray); err == nil {
		return asArray
	}

	var single Provenance
	if err := json.Unmarshal(raw, &single); err == nil {
		return []Provenance{single}
	}

	return nil
}

// BuyAmountOrZero returns the first depth point's amountOutRaw, or "0" if
// there are no depth points.
func (s *Snapshot) BuyAmountOrZero() string {
	if len(s.DepthPoints) == 0 {
		return "0"
	}
	return s.DepthPoints[0].AmountOutRaw
}
